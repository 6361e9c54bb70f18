// Package mq публикует события gapfill в RabbitMQ.
//
// Структура:
//   - connection.go — AMQP соединение с переоткрытием по требованию
//   - topology.go   — exchange и очередь для отчётов
//   - publisher.go  — публикация report.finished
//
// Очередь reports.finished читают внешние потребители (дашборды,
// алертинг). Публикация не обязательна: без RABBITMQ_URL gapfill
// работает только с Teams и консолью.
package mq
