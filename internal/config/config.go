// Package config загружает конфигурацию gapfill из config.json или config.yaml.
//
// Ключи файла совместимы с исходным форматом задания (conexao_banco,
// objetos_banco.processos, notificacoes.teams.webhook_url). Переменные
// окружения перекрывают значения из файла.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/gapfill/internal/domain"
)

// DefaultPath — путь к конфигурации по умолчанию.
const DefaultPath = "config.json"

// webhookPlaceholder — значение из шаблона конфигурации, означающее "не настроено".
const webhookPlaceholder = "URL_DO_SEU_WEBHOOK_DO_TEAMS_AQUI"

// Значения по умолчанию.
const (
	DefaultListen   = ":8080"
	DefaultExchange = "gapfill.reports"
)

// Ошибки конфигурации.
var (
	// ErrUnsupportedDriver — драйвер БД не поддерживается.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrMissingDatabase — не заданы параметры подключения.
	ErrMissingDatabase = errors.New("database connection is not configured")

	// ErrInvalidTimezone — неизвестная таймзона.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Config — корневая конфигурация.
type Config struct {
	Database      Database      `json:"conexao_banco" yaml:"conexao_banco"`
	Objects       Objects       `json:"objetos_banco" yaml:"objetos_banco"`
	Notifications Notifications `json:"notificacoes" yaml:"notificacoes"`
	Schedule      Schedule      `json:"agendamento" yaml:"agendamento"`
	Metrics       Metrics       `json:"metricas" yaml:"metricas"`
}

// Database — параметры подключения к PostgreSQL.
type Database struct {
	Driver   string `json:"driver" yaml:"driver"`
	Host     string `json:"servidor" yaml:"servidor"`
	Name     string `json:"banco_de_dados" yaml:"banco_de_dados"`
	User     string `json:"usuario" yaml:"usuario"`
	Password string `json:"senha" yaml:"senha"`
	SSLMode  string `json:"sslmode" yaml:"sslmode"`

	// URL — готовый DSN. Если задан, остальные поля игнорируются.
	URL string `json:"url" yaml:"url"`
}

// Objects — объекты БД, с которыми работает gapfill.
type Objects struct {
	Processes []domain.ProcessDefinition `json:"processos" yaml:"processos"`
}

// Notifications — получатели уведомлений.
type Notifications struct {
	Teams Teams `json:"teams" yaml:"teams"`
	AMQP  AMQP  `json:"amqp" yaml:"amqp"`
}

// Teams — incoming webhook Microsoft Teams.
type Teams struct {
	WebhookURL string `json:"webhook_url" yaml:"webhook_url"`
}

// AMQP — публикация отчётов в RabbitMQ.
type AMQP struct {
	URL      string `json:"url" yaml:"url"`
	Exchange string `json:"exchange" yaml:"exchange"`
}

// Schedule — расписание для режима serve.
type Schedule struct {
	// Cron — стандартное 5-польное выражение, например "0 6 * * *".
	Cron string `json:"cron" yaml:"cron"`

	// Timezone — IANA таймзона для cron и для определения "сегодня".
	// Пусто — локальная таймзона.
	Timezone string `json:"timezone" yaml:"timezone"`
}

// Metrics — экспорт метрик.
type Metrics struct {
	// PushgatewayURL — куда отправлять метрики после разового запуска.
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`

	// Listen — адрес HTTP-сервера /healthz и /metrics в режиме serve.
	Listen string `json:"listen" yaml:"listen"`
}

// Load читает файл, применяет переменные окружения и проверяет результат.
//
// Файлы .json разбираются encoding/json, остальные — yaml.v3.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// applyEnv перекрывает значения файла переменными окружения.
func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"DB_URL", &c.Database.URL},
		{"TEAMS_WEBHOOK_URL", &c.Notifications.Teams.WebhookURL},
		{"RABBITMQ_URL", &c.Notifications.AMQP.URL},
		{"GAPFILL_CRON", &c.Schedule.Cron},
		{"GAPFILL_TIMEZONE", &c.Schedule.Timezone},
		{"GAPFILL_LISTEN", &c.Metrics.Listen},
		{"PUSHGATEWAY_URL", &c.Metrics.PushgatewayURL},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Notifications.Teams.WebhookURL == webhookPlaceholder {
		c.Notifications.Teams.WebhookURL = ""
	}
	if c.Notifications.AMQP.Exchange == "" {
		c.Notifications.AMQP.Exchange = DefaultExchange
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultListen
	}
}

// validate проверяет параметры, без которых запуск невозможен.
// Пустой список процессов здесь не ошибка: о нём сообщает reconciler.
func (c *Config) validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "", "postgres", "postgresql", "pgx":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Database.Driver)
	}

	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		return fmt.Errorf("%w: servidor and banco_de_dados (or DB_URL) are required", ErrMissingDatabase)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Processes возвращает список определений процессов.
func (c *Config) Processes() []domain.ProcessDefinition {
	return c.Objects.Processes
}

// Location возвращает таймзону из Schedule.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, c.Schedule.Timezone, err)
	}
	return loc, nil
}

// DSN возвращает строку подключения PostgreSQL.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host,
		Path:   "/" + d.Name,
	}
	switch {
	case d.User != "" && d.Password != "":
		u.User = url.UserPassword(d.User, d.Password)
	case d.User != "":
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// Redacted возвращает DSN без пароля для логов.
func (d Database) Redacted() string {
	u, err := url.Parse(d.DSN())
	if err != nil {
		return "<unparseable dsn>"
	}
	return u.Redacted()
}
