package domain

import (
	"errors"
	"fmt"
	"regexp"
)

// Ошибки валидации ProcessDefinition.
var (
	// ErrIncompleteDefinition — не заполнены procedure, table или column.
	ErrIncompleteDefinition = errors.New("incomplete process definition")

	// ErrInvalidIdentifier — имя таблицы, колонки или процедуры не является SQL-идентификатором.
	ErrInvalidIdentifier = errors.New("invalid sql identifier")
)

// unnamedProcess — отображаемое имя процесса без nome_processo.
const unnamedProcess = "N/A"

// identifierRe допускает schema-qualified имена: "schema.table".
// Идентификаторы приходят из конфигурации и подставляются в SQL как есть,
// поэтому кавычки, пробелы и точки с запятой отклоняются.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// ProcessDefinition — описание одного процесса догрузки.
//
// Процесс связывает проверочную таблицу/колонку с хранимой процедурой,
// которая заполняет пропущенный день.
type ProcessDefinition struct {
	// Name — имя процесса для логов и уведомлений.
	Name string `json:"nome_processo" yaml:"nome_processo"`

	// Procedure — хранимая процедура, принимающая один параметр типа date.
	Procedure string `json:"procedure_executar" yaml:"procedure_executar"`

	// Table — таблица, в которой проверяется наличие дней.
	Table string `json:"tabela_verificacao" yaml:"tabela_verificacao"`

	// Column — колонка с датой партиции.
	Column string `json:"coluna_data_verificacao" yaml:"coluna_data_verificacao"`
}

// DisplayName возвращает имя процесса или "N/A", если имя не задано.
func (p ProcessDefinition) DisplayName() string {
	if p.Name == "" {
		return unnamedProcess
	}
	return p.Name
}

// Validate проверяет, что определение пригодно к выполнению.
func (p ProcessDefinition) Validate() error {
	if p.Procedure == "" || p.Table == "" || p.Column == "" {
		return fmt.Errorf("%w: procedure, table and column are required", ErrIncompleteDefinition)
	}

	for _, ident := range []struct {
		field, value string
	}{
		{"procedure", p.Procedure},
		{"table", p.Table},
		{"column", p.Column},
	} {
		if !identifierRe.MatchString(ident.value) {
			return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, ident.field, ident.value)
		}
	}
	return nil
}
