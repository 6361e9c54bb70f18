package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Заголовки итогового уведомления.
const (
	TitleFinished       = "Process finished"
	TitleFinishedErrors = "Process finished with ERRORS"
	TitleFailed         = "Process failed"
	TitleStarted        = "Process started"

	// NoActionMessage — текст уведомления, когда отчёт пуст.
	NoActionMessage = "No action was necessary or no process was configured."
)

// ExecutionResult — результат вызова процедуры для пары (процесс, день).
type ExecutionResult struct {
	Process string
	Date    time.Time

	// Err — ошибка хранилища. Nil означает успех.
	Err error
}

// Success возвращает true, если процедура выполнилась без ошибки.
func (r ExecutionResult) Success() bool {
	return r.Err == nil
}

// Label возвращает метку вида "Process (2024-01-31)".
func (r ExecutionResult) Label() string {
	return fmt.Sprintf("%s (%s)", r.Process, FormatDate(r.Date))
}

// SkippedProcess — процесс, пропущенный из-за некорректного определения.
type SkippedProcess struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RunReport — агрегированный результат одного прохода reconciliation.
//
// Создаётся пустым в начале run, заполняется по ходу цикла
// и превращается в уведомление при финализации. Не сохраняется.
type RunReport struct {
	// RunID — идентификатор прохода для корреляции логов и сообщений.
	RunID uuid.UUID `json:"run_id"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Succeeded — метки успешных вызовов в порядке выполнения.
	Succeeded []string `json:"succeeded"`

	// Failed — метки неуспешных вызовов в порядке выполнения.
	Failed []string `json:"failed"`

	// GeneralError — фатальная ошибка, прервавшая проход.
	GeneralError string `json:"general_error,omitempty"`

	// Skipped — процессы с неполным определением. В уведомление не попадают.
	Skipped []SkippedProcess `json:"skipped,omitempty"`
}

// NewRunReport создаёт пустой отчёт.
func NewRunReport(now time.Time) *RunReport {
	return &RunReport{
		RunID:     uuid.New(),
		StartedAt: now,
		Succeeded: []string{},
		Failed:    []string{},
	}
}

// Record добавляет результат вызова в соответствующий список.
func (r *RunReport) Record(res ExecutionResult) {
	if res.Success() {
		r.Succeeded = append(r.Succeeded, res.Label())
		return
	}
	r.Failed = append(r.Failed, res.Label())
}

// Skip отмечает процесс как пропущенный.
func (r *RunReport) Skip(name string, reason error) {
	r.Skipped = append(r.Skipped, SkippedProcess{Name: name, Reason: reason.Error()})
}

// Fail записывает фатальную ошибку прохода.
func (r *RunReport) Fail(msg string) {
	r.GeneralError = msg
}

// Finish фиксирует время завершения.
func (r *RunReport) Finish(now time.Time) {
	r.FinishedAt = &now
}

// OK возвращает true, если нет ни общей ошибки, ни неуспешных вызовов.
func (r *RunReport) OK() bool {
	return r.GeneralError == "" && len(r.Failed) == 0
}

// Title возвращает заголовок итогового уведомления.
func (r *RunReport) Title() string {
	if r.OK() {
		return TitleFinished
	}
	return TitleFinishedErrors
}

// Message собирает текст уведомления из трёх необязательных секций.
func (r *RunReport) Message() string {
	var sb strings.Builder
	if len(r.Succeeded) > 0 {
		fmt.Fprintf(&sb, "**Successful executions:** %s.  \n", strings.Join(r.Succeeded, ", "))
	}
	if len(r.Failed) > 0 {
		fmt.Fprintf(&sb, "**Failed executions:** %s.  \n", strings.Join(r.Failed, ", "))
	}
	if r.GeneralError != "" {
		fmt.Fprintf(&sb, "**General error:** %s", r.GeneralError)
	}

	if sb.Len() == 0 {
		return NoActionMessage
	}
	return sb.String()
}

// Duration возвращает продолжительность прохода.
// Возвращает 0, если проход ещё не завершён.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
