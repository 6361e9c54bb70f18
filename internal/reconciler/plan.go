package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/gapfill/internal/domain"
)

// ProcessPlan — что сделал бы Run для одного процесса.
type ProcessPlan struct {
	Process   string      `json:"process"`
	Procedure string      `json:"procedure,omitempty"`
	Table     string      `json:"table,omitempty"`
	Missing   []time.Time `json:"missing"`

	// SkipReason заполнен, если определение процесса некорректно.
	SkipReason string `json:"skip_reason,omitempty"`
}

// Plan находит пропуски для processes, не вызывая процедур и не отправляя
// уведомлений. Любая ошибка хранилища возвращается сразу.
func (r *Reconciler) Plan(ctx context.Context, processes []domain.ProcessDefinition, today time.Time) ([]ProcessPlan, error) {
	if len(processes) == 0 {
		return nil, ErrNoProcesses
	}

	store, err := r.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer store.Close()

	window := domain.NewDateWindow(today)
	plans := make([]ProcessPlan, 0, len(processes))

	for _, p := range processes {
		plan := ProcessPlan{
			Process:   p.DisplayName(),
			Procedure: p.Procedure,
			Table:     p.Table,
			Missing:   []time.Time{},
		}

		if err := p.Validate(); err != nil {
			plan.SkipReason = err.Error()
			plans = append(plans, plan)
			continue
		}

		missing, err := findGaps(ctx, store, p, window)
		if err != nil {
			return nil, err
		}
		if missing != nil {
			plan.Missing = missing
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
