package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/gapfill/internal/domain"
	"github.com/shaiso/gapfill/internal/reconciler"
)

// planView — строка вывода gapfill check.
type planView struct {
	Process    string   `json:"process"`
	Table      string   `json:"table,omitempty"`
	Procedure  string   `json:"procedure,omitempty"`
	Missing    []string `json:"missing"`
	SkipReason string   `json:"skip_reason,omitempty"`
}

func newPlanViews(plans []reconciler.ProcessPlan) []planView {
	views := make([]planView, len(plans))
	for i, p := range plans {
		views[i] = planView{
			Process:    p.Process,
			Table:      p.Table,
			Procedure:  p.Procedure,
			Missing:    domain.FormatDates(p.Missing),
			SkipReason: p.SkipReason,
		}
	}
	return views
}

// printPlans выводит план таблицей или JSON.
func printPlans(out *Output, plans []reconciler.ProcessPlan) {
	views := newPlanViews(plans)

	headers := []string{"PROCESS", "TABLE", "PROCEDURE", "MISSING"}
	rows := make([][]string, len(views))
	for i, v := range views {
		missing := "-"
		switch {
		case v.SkipReason != "":
			missing = "skipped: " + v.SkipReason
		case len(v.Missing) > 0:
			missing = strings.Join(v.Missing, ",")
		}
		rows[i] = []string{v.Process, v.Table, v.Procedure, missing}
	}

	out.Print(headers, rows, views)
}

// NewCheckCmd создаёт команду проверки пропусков без догрузки.
func NewCheckCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "List missing days per process without calling any procedure",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, g, appOptions{noSinks: true})
			if err != nil {
				return err
			}
			defer a.Close()

			plans, err := a.rec.Plan(ctx, a.cfg.Processes(), a.today())
			if err != nil {
				return err
			}

			printPlans(g.output(), plans)
			return nil
		},
	}
}
