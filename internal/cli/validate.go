package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/gapfill/internal/config"
	"github.com/shaiso/gapfill/internal/reconciler"
	"github.com/shaiso/gapfill/internal/scheduler"
)

// NewValidateCmd создаёт команду проверки конфигурации без подключения к БД.
func NewValidateCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file and every process definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.ConfigPath)
			if err != nil {
				return err
			}
			if cfg.Schedule.Cron != "" {
				if err := scheduler.ValidateCronExpr(cfg.Schedule.Cron); err != nil {
					return err
				}
			}

			out := g.output()
			printDefinitions(out, cfg)

			if len(cfg.Processes()) == 0 {
				return reconciler.ErrNoProcesses
			}
			out.Success(fmt.Sprintf("configuration %s is valid", g.ConfigPath))
			return nil
		},
	}
}

type definitionView struct {
	Process   string `json:"process"`
	Procedure string `json:"procedure"`
	Table     string `json:"table"`
	Column    string `json:"column"`
	Status    string `json:"status"`
}

func printDefinitions(out *Output, cfg *config.Config) {
	procs := cfg.Processes()

	views := make([]definitionView, len(procs))
	rows := make([][]string, len(procs))
	for i, p := range procs {
		status := "ok"
		if err := p.Validate(); err != nil {
			status = "skipped: " + err.Error()
		}
		views[i] = definitionView{
			Process:   p.DisplayName(),
			Procedure: p.Procedure,
			Table:     p.Table,
			Column:    p.Column,
			Status:    status,
		}
		rows[i] = []string{views[i].Process, p.Procedure, p.Table, p.Column, status}
	}

	out.Print([]string{"PROCESS", "PROCEDURE", "TABLE", "COLUMN", "STATUS"}, rows, views)
}
