// gapfill — поиск и догрузка пропущенных дневных партиций.
//
// Для каждого процесса из конфигурации проверяет последние 7 дней
// в проверочной таблице и вызывает процедуру догрузки для каждого
// отсутствующего дня. Итог отправляется одним уведомлением.
//
// Использование:
//
//	gapfill [--config PATH] [--json] <command> [flags]
//
// Команды:
//
//	run       Один проход (по умолчанию для cron/systemd timers)
//	check     Показать пропуски без догрузки
//	serve     Проходы по расписанию + /healthz, /metrics
//	validate  Проверить конфигурацию
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/gapfill/internal/cli"
	"github.com/shaiso/gapfill/internal/config"
	"github.com/shaiso/gapfill/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g := &cli.Globals{
		Logger: telemetry.SetupLogger(),
	}

	rootCmd := &cobra.Command{
		Use:           "gapfill",
		Short:         "gapfill — detect and backfill missing daily partitions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", config.DefaultPath, "Path to config.json or config.yaml")
	rootCmd.PersistentFlags().BoolVar(&g.JSON, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		cli.NewRunCmd(g),
		cli.NewCheckCmd(g),
		cli.NewServeCmd(g),
		cli.NewValidateCmd(g),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		g.Logger.Error("gapfill failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
