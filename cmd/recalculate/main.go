// Команда recalculate пересобирает сохраненные строки рейтинга контеста из посылок.
//
//	recalculate --contest-id 12 [--force] [--dry-run]
//
// Без --force контест без нарушений пропускается.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/app"
	"github.com/yourusername/contest-rank-api/internal/config"
	"github.com/yourusername/contest-rank-api/internal/service"
	"github.com/yourusername/contest-rank-api/pkg/logger"
)

func main() {
	contestID := flag.Uint("contest-id", 0, "ID контеста для пересчета")
	force := flag.Bool("force", false, "пересчитать даже если в контесте нет нарушений")
	dryRun := flag.Bool("dry-run", false, "показать изменения, ничего не записывая")
	configPath := flag.String("config", defaultConfigPath(), "путь к файлу конфигурации")
	flag.Parse()

	if *contestID == 0 {
		fmt.Fprintln(os.Stderr, "--contest-id is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, log, false)
	if err != nil {
		log.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	report, err := deps.Recalculation.Recalculate(ctx, uint(*contestID), service.RecalculateOptions{
		Force:  *force,
		DryRun: *dryRun,
	})
	if err != nil {
		log.Error("Recalculation failed", zap.Uint("contest_id", uint(*contestID)), zap.Error(err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error("Failed to print report", zap.Error(err))
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}
