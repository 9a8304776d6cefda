package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BigNoodles/carlot/browser"
	"github.com/BigNoodles/carlot/config"
	"github.com/BigNoodles/carlot/models"
	"github.com/BigNoodles/carlot/scraper/autotrader"
	"github.com/BigNoodles/carlot/services"
	"github.com/BigNoodles/carlot/storage"
	"github.com/BigNoodles/carlot/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	os.Exit(run(*configPath))
}

func run(configPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		utils.NewLogger(os.Stderr, "main", "info").Error("%v", err)
		return 1
	}
	log := utils.NewLogger(os.Stdout, "main", cfg.LogLevel)

	queries, err := storage.ReadQueries(cfg.QueriesPath, cfg.QueryOffset, cfg.QueryLimit)
	if err != nil {
		log.Error("Could not read queries: %v", err)
		return 1
	}
	log.Info("Scraper starting | queries=%d backend=%s rate=%.2f/s",
		len(queries), cfg.Backend, cfg.RequestsPerSecond)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opener, closeBrowser, err := browser.New(cfg, utils.NewLogger(os.Stdout, "browser", cfg.LogLevel))
	if err != nil {
		log.Error("Could not start browser: %v", err)
		return 1
	}
	defer closeBrowser()

	pipeline := autotrader.NewPipeline(
		autotrader.NewHarvester(opener, cfg, utils.NewLogger(os.Stdout, "harvest", cfg.LogLevel)),
		autotrader.NewExtractor(opener, cfg, utils.NewLogger(os.Stdout, "extract", cfg.LogLevel)),
		log,
	)

	result, err := pipeline.Run(ctx, queries)
	if err != nil {
		log.Error("Run aborted: %v", err)
		return 1
	}

	adverts := services.CleanAdverts(result.Adverts)
	if len(adverts) == 0 {
		log.Warn("No adverts scraped.")
	}

	if err := storage.NewCSVWriter(cfg.CSVPath, log).Write(adverts); err != nil {
		log.Error("Failed to save CSV: %v", err)
		return 1
	}

	if cfg.JSONPath != "" {
		if err := storage.NewJSONWriter(cfg.JSONPath, log).Write(adverts); err != nil {
			log.Error("Failed to save JSON: %v", err)
			return 1
		}
	}

	if cfg.DBEnabled {
		if err := saveToPostgres(ctx, cfg, log, adverts); err != nil {
			log.Error("%v", err)
			return 1
		}
	}

	printSummary(adverts, result.Failures)
	services.PrintReport(os.Stdout, services.GenerateReport(queries, result))
	if len(adverts) > 0 {
		fmt.Println()
		fmt.Println(adverts[0])
	}
	return 0
}

func saveToPostgres(ctx context.Context, cfg *config.Config, log *utils.Logger, adverts []models.Advertisement) error {
	pgWriter, err := storage.NewPostgresWriter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}
	defer pgWriter.Close()

	if err := pgWriter.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure PostgreSQL schema: %w", err)
	}

	if err := pgWriter.WriteBatch(ctx, adverts); err != nil {
		return fmt.Errorf("failed to save adverts to PostgreSQL: %w", err)
	}
	log.Success("Saved %d adverts to PostgreSQL (run %s)", len(adverts), pgWriter.RunID())
	return nil
}

func printSummary(adverts []models.Advertisement, failures []models.ScrapeFailure) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║                SCRAPE COMPLETE               ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Total adverts  : %-26d║\n", len(adverts))
	fmt.Printf("║  Failed adverts : %-26d║\n", len(failures))
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()
}
