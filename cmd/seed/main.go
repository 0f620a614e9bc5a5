// Command seed loads voucher templates and campus reference data.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/adbeam/recycling-rewards-backend/internal/config"
	"github.com/adbeam/recycling-rewards-backend/internal/logging"
	mongorepo "github.com/adbeam/recycling-rewards-backend/internal/repositories/mongodb"
	"github.com/adbeam/recycling-rewards-backend/internal/utils"
	"github.com/adbeam/recycling-rewards-backend/pkg/mongodb"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	templatesPath := flag.String("templates", config.GetEnv("SEED_TEMPLATES", "seed/templates.yaml"), "voucher template YAML file")
	campusesPath := flag.String("campuses", config.GetEnv("SEED_CAMPUSES", "seed/campuses.csv"), "universities and residence halls CSV file")
	skipCampuses := flag.Bool("skip-campuses", config.GetEnvAsBool("SEED_SKIP_CAMPUSES", false), "only seed voucher templates")
	validDays := flag.Int("valid-days", config.GetEnvAsInt("SEED_VALID_DAYS", 0), "validDays for templates that omit it (0 uses Vouchers.DefaultValidDays)")
	only := flag.String("only", "", "comma separated template names to seed (default all, or SEED_ONLY)")
	flag.Parse()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	opts := seedOptions{
		templatesPath: *templatesPath,
		campusesPath:  *campusesPath,
		skipCampuses:  *skipCampuses,
		validDays:     cfg.Vouchers.DefaultValidDays,
		only:          config.GetEnvAsSlice("SEED_ONLY", ",", nil),
	}
	if *validDays > 0 {
		opts.validDays = *validDays
	}
	if *only != "" {
		opts.only = splitNames(*only)
	}

	if err := run(context.Background(), cfg, logger, opts); err != nil {
		logger.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Seeding complete")
}

type seedOptions struct {
	templatesPath string
	campusesPath  string
	skipCampuses  bool
	validDays     int
	only          []string
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts seedOptions) error {
	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout())
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB.Database)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	f, err := os.Open(opts.templatesPath)
	if err != nil {
		return err
	}
	defer f.Close()

	templates, err := loadTemplates(f, opts.validDays)
	if err != nil {
		return err
	}
	templates, missing := selectTemplates(templates, opts.only)
	for _, name := range missing {
		logger.Warn("Template not found in seed file", "name", name)
	}
	n, err := seedTemplates(ctx, mongorepo.NewVoucherTemplateRepository(db), templates)
	if err != nil {
		return err
	}
	logger.Info("Voucher templates seeded", "count", n, "file", opts.templatesPath)

	if opts.skipCampuses {
		return nil
	}

	csvFile, err := os.Open(opts.campusesPath)
	if err != nil {
		return err
	}
	defer csvFile.Close()

	result, err := utils.NewCampusImporter(mongorepo.NewCampusRepository(db)).ImportCampuses(ctx, csvFile)
	if err != nil {
		return err
	}
	for _, rowErr := range result.Errors {
		logger.Warn("Campus row skipped", "detail", rowErr)
	}
	logger.Info("Campuses seeded",
		"rows", result.TotalRows,
		"universities", result.UniversitiesSeeded,
		"halls", result.HallsSeeded,
	)
	return nil
}
