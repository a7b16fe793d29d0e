package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"equip-manager/internal/audit"
	catalogapp "equip-manager/internal/catalog/application"
	catalogrepo "equip-manager/internal/catalog/infrastructure/postgres"
	"equip-manager/internal/catalog/seed"
	certificatesapp "equip-manager/internal/certificates/application"
	certificatesrepo "equip-manager/internal/certificates/infrastructure/postgres"
	"equip-manager/internal/config"
	dashboardapp "equip-manager/internal/dashboard/application"
	dashboardrepo "equip-manager/internal/dashboard/infrastructure/postgres"
	equipmentapp "equip-manager/internal/equipment/application"
	equipmentrepo "equip-manager/internal/equipment/infrastructure/postgres"
	"equip-manager/internal/logging"
	"equip-manager/internal/platform/clock"
	"equip-manager/internal/platform/database"
	pointsapp "equip-manager/internal/points/application"
	pointsrepo "equip-manager/internal/points/infrastructure/postgres"
	transferapp "equip-manager/internal/transfer/application"
)

var configPath = "config.yaml"

func main() {
	if err := NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewCommand builds the root command. Without a subcommand it serves HTTP.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equip-manager",
		Short: "Measurement equipment and calibration tracker",
		Long: `equip-manager keeps the register of measuring instruments, metering points
and calibration certificates, and reports which points are overdue or due soon.

Settings are read from the --config file when it exists; environment
variables override them.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", configPath, "config file path")

	cmd.AddCommand(
		NewServeCommand(),
		NewMigrateCommand(),
		NewSeedCommand(),
		NewImportCommand(),
		NewExportCommand(),
	)
	return cmd
}

// app holds the wired services shared by the commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sql.DB
	tx     *database.TxManager

	catalogRepo  *catalogrepo.LookupRepository
	catalog      *catalogapp.Service
	equipment    *equipmentapp.Service
	points       *pointsapp.Service
	certificates *certificatesapp.Service
	dashboard    *dashboardapp.Service
	importer     *transferapp.Importer
	exporter     *transferapp.Exporter
	audit        *audit.Repository
}

// connect loads configuration, builds the logger and opens the database.
func connect(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Database.URL, database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, db: db}, nil
}

// bootstrap connects, migrates when configured and wires every service.
func bootstrap(ctx context.Context) (*app, error) {
	a, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	if a.cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, a.db, a.logger); err != nil {
			a.close()
			return nil, err
		}
	}
	if err := a.wire(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	systemClock := clock.System{Location: loc}
	window := cfg.Calibration.DueWindowDays
	pageDefault, pageMax := cfg.Pagination.DefaultPerPage, cfg.Pagination.MaxPerPage

	if a.tx, err = database.NewTxManager(a.db); err != nil {
		return err
	}
	a.audit = audit.NewRepository(a.db)

	a.catalogRepo = catalogrepo.NewLookupRepository(a.db)
	equipmentRepo := equipmentrepo.NewEquipmentRepository(a.db)
	pointRepo := pointsrepo.NewPointRepository(a.db)
	certificateRepo := certificatesrepo.NewCertificateRepository(a.db)

	if a.catalog, err = catalogapp.NewService(a.catalogRepo, a.tx); err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}
	if a.equipment, err = equipmentapp.NewService(equipmentRepo, pointRepo, certificateRepo, a.tx,
		equipmentapp.WithPageSizes(pageDefault, pageMax)); err != nil {
		return fmt.Errorf("equipment service: %w", err)
	}
	if a.points, err = pointsapp.NewService(pointRepo, a.equipment, a.tx,
		pointsapp.WithClock(systemClock),
		pointsapp.WithDueWindow(window),
		pointsapp.WithPageSizes(pageDefault, pageMax)); err != nil {
		return fmt.Errorf("points service: %w", err)
	}
	if a.certificates, err = certificatesapp.NewService(certificateRepo, a.equipment, a.tx,
		certificatesapp.WithPageSizes(pageDefault, pageMax)); err != nil {
		return fmt.Errorf("certificates service: %w", err)
	}
	if a.dashboard, err = dashboardapp.NewService(dashboardrepo.NewReader(a.db),
		dashboardapp.WithClock(systemClock),
		dashboardapp.WithDueWindow(window)); err != nil {
		return fmt.Errorf("dashboard service: %w", err)
	}
	if a.importer, err = transferapp.NewImporter(a.tx, a.catalog, a.equipment, a.points,
		transferapp.WithMaxErrors(cfg.Import.MaxReportedErrors),
		transferapp.WithLogger(a.logger)); err != nil {
		return fmt.Errorf("importer: %w", err)
	}
	if a.exporter, err = transferapp.NewExporter(a.catalog, a.equipment, a.points); err != nil {
		return fmt.Errorf("exporter: %w", err)
	}
	return nil
}

// seed loads the reference lists unless disabled.
func (a *app) seed(ctx context.Context) (seed.Result, error) {
	if !a.cfg.Seed.Enabled {
		a.logger.Info("Seed disabled")
		return seed.Result{Skipped: true}, nil
	}
	seeder, err := seed.NewSeeder(a.catalogRepo, a.tx, a.logger)
	if err != nil {
		return seed.Result{}, err
	}
	return seeder.Seed(ctx)
}

func (a *app) close() {
	if a == nil {
		return
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			a.logger.Warn("closing database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
