package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/core-coin/mailnet/internal/config"
	"github.com/core-coin/mailnet/internal/ledger"
	"github.com/core-coin/mailnet/internal/mailer"
	"github.com/core-coin/mailnet/internal/mailservice"
	"github.com/core-coin/mailnet/internal/repository"
	"github.com/core-coin/mailnet/internal/runtime"
	"github.com/core-coin/mailnet/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "mailnet",
		Usage: "mailnet runs the Mailer and MailService program state machines against Postgres",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.StringFlag{Name: "mailer-program-id", Usage: "Mailer program identifier"},
			&cli.StringFlag{Name: "mail-service-program-id", Usage: "MailService program identifier"},
			&cli.StringFlag{Name: "owner-address", Aliases: []string{"o"}, Usage: "Owner principal for both programs"},
			&cli.StringFlag{Name: "unit-mint-address", Usage: "UNIT stablecoin mint address"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: func(c *cli.Context) error {
			return run(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	applyFlagOverrides(c, cfg)

	lg, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	db, err := repository.NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, lg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}
	defer db.Close()

	custodian, err := ledger.NewGormLedger(db.Conn)
	if err != nil {
		return fmt.Errorf("failed to initialize custody ledger: %v", err)
	}

	owner, err := runtime.ParsePrincipal(cfg.OwnerAddress)
	if err != nil {
		return fmt.Errorf("invalid owner address: %v", err)
	}
	unitMint, err := runtime.ParsePrincipal(cfg.UnitMintAddress)
	if err != nil {
		return fmt.Errorf("invalid unit mint address: %v", err)
	}
	mailerProgramID, err := runtime.ParsePrincipal(cfg.MailerProgramID)
	if err != nil {
		return fmt.Errorf("invalid mailer program id: %v", err)
	}
	mailServiceProgramID, err := runtime.ParsePrincipal(cfg.MailServiceProgramID)
	if err != nil {
		return fmt.Errorf("invalid mail service program id: %v", err)
	}

	emitter := runtime.NewLoggingEmitter(lg)
	clock := runtime.SystemClock{}

	mailerEngine := mailer.NewEngine(mailerProgramID, db, custodian, emitter, clock)
	mailServiceEngine := mailservice.NewEngine(mailServiceProgramID, repository.NewMailServiceStore(db), custodian, emitter)

	ctx := context.Background()
	if err := initializeOnce(mailerEngine.Initialize(ctx, owner, unitMint)); err != nil {
		return fmt.Errorf("failed to initialize mailer: %v", err)
	}
	if err := initializeOnce(mailServiceEngine.Initialize(ctx, owner, unitMint)); err != nil {
		return fmt.Errorf("failed to initialize mail service: %v", err)
	}

	lg.Info("mailnet programs ready", "mailer", mailerProgramID.Hex(), "mail_service", mailServiceProgramID.Hex())

	sweepExpiredClaims(ctx, mailerEngine, lg, time.Duration(cfg.ClaimSweepIntervalSeconds)*time.Second)
	return nil
}

// initializeOnce treats ErrAlreadyInitialized as a normal startup
// outcome: Initialize runs once per deployment, every subsequent process
// restart finds the state already there.
func initializeOnce(err error) error {
	if err == nil || errors.Is(err, runtime.ErrAlreadyInitialized) {
		return nil
	}
	return err
}

// sweepExpiredClaims periodically logs senders whose claim window has
// lapsed unclaimed, standing in for the teacher's ticker-based
// subscription-expiry sweep in internal/nuntiare — here surfacing work for
// the owner's ClaimExpiredShares call rather than mutating state itself.
func sweepExpiredClaims(ctx context.Context, engine *mailer.Engine, lg *logger.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		expired, err := engine.ExpiredClaimants(ctx)
		if err != nil {
			lg.Error("claim sweep failed", "error", err)
			continue
		}
		if len(expired) > 0 {
			lg.Info("claims past their claim window", "count", len(expired))
		}
	}
}

func applyFlagOverrides(c *cli.Context, cfg *config.Config) {
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("mailer-program-id") {
		cfg.MailerProgramID = c.String("mailer-program-id")
	}
	if c.IsSet("mail-service-program-id") {
		cfg.MailServiceProgramID = c.String("mail-service-program-id")
	}
	if c.IsSet("owner-address") {
		cfg.OwnerAddress = c.String("owner-address")
	}
	if c.IsSet("unit-mint-address") {
		cfg.UnitMintAddress = c.String("unit-mint-address")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}
}
