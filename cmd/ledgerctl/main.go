package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go-farm-ledger/internal/config"
	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/repository"
	"go-farm-ledger/internal/service"
	"go-farm-ledger/pkg/database"
	"go-farm-ledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ledgerctl",
		Usage: "inspect and maintain the farm inventory ledger",
		Commands: []*cli.Command{
			{
				Name:   "verify",
				Usage:  "replay the delta log and compare it with stored quantities",
				Action: runVerify,
			},
			{
				Name:  "inspect",
				Usage: "print ledger views as JSON",
				Subcommands: []*cli.Command{
					{Name: "items", Usage: "all items", Action: inspect(func(s service.LedgerService, _ *cli.Context) (any, error) {
						return s.GetItems(), nil
					})},
					{Name: "low-stock", Usage: "items at or below their reorder level", Action: inspect(func(s service.LedgerService, _ *cli.Context) (any, error) {
						return s.SupplierNotifications(), nil
					})},
					{Name: "valuation", Usage: "inventory value per item", Action: inspect(func(s service.LedgerService, _ *cli.Context) (any, error) {
						return s.Valuation(), nil
					})},
					{
						Name:  "forecast",
						Usage: "demand forecast for every item",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "period", Value: service.PeriodWeekly, Usage: "daily, weekly, monthly or all"},
						},
						Action: inspect(func(s service.LedgerService, c *cli.Context) (any, error) {
							return s.ForecastAll(c.String("period"))
						}),
					},
				},
			},
			{
				Name:  "reset-password",
				Usage: "set a new password for an operator and end their session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"LEDGERCTL_PASSWORD"}},
				},
				Action: runResetPassword,
			},
		},
	}
}

type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.ServiceName+"-ctl", cfg.Env, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: log}
	if cfg.UsesDatabase() {
		if e.db, err = database.ConnectDB(cfg.DSN(), log); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// openLedger loads the shared ledger. Only an empty store is written to, when
// the default categories are seeded.
func (e *env) openLedger(c *cli.Context) (service.LedgerService, error) {
	if e.db == nil {
		return nil, fmt.Errorf("LEDGER_STORE=%s has no shared state to inspect", e.cfg.LedgerStore)
	}
	l := ledger.New(repository.NewSnapshotRepo(e.db), ledger.WithKey(e.cfg.LedgerKey), ledger.WithLogger(e.log))
	if err := l.Load(c.Context); err != nil {
		return nil, err
	}
	return service.NewLedgerService(l, nil, nil, e.log), nil
}

func runVerify(c *cli.Context) error {
	e, err := setup()
	if err != nil {
		return err
	}
	s, err := e.openLedger(c)
	if err != nil {
		return err
	}

	out := s.Verify()
	if err := printJSON(c.App.Writer, out); err != nil {
		return err
	}
	if len(out) > 0 {
		return cli.Exit(fmt.Sprintf("%d items disagree with the delta log", len(out)), 2)
	}
	return nil
}

func inspect(view func(service.LedgerService, *cli.Context) (any, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := setup()
		if err != nil {
			return err
		}
		s, err := e.openLedger(c)
		if err != nil {
			return err
		}
		v, err := view(s, c)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, v)
	}
}

func runResetPassword(c *cli.Context) error {
	password := c.String("password")
	if len(password) < 6 {
		return cli.Exit("password must be at least 6 characters", 1)
	}

	e, err := setup()
	if err != nil {
		return err
	}
	if e.db == nil {
		return cli.Exit("reset-password needs LEDGER_STORE=postgres", 1)
	}

	users := repository.NewUserRepo(e.db)
	user, err := users.FindByEmail(c.String("email"))
	if err != nil {
		return fmt.Errorf("user %s: %w", c.String("email"), err)
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	if err := users.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	if err := users.UpdateTokenVersion(user.ID, uuid.NewString()); err != nil {
		return err
	}

	e.log.Info("password_reset", zap.String("email", user.Email))
	fmt.Fprintf(c.App.Writer, "password for %s updated\n", user.Email)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
