package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"review_hero/internal/adapters/observability"
	"review_hero/internal/app"
	mysqlrepo "review_hero/internal/storage/mysql"
	"review_hero/internal/templates"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()
		return mysqlrepo.Migrate(cmd.Context(), deps.DB.DB)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load seed data",
}

var seedTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Upsert the industry template catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()
		seed := app.NewSeedService(deps.Store, app.NewTemplateService(deps.Store, templates.MustLoad()), cfg.AppURL, nil)
		n, err := seed.Templates(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d templates synced\n", n)
		return nil
	},
}

var seedDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Create a demo account with one pending review request",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Production() {
			return fmt.Errorf("refusing to seed demo data with APP_ENV=%s", cfg.AppEnv)
		}
		deps, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()
		seed := app.NewSeedService(deps.Store, app.NewTemplateService(deps.Store, templates.MustLoad()), cfg.AppURL, nil)
		res, err := seed.Demo(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var nudgeWatch bool

var nudgeCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Expire stale requests and send due reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()
		if deps.Mailer == nil {
			log.Warn().Msg("no mail transport configured, only expiring requests")
		}
		svc := app.NewNudgeService(deps.Store, deps.Mailer, deps.Cache, cfg.AppURL, cfg.NudgeWorkers, cfg.NudgeBatch, nil)
		svc.OnSweep(func(r app.NudgeReport) {
			observability.ObserveNudges(r.Expired, r.Sent, r.Failed, r.Skipped)
		})

		if nudgeWatch {
			every := cfg.NudgeInterval
			if every <= 0 {
				every = 15 * time.Minute
			}
			svc.Run(cmd.Context(), every)
			return nil
		}
		rep, err := svc.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, rep)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
