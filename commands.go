package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"sklandapi/config"
	"sklandapi/core"
	"sklandapi/notify"
	"sklandapi/routes"
)

const DefaultPort = 2323

type cliFlags struct {
	configPath string
	envFile    string
	logLevel   string
	proxy      string
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           "skland",
		Short:         "Daily attendance for Skland bound games",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultFile, "path to config.yaml")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn)")
	root.PersistentFlags().StringVar(&flags.proxy, "proxy", "", "override upstream proxy url")

	root.AddCommand(
		newRunCmd(flags),
		newStatusCmd(flags),
		newServeCmd(flags),
		newScheduleCmd(flags),
		newDecryptCmd(),
	)
	return root
}

// loadConfig applies CLI overrides and sets up logging. requireAccounts
// turns a missing account list into an error.
func loadConfig(flags *cliFlags, requireAccounts bool) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath, flags.envFile)
	if err != nil && (requireAccounts || !errors.Is(err, config.ErrNoConfig)) {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.proxy != "" {
		cfg.Proxy = flags.proxy
	}
	setupLogging(cfg.LogLevel, cfg.LogFile)

	if requireAccounts {
		if len(cfg.Users) == 0 {
			return nil, errors.New("no accounts configured")
		}
		cfg.LogAccounts()
	}
	return cfg, nil
}

func clientOptions(cfg *config.Config) core.Options {
	return core.Options{
		Proxy:      cfg.Proxy,
		MaxRetries: cfg.MaxRetries,
	}
}

// runOnce signs every account with one client and delivers the report.
func runOnce(ctx context.Context, cfg *config.Config, out io.Writer, showTable bool) error {
	client, err := core.NewClient(clientOptions(cfg))
	if err != nil {
		return err
	}
	reports := client.RunAll(ctx, cfg.Users)
	client.Close()

	text := notify.RenderReport(reports)
	notify.PrintConsole(out, text)
	if showTable {
		notify.RenderTable(out, reports)
	}

	if _, err := notify.FromConfig(cfg, nil).Dispatch(ctx, notify.Title, text); err != nil {
		log.Warnf("some notification channels failed: %v", err)
	}
	log.Info("all accounts processed")
	return nil
}

func newRunCmd(flags *cliFlags) *cobra.Command {
	var showTable bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sign in every configured account once and send the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, true)
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), cfg, cmd.OutOrStdout(), showTable)
		},
	}
	cmd.Flags().BoolVar(&showTable, "table", false, "also print the results as a table")
	return cmd
}

func newStatusCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether today's attendance is done for each account",
		Long:  "Show whether today's attendance is done for each account. Checking signs in as a side effect.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, true)
			if err != nil {
				return err
			}

			client, err := core.NewClient(clientOptions(cfg))
			if err != nil {
				return err
			}
			defer client.Close()

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Account", "Nickname", "明日方舟", "终末地"})
			for i, account := range cfg.Users {
				status, nickname := client.CheckStatus(cmd.Context(), account.Token)
				t.AppendRow(table.Row{i + 1, account.Name, nickname, mark(status["arknights"]), mark(status["endfield"])})
			}
			t.Render()
			return nil
		},
	}
}

func mark(signed bool) string {
	if signed {
		return "✓"
	}
	return "✗"
}

func newServeCmd(flags *cliFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose sign-in over HTTP",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, false)
			if err != nil {
				return err
			}
			if err := core.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
				return err
			}

			e := echo.New()
			e.Logger.SetOutput(io.Discard)
			e.HideBanner = true
			e.Debug = false

			e.Use(middleware.Recover())
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins:     []string{"*"},
				AllowMethods:     []string{"*"},
				AllowHeaders:     []string{"*"},
				AllowCredentials: true,
			}))

			h := &routes.Handler{
				NewClient: func() (*core.Client, error) {
					return core.NewClient(clientOptions(cfg))
				},
				Gatherer: prometheus.DefaultGatherer,
			}
			h.Register(e)

			log.Infof("server is running on port %d", port)
			return e.Start(fmt.Sprintf(":%d", port))
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", DefaultPort, "listen port")
	return cmd
}

func newScheduleCmd(flags *cliFlags) *cobra.Command {
	var (
		cronExpr string
		runNow   bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the sign-in every day on a cron schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, true)
			if err != nil {
				return err
			}
			if cronExpr != "" {
				cfg.Schedule = cronExpr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			task := func() {
				runCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
				defer cancel()
				if err := runOnce(runCtx, cfg, out, false); err != nil {
					log.Errorf("scheduled run failed: %v", err)
				}
			}

			s, err := gocron.NewScheduler()
			if err != nil {
				return fmt.Errorf("failed to create scheduler: %w", err)
			}
			job, err := s.NewJob(
				gocron.CronJob(cfg.Schedule, false),
				gocron.NewTask(task),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
			}

			s.Start()
			if next, err := job.NextRun(); err == nil {
				log.Infof("scheduled with %q, next run at %s", cfg.Schedule, next.Format(time.RFC3339))
			}
			if runNow {
				task()
			}

			<-ctx.Done()
			log.Info("shutting down scheduler")
			return s.Shutdown()
		},
	}
	cmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression, overrides SKLAND_SCHEDULE")
	cmd.Flags().BoolVar(&runNow, "now", false, "run once immediately before waiting")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	var data, priID string

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decode a captured device profile envelope",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := core.DecodeEnvelope(data, priID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(fields)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "hex data field of the envelope")
	cmd.Flags().StringVar(&priID, "pri-id", "", "16 character pri id the envelope was keyed with")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("pri-id")
	return cmd
}
