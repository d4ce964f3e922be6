// File: cmd/book.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/booker-cli/internal/alarm"
	"github.com/xkilldash9x/booker-cli/internal/browser"
	"github.com/xkilldash9x/booker-cli/internal/config"
	"github.com/xkilldash9x/booker-cli/internal/flow"
	"github.com/xkilldash9x/booker-cli/internal/observability"
	"github.com/xkilldash9x/booker-cli/internal/orchestrator"
	"github.com/xkilldash9x/booker-cli/internal/roster"
)

var (
	csvPath   string
	envFile   string
	envOnly   bool
	ignoreEnv bool
	headless  bool
	headed    bool
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Run the booking flow for every student in the roster.",
	Long: `Watches the booking page until registration opens, then walks each
student through module selection, login, personal details and order
placement, ringing an alarm on confirmation until the page is
double-clicked.`,
	RunE: runBook,
}

func init() {
	flags := bookCmd.Flags()
	flags.StringVar(&csvPath, "csv", "", "CSV file with student rows")
	flags.StringVar(&envFile, "env", "", ".env path")
	flags.BoolVar(&envOnly, "env-only", false, "Use env (or embedded) single student and ignore CSV")
	flags.BoolVar(&ignoreEnv, "ignore-env", false, "Do not read env vars; use embedded values")
	flags.BoolVar(&headless, "headless", false, "Run browser headless")
	flags.BoolVar(&headed, "headed", false, "Force headed mode")
	flags.String("log", "booker.log", "log file path")

	// --students is the historical spelling of --csv.
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "students" {
			name = "csv"
		}
		return pflag.NormalizedName(name)
	})

	if err := viper.BindPFlag("logger.log_file", flags.Lookup("log")); err != nil {
		panic(fmt.Sprintf("failed to bind log flag: %v", err))
	}

	rootCmd.AddCommand(bookCmd)
}

func runBook(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}

	// --headless wins over the config file; --headed wins over everything.
	if headless {
		cfg.Browser.Headless = true
	}
	if headed {
		cfg.Browser.Headless = false
	}
	cfg.Roster = config.RosterConfig{
		CSVPath:   csvPath,
		EnvFile:   envFile,
		EnvOnly:   envOnly,
		IgnoreEnv: ignoreEnv,
	}

	students := roster.NewLoader(cfg.Roster, logger).Load()
	logger.Info("Roster assembled.",
		zap.Int("students", len(students)),
		zap.Bool("headless", cfg.Browser.Headless))

	manager, err := browser.NewManager(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser shutdown was not clean.", zap.Error(err))
		}
	}()

	runner := flow.NewRunner(cfg, logger, func() flow.Alerter {
		return alarm.NewController(cfg.Alarm, logger, nil)
	})

	newSession := func() (orchestrator.Session, error) {
		return manager.NewSession(logger)
	}

	results := orchestrator.New(logger, newSession, runner).RunAll(ctx, students)

	out := cmd.OutOrStdout()
	for _, res := range results {
		verdict := "FAILED"
		if res.Success {
			verdict = "SUCCESS"
		}
		fmt.Fprintf(out, "%s: %s\n", res.Email, verdict)
	}
	return nil
}
