package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ROM1024/2025-BEBOP/internal/profile"
	"github.com/ROM1024/2025-BEBOP/plugin/ai"
	"github.com/ROM1024/2025-BEBOP/internal/observability"
	"github.com/ROM1024/2025-BEBOP/server/service/optimizer"
	"github.com/ROM1024/2025-BEBOP/server/service/schedule"
	"github.com/ROM1024/2025-BEBOP/server/timezone"
	"github.com/ROM1024/2025-BEBOP/store/xlsx"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

// app is the session every subcommand works on.
type app struct {
	profile  *profile.Profile
	location *time.Location
	metrics  *observability.Metrics
	service  schedule.Service
}

var (
	configFile string
	current    *app

	rootCmd = &cobra.Command{
		Use:               "bebop",
		Short:             "个人日程表：Excel 记录与下周日程智能优化",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("mode", "demo", `mode of the app, can be "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("file", "", "schedule spreadsheet, relative to the data directory")
	rootCmd.PersistentFlags().String("addr", "", "address of the HTTP server")
	rootCmd.PersistentFlags().Int("port", 0, "port of the HTTP server")
	rootCmd.PersistentFlags().String("timezone", "", `IANA timezone deciding "today" and "next week"`)

	for key, flag := range map[string]string{
		"mode":          "mode",
		"data":          "data",
		"schedule_file": "file",
		"addr":          "addr",
		"port":          "port",
		"timezone":      "timezone",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix(profile.EnvPrefix)
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		serveCmd,
		showCmd,
		addCmd,
		deleteCmd,
		clearCmd,
		brushCmd,
		conflictsCmd,
		optimizeCmd,
		validateCmd,
		icsCmd,
		statsCmd,
		feedbackCmd,
		configCmd,
	)
}

// setup builds the profile and the schedule session before any subcommand.
func setup(cmd *cobra.Command, _ []string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	}
	p, err := profile.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	p.Version = version
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	loc, err := timezone.ParseTimezone(p.Timezone)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics(0)
	cfg := schedule.Config{
		Codec:           xlsx.NewCodec(p.ScheduleFile),
		ScheduleSidecar: p.ScheduleSidecar,
		FeedbackSidecar: p.FeedbackSidecar,
		Logger:          slog.Default(),
	}
	if p.IsAIEnabled() {
		llm, err := ai.NewLLMService(ai.NewLLMConfigFromProfile(p))
		if err != nil {
			slog.Warn("LLM service disabled", "provider", p.AILLMProvider, "error", err)
		} else {
			cfg.Optimizer = optimizer.NewBridge(llm,
				optimizer.WithMaxTokens(p.OptimizeMaxTokens),
				optimizer.WithLogger(slog.Default()),
				optimizer.WithMetrics(metrics),
			)
		}
	}

	current = &app{
		profile:  p,
		location: loc,
		metrics:  metrics,
		service:  schedule.NewService(cfg),
	}
	slog.Debug("profile loaded",
		"mode", p.Mode,
		"file", p.ScheduleFile,
		"timezone", p.Timezone,
		"ai", cfg.Optimizer != nil,
	)
	return nil
}

// now returns the current time in the configured timezone.
func (a *app) now() time.Time {
	return timezone.NowInTimezone(a.location)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
