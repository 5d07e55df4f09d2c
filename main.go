package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/klokku/daybook/internal/app"
	"github.com/klokku/daybook/internal/config"
	"github.com/klokku/daybook/internal/utils"
	"github.com/klokku/daybook/pkg/dashboard"
	"github.com/klokku/daybook/pkg/datepath"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

var configPath string

func newApplication() (*app.Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.NewApplication(cfg, utils.SystemClock{})
}

var rootCmd = &cobra.Command{
	Use:           "daybook",
	Short:         "Personal daybook dashboard over monthly JSON partitions",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var dayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "Print the view of a single day as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := datepath.ParseDate(args[0])
		if err != nil {
			return err
		}
		application, err := newApplication()
		if err != nil {
			return err
		}
		service := application.Dashboard()
		if err := service.Bootstrap(cmd.Context()); err != nil {
			return err
		}
		if err := service.EnsureLoaded(cmd.Context(), date); err != nil {
			return err
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(service.GetViewModel(date))
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <YYYY-MM-DD>",
	Short: "Print the partition directory and month key of a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := datepath.ParseDate(args[0])
		if err != nil {
			return err
		}
		p := datepath.Resolve(date)
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.MonthDir(), p.MonthKey())
		return err
	},
}

func serve(cmd *cobra.Command, _ []string) error {
	application, err := newApplication()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(cmd.Context())
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config/application.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, dayCmd, pathCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, dashboard.ErrCriticalBootstrap) {
			log.Error(err)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
