package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jyotishdesk/backoffice/config"
	"github.com/jyotishdesk/backoffice/internal/adminapi"
	"github.com/jyotishdesk/backoffice/internal/app"
	"github.com/jyotishdesk/backoffice/internal/tokenstore"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Jyotish Desk content back-office",
	Long: `Admin console for the Jyotish Desk content backend.

Operators sign in with a bearer token issued by the backend and edit
rashis, yogs, rajyogs, year predictions, vastu entrances, products and
lessons, or export them as CSV and XLSX.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// serve sets up its own file logging in app.Init
		if cmd.Name() == serveCmd.Name() {
			return nil
		}
		zc := zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin web server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default backoffice.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging for command line tools")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(exportCmd)
}

// @title Jyotish Desk back-office API
// @version 1.0
// @description JSON mirror of the admin console. Every call needs a signed in session.
// @BasePath /
func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		return err
	}
	defer application.Release()

	srv, err := webserver.NewServer(cfg)
	if err != nil {
		return err
	}
	adminapi.Register(srv, application)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

// openTokens opens the token database the server uses. It fails while a
// running server holds the database.
func openTokens(cfg *config.AppConfig) (*tokenstore.Store, error) {
	if err := cfg.InitDirs(); err != nil {
		return nil, err
	}
	return tokenstore.Open(path.Join(cfg.GetDataDir(), "tokens.db"))
}
