package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feldgrau-labs/chesstrack/backend/internal/activities"
	"github.com/feldgrau-labs/chesstrack/backend/internal/config"
	"github.com/feldgrau-labs/chesstrack/backend/internal/database"
	"github.com/feldgrau-labs/chesstrack/backend/internal/importer"
	"github.com/feldgrau-labs/chesstrack/backend/internal/logging"
	"github.com/feldgrau-labs/chesstrack/backend/internal/mistakes"
	"github.com/feldgrau-labs/chesstrack/backend/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "chesstrack-api",
		Short: "Chess study tracking backend service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	rootCmd.AddCommand(newImportCommand("import-activities", "Load a legacy activity spreadsheet CSV",
		func(ctx context.Context, svc *importer.Service, file *os.File) (importer.Result, error) {
			return svc.ImportActivities(ctx, file)
		}))
	rootCmd.AddCommand(newImportCommand("import-mistakes", "Load a legacy game-mistake spreadsheet CSV",
		func(ctx context.Context, svc *importer.Service, file *os.File) (importer.Result, error) {
			return svc.ImportMistakes(ctx, file)
		}))

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("default-page-size", defaults.GetInt("http.default_page_size"), "Page size applied when the client omits a limit")
	cmd.PersistentFlags().Int("max-page-size", defaults.GetInt("http.max_page_size"), "Upper bound for client-supplied limits")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "http.default_page_size", "default-page-size")
	bindFlag(cmd, "http.max_page_size", "max-page-size")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// appStack bundles the shared service stack behind both the API server and
// the one-shot importers.
type appStack struct {
	config     config.AppConfig
	activities *activities.Service
	mistakes   *mistakes.Service
	logger     *zap.Logger
	cleanup    func()
}

func openStack() (*appStack, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	cleanup := func() {
		sqlDB.Close()
		logger.Sync() //nolint:errcheck
	}

	activityService, err := activities.NewService(activities.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		cleanup()
		return nil, err
	}
	mistakeService, err := mistakes.NewService(mistakes.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		cleanup()
		return nil, err
	}

	return &appStack{
		config:     appConfig,
		activities: activityService,
		mistakes:   mistakeService,
		logger:     logger,
		cleanup:    cleanup,
	}, nil
}

func runServer(ctx context.Context) error {
	stack, err := openStack()
	if err != nil {
		return err
	}
	defer stack.cleanup()

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Activities: stack.activities,
		Mistakes:   stack.mistakes,
		Clock:      time.Now,
		Pages: server.PageDefaults{
			Limit: stack.config.DefaultPageSize,
			Max:   stack.config.MaxPageSize,
		},
		Logger: stack.logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    stack.config.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		stack.logger.Info("server starting", zap.String("address", stack.config.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func newImportCommand(use, short string, run func(context.Context, *importer.Service, *os.File) (importer.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <csv-file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := openStack()
			if err != nil {
				return err
			}
			defer stack.cleanup()

			importService, err := importer.NewService(importer.ServiceConfig{
				Activities: stack.activities,
				Mistakes:   stack.mistakes,
				Logger:     stack.logger,
			})
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			result, err := run(cmd.Context(), importService, file)
			if err != nil {
				return err
			}
			stack.logger.Info("import complete",
				zap.String("file", args[0]),
				zap.Int("inserted", result.Inserted),
				zap.Int("skipped", result.Skipped))
			return nil
		},
	}
}
