package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/config"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/confirmations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/database"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/integrity"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/logging"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/server"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/songs"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/store"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/transports"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/uploads"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wedding-api",
		Short: "Wedding invitations, RSVPs, transport and playlist backend",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

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
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", defaults.GetString("log.format"), "Log format (json, console)")
	cmd.PersistentFlags().String("uploads-dir", defaults.GetString("uploads.dir"), "Directory uploaded images are written to")
	cmd.PersistentFlags().Int("uploads-max-files", defaults.GetInt("uploads.max_files"), "Maximum files per multi-file upload")
	cmd.PersistentFlags().StringSlice("cors-allowed-origins", defaults.GetStringSlice("cors.allowed_origins"), "Allowed CORS origins")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.format", "log-format")
	bindFlag(cmd, "uploads.dir", "uploads-dir")
	bindFlag(cmd, "uploads.max_files", "uploads-max-files")
	bindFlag(cmd, "cors.allowed_origins", "cors-allowed-origins")
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
		if cfgFile != "" || !errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	deps, err := buildDependencies(db, appConfig, logger)
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(deps)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func buildDependencies(db *gorm.DB, appConfig config.AppConfig, logger *zap.Logger) (server.Dependencies, error) {
	ids := store.NewUUIDProvider()

	invitationService, err := invitations.NewService(invitations.ServiceConfig{
		Database:   db,
		IDProvider: ids,
		Logger:     logger,
	})
	if err != nil {
		return server.Dependencies{}, err
	}

	references, err := integrity.NewReferenceValidator(db, invitations.TableName)
	if err != nil {
		return server.Dependencies{}, err
	}
	links, err := integrity.NewUniquenessValidator(db, songs.TableName, songs.LinkColumn)
	if err != nil {
		return server.Dependencies{}, err
	}

	confirmationService, err := confirmations.NewService(confirmations.ServiceConfig{
		Database:    db,
		IDProvider:  ids,
		References:  references,
		Invitations: invitationService,
		Logger:      logger,
	})
	if err != nil {
		return server.Dependencies{}, err
	}

	transportService, err := transports.NewService(transports.ServiceConfig{
		Database:    db,
		IDProvider:  ids,
		References:  references,
		Invitations: invitationService,
		Logger:      logger,
	})
	if err != nil {
		return server.Dependencies{}, err
	}

	songService, err := songs.NewService(songs.ServiceConfig{
		Database:    db,
		IDProvider:  ids,
		References:  references,
		Links:       links,
		Invitations: invitationService,
		Logger:      logger,
	})
	if err != nil {
		return server.Dependencies{}, err
	}

	uploadStore, err := uploads.NewStore(uploads.Config{
		Filesystem: afero.NewOsFs(),
		Directory:  appConfig.UploadsDir,
		MaxFiles:   appConfig.UploadMaxFiles,
		Logger:     logger,
	})
	if err != nil {
		return server.Dependencies{}, err
	}

	return server.Dependencies{
		Invitations:    invitationService,
		Confirmations:  confirmationService,
		Transports:     transportService,
		Songs:          songService,
		Uploads:        uploadStore,
		Health:         database.NewPinger(db),
		Events:         server.NewChangeDispatcher(),
		AllowedOrigins: appConfig.CORSAllowedOrigins,
		Logger:         logger,
	}, nil
}
