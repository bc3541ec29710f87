package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/config"
	"github.com/ray-remotestate/cafedash/dashboard"
	"github.com/ray-remotestate/cafedash/database"
	"github.com/ray-remotestate/cafedash/handlers"
	"github.com/ray-remotestate/cafedash/imagehost"
	"github.com/ray-remotestate/cafedash/server"
	"github.com/ray-remotestate/cafedash/session"
)

const (
	shutdownTimeOut = 10 * time.Second
	upstreamTimeout = 30 * time.Second

	workspaceSweepInterval = 10 * time.Minute
)

func main() {
	root := &cobra.Command{
		Use:           "cafedash",
		Short:         "Backend for the café administration dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("cafedash failed")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the session store migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := database.ConnectAndMigrate(cfg.Database); err != nil {
				return err
			}
			logrus.Println("migration is successful")
			return database.ShutdownDatabase()
		},
	}
}

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen address, overrides PORT")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	var store session.Store
	switch cfg.SessionStore {
	case config.StoreMemory:
		logrus.Warn("using in-memory session store, sessions will not survive a restart")
		store = session.NewMemoryStore()
	default:
		if err := database.ConnectAndMigrate(cfg.Database); err != nil {
			return err
		}
		logrus.Println("migration is successful")
		defer func() {
			if err := database.ShutdownDatabase(); err != nil {
				logrus.WithError(err).Error("failed to close database connection!")
			}
		}()
		store = session.NewPostgresStore()
	}

	httpClient := &http.Client{Timeout: upstreamTimeout}
	api := cafeapi.New(cfg.APIBaseURL, httpClient)
	images := imagehost.New("", cfg.CloudflareAccountID, cfg.CloudflareAPIToken, httpClient)
	if !images.Configured() {
		logrus.Warn("cloudflare credentials not configured, image uploads are disabled")
	}

	sessions := session.NewManager(store, api, cfg.SecretKey, cfg.CookieSecure)
	registry := dashboard.NewRegistry(api, sessions)
	srv := server.SetupRoutes(
		cfg.Port,
		handlers.NewRelay(api, httpClient, images),
		handlers.NewDashboard(sessions, registry, images),
		sessions,
	)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Printf("server listening on %s", cfg.Port)
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutting down...")
		return srv.Shutdown(shutdownTimeOut)
	})
	g.Go(func() error {
		return registry.Sweep(gctx, workspaceSweepInterval, dashboard.DefaultIdleTimeout)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logrus.Info("system is shut ..zzz")
	return nil
}
