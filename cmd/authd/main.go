package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	auth "github.com/kloydmatyo/workqit-auth"
	"github.com/kloydmatyo/workqit-auth/repository"
	"github.com/kloydmatyo/workqit-auth/social"
	"github.com/kloydmatyo/workqit-auth/social/providers/google"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.IsProduction(), "authd")

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("database open failed: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := bootstrapSchema(ctx, db); err != nil {
		logger.Error("schema bootstrap failed: %v", err)
		os.Exit(1)
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	activitySink := auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		logger.named("activity").Info("%s user=%s actor=%s", event.EventType, event.UserID, event.Actor.ID)
		return nil
	})

	provider := auth.NewAccountProvider(repo.Accounts())
	auther := auth.NewAuthenticator(provider, cfg).
		WithLogger(logger.named("auth")).
		WithActivitySink(activitySink)

	httpAuth, err := auth.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		logger.Error("http authenticator init failed: %v", err)
		os.Exit(1)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       "workqit-auth",
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	auth.RegisterAuthRoutes(srv.Router(),
		auth.WithControllerLogger(logger.named("http")),
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(httpAuth),
		auth.WithControllerConfig(cfg),
	)

	auth.RegisterAdminRoutes(srv.Router(),
		auth.WithControllerLogger(logger.named("admin")),
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(httpAuth),
		auth.WithControllerConfig(cfg),
	)

	if cfg.GoogleClientID != "" {
		registerSocialRoutes(srv, cfg, repo, db, auther, activitySink, logger)
	} else {
		logger.Warn("google oauth not configured, external sign-in disabled")
	}

	logger.Info("listening on %s", cfg.HTTPAddr)
	if err := srv.Serve(cfg.HTTPAddr); err != nil {
		logger.Error("server error: %v", err)
		os.Exit(1)
	}

	waitExitSignal()
}

func registerSocialRoutes(
	srv router.Server[*fiber.App],
	cfg *Config,
	repo auth.RepositoryManager,
	db *bun.DB,
	auther *auth.Auther,
	sink auth.ActivitySink,
	logger *zeroLogger,
) {
	socialAuth := social.NewAuthenticator(
		repo.Accounts(),
		repository.NewIdentityLinks(db),
		auther.TokenService(),
		social.Config{
			DefaultRedirectURL: "/",
			DefaultRole:        auth.RoleJobSeeker,
			StateHMACKey:       []byte(cfg.OAuthStateHMACKey),
		},
		social.WithProvider(google.New(google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		})),
		social.WithActivitySink(sink),
		social.WithLogger(logger.named("social")),
	)

	controller := social.NewHTTPController(socialAuth, social.HTTPConfig{
		SessionContextKey: cfg.ContextKey,
		CookieSecure:      cfg.IsProduction(),
		CookieSameSite:    cookieSameSite(cfg),
	})

	controller.RegisterRoutes(srv.Router().Group("/auth/oauth"))
}

func cookieSameSite(cfg *Config) string {
	if cfg.IsProduction() {
		return "Strict"
	}
	return "Lax"
}

func openDatabase(cfg *Config) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func waitExitSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
