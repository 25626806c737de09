package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/navarrio/authkit"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := LoadConfig()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to open database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if err := auth.ApplyMigrations(ctx, db); err != nil {
		return err
	}

	authLogger := auth.NewSlogLogger(logger)

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	provider := auth.NewUserProvider(userStoreAdapter{users: repo.Users()}).
		WithLogger(authLogger)

	auther, err := auth.NewAuthenticator(provider, cfg)
	if err != nil {
		return err
	}
	auther.WithLogger(authLogger)

	httpAuth, err := auth.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(authLogger)

	if err := seedAdminUser(ctx, cfg, repo, logger); err != nil {
		return err
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		app := router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       "authkit",
			StrictRouting: false,
		}))
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET, POST, OPTIONS",
		}))
		return app
	})

	protected := httpAuth.ProtectedRoute(cfg, httpAuth.MakeClientRouteAuthErrorHandler(false))

	auth.RegisterAuthRoutes(srv.Router(),
		auth.WithControllerConfig(cfg),
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(httpAuth),
		auth.WithControllerProtected(protected),
		auth.WithControllerLogger(authLogger),
		auth.WithControllerDebug(cfg.Debug),
	)

	logger.Info("starting server", "addr", cfg.ServerAddr)
	srv.Serve(cfg.ServerAddr)

	<-ctx.Done()
	logger.Info("shutting down")

	return nil
}

// seedAdminUser creates the bootstrap account when admin credentials are
// configured. An existing account is not an error.
func seedAdminUser(ctx context.Context, cfg *AppConfig, repo auth.RepositoryManager, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	handler := auth.NewRegisterUserHandler(repo)
	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})

	if err != nil {
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			logger.Info("admin user already present", "email", cfg.AdminEmail)
			return nil
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to seed admin user")
	}

	logger.Info("admin user created", "email", cfg.AdminEmail)
	return nil
}

// userStoreAdapter narrows the repository surface to what the identity
// provider needs
type userStoreAdapter struct {
	users auth.Users
}

func (a userStoreAdapter) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}
