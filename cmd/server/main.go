package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"

	"github.com/fanari/go-account"
	"github.com/fanari/go-account/middleware/guard"
)

const sessionLocalsKey = "account_session"
const claimsContextKey = "user"

func main() {
	ctx := context.Background()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := openDatabase(ctx, cfg.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	repo := account.NewRepositoryManager(db)
	repo.MustValidate()

	verifier := account.NewVerifier(repo)
	tokens := account.NewTokenService([]byte(cfg.SigningKey), cfg.TokenIssuer, nil, nil)
	refresh := account.NewRefreshService(repo.RefreshTokens(), []byte(cfg.RefreshSigningKey))

	notifier, err := buildNotifier(cfg)
	if err != nil {
		log.Fatal(err)
	}

	sessions := session.New()

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		app := router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: cfg.Debug,
			StrictRouting:     false,
		}))

		app.Use(func(c *fiber.Ctx) error {
			sess, err := sessions.Get(c)
			if err == nil {
				c.Locals(sessionLocalsKey, sess)
			}
			return c.Next()
		})

		return app
	})

	account.RegisterAccountRoutes(srv.Router(),
		account.WithControllerDebug(cfg.Debug),
		account.WithControllerRepo(repo),
		account.WithControllerServices(verifier, tokens, refresh, notifier),
		account.WithSessionProvider(sessionProvider),
	)

	protected := guard.New(guard.Config{
		TokenValidator: validatorAdapter{tokens: tokens},
		ContextKey:     claimsContextKey,
		SigningKey:     guard.SigningKey{JWTAlg: "HS256", Key: []byte(cfg.SigningKey)},
	})

	adminOnly := guard.New(guard.Config{
		TokenValidator: validatorAdapter{tokens: tokens},
		ContextKey:     claimsContextKey,
		SigningKey:     guard.SigningKey{JWTAlg: "HS256", Key: []byte(cfg.SigningKey)},
		Requires:       guard.RequireRole(string(account.RoleAdministrator)),
	})

	srv.Router().Get("/me", profileShow(repo), protected)
	srv.Router().Get("/admin/accounts/:id", accountShow(repo), adminOnly)

	srv.Serve(cfg.Addr)

	waitExitSignal()

	if err := srv.Shutdown(ctx); err != nil {
		log.Println("shutdown error:", err)
	}
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	migrationsFS, err := fs.Sub(account.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(migrationsFS); err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, err
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

func buildNotifier(cfg *Config) (account.Notifier, error) {
	if cfg.SMTP.Host == "" {
		log.Println("no SMTP host configured, dropping outbound email")
		return account.NoopNotifier{}, nil
	}

	return account.NewEmailNotifier(account.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

func sessionProvider(ctx router.Context) account.SessionStore {
	sess, ok := ctx.Locals(sessionLocalsKey).(*session.Session)
	if !ok {
		return nil
	}
	return account.NewFiberSessionStore(sess)
}

// validatorAdapter narrows the token service to the guard's interface.
type validatorAdapter struct {
	tokens account.TokenService
}

func (v validatorAdapter) Validate(tokenString string) (guard.AuthClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func profileShow(repo account.RepositoryManager) router.HandlerFunc {
	return func(c router.Context) error {
		claims, ok := c.Locals(claimsContextKey).(account.AuthClaims)
		if !ok {
			return c.Status(http.StatusUnauthorized).SendString("missing claims context")
		}

		id, err := account.ParseID(claims.UserID())
		if err != nil {
			return c.Status(http.StatusBadRequest).SendString("malformed subject")
		}

		acc, err := repo.Accounts().Get(c.Context(), id)
		if err != nil {
			return c.Status(account.StatusFromError(err)).SendString("account not found")
		}

		return c.JSON(http.StatusOK, acc)
	}
}

func accountShow(repo account.RepositoryManager) router.HandlerFunc {
	return func(c router.Context) error {
		id, err := account.ParseID(c.Param("id"))
		if err != nil {
			return c.Status(http.StatusBadRequest).SendString("malformed account id")
		}

		acc, err := repo.Accounts().Get(c.Context(), id)
		if err != nil {
			return c.Status(account.StatusFromError(err)).SendString("account not found")
		}

		return c.JSON(http.StatusOK, acc)
	}
}

func waitExitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
