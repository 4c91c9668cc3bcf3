package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/moba-pay/moba_wallet/internal/account"
	"github.com/moba-pay/moba_wallet/internal/auth"
	"github.com/moba-pay/moba_wallet/internal/bankkey"
	"github.com/moba-pay/moba_wallet/internal/config"
	"github.com/moba-pay/moba_wallet/internal/legacyswitch"
	"github.com/moba-pay/moba_wallet/internal/middleware"
	"github.com/moba-pay/moba_wallet/internal/pincrypto"
	"github.com/moba-pay/moba_wallet/internal/token"
	"github.com/moba-pay/moba_wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	// Health
	RegisterHealthRoutes(app, d)

	// Repositories
	var accounts account.Repository
	var walletRepo wallet.Repository
	var keyStore bankkey.Store
	if d.DB != nil {
		accounts = account.NewPostgresRepository(d.DB)
		walletRepo = wallet.NewPostgresRepository(d.DB)
		keyStore = bankkey.NewPostgresStore(d.DB)
	} else {
		accounts = account.NewMemoryRepository()
		walletRepo = wallet.NewMemoryRepository()
		keyStore = bankkey.NewMemoryStore()
	}

	// Services and handlers
	tokens := token.NewService(d.Cfg.JWTSecret)
	keyCache := bankkey.NewCache(keyStore, d.Cfg.MasterKey)
	pins := pincrypto.NewService(keyCache)
	forwarder := legacyswitch.NewLoggerForwarder(d.Logger)
	walletSvc := wallet.NewService(walletRepo, accounts, pins, forwarder)
	authSvc := auth.NewService(accounts, tokens, d.Cfg.TokenTTL, d.Cache)
	authHandler := auth.NewHandler(authSvc, accounts, walletSvc)
	walletHandler := wallet.NewHandler(walletSvc)

	// Every /api/v1 request passes the authentication gate; the gate's
	// allow-list lets the public endpoints through untouched.
	api := app.Group("/api/v1", middleware.AuthGateWithDeviceBinding(tokens, accounts))

	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	RegisterWalletRoutes(api, walletHandler, d)

	api.Get("/me", func(c *fiber.Ctx) error {
		principal, ok := c.Locals(middleware.LocalPrincipal).(account.Principal)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "no principal bound")
		}
		return c.JSON(fiber.Map{
			"mobile":        principal.Mobile,
			"wallet_number": principal.WalletNumber,
			"bank_code":     principal.BankCode,
			"client_code":   principal.ClientCode,
			"role":          principal.Role,
		})
	})

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
