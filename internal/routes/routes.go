package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/walletd/walletd/internal/auth"
	"github.com/walletd/walletd/internal/catalog"
	"github.com/walletd/walletd/internal/config"
	"github.com/walletd/walletd/internal/identity"
	"github.com/walletd/walletd/internal/logging"
	"github.com/walletd/walletd/internal/middleware"
	"github.com/walletd/walletd/internal/notification"
	"github.com/walletd/walletd/internal/promotion"
	"github.com/walletd/walletd/internal/store"
	"github.com/walletd/walletd/internal/transfer"
	"github.com/walletd/walletd/internal/wallet"
)

const accessTokenTTL = time.Hour

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Notifier notification.Notifier
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLoggerNotifier(d.Logger)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var walletStore store.Store
	if d.DB != nil {
		walletStore = store.NewPostgres(d.DB)
	} else {
		d.Logger.Warn("no database configured, using in-memory wallet store")
		walletStore = store.NewMemory()
	}

	currencies := catalog.NewStatic(d.Cfg.Currencies...)
	bonus := promotion.NewFlat(d.Cfg.BonusDefault, d.Cfg.BonusOverrides)
	walletSvc := wallet.NewService(walletStore, currencies, bonus, d.Logger)
	transferSvc := transfer.NewService(walletStore, d.Notifier, d.Logger)
	issuer := auth.NewIssuer(d.Cfg.JWTSecret, accessTokenTTL)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	RegisterCatalogRoutes(api, currencies)

	if d.Cfg.IsDev() {
		RegisterDevRoutes(api, identity.NewHandler(identity.NewService(walletStore), issuer))
	}

	protected := api.Group("", middleware.JWTAuth(issuer))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterWalletRoutes(protected, wallet.NewHandler(walletSvc))
	RegisterTransferRoutes(protected, transfer.NewHandler(transferSvc),
		middleware.TransferRateLimit(d.Cache, d.Cfg.TransferRatePerMinute, d.Logger))

	return nil
}
