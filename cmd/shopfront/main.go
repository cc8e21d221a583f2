package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"

	"shopfront/internal/blob"
	"shopfront/internal/cache"
	"shopfront/internal/config"
	"shopfront/internal/http/handlers"
	applog "shopfront/internal/log"
	"shopfront/internal/repos"
	"shopfront/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := repos.SeedCatalog(db, cfg.BusinessID); err != nil {
		log.Fatal(err)
	}
	if err := repos.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal(err)
	}

	mediaDir := absPath(cfg.MediaDir)
	for _, dir := range []string{mediaDir, cfg.StagingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	authSvc := services.NewAuthService(repos.NewUserRepo(db))
	deps := handlers.NewDeps(db, cfg, cartCache(cfg), blob.NewFSStore(mediaDir, cfg.PublicBaseURL))

	// finish orders whose pipeline stopped before the manifest was attached
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if n, err := deps.Pipeline.ResumeIncomplete(ctx); err != nil {
		applog.Error(nil, "startup.resume.fail", err, map[string]any{"resumed": n})
	} else if n > 0 {
		applog.Info(nil, "startup.resume", map[string]any{"resumed": n})
	}
	cancel()

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		// order image uploads come through /cart/customize
		BodyLimit: 4 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(compress.New())
	app.Use(handlers.SessionID(cfg.CookieSecure))
	app.Use(handlers.CurrentUser(authSvc))
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		// cart calls send the header, forms send the field
		Extractor:      handlers.CSRFToken,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})
	app.Use(handlers.CartSummary(deps.Cart))

	// ---------- Static assets ----------
	log.Printf("[static] /static -> ./web/static")
	log.Printf("[static] /media  -> %s", mediaDir)

	app.Static("/static", "./web/static")
	app.Get("/media/*", handlers.Media(mediaDir))

	// ---------- App handlers ----------
	handlers.Mount(app, deps, authSvc)
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}

// cartCache uses redis when REDIS_ADDR is set and reachable.
func cartCache(cfg config.Config) cache.CartCache {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		applog.Warn(nil, "startup.redis.unavailable", err, map[string]any{"addr": cfg.RedisAddr})
		_ = client.Close()
		return cache.NewMemoryCache()
	}
	log.Printf("[cache] carts -> redis %s", cfg.RedisAddr)
	return cache.NewRedisCache(client)
}

func absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
