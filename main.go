package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"google.golang.org/api/option"

	"backcheck-service/internal/cache"
	"backcheck-service/internal/config"
	"backcheck-service/internal/email"
	"backcheck-service/internal/events"
	"backcheck-service/internal/fcm"
	"backcheck-service/internal/identity"
	"backcheck-service/internal/middleware"
	"backcheck-service/internal/profile"
	"backcheck-service/internal/service"
	"backcheck-service/internal/sse"
	"backcheck-service/internal/store"
	"backcheck-service/internal/sync"
	"backcheck-service/internal/transport/http"
	"backcheck-service/utils"
)

var startTime time.Time

func main() {
	startTime = time.Now()
	cfg := config.Load()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var fbApp *firebase.App
	if cfg.StoreDriver == "firestore" || cfg.AuthDriver == "firebase" {
		app, err := newFirebaseApp(ctx, cfg)
		if err != nil {
			log.Fatalf("❌ [FIREBASE] Failed to initialize app: %v", err)
		}
		fbApp = app
		log.Println("✅ [FIREBASE] App initialized")
	}

	docStore := openStore(ctx, cfg, fbApp)
	defer docStore.Close()

	profileCache, closeCache := openCache(ctx, cfg)
	defer closeCache()

	profiles := profile.NewRepository(docStore, profileCache)
	provider := openProvider(ctx, cfg, fbApp)

	bus, err := events.NewBus(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Fatalf("❌ [EVENTS] Failed to initialize bus: %v", err)
	}
	defer bus.Close()

	broker := sse.NewBroker()
	accounts := service.NewAccountService(provider, profiles, docStore, broker, bus, cfg.BackendTimeout)
	search := service.NewSearchService(docStore, bus)
	log.Println("✅ [SERVICE] Account & search services initialized")

	var mailer service.Mailer
	if cfg.SMTPEnabled() {
		mailer = email.NewSender(cfg)
		log.Printf("✅ [SMTP] Email enabled via %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	} else {
		log.Println("⚠️ [SMTP] Email disabled (no SMTP_HOST/SMTP_USER)")
	}

	var pusher service.Pusher
	if fbApp != nil {
		client, err := fcm.NewClient(ctx, fbApp)
		if err != nil {
			log.Printf("⚠️ [FCM] Push disabled: %v", err)
		} else {
			pusher = client
			log.Println("✅ [FCM] Client initialized")
		}
	}

	notifier := service.NewNotifyService(profiles, mailer, pusher, broker, cfg.AppURL)
	if err := notifier.Start(ctx, bus); err != nil {
		log.Fatalf("❌ [NOTIFY] Failed to subscribe: %v", err)
	}

	sweeper := sync.NewOrphanSweeper(docStore, provider, profiles, cfg.OrphanSweepInterval)
	sweeper.Start(ctx)

	var avatars http.AvatarUploader
	if cfg.R2Enabled() {
		avatarStore, err := utils.NewAvatarStore(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		})
		if err != nil {
			log.Fatalf("❌ [R2] Failed to initialize client: %v", err)
		}
		avatars = avatarStore
		log.Println("✅ [R2] Avatar store initialized")
	} else {
		log.Println("⚠️ [R2] Photo uploads disabled (no R2 config)")
	}

	if cfg.SeedDemoData {
		n, err := profile.SeedDemoTalents(ctx, profiles)
		if err != nil {
			log.Printf("⚠️ [SEED] Demo seeding failed: %v", err)
		} else {
			log.Printf("✅ [SEED] %d demo talents seeded", n)
		}
	}

	handler := http.NewHandler(accounts, search, profiles, avatars, broker, cfg.BackendTimeout)

	app := fiber.New(fiber.Config{
		AppName:      "backcheck-service",
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,Cache-Control",
		ExposeHeaders:    "X-Request-ID,Content-Type",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${ua}\n",
	}))

	handler.Register(app, middleware.Authenticate(provider, profiles, cfg.BackendTimeout))

	app.Get("/health", func(c *fiber.Ctx) error {
		lastSweep, _ := sweeper.LastSweep(c.UserContext())
		return c.JSON(fiber.Map{
			"status":       "ok",
			"service":      "backcheck-service",
			"uptime":       time.Since(startTime).Round(time.Second).String(),
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
			"store":        cfg.StoreDriver,
			"auth":         cfg.AuthDriver,
			"fcm_enabled":  pusher != nil,
			"smtp_enabled": mailer != nil,
			"sse_clients":  broker.TotalClientCount(),
			"last_sweep":   lastSweep,
		})
	})
	log.Println("✅ [ROUTES] Registered /health")

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("🛑 [SHUTDOWN] Graceful shutdown initiated...")
		stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ [SHUTDOWN] Error: %v", err)
		}
	}()

	log.Printf("🚀 backcheck-service starting...")
	log.Printf("   🔗 Listening on port: %s", cfg.ServerPort)
	log.Printf("   🌐 CORS allowed origins: %s", cfg.AllowedOrigins)
	log.Printf("   🗄️  Store: %s | Auth: %s", cfg.StoreDriver, cfg.AuthDriver)
	log.Println("✅ Server ready.")

	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("❌ [STARTUP] Server failed to start: %v", err)
	}
	notifier.Wait()
}

func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	conf := &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
	}
	return firebase.NewApp(ctx, conf, opts...)
}

func openStore(ctx context.Context, cfg *config.Config, fbApp *firebase.App) store.DocumentStore {
	switch cfg.StoreDriver {
	case "firestore":
		client, err := fbApp.Firestore(ctx)
		if err != nil {
			log.Fatalf("❌ [STORE] Firestore init failed: %v", err)
		}
		log.Println("✅ [STORE] Firestore connected")
		return store.NewFirestore(client)
	case "postgres":
		pg, err := store.NewPostgres(cfg)
		if err != nil {
			log.Fatalf("❌ [STORE] Postgres init failed: %v", err)
		}
		log.Println("✅ [STORE] Postgres connected & migrated")
		return pg
	case "memory":
		log.Println("⚠️ [STORE] Using in-memory store; data is lost on restart")
		return store.NewMemory()
	}
	log.Fatalf("❌ [STORE] Unknown STORE_DRIVER %q", cfg.StoreDriver)
	return nil
}

// openCache prefers redis and falls back to an in-process LRU.
func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, func()) {
	if cfg.RedisURL != "" {
		r, err := cache.NewRedisFromURL(ctx, cfg.RedisURL, "backcheck:", cfg.CacheTTL)
		if err == nil {
			log.Println("✅ [CACHE] Redis profile cache enabled")
			return r, func() { r.Close() }
		}
		log.Printf("⚠️ [CACHE] Redis unavailable, using LRU: %v", err)
	}
	log.Printf("✅ [CACHE] LRU profile cache (size %d, ttl %v)", cfg.LRUSize, cfg.CacheTTL)
	return cache.NewLRU(cfg.LRUSize, cfg.CacheTTL), func() {}
}

func openProvider(ctx context.Context, cfg *config.Config, fbApp *firebase.App) identity.Provider {
	switch cfg.AuthDriver {
	case "firebase":
		if cfg.FirebaseAPIKey == "" {
			log.Fatal("❌ [AUTH] FIREBASE_API_KEY is required for password sign-in")
		}
		toolkit := identity.NewToolkitClient(cfg.IdentityToolkitURL, cfg.FirebaseAPIKey)
		fb, err := identity.NewFirebase(ctx, fbApp, toolkit)
		if err != nil {
			log.Fatalf("❌ [AUTH] Firebase auth init failed: %v", err)
		}
		log.Println("✅ [AUTH] Firebase auth initialized")
		return fb
	case "memory":
		log.Println("⚠️ [AUTH] Using in-memory auth provider")
		return identity.NewMemory(cfg.SessionSecret, cfg.SessionTTL)
	}
	log.Fatalf("❌ [AUTH] Unknown AUTH_DRIVER %q", cfg.AuthDriver)
	return nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var errMsg string
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		errMsg = e.Message
	} else {
		errMsg = err.Error()
	}
	log.Printf("🔥 [ERROR] [%d] %s %s → %v | IP=%s | UA=%s",
		code,
		c.Method(),
		c.Path(),
		errMsg,
		c.IP(),
		c.Get("User-Agent"),
	)
	return c.Status(code).JSON(fiber.Map{
		"error":      "something went wrong",
		"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
	})
}
