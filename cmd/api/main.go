package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vklymiuk/tg-star-shop/internal/catalog"
	"github.com/vklymiuk/tg-star-shop/internal/config"
	"github.com/vklymiuk/tg-star-shop/internal/httpx"
	kafkax "github.com/vklymiuk/tg-star-shop/internal/kafka"
	"github.com/vklymiuk/tg-star-shop/internal/orders"
	"github.com/vklymiuk/tg-star-shop/internal/postgres"
	"github.com/vklymiuk/tg-star-shop/internal/pricing"
	"github.com/vklymiuk/tg-star-shop/internal/redisx"
)

func starsPolicy(cfg config.Config) pricing.StarsPolicy {
	if cfg.StarsPolicy == "hundreds" {
		return pricing.HundredsPolicy{}
	}
	return pricing.CeilPolicy{MobileRate: cfg.MobileStarsRate, DesktopRate: cfg.DesktopStarsRate}
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prod.Start(ctx)

	// Repos
	settingsRepo := &catalog.SettingsRepo{DB: db}
	adminRepo := &catalog.AdminRepo{DB: db}
	if err := settingsRepo.EnsureDefaults(ctx); err != nil {
		log.Fatalf("seed settings: %v", err)
	}
	if err := adminRepo.EnsureDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// Handlers
	router := httpx.NewRouter()
	adminOnly := httpx.AdminOnly([]byte(cfg.JWTSecret))

	ch := &httpx.CatalogHandler{
		Products: &catalog.ProductRepo{DB: db},
		Banners:  &catalog.BannerRepo{DB: db},
		Settings: &catalog.CachedSettings{Store: settingsRepo, Redis: rdb},
	}
	ch.Register(router, adminOnly)

	oh := &httpx.OrdersHandler{
		Store:    &orders.Repo{DB: db},
		Policy:   starsPolicy(cfg),
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	oh.Register(router, adminOnly)

	ah := &httpx.AdminHandler{Admins: adminRepo, JWTSecret: []byte(cfg.JWTSecret)}
	ah.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	if cfg.KeepAliveURL != "" {
		go keepAlive(ctx, cfg.KeepAliveURL)
	}

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}

// keepAlive pings the public URL so free-tier hosts do not idle the
// process out. Errors are irrelevant, the request itself is the point.
func keepAlive(ctx context.Context, url string) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	client := &http.Client{Timeout: 10 * time.Second}
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			resp, err := client.Get(url + "/healthz")
			if err != nil {
				continue
			}
			_ = resp.Body.Close()
		}
	}
}
