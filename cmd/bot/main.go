package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vklymiuk/tg-star-shop/internal/bot"
	"github.com/vklymiuk/tg-star-shop/internal/config"
	kafkax "github.com/vklymiuk/tg-star-shop/internal/kafka"
	"github.com/vklymiuk/tg-star-shop/internal/orders"
	"github.com/vklymiuk/tg-star-shop/internal/postgres"
	"github.com/vklymiuk/tg-star-shop/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.BotToken == "" {
		log.Fatal("BOT_TOKEN is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	b, err := bot.New(cfg.BotToken, &orders.Repo{DB: db}, rdb, cfg.WebAppURL, cfg.ServiceName+"-bot")
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	// Telegram long polling (commands, pre-checkout, payments)
	go b.Run(ctx)

	// Consumer: order.created -> invoice / confirmation
	group := getenv("BOT_GROUP", "shop-bot")
	workers := mustAtoi(os.Getenv("BOT_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers)

	go func() {
		log.Printf("bot consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderCreated, workers)
		if err := cons.Start(ctx, b.HandleOrderCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down bot...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
