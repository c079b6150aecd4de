package main // restaurant booking API server

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/trungdq/restaurant-booking/internal/config"
	"github.com/trungdq/restaurant-booking/internal/database"
	"github.com/trungdq/restaurant-booking/internal/handler"
	"github.com/trungdq/restaurant-booking/internal/middleware"
	"github.com/trungdq/restaurant-booking/internal/queue"
	"github.com/trungdq/restaurant-booking/internal/realtime"
	"github.com/trungdq/restaurant-booking/internal/repository"
	"github.com/trungdq/restaurant-booking/internal/router"
	"github.com/trungdq/restaurant-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		// Holds cannot work without Redis; caching and rate limiting
		// merely degrade.
		log.Fatal("redis: connection failed")
	}
	defer rdb.Close()
	service.EnableExpiryNotifications(ctx, rdb)

	pub := queue.NewPublisher(cfg.AMQPURL)
	defer pub.Close()

	// Repositories.
	menuRepo := repository.NewMenuRepo(db)
	comboRepo := repository.NewComboRepo(db)
	tableRepo := repository.NewTableRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	voucherRepo := repository.NewVoucherRepo(db)
	userRepo := repository.NewUserRepo(db)
	holdRepo := repository.NewHoldRepo(rdb)

	// The push pipeline: broker events fan out to every connected
	// WebSocket client, and expired holds are turned into events.
	hub := realtime.NewHub()
	go func() {
		if err := queue.StartConsumer(ctx, cfg.AMQPURL, hub.Broadcast); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()
	go service.WatchHoldExpiry(ctx, rdb, holdRepo, pub)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, userRepo),
		Catalog: handler.NewCatalogHandler(menuRepo, comboRepo, pub),
		Table:   handler.NewTableHandler(tableRepo, holdRepo, orderRepo, pub, time.Duration(cfg.HoldTTLSec)*time.Second),
		Order:   handler.NewOrderHandler(orderRepo, menuRepo, comboRepo, tableRepo, holdRepo, voucherRepo, pub),
		Voucher: handler.NewVoucherHandler(voucherRepo),
		Hub:     hub,
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
