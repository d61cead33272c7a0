package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/config"
	"github.com/parkease/parkease/internal/connectivity"
	"github.com/parkease/parkease/internal/database"
	"github.com/parkease/parkease/internal/gateway"
	"github.com/parkease/parkease/internal/handler"
	"github.com/parkease/parkease/internal/middleware"
	"github.com/parkease/parkease/internal/repository"
	"github.com/parkease/parkease/internal/router"
	"github.com/parkease/parkease/internal/search"
	"github.com/parkease/parkease/internal/seed"
	"github.com/parkease/parkease/internal/syncq"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()

	// Repositories.
	index := repository.NewSearchIndexRepo(db)
	spots := repository.NewSpotRepo(db, index)
	tiles := repository.NewTileRepo(db)
	cities := repository.NewCityRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tasks := syncq.NewPublisher()
	bookings := repository.NewBookingRepo(db, spots, tasks)
	payments := repository.NewPaymentRepo(db, tasks)

	// Connectivity probe; the process starts assuming it is online and
	// the probe corrects that within one interval.
	status := connectivity.New(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go status.Probe(ctx, &http.Client{Timeout: 5 * time.Second}, cfg.ProbeURL, 30*time.Second)

	// Gateway cache: redis when reachable, in-process otherwise.
	gwCfg := config.LoadGatewayConfig()
	rdb := config.NewRedisClient()
	var cache gateway.Cache
	if rdb != nil {
		cache = gateway.NewRedisCache(rdb)
	} else {
		cache = gateway.NewMemoryCache()
	}
	gw := gateway.New(gwCfg, cache, tiles, status, tasks, nil)

	// First-run data import.
	seeder := &seed.Seeder{
		Spots:     spots,
		Cities:    cities,
		Client:    &http.Client{Timeout: 15 * time.Second},
		SpotsURL:  cfg.SpotsDataURL,
		CitiesURL: cfg.CitiesDataURL,
	}
	if err := seeder.Initialize(ctx); err != nil {
		log.Fatalf("seed store: %v", err)
	}

	engine := search.NewEngine(spots, index)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens, status)
	spotH := handler.NewSpotHandler(spots, engine)
	bookingH := handler.NewBookingHandler(bookings)
	paymentH := handler.NewPaymentHandler(payments, bookings)
	cityH := handler.NewCityHandler(cities)
	healthH := handler.NewHealthHandler(status)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterShell(e, gw, cfg.PublicDir)
	router.RegisterPublic(e, spotH, cityH, healthH, gw)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterBookings(e, bookingH, paymentH, gw, cfg.JWTSecret)

	// Background sync consumer: wakes on queued task names and reports
	// what a reconciliation pass would cover.
	flusher := syncq.LogFlusher{Pending: func(ctx context.Context, collection string) (int, error) {
		switch collection {
		case "bookings":
			return bookings.Count(ctx)
		case "payments":
			return payments.Count(ctx)
		case "mapTiles":
			return tiles.Count(ctx)
		}
		return 0, nil
	}}
	go func() {
		if err := syncq.StartConsumer(flusher); err != nil {
			log.Printf("sync consumer stopped: %v", err)
		}
	}()

	// Warm the shell and tile caches once the server is up.
	go func() {
		time.Sleep(time.Second)
		base := "http://127.0.0.1:" + cfg.Port
		gw.Precache(ctx, base)
		if err := gw.Activate(ctx); err != nil {
			log.Printf("cache activation: %v", err)
		}
		for _, city := range cities.GetAll(ctx) {
			if n, err := gw.PrecacheTiles(ctx, city.Lat, city.Lng); err == nil && n > 0 {
				log.Printf("precached %d tiles around %s", n, city.Name)
			}
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
