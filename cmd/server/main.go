package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-seating/internal/clock"
	"github.com/iliyamo/venue-seating/internal/config"
	"github.com/iliyamo/venue-seating/internal/database"
	"github.com/iliyamo/venue-seating/internal/handler"
	"github.com/iliyamo/venue-seating/internal/hold"
	"github.com/iliyamo/venue-seating/internal/middleware"
	"github.com/iliyamo/venue-seating/internal/money"
	"github.com/iliyamo/venue-seating/internal/pricing"
	"github.com/iliyamo/venue-seating/internal/queue"
	"github.com/iliyamo/venue-seating/internal/repository"
	"github.com/iliyamo/venue-seating/internal/resale"
	"github.com/iliyamo/venue-seating/internal/router"
	"github.com/iliyamo/venue-seating/internal/selection"
	"github.com/iliyamo/venue-seating/internal/settings"
	"github.com/iliyamo/venue-seating/internal/venue"
	"github.com/iliyamo/venue-seating/internal/viewport"
)

func main() {
	cfg := config.Load()
	policy := config.LoadPolicyConfig()
	holdCfg := config.LoadHoldConfig()
	queueCfg := config.LoadQueueConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	var db *sql.DB
	if cfg.DatabaseEnabled() {
		var err error
		db, err = database.Open(cfg)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("database: schema: %v", err)
		}
	}

	// Venues come from MySQL when configured, then a JSON directory, then
	// the built-in sample.
	var catalog venue.Catalog
	var seatStore selection.SeatStatusStore
	switch {
	case db != nil:
		repo := repository.NewVenueRepo(db)
		catalog, seatStore = repo, repo
	case cfg.VenueDir != "":
		catalog = venue.FileCatalog{Dir: cfg.VenueDir}
	default:
		log.Printf("venue: no catalog configured, serving sample venue %q", venue.SampleID)
		catalog = venue.StaticCatalog{venue.SampleID: venue.Sample()}
	}
	venues := venue.NewLoader(catalog, log.Default())

	auth := newAuthority(holdCfg, rdb, db)
	defer auth.Close()

	sessions := selection.NewManager(venues, selection.ManagerOptions{
		Auth:    auth,
		HoldTTL: holdCfg.TTL,
		IdleTTL: holdCfg.SessionIdleTTL,
	})
	go sessions.Run(ctx)
	alloc := &selection.Allocator{Venues: venues, Store: seatStore, Sessions: sessions}

	var publisher *queue.Publisher
	if queueCfg.Enabled {
		p, err := queue.NewPublisher(queueCfg)
		if err != nil {
			log.Printf("queue: broker unavailable, will retry on publish: %v", err)
		}
		publisher = p
		defer publisher.Close()

		evs, unsubscribe := sessions.Subscribe("")
		defer unsubscribe()
		go queue.ForwardEvictions(ctx, evs, publisher.SeatEvicted)

		go func() {
			err := queue.ConsumeSeatTaken(ctx, queueCfg.URL, queueCfg.SeatTakenQueue, func(ctx context.Context, ev queue.SeatTakenEvent) error {
				_, err := alloc.Take(ctx, ev.VenueID, ev.SeatID)
				return err
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("seat-taken-consumer: stopped: %v", err)
			}
		}()
	}

	pricingPolicy := pricing.Policy{
		ServiceFeeBps:     policy.ServiceFeeBps,
		ShieldBps:         policy.ShieldBps,
		BundleDiscountBps: policy.BundleDiscountBps,
		BundleThreshold:   policy.BundleThreshold,
	}
	pricer := &handler.Pricer{
		Engine: pricing.New(pricingPolicy, pricing.DefaultAddOns(pricingPolicy), log.Default()),
		Base:   money.Amount(policy.BasePricePence),
	}

	resaleSvc := &resale.Service{
		Engine: resale.NewEngine(resale.Policy{CapRatioBps: policy.ResaleCapBps, FeeRatioBps: policy.ResaleFeeBps}),
		Clock:  clock.Real(),
	}
	if db != nil {
		pricer.AddOns = repository.NewAddOnRepo(db)
		resaleSvc.Tickets = repository.NewTicketRepo(db)
		resaleSvc.Listings = repository.NewListingRepo(db)
	} else {
		mem := resale.NewMemoryStore(nil)
		resaleSvc.Tickets, resaleSvc.Listings = mem, mem
	}
	if publisher != nil {
		resaleSvc.Publisher = publisher
	}

	display, err := settings.NewStore(cfg.Currency, cfg.Locale)
	if err != nil {
		log.Fatalf("settings: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	venueH := handler.NewVenueHandler(venues, sessions, alloc)
	settingsH := handler.NewSettingsHandler(display)
	router.RegisterRoutes(e)
	router.RegisterPublic(e, venueH, handler.NewQuoteHandler(venues, pricer, display), settingsH,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterSessions(e,
		handler.NewSessionHandler(sessions, pricer, display),
		handler.NewStreamHandler(sessions, pricer, display, viewport.DefaultOptions()))
	router.RegisterOwner(e, venueH, settingsH, cfg.JWTSecret)
	router.RegisterResale(e, handler.NewListingHandler(resaleSvc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// newAuthority picks the hold backend.  Redis and MySQL are used when
// requested and reachable; otherwise holds live in this process.
func newAuthority(cfg config.HoldConfig, rdb *redis.Client, db *sql.DB) hold.Authority {
	switch {
	case cfg.Backend == "redis" && rdb != nil:
		return hold.NewRedis(rdb, cfg.Prefix, cfg.TTL, cfg.SweepEvery)
	case cfg.Backend == "mysql" && db != nil:
		return repository.NewSeatHoldRepo(db, clock.Real(), cfg.TTL, cfg.SweepEvery)
	case cfg.Backend != "memory":
		log.Printf("hold: %s backend unavailable, holding seats in memory", cfg.Backend)
	}
	return hold.NewMemory(clock.Real(), cfg.TTL, cfg.SweepEvery)
}
