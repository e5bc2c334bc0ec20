package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/config"
	"github.com/adplatform/admin-api/internal/database"
	"github.com/adplatform/admin-api/internal/handler"
	"github.com/adplatform/admin-api/internal/middleware"
	"github.com/adplatform/admin-api/internal/queue"
	"github.com/adplatform/admin-api/internal/repository"
	"github.com/adplatform/admin-api/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	accounts := repository.NewAccountRepo(db)
	memberships := repository.NewMembershipRepo(db)
	plans := repository.NewAdPlanRepo(db)
	groups := repository.NewAdGroupRepo(db)
	creatives := repository.NewAdCreativeRepo(db)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, cfg.TokenRenewWithin, memberships)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	// Redis-backed rate limiting and response caching. A nil client
	// (Redis unreachable) degrades both to pass-through. The cache is
	// handed to the router so it mounts behind authentication; it must
	// never answer a request whose token was not verified first.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	h := router.Handlers{
		Auth:       handler.NewAuthHandler(users, memberships, tokens, cfg.BcryptCost),
		AdminUsers: handler.NewAdminUserHandler(users, memberships, accounts, cfg.BcryptCost),
		Accounts:   handler.NewAccountHandler(accounts),
		AdPlans:    handler.NewAdPlanHandler(plans),
		AdGroups:   handler.NewAdGroupHandler(groups),
		AdCreative: handler.NewAdCreativeHandler(creatives),
		Users:      handler.NewUserHandler(accounts),
	}
	router.Register(e, h, middleware.BearerAuth(tokens, users), cache)

	// Membership audit consumer; reconnects on its own, never stops
	// the server.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
