package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/aaravmahajanofficial/ebike-storefront/docs"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/cache"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/chat"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/config"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/health"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/realtime"
	repository "github.com/aaravmahajanofficial/ebike-storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/ebike-storefront/internal/services"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/telemetry"
	"github.com/aaravmahajanofficial/ebike-storefront/pkg/storeapi"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//	@title						E-bike Storefront API
//	@version					1.0
//	@description				Edge service for the e-bike storefront: cart pricing, coupons, currency preferences and live chat.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the admin JWT.
func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	_, shutdownTracing, err := telemetry.InitTracer(context.Background(), cfg.Otel)
	if err != nil {
		slog.Error("❌ Error initialising tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Cart store
	var (
		repos     *repository.Repository
		cartStore repository.CartStore
	)
	switch cfg.CartStore {
	case "memory":
		cartStore = repository.NewMemoryCartStore()
		slog.Warn("Carts are kept in memory and will not survive a restart")
	default:
		repos, err = repository.New(cfg)
		if err != nil {
			slog.Error("❌ Error accessing the database", "error", err.Error())
			os.Exit(1)
		}
		cartStore = repos.Cart
	}

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if repos == nil {
			return
		}
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
		}
	}()

	redisCache := cache.NewRedisCache(redisClient, &cfg.Cache)
	storeClient := storeapi.NewClient(cfg.StoreAPI.BaseURL, cfg.StoreAPI.Timeout)
	rateLimiter := repository.NewRateLimitRepo(redisClient, cfg.RateConfig)
	prefsRepo := repository.NewPreferencesRepo(redisClient, cfg.Cache.SessionTTL)

	preferencesService, err := service.NewPreferencesService(prefsRepo, cfg.Currency.Default)
	if err != nil {
		slog.Error("❌ Invalid default currency", slog.String("error", err.Error()))
		os.Exit(1)
	}
	productService := service.NewProductService(storeClient, redisCache, cfg.Cache.ProductTTL)
	couponService := service.NewCouponService(storeClient, redisCache, rateLimiter, cartStore, cfg.Cache.SessionTTL)
	cartService := service.NewCartService(cartStore, productService, couponService, preferencesService)

	transportFactory := func() chat.Transport {
		return realtime.NewClient(realtime.Options{
			URL:          cfg.Realtime.URL,
			DialTimeout:  cfg.Realtime.DialTimeout,
			PingInterval: cfg.Realtime.PingInterval,
		}, logger)
	}
	chatManager := chat.NewManager(storeClient, preferencesService, transportFactory, cfg.Chat, logger)
	chatManager.Start()

	cartHandler := handlers.NewCartHandler(cartService)
	couponHandler := handlers.NewCouponHandler(couponService)
	preferencesHandler := handlers.NewPreferencesHandler(preferencesService)
	chatHandler := handlers.NewChatHandler(chatManager)
	adminChatHandler := handlers.NewAdminChatHandler(chatManager)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	endpoints := &health.Endpoints{RedisClient: redisClient}
	if repos != nil {
		endpoints.DB = repos.DB
	}
	healthHandler, err := health.NewHealthHandler(cfg, endpoints)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("cart_store", cfg.CartStore), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/cart", cartHandler.GetCart())
	routerMux.HandleFunc("DELETE /api/v1/cart", cartHandler.ClearCart())
	routerMux.HandleFunc("POST /api/v1/cart/items", cartHandler.AddItem())
	routerMux.HandleFunc("PATCH /api/v1/cart/items/{productId}", cartHandler.UpdateItemOptions())
	routerMux.HandleFunc("PUT /api/v1/cart/items/{productId}/quantity", cartHandler.UpdateQuantity())
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{productId}", cartHandler.RemoveItem())
	routerMux.HandleFunc("POST /api/v1/cart/coupon", couponHandler.ApplyCoupon())
	routerMux.HandleFunc("DELETE /api/v1/cart/coupon", couponHandler.CancelCoupon())
	routerMux.HandleFunc("GET /api/v1/currencies", preferencesHandler.ListCurrencies())
	routerMux.HandleFunc("GET /api/v1/preferences", preferencesHandler.GetPreferences())
	routerMux.HandleFunc("PUT /api/v1/preferences", preferencesHandler.UpdatePreferences())
	routerMux.HandleFunc("POST /api/v1/chat", chatHandler.StartChat())
	routerMux.HandleFunc("GET /api/v1/chat", chatHandler.GetChat())
	routerMux.HandleFunc("DELETE /api/v1/chat", chatHandler.EndChat())
	routerMux.HandleFunc("POST /api/v1/chat/messages", chatHandler.SendMessage())
	routerMux.HandleFunc("POST /api/v1/chat/typing", chatHandler.Typing())
	routerMux.HandleFunc("GET /api/v1/admin/chats", authMiddleware.RequireAdmin(adminChatHandler.ListChats()))
	routerMux.HandleFunc("GET /api/v1/admin/chats/stats", authMiddleware.RequireAdmin(adminChatHandler.Stats()))
	routerMux.HandleFunc("DELETE /api/v1/admin/chats/open", authMiddleware.RequireAdmin(adminChatHandler.LeaveChat()))
	routerMux.HandleFunc("GET /api/v1/admin/chats/{id}", authMiddleware.RequireAdmin(adminChatHandler.OpenChat()))
	routerMux.HandleFunc("POST /api/v1/admin/chats/{id}/messages", authMiddleware.RequireAdmin(adminChatHandler.SendMessage()))
	routerMux.HandleFunc("POST /api/v1/admin/chats/{id}/typing", authMiddleware.RequireAdmin(adminChatHandler.Typing()))
	routerMux.HandleFunc("POST /api/v1/admin/chats/{id}/close", authMiddleware.RequireAdmin(adminChatHandler.CloseChat()))
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Session(int(cfg.Cache.SessionTTL.Seconds()))(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "storefront")
	handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.SessionHeader, "X-Request-ID"},
		ExposedHeaders:   []string{middleware.SessionHeader, "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(handler)

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := chatManager.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Chat clients did not release in time", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Tracer shutdown failed", slog.String("error", err.Error()))
	}

}
