// File: trimly/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trimly/config"
	"trimly/cron"
	"trimly/database"
	bookingRepo "trimly/database/repository/booking"
	notificationRepo "trimly/database/repository/notification"
	ratingRepo "trimly/database/repository/rating"
	shopRepo "trimly/database/repository/shop"
	"trimly/handlers"
	"trimly/middleware"
	"trimly/routes"
	"trimly/services/booking"
	"trimly/services/notification"
	"trimly/services/rating"
	"trimly/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	shops := shopRepo.NewMongoShopRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	ratings := ratingRepo.NewMongoRatingRepo()
	notifications := notificationRepo.NewMongoNotificationRepo()

	if mongoBookings, ok := bookings.(*bookingRepo.MongoBookingRepo); ok {
		if err := mongoBookings.EnsureIndexes(context.Background()); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure indexes: %v", err)
		}
	}

	// services.
	webhook := notification.NewWebhookClient(
		config.AppConfig.WebhookURL,
		time.Duration(config.AppConfig.WebhookTimeoutSec)*time.Second,
	)
	dispatcher, err := notification.NewDefaultDispatcher(notifications, shops, webhook)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize notification dispatcher: %v", err)
	}

	scheduler := cron.NewScheduler()
	defer scheduler.Close()

	bookingService := &booking.DefaultBookingService{
		Repo:               bookings,
		ShopRepo:           shops,
		Notifier:           dispatcher,
		Scheduler:          scheduler,
		Cache:              utils.GetCacheClient(),
		GranularityMinutes: config.AppConfig.SlotGranularityMin,
	}
	if err := bookingService.StartCacheInvalidator(context.Background()); err != nil {
		logger.Sugar().Warnf("main: reservation change stream unavailable, cache relies on TTL: %v", err)
	}

	ratingService := &rating.DefaultRatingService{
		Repo:        ratings,
		BookingRepo: bookings,
		ShopRepo:    shops,
		Notifier:    dispatcher,
	}

	// background worker for reservation repair and reminders.
	cron.InitWorker(bookings, dispatcher)

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	ratingHandler := handlers.NewRatingHandler(ratingService, logger)
	shopHandler := handlers.NewShopHandler(shops, notifications)

	routes.RegisterRoutes(router, bookingHandler, ratingHandler, shopHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
