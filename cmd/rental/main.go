package main

import (
	"context"

	bikeshandler "bikerental/internal/bikes/handler"
	bikesrepo "bikerental/internal/bikes/repository"
	bikesservice "bikerental/internal/bikes/service"
	bikesvalidator "bikerental/internal/bikes/validator"
	bookingshandler "bikerental/internal/bookings/handler"
	bookingsrepo "bikerental/internal/bookings/repository"
	bookingsservice "bikerental/internal/bookings/service"
	bookingsvalidator "bikerental/internal/bookings/validator"
	paymentshandler "bikerental/internal/payments/handler"
	paymentsrepo "bikerental/internal/payments/repository"
	paymentsservice "bikerental/internal/payments/service"
	usershandler "bikerental/internal/users/handler"
	usersrepo "bikerental/internal/users/repository"
	usersservice "bikerental/internal/users/service"
	usersvalidator "bikerental/internal/users/validator"

	"bikerental/internal/payments/provider"
	"bikerental/pkg/app"
	"bikerental/pkg/clock"
	"bikerental/pkg/config"
	"bikerental/pkg/events"
)

func main() {
	cfg := config.Load("rental")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	bikeRepo := bikesrepo.NewMongoBikeRepository(cfg)
	userRepo := usersrepo.NewMongoUserRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	paymentRepo := paymentsrepo.NewMongoPaymentRepository(cfg)

	ensureIndexes(cfg, bikeRepo, userRepo, bookingRepo, paymentRepo)

	publisher := newPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	clk := clock.System()
	orderClient := provider.NewRazorpayClient(
		cfg.RazorpayBaseURL,
		cfg.RazorpayKeyID,
		cfg.RazorpayKeySecret,
		cfg.ProviderTimeout,
		cfg.Log,
	)

	bikeService := bikesservice.NewBikeService(bikeRepo, bookingRepo, bikesvalidator.NewBikeValidator(cfg.Log), cfg)
	userService := usersservice.NewUserService(userRepo, usersvalidator.NewUserValidator(cfg.Log), cfg)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo, bikeRepo, userRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		clk, publisher, cfg,
	)
	paymentService := paymentsservice.NewPaymentService(paymentRepo, bookingRepo, orderClient, clk, publisher, cfg)

	application := app.NewApplication(cfg)
	application.SetApp(
		bikeshandler.NewBikeHandler(bikeService, cfg.Log),
		usershandler.NewUserHandler(userService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		paymentshandler.NewPaymentHandler(paymentService, cfg.Log),
	)
	application.Run()
}

type indexed interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(cfg *config.Config, repos ...indexed) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	for _, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			cfg.Log.Fatal("Failed to ensure indexes", "error", err)
		}
	}
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Kafka brokers not configured, events disabled")
		return events.Noop{}
	}
	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka publisher", "error", err)
	}
	return publisher
}
