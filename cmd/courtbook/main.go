package main

import (
	"context"

	"courtbook/internal/bookings/availability"
	bookinghandler "courtbook/internal/bookings/handler"
	"courtbook/internal/bookings/pricing"
	"courtbook/internal/bookings/repository"
	"courtbook/internal/bookings/service"
	"courtbook/internal/bookings/validator"
	mongomigrations "courtbook/internal/migrations/mongo"
	"courtbook/internal/notifications"
	reporthandler "courtbook/internal/reports/handler"
	reportservice "courtbook/internal/reports/service"
	"courtbook/pkg/app"
	"courtbook/pkg/config"
	"courtbook/pkg/kafka"
	kafka_config "courtbook/pkg/kafka/config"
	kafka_middleware "courtbook/pkg/kafka/middleware"
	"courtbook/pkg/middleware"
)

const ServiceName = "courtbook"

const idempotencyPrefix = "courtbook:idempotency:"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting courtbook service")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	serverApp := app.NewApplication(cfg)

	repo := initRepository(cfg, serverApp)
	hours, err := availability.ParseBusinessHours(cfg.OpenTime, cfg.CloseTime)
	if err != nil {
		cfg.Log.Fatal("Invalid business hours", "error", err)
	}
	rates, err := pricing.ParseRateTable(cfg.CourtRates, cfg.HourlyRate)
	if err != nil {
		cfg.Log.Fatal("Invalid court rates", "error", err)
	}

	notify := initNotifications(cfg)
	bookingValidator := validator.NewBookingValidator(cfg.Log, validator.WindowPolicy{
		MinDuration: cfg.MinBookingDuration,
		MaxDuration: cfg.MaxBookingDuration,
		MinLeadTime: cfg.MinLeadTime,
		Hours:       hours,
	})

	ledger := service.NewLedger(
		ctx,
		cfg,
		repo,
		notify.hub,
		availability.NewEngine(hours),
		pricing.NewCalculator(rates),
		bookingValidator,
	)
	go ledger.RunReminders(ctx, cfg.ReminderInterval, cfg.ReminderLead)

	serverApp.OnShutdown("reminders", func(context.Context) error {
		stop()
		return nil
	})
	serverApp.OnShutdown("ledger", ledger.Close)
	serverApp.OnShutdown("notifications", notify.close)

	cfg.Log.Info("Booking ledger initialized",
		"storage_backend", cfg.StorageBackend,
		"flush_policy", cfg.FlushPolicy,
		"observers", notify.hub.Len(),
	)

	serverApp.SetApp(
		bookinghandler.NewHealthHandler(repo, cfg.StorageBackend, cfg.Log),
		bookinghandler.NewBookingHandler(ledger, bookingValidator, cfg),
		bookinghandler.NewAvailabilityHandler(ledger, hours, cfg),
		bookinghandler.NewNotificationHandler(notify.inapp, cfg.Log, notify.channels...),
		reporthandler.NewReportHandler(reportservice.NewReportService(ledger), cfg),
	)
	serverApp.Run()
}

func initRepository(cfg *config.Config, serverApp *app.Application) repository.Repository {
	switch cfg.StorageBackend {
	case config.StorageFile:
		return repository.NewFileRepository(cfg.StorageFile)
	case config.StorageMongo:
		cfg.SetMongo()
		migrateMongo(cfg)
		return repository.NewMongoRepository(cfg)
	case config.StorageRedis:
		cfg.SetRedis()
		serverApp.SetIdempotencyStore(middleware.NewRedisIdempotencyStore(cfg.Client.Redis, idempotencyPrefix, cfg.IdempotencyTTL))
		return repository.NewRedisRepository(cfg)
	default:
		return repository.NewMemoryRepository()
	}
}

func migrateMongo(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongomigrations.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.Log.Fatal("Mongo migration failed", "error", err)
	}
}

// notificationStack is the hub with the sinks the HTTP surface controls.
type notificationStack struct {
	hub      *notifications.Hub
	inapp    *notifications.InAppSink
	channels []bookinghandler.Channel
	close    app.ShutdownHook
}

// initNotifications subscribes the sinks in delivery order: in-app, email,
// SMS, then the Kafka event stream when enabled. Email and SMS start in the
// state NOTIFY_EMAIL_ENABLED and NOTIFY_SMS_ENABLED ask for.
func initNotifications(cfg *config.Config) notificationStack {
	hub := notifications.NewHub(cfg.Log, cfg.NotifierTimeout)

	inapp := notifications.NewInAppSink(cfg.InAppCapacity, cfg.Location)
	hub.Subscribe(inapp)

	emails := mustParseDirectory(cfg, "NotifyEmails", cfg.NotifyEmails)
	email := notifications.NewEmailSink(
		notifications.NewLogSender(cfg.Log, "email"),
		emails,
		cfg.Location,
	)
	email.SetEnabled(cfg.EmailEnabled)
	hub.Subscribe(email)

	var sms *notifications.SMSSink
	if cfg.TelegramToken != "" {
		sender, err := notifications.NewTelegramSender(cfg.TelegramToken)
		if err != nil {
			cfg.Log.Fatal("Failed to start Telegram sender", "error", err)
		}
		chats := mustParseDirectory(cfg, "TelegramChats", cfg.TelegramChats)
		sms = notifications.NewSMSSink(sender, chats, "")
		cfg.Log.Info("SMS notifications delivered through Telegram", "chats", len(chats))
	} else {
		phones := mustParseDirectory(cfg, "NotifyPhones", cfg.NotifyPhones)
		sms = notifications.NewSMSSink(
			notifications.NewLogSender(cfg.Log, "sms"),
			phones,
			cfg.SMSRegion,
		)
	}
	sms.SetEnabled(cfg.SMSEnabled)
	hub.Subscribe(sms)

	stack := notificationStack{
		hub:      hub,
		inapp:    inapp,
		channels: []bookinghandler.Channel{email, sms},
		close:    func(context.Context) error { return nil },
	}
	if cfg.KafkaEnabled {
		producer := initProducer(cfg)
		hub.Subscribe(notifications.NewKafkaSink(producer, ServiceName))
		stack.close = func(context.Context) error { return producer.Close() }
	}

	cfg.Log.Info("Notification channels ready", "email_enabled", email.Enabled(), "sms_enabled", sms.Enabled())
	return stack
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err, "topic", cfg.KafkaTopic)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Kafka producer initialized", "topic", cfg.KafkaTopic, "brokers", kafkaCfg.Brokers)
	return producer
}

func mustParseDirectory(cfg *config.Config, name, raw string) notifications.StaticDirectory {
	entries, err := config.ParseIDMap(raw)
	if err != nil {
		cfg.Log.Fatal("Invalid notification directory", "setting", name, "error", err)
	}
	cfg.Log.Debug("Notification directory loaded", "setting", name, "entries", len(entries))
	return notifications.StaticDirectory(entries)
}
