package config

import "time"

const (
	DefaultPort = "8080"

	DefaultStorageBackend = StorageMemory
	DefaultStorageFile    = "data/bookings.json"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "courtbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0
	DefaultRedisKey  = "courtbook:bookings"

	DefaultFlushPolicy   = FlushImmediate
	DefaultFlushInterval = 5 * time.Second

	DefaultOpenTime           = "06:00"
	DefaultCloseTime          = "23:00"
	DefaultSlotMinutes        = 60
	DefaultTimeZone           = "Local"
	DefaultHourlyRate         = 50000.0
	DefaultMinBookingDuration = 1 * time.Hour
	DefaultMaxBookingDuration = 4 * time.Hour
	DefaultMinLeadTime        = 1 * time.Hour
	DefaultAutoConfirm        = true

	DefaultNotifierTimeout  = 2 * time.Second
	DefaultInAppCapacity    = 100
	DefaultReminderLead     = 1 * time.Hour
	DefaultReminderInterval = 1 * time.Minute
	DefaultEmailEnabled     = true
	DefaultSMSEnabled       = true

	DefaultKafkaEnabled = false
	DefaultKafkaTopic   = "booking-events"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultIdempotencyTTL    = 24 * time.Hour
	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLogLevel = "info"
)
