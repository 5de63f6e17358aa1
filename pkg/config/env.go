package config

const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvStorageBackend = "STORAGE_BACKEND"
	EnvStorageFile    = "STORAGE_FILE"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvRedisKey      = "REDIS_KEY"

	EnvFlushPolicy   = "FLUSH_POLICY"
	EnvFlushInterval = "FLUSH_INTERVAL"

	EnvOpenTime           = "OPEN_TIME"
	EnvCloseTime          = "CLOSE_TIME"
	EnvSlotMinutes        = "SLOT_MINUTES"
	EnvTimeZone           = "TIME_ZONE"
	EnvHourlyRate         = "HOURLY_RATE"
	EnvCourtRates         = "COURT_RATES"
	EnvMinBookingDuration = "MIN_BOOKING_DURATION"
	EnvMaxBookingDuration = "MAX_BOOKING_DURATION"
	EnvMinLeadTime        = "MIN_LEAD_TIME"
	EnvAutoConfirm        = "AUTO_CONFIRM"

	EnvNotifierTimeout  = "NOTIFIER_TIMEOUT"
	EnvInAppCapacity    = "INAPP_CAPACITY"
	EnvReminderLead     = "REMINDER_LEAD"
	EnvReminderInterval = "REMINDER_INTERVAL"
	EnvSMSRegion        = "SMS_REGION"
	EnvNotifyEmails     = "NOTIFY_EMAILS"
	EnvNotifyPhones     = "NOTIFY_PHONES"
	EnvTelegramToken    = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChats    = "TELEGRAM_CHATS"
	EnvEmailEnabled     = "NOTIFY_EMAIL_ENABLED"
	EnvSMSEnabled       = "NOTIFY_SMS_ENABLED"

	EnvKafkaEnabled = "KAFKA_ENABLED"
	EnvKafkaTopic   = "KAFKA_TOPIC"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvIdempotencyTTL    = "IDEMPOTENCY_TTL"
	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
