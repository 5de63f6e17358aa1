package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"courtbook/pkg/client"
	"courtbook/pkg/locale"
	"courtbook/pkg/logger"
)

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageMongo  = "mongo"
	StorageRedis  = "redis"

	FlushImmediate = "immediate"
	FlushBatched   = "batched"
)

var (
	timeRegex      = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	smsRegionRegex = regexp.MustCompile(`^[A-Z]{2}$`)
)

type Config struct {
	Port string

	StorageBackend string
	StorageFile    string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	FlushPolicy   string
	FlushInterval time.Duration

	OpenTime           string
	CloseTime          string
	SlotMinutes        int
	TimeZone           string
	Location           *time.Location
	HourlyRate         float64
	CourtRates         string
	MinBookingDuration time.Duration
	MaxBookingDuration time.Duration
	MinLeadTime        time.Duration
	AutoConfirm        bool

	NotifierTimeout  time.Duration
	InAppCapacity    int
	ReminderLead     time.Duration
	ReminderInterval time.Duration
	SMSRegion        string
	NotifyEmails     string
	NotifyPhones     string
	TelegramToken    string
	TelegramChats    string
	EmailEnabled     bool
	SMSEnabled       bool

	KafkaEnabled bool
	KafkaTopic   string

	RequestTimeout    time.Duration
	MaxRequestSize    int
	IdempotencyTTL    time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		Port: getEnvStr(EnvPort, DefaultPort),

		StorageBackend: strings.ToLower(getEnvStr(EnvStorageBackend, DefaultStorageBackend)),
		StorageFile:    getEnvStr(EnvStorageFile, DefaultStorageFile),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),
		RedisKey:      getEnvStr(EnvRedisKey, DefaultRedisKey),

		FlushPolicy:   strings.ToLower(getEnvStr(EnvFlushPolicy, DefaultFlushPolicy)),
		FlushInterval: getEnvDuration(EnvFlushInterval, DefaultFlushInterval),

		OpenTime:           getEnvStr(EnvOpenTime, DefaultOpenTime),
		CloseTime:          getEnvStr(EnvCloseTime, DefaultCloseTime),
		SlotMinutes:        getEnvNum(EnvSlotMinutes, DefaultSlotMinutes),
		TimeZone:           getEnvStr(EnvTimeZone, DefaultTimeZone),
		HourlyRate:         getEnvFloat(EnvHourlyRate, DefaultHourlyRate),
		CourtRates:         getEnvStr(EnvCourtRates, ""),
		MinBookingDuration: getEnvDuration(EnvMinBookingDuration, DefaultMinBookingDuration),
		MaxBookingDuration: getEnvDuration(EnvMaxBookingDuration, DefaultMaxBookingDuration),
		MinLeadTime:        getEnvDuration(EnvMinLeadTime, DefaultMinLeadTime),
		AutoConfirm:        getEnvBool(EnvAutoConfirm, DefaultAutoConfirm),

		NotifierTimeout:  getEnvDuration(EnvNotifierTimeout, DefaultNotifierTimeout),
		InAppCapacity:    getEnvNum(EnvInAppCapacity, DefaultInAppCapacity),
		ReminderLead:     getEnvDuration(EnvReminderLead, DefaultReminderLead),
		ReminderInterval: getEnvDuration(EnvReminderInterval, DefaultReminderInterval),
		SMSRegion:        strings.ToUpper(getEnvStr(EnvSMSRegion, "")),
		NotifyEmails:     getEnvStr(EnvNotifyEmails, ""),
		NotifyPhones:     getEnvStr(EnvNotifyPhones, ""),
		TelegramToken:    getEnvStr(EnvTelegramToken, ""),
		TelegramChats:    getEnvStr(EnvTelegramChats, ""),
		EmailEnabled:     getEnvBool(EnvEmailEnabled, DefaultEmailEnabled),
		SMSEnabled:       getEnvBool(EnvSMSEnabled, DefaultSMSEnabled),

		KafkaEnabled: getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaTopic:   getEnvStr(EnvKafkaTopic, DefaultKafkaTopic),

		RequestTimeout:    getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize:    getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),
		IdempotencyTTL:    getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

// Validate checks every setting and resolves Location from TimeZone.
func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StorageBackend {
	case StorageMemory:
	case StorageFile:
		if cfg.StorageFile == "" {
			errors = append(errors, "StorageFile cannot be empty when StorageBackend is 'file'")
		}
	case StorageMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StorageRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty")
		}
		if cfg.RedisKey == "" {
			errors = append(errors, "RedisKey cannot be empty")
		}
		if cfg.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
		}
	default:
		errors = append(errors, fmt.Sprintf("StorageBackend must be one of [memory, file, mongo, redis], got: %s", cfg.StorageBackend))
	}

	switch cfg.FlushPolicy {
	case FlushImmediate:
	case FlushBatched:
		if cfg.FlushInterval <= 0 {
			errors = append(errors, fmt.Sprintf("FlushInterval must be positive for the batched policy, got: %s", cfg.FlushInterval))
		}
	default:
		errors = append(errors, fmt.Sprintf("FlushPolicy must be 'immediate' or 'batched', got: %s", cfg.FlushPolicy))
	}

	if !timeRegex.MatchString(cfg.OpenTime) {
		errors = append(errors, fmt.Sprintf("OpenTime must be in HH:MM format (00:00-23:59), got: %s", cfg.OpenTime))
	}
	if !timeRegex.MatchString(cfg.CloseTime) {
		errors = append(errors, fmt.Sprintf("CloseTime must be in HH:MM format (00:00-23:59), got: %s", cfg.CloseTime))
	}
	if timeRegex.MatchString(cfg.OpenTime) && timeRegex.MatchString(cfg.CloseTime) && cfg.CloseTime <= cfg.OpenTime {
		errors = append(errors, fmt.Sprintf("CloseTime (%s) must be after OpenTime (%s)", cfg.CloseTime, cfg.OpenTime))
	}

	if cfg.SlotMinutes <= 0 {
		errors = append(errors, fmt.Sprintf("SlotMinutes must be positive, got: %d", cfg.SlotMinutes))
	}

	loc, err := loadLocation(cfg.TimeZone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("TimeZone is not a known location: %s", cfg.TimeZone))
	} else {
		cfg.Location = loc
	}

	if cfg.HourlyRate < 0 {
		errors = append(errors, fmt.Sprintf("HourlyRate cannot be negative, got: %v", cfg.HourlyRate))
	}
	if _, err := ParseIDMap(cfg.CourtRates); err != nil {
		errors = append(errors, fmt.Sprintf("CourtRates is malformed: %v", err))
	}

	if cfg.MinBookingDuration <= 0 {
		errors = append(errors, fmt.Sprintf("MinBookingDuration must be positive, got: %s", cfg.MinBookingDuration))
	}
	if cfg.MaxBookingDuration < cfg.MinBookingDuration {
		errors = append(errors, fmt.Sprintf("MaxBookingDuration (%s) must be >= MinBookingDuration (%s)", cfg.MaxBookingDuration, cfg.MinBookingDuration))
	}
	if cfg.MinLeadTime < 0 {
		errors = append(errors, fmt.Sprintf("MinLeadTime cannot be negative, got: %s", cfg.MinLeadTime))
	}

	if cfg.NotifierTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("NotifierTimeout must be positive, got: %s", cfg.NotifierTimeout))
	}
	if cfg.InAppCapacity <= 0 {
		errors = append(errors, fmt.Sprintf("InAppCapacity must be positive, got: %d", cfg.InAppCapacity))
	}
	if cfg.SMSRegion == "" {
		cfg.SMSRegion = locale.DetectRegion(cfg.TimeZone)
	} else if !smsRegionRegex.MatchString(cfg.SMSRegion) {
		errors = append(errors, fmt.Sprintf("SMSRegion must be an ISO 3166-1 alpha-2 code, got: %s", cfg.SMSRegion))
	}
	if cfg.ReminderLead < 0 {
		errors = append(errors, fmt.Sprintf("ReminderLead cannot be negative, got: %s", cfg.ReminderLead))
	}
	if cfg.ReminderInterval <= 0 {
		errors = append(errors, fmt.Sprintf("ReminderInterval must be positive, got: %s", cfg.ReminderInterval))
	}
	for name, raw := range map[string]string{
		"NotifyEmails":  cfg.NotifyEmails,
		"NotifyPhones":  cfg.NotifyPhones,
		"TelegramChats": cfg.TelegramChats,
	} {
		if _, err := ParseIDMap(raw); err != nil {
			errors = append(errors, fmt.Sprintf("%s is malformed: %v", name, err))
		}
	}

	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		errors = append(errors, "KafkaTopic cannot be empty when Kafka is enabled")
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"storage_file", cfg.StorageFile,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"redis_key", cfg.RedisKey,
		"flush_policy", cfg.FlushPolicy,
		"flush_interval", cfg.FlushInterval,
		"open_time", cfg.OpenTime,
		"close_time", cfg.CloseTime,
		"slot_minutes", cfg.SlotMinutes,
		"time_zone", cfg.TimeZone,
		"hourly_rate", cfg.HourlyRate,
		"court_rates", cfg.CourtRates,
		"min_booking_duration", cfg.MinBookingDuration,
		"max_booking_duration", cfg.MaxBookingDuration,
		"min_lead_time", cfg.MinLeadTime,
		"auto_confirm", cfg.AutoConfirm,
		"notifier_timeout", cfg.NotifierTimeout,
		"inapp_capacity", cfg.InAppCapacity,
		"reminder_lead", cfg.ReminderLead,
		"reminder_interval", cfg.ReminderInterval,
		"sms_region", cfg.SMSRegion,
		"telegram_token_set", cfg.TelegramToken != "",
		"email_enabled", cfg.EmailEnabled,
		"sms_enabled", cfg.SMSEnabled,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_topic", cfg.KafkaTopic,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

// ParseIDMap reads "id:value,id:value" lists keyed by positive ids.
func ParseIDMap(raw string) (map[int64]string, error) {
	out := make(map[int64]string)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("entry %q is not in id:value form", pair)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("entry %q has an invalid id", pair)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, fmt.Errorf("entry %q has an empty value", pair)
		}
		out[id] = value
	}
	return out, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "Local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
