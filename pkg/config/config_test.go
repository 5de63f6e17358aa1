package config

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"courtbook/pkg/locale"
)

func validConfig() *Config {
	return &Config{
		Port:               DefaultPort,
		StorageBackend:     StorageMemory,
		FlushPolicy:        FlushImmediate,
		OpenTime:           DefaultOpenTime,
		CloseTime:          DefaultCloseTime,
		SlotMinutes:        DefaultSlotMinutes,
		TimeZone:           "UTC",
		HourlyRate:         DefaultHourlyRate,
		MinBookingDuration: DefaultMinBookingDuration,
		MaxBookingDuration: DefaultMaxBookingDuration,
		MinLeadTime:        DefaultMinLeadTime,
		NotifierTimeout:    DefaultNotifierTimeout,
		InAppCapacity:      DefaultInAppCapacity,
		ReminderLead:       DefaultReminderLead,
		ReminderInterval:   DefaultReminderInterval,
		KafkaTopic:         DefaultKafkaTopic,
		RequestTimeout:     DefaultRequestTimeout,
		MaxRequestSize:     DefaultMaxRequestSize,
		IdempotencyTTL:     DefaultIdempotencyTTL,
		RateLimitRequests:  DefaultRateLimitRequests,
		RateLimitWindow:    DefaultRateLimitWindow,
		ReadTimeout:        DefaultReadTimeout,
		WriteTimeout:       DefaultWriteTimeout,
		IdleTimeout:        DefaultIdleTimeout,
		ShutdownTimeout:    DefaultShutdownTimeout,
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
	if cfg.SMSRegion != locale.FallbackRegion {
		t.Errorf("SMSRegion = %q, want fallback %q", cfg.SMSRegion, locale.FallbackRegion)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "port", mutate: func(c *Config) { c.Port = "99999" }, wantErr: "Port"},
		{name: "backend", mutate: func(c *Config) { c.StorageBackend = "sqlite" }, wantErr: "StorageBackend"},
		{name: "file path", mutate: func(c *Config) { c.StorageBackend = StorageFile }, wantErr: "StorageFile"},
		{name: "mongo uri", mutate: func(c *Config) {
			c.StorageBackend = StorageMongo
			c.MongoURI = "http://localhost"
			c.MongoDatabaseName = "courtbook"
			c.MongoConnTimeout = time.Second
		}, wantErr: "MongoURI"},
		{name: "redis key", mutate: func(c *Config) {
			c.StorageBackend = StorageRedis
			c.RedisAddr = DefaultRedisAddr
		}, wantErr: "RedisKey"},
		{name: "flush policy", mutate: func(c *Config) { c.FlushPolicy = "sometimes" }, wantErr: "FlushPolicy"},
		{name: "batched interval", mutate: func(c *Config) { c.FlushPolicy = FlushBatched }, wantErr: "FlushInterval"},
		{name: "open time", mutate: func(c *Config) { c.OpenTime = "6am" }, wantErr: "OpenTime"},
		{name: "inverted hours", mutate: func(c *Config) { c.OpenTime, c.CloseTime = "22:00", "08:00" }, wantErr: "CloseTime"},
		{name: "time zone", mutate: func(c *Config) { c.TimeZone = "Mars/Olympus" }, wantErr: "TimeZone"},
		{name: "court rates", mutate: func(c *Config) { c.CourtRates = "1=60000" }, wantErr: "CourtRates"},
		{name: "durations", mutate: func(c *Config) { c.MaxBookingDuration = 30 * time.Minute }, wantErr: "MaxBookingDuration"},
		{name: "sms region", mutate: func(c *Config) { c.SMSRegion = "VNM" }, wantErr: "SMSRegion"},
		{name: "phone directory", mutate: func(c *Config) { c.NotifyPhones = "0:+84901234567" }, wantErr: "NotifyPhones"},
		{name: "kafka topic", mutate: func(c *Config) { c.KafkaEnabled, c.KafkaTopic = true, "" }, wantErr: "KafkaTopic"},
		{name: "rate limit", mutate: func(c *Config) { c.RateLimitWindow = 0 }, wantErr: "RateLimitWindow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded, want an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "0"
	cfg.SlotMinutes = 0
	cfg.InAppCapacity = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() succeeded, want an error")
	}
	for _, want := range []string{"1. Port", "2. SlotMinutes", "3. InAppCapacity"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q is missing %q", err, want)
		}
	}
}

func TestValidate_DetectsSMSRegion(t *testing.T) {
	tests := []struct {
		timeZone string
		region   string
		want     string
	}{
		{timeZone: "Asia/Ho_Chi_Minh", want: "VN"},
		{timeZone: "America/Chicago", want: "US"},
		{timeZone: "Asia/Jerusalem", want: "IL"},
		{timeZone: "Asia/Jerusalem", region: "US", want: "US"},
	}

	for _, tt := range tests {
		t.Run(tt.timeZone+"/"+tt.region, func(t *testing.T) {
			cfg := validConfig()
			cfg.TimeZone = tt.timeZone
			cfg.SMSRegion = tt.region
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() failed: %v", err)
			}
			if cfg.SMSRegion != tt.want {
				t.Errorf("SMSRegion = %q, want %q", cfg.SMSRegion, tt.want)
			}
		})
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv(EnvTimeZone, "UTC")
	t.Setenv(EnvStorageBackend, "MEMORY")
	t.Setenv(EnvSlotMinutes, "30")
	t.Setenv(EnvAutoConfirm, "false")
	t.Setenv(EnvRateLimitWindow, "10s")
	t.Setenv(EnvSMSRegion, "us")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvSMSEnabled, "false")

	cfg := Load("courtbook-test")

	if cfg.StorageBackend != StorageMemory {
		t.Errorf("StorageBackend = %q, want memory", cfg.StorageBackend)
	}
	if cfg.SlotMinutes != 30 || cfg.AutoConfirm || cfg.RateLimitWindow != 10*time.Second {
		t.Errorf("env overrides not applied: slot=%d auto=%v window=%s", cfg.SlotMinutes, cfg.AutoConfirm, cfg.RateLimitWindow)
	}
	if cfg.SMSRegion != "US" {
		t.Errorf("SMSRegion = %q, want US", cfg.SMSRegion)
	}
	if !cfg.EmailEnabled || cfg.SMSEnabled {
		t.Errorf("channel toggles: email=%v sms=%v, want email on and sms off", cfg.EmailEnabled, cfg.SMSEnabled)
	}
	if cfg.HourlyRate != DefaultHourlyRate || cfg.IdempotencyTTL != DefaultIdempotencyTTL {
		t.Error("defaults not applied")
	}
}

func TestParseIDMap(t *testing.T) {
	tests := []struct {
		raw     string
		want    map[int64]string
		wantErr bool
	}{
		{raw: "", want: map[int64]string{}},
		{raw: "7:alice@example.com", want: map[int64]string{7: "alice@example.com"}},
		{raw: " 1: 60000 , 2:75000", want: map[int64]string{1: "60000", 2: "75000"}},
		{raw: "7", wantErr: true},
		{raw: "x:1", wantErr: true},
		{raw: "-1:1", wantErr: true},
		{raw: "3:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseIDMap(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIDMap(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseIDMap(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for id, value := range tt.want {
				if got[id] != value {
					t.Errorf("entry %d = %q, want %q", id, got[id], value)
				}
			}
		})
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017")
	if strings.Contains(got, "secret") || !strings.Contains(got, "***:***@db") {
		t.Errorf("redactMongoURI() = %q", got)
	}
}
