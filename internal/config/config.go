package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName  = "SimlarProvisioning"
	defaultAppEnv   = "development"
	defaultPort     = "8080"
	defaultLogLevel = "info"

	defaultShutdownPeriod = 10 * time.Second

	defaultMaxRequestsPerIPPerHour      = 60
	defaultMaxRequestsTotalPerHour      = 220
	defaultMaxRequestsTotalPerDay       = 1440
	defaultMaxRequestsPerSimlarIDPerDay = 10
	defaultMaxConfirmTries              = 10
	defaultMaxCallsPerDay               = 3
	defaultCallDelayMin                 = 90 * time.Second
	defaultCallDelayMax                 = 10 * time.Minute
	defaultRegistrationCodeExpiry       = 15 * time.Minute
	defaultConfirmTimeout               = 180 * time.Second
	defaultBurstLimitPerMinute          = 5
	defaultSMSThrottlePerSecond         = 10.0
	defaultSMSThrottleBurst             = 20
)

// RegionalLimit is one configured region prefix with its own hourly cap.
type RegionalLimit struct {
	Prefix             string
	MaxRequestsPerHour int
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration

	MaxRequestsPerIPPerHour      int
	MaxRequestsTotalPerHour      int
	MaxRequestsTotalPerDay       int
	MaxRequestsPerSimlarIDPerDay int
	RegionalLimits               []RegionalLimit
	MaxConfirmTries              int
	MaxCallsPerDay               int
	CallDelayMin                 time.Duration
	CallDelayMax                 time.Duration
	RegistrationCodeExpiry       time.Duration
	ConfirmTimeout               time.Duration

	// TestAccounts maps SimlarIDs to fixed registration codes.
	TestAccounts map[string]string

	AlertRecipients []string

	BurstLimitPerMinute  int
	SMSThrottlePerSecond float64
	SMSThrottleBurst     int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownPeriod,

		MaxRequestsPerIPPerHour:      defaultMaxRequestsPerIPPerHour,
		MaxRequestsTotalPerHour:      defaultMaxRequestsTotalPerHour,
		MaxRequestsTotalPerDay:       defaultMaxRequestsTotalPerDay,
		MaxRequestsPerSimlarIDPerDay: defaultMaxRequestsPerSimlarIDPerDay,
		MaxConfirmTries:              defaultMaxConfirmTries,
		MaxCallsPerDay:               defaultMaxCallsPerDay,
		CallDelayMin:                 defaultCallDelayMin,
		CallDelayMax:                 defaultCallDelayMax,
		RegistrationCodeExpiry:       defaultRegistrationCodeExpiry,
		ConfirmTimeout:               defaultConfirmTimeout,

		BurstLimitPerMinute:  defaultBurstLimitPerMinute,
		SMSThrottlePerSecond: defaultSMSThrottlePerSecond,
		SMSThrottleBurst:     defaultSMSThrottleBurst,
	}

	intVars := []struct {
		name   string
		target *int
	}{
		{"MAX_REQUESTS_PER_IP_PER_HOUR", &cfg.MaxRequestsPerIPPerHour},
		{"MAX_REQUESTS_TOTAL_PER_HOUR", &cfg.MaxRequestsTotalPerHour},
		{"MAX_REQUESTS_TOTAL_PER_DAY", &cfg.MaxRequestsTotalPerDay},
		{"MAX_REQUESTS_PER_SIMLAR_ID_PER_DAY", &cfg.MaxRequestsPerSimlarIDPerDay},
		{"MAX_CONFIRM_TRIES", &cfg.MaxConfirmTries},
		{"MAX_CALLS_PER_DAY", &cfg.MaxCallsPerDay},
		{"BURST_LIMIT_PER_MINUTE", &cfg.BurstLimitPerMinute},
		{"SMS_THROTTLE_BURST", &cfg.SMSThrottleBurst},
	}
	for _, v := range intVars {
		if raw := os.Getenv(v.name); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", v.name, err)
			}
			*v.target = parsed
		}
	}

	durationVars := []struct {
		name   string
		target *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"CALL_DELAY_MIN", &cfg.CallDelayMin},
		{"CALL_DELAY_MAX", &cfg.CallDelayMax},
		{"REGISTRATION_CODE_EXPIRY", &cfg.RegistrationCodeExpiry},
		{"CONFIRM_TIMEOUT", &cfg.ConfirmTimeout},
	}
	for _, v := range durationVars {
		if raw := os.Getenv(v.name); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", v.name, err)
			}
			*v.target = parsed
		}
	}

	if raw := os.Getenv("SMS_THROTTLE_PER_SECOND"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SMS_THROTTLE_PER_SECOND: %w", err)
		}
		cfg.SMSThrottlePerSecond = parsed
	}

	regional, err := parseRegionalLimits(os.Getenv("REGIONAL_LIMITS"))
	if err != nil {
		return Config{}, err
	}
	cfg.RegionalLimits = regional

	testAccounts, err := parseTestAccounts(os.Getenv("TEST_ACCOUNTS"))
	if err != nil {
		return Config{}, err
	}
	cfg.TestAccounts = testAccounts

	if raw := strings.TrimSpace(os.Getenv("ALERT_RECIPIENTS")); raw != "" {
		for _, recipient := range strings.Split(raw, ",") {
			if r := strings.TrimSpace(recipient); r != "" {
				cfg.AlertRecipients = append(cfg.AlertRecipients, r)
			}
		}
	}

	if cfg.CallDelayMin > cfg.CallDelayMax {
		return Config{}, fmt.Errorf("CALL_DELAY_MIN %s exceeds CALL_DELAY_MAX %s", cfg.CallDelayMin, cfg.CallDelayMax)
	}

	return cfg, nil
}

// parseRegionalLimits reads "49=160,1=200" style pairs of prefix and hourly cap.
func parseRegionalLimits(raw string) ([]RegionalLimit, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	var limits []RegionalLimit
	for _, pair := range strings.Split(trimmed, ",") {
		prefix, limitRaw, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid REGIONAL_LIMITS entry %q", pair)
		}
		maxPerHour, err := strconv.Atoi(strings.TrimSpace(limitRaw))
		if err != nil {
			return nil, fmt.Errorf("invalid REGIONAL_LIMITS entry %q: %w", pair, err)
		}
		limits = append(limits, RegionalLimit{Prefix: strings.TrimSpace(prefix), MaxRequestsPerHour: maxPerHour})
	}
	return limits, nil
}

// parseTestAccounts reads "*15005550006*=123456" style pairs of identity and code.
func parseTestAccounts(raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	accounts := make(map[string]string)
	for _, pair := range strings.Split(trimmed, ",") {
		id, code, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid TEST_ACCOUNTS entry %q", pair)
		}
		accounts[strings.TrimSpace(id)] = strings.TrimSpace(code)
	}
	return accounts, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
