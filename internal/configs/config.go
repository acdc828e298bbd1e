package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type RESTconfig struct {
	PORT           string
	AllowedOrigins []string
}

type BrowserConfig struct {
	Headless  bool
	UserAgent string
}

type CacheConfig struct {
	FreshTTL time.Duration
	StaleTTL time.Duration
}

type ExtractionConfig struct {
	// MaxConcurrent bounds simultaneous pipeline runs across all requests.
	MaxConcurrent int
	// Timeout bounds one full pipeline run; WaiterTimeout bounds how long a
	// caller waits on a shared run.
	Timeout       time.Duration
	WaiterTimeout time.Duration

	DirectTimeout   time.Duration
	NavigateTimeout time.Duration
	ContentTimeout  time.Duration
	EvalTimeout     time.Duration

	// AnnualFeeThreshold: a bare condo fee at or above this is assumed annual
	// and divided by 12.
	AnnualFeeThreshold float64
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig holds the whole application configuration.
type AppConfig struct {
	Rest         RESTconfig
	Browser      BrowserConfig
	Cache        CacheConfig
	Extraction   ExtractionConfig
	FluentBit    FluentBitConfig
	AppName      string
	StdoutLogger StdoutLogConfig
}

// LoadConfig reads the environment, optionally seeded from a .env file. A
// missing .env is fine; every setting has a default.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: could not load .env file (path: %v): %v. Falling back to process environment.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "listing-extractor")

	cfg.Rest.PORT = getEnvAsString("PORT", "5000")
	cfg.Rest.AllowedOrigins = splitAndTrim(getEnvAsString("ALLOWED_ORIGINS", "http://localhost:5173"))

	cfg.Browser.Headless = getEnvAsBool("BROWSER_HEADLESS", true)
	cfg.Browser.UserAgent = getEnvAsString("BROWSER_USER_AGENT",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")

	cfg.Cache.FreshTTL = getEnvAsDuration("CACHE_FRESH_TTL", 15*time.Minute)
	cfg.Cache.StaleTTL = getEnvAsDuration("CACHE_STALE_TTL", 2*time.Hour)

	cfg.Extraction.MaxConcurrent = getEnvAsInt("MAX_CONCURRENT_EXTRACTIONS", 1)
	cfg.Extraction.Timeout = getEnvAsDuration("EXTRACTION_TIMEOUT", 90*time.Second)
	cfg.Extraction.WaiterTimeout = getEnvAsDuration("WAITER_TIMEOUT", 60*time.Second)
	cfg.Extraction.DirectTimeout = getEnvAsDuration("DIRECT_FETCH_TIMEOUT", 15*time.Second)
	cfg.Extraction.NavigateTimeout = getEnvAsDuration("NAVIGATE_TIMEOUT", 25*time.Second)
	cfg.Extraction.ContentTimeout = getEnvAsDuration("CONTENT_WAIT_TIMEOUT", 10*time.Second)
	cfg.Extraction.EvalTimeout = getEnvAsDuration("EVAL_TIMEOUT", 10*time.Second)
	cfg.Extraction.AnnualFeeThreshold = getEnvAsFloat("ANNUAL_FEE_THRESHOLD", 1200)

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt logs and falls back when the variable exists but does not parse.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueFloat, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as float: %v. Using default value: %g\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueFloat
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valDur, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valDur
}
