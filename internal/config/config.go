// README: Config loader; viper defaults + ATLAS_-prefixed env + optional config.yaml, .env via godotenv.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DiscoveryLLM    = "llm"
	DiscoveryPlaces = "places"
)

type AIConfig struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float32
}

type DiscoveryConfig struct {
	Provider    string
	Results     int
	MapsKey     string
	Language    string
	MaxSpreadKm float64
}

type ImagesConfig struct {
	FlickrKey string
	PerPOI    int
	Workers   int
	CacheTTL  time.Duration
	Timeout   time.Duration
}

type TurnConfig struct {
	ClassifierAttempts int
	CallTimeout        time.Duration
	Timeout            time.Duration
}

type Config struct {
	Env  string
	HTTP struct {
		Addr            string
		RateLimitPerMin int
		RateLimitBurst  int
		CORSOrigins     []string
	}
	DB struct {
		DSN          string
		WriteTimeout time.Duration
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Auth struct {
		FirebaseProjectID string
		CredentialsFile   string
	}
	AI        AIConfig
	Discovery DiscoveryConfig
	Images    ImagesConfig
	Turn      TurnConfig
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ATLAS")
	v.AutomaticEnv()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	setDefaults(v)
	_ = v.BindEnv("ai_api_key", "ATLAS_AI_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("maps_api_key", "ATLAS_MAPS_API_KEY", "GOOGLE_MAPS_API_KEY")
	_ = v.BindEnv("flickr_api_key", "ATLAS_FLICKR_API_KEY", "FLICKR_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	cfg.Env = v.GetString("env")
	cfg.HTTP.Addr = v.GetString("http_addr")
	cfg.HTTP.RateLimitPerMin = v.GetInt("rate_limit_per_min")
	cfg.HTTP.RateLimitBurst = v.GetInt("rate_limit_burst")
	cfg.HTTP.CORSOrigins = splitList(v.GetString("cors_origins"))
	cfg.DB.DSN = v.GetString("db_dsn")
	cfg.DB.WriteTimeout = v.GetDuration("db_write_timeout")
	cfg.Redis.Addr = v.GetString("redis_addr")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")
	cfg.Auth.FirebaseProjectID = v.GetString("firebase_project_id")
	cfg.Auth.CredentialsFile = v.GetString("firebase_credentials_file")

	cfg.AI = AIConfig{
		Provider:    strings.ToLower(v.GetString("ai_provider")),
		APIKey:      v.GetString("ai_api_key"),
		Model:       v.GetString("ai_model"),
		Temperature: float32(v.GetFloat64("ai_temperature")),
	}
	cfg.Discovery = DiscoveryConfig{
		Provider:    strings.ToLower(v.GetString("discovery_provider")),
		Results:     v.GetInt("discovery_results"),
		MapsKey:     v.GetString("maps_api_key"),
		Language:    v.GetString("places_language"),
		MaxSpreadKm: v.GetFloat64("places_max_spread_km"),
	}
	cfg.Images = ImagesConfig{
		FlickrKey: v.GetString("flickr_api_key"),
		PerPOI:    v.GetInt("images_per_poi"),
		Workers:   v.GetInt("image_workers"),
		CacheTTL:  v.GetDuration("image_cache_ttl"),
		Timeout:   v.GetDuration("image_timeout"),
	}
	cfg.Turn = TurnConfig{
		ClassifierAttempts: v.GetInt("classifier_attempts"),
		CallTimeout:        v.GetDuration("call_timeout"),
		Timeout:            v.GetDuration("turn_timeout"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("rate_limit_per_min", 60)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("db_dsn", "")
	v.SetDefault("db_write_timeout", 5*time.Second)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("firebase_project_id", "")
	v.SetDefault("firebase_credentials_file", "")
	v.SetDefault("ai_provider", ProviderGemini)
	v.SetDefault("ai_model", "")
	v.SetDefault("ai_temperature", 0.2)
	v.SetDefault("discovery_provider", DiscoveryLLM)
	v.SetDefault("discovery_results", 5)
	v.SetDefault("places_language", "en")
	v.SetDefault("places_max_spread_km", 50.0)
	v.SetDefault("images_per_poi", 10)
	v.SetDefault("image_workers", 4)
	v.SetDefault("image_cache_ttl", 24*time.Hour)
	v.SetDefault("image_timeout", 10*time.Second)
	v.SetDefault("classifier_attempts", 2)
	v.SetDefault("call_timeout", 60*time.Second)
	v.SetDefault("turn_timeout", 3*time.Minute)
}

func (c Config) validate() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("ATLAS_AI_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.AI.Provider)
	}
	if c.AI.APIKey == "" {
		return errors.New("ATLAS_AI_API_KEY is required")
	}
	switch c.Discovery.Provider {
	case DiscoveryLLM:
	case DiscoveryPlaces:
		if c.Discovery.MapsKey == "" {
			return errors.New("ATLAS_MAPS_API_KEY is required when ATLAS_DISCOVERY_PROVIDER=places")
		}
	default:
		return fmt.Errorf("ATLAS_DISCOVERY_PROVIDER must be %q or %q, got %q", DiscoveryLLM, DiscoveryPlaces, c.Discovery.Provider)
	}
	if c.Turn.ClassifierAttempts < 1 {
		return errors.New("ATLAS_CLASSIFIER_ATTEMPTS must be at least 1")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
