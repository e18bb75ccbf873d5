package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"1m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

// RateConfig bounds coupon validation attempts per storefront session.
type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"1m"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
	ProductTTL time.Duration `yaml:"product_ttl" env:"CACHE_PRODUCT_TTL" env-default:"10m"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"CACHE_SESSION_TTL" env-default:"24h"`
}

type Security struct {
	JWTKey string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
}

// StoreAPI is the backend REST API the storefront delegates to.
type StoreAPI struct {
	BaseURL    string        `yaml:"BASE_URL" env:"STOREAPI_BASE_URL" env-required:"true"`
	Timeout    time.Duration `yaml:"TIMEOUT" env:"STOREAPI_TIMEOUT" env-default:"10s"`
	HealthPath string        `yaml:"HEALTH_PATH" env:"STOREAPI_HEALTH_PATH" env-default:"/health"`
}

type Realtime struct {
	URL          string        `yaml:"URL" env:"REALTIME_URL" env-required:"true"`
	DialTimeout  time.Duration `yaml:"DIAL_TIMEOUT" env:"REALTIME_DIAL_TIMEOUT" env-default:"5s"`
	PingInterval time.Duration `yaml:"PING_INTERVAL" env:"REALTIME_PING_INTERVAL" env-default:"30s"`
}

type Chat struct {
	IdleTTL         time.Duration `yaml:"IDLE_TTL" env:"CHAT_IDLE_TTL" env-default:"30m"`
	JanitorInterval time.Duration `yaml:"JANITOR_INTERVAL" env:"CHAT_JANITOR_INTERVAL" env-default:"1m"`
	TypingInterval  time.Duration `yaml:"TYPING_INTERVAL" env:"CHAT_TYPING_INTERVAL" env-default:"2s"`
}

type Currency struct {
	Default string `yaml:"DEFAULT" env:"CURRENCY_DEFAULT" env-default:"VND"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"ALLOWED_ORIGINS" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

type Otel struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"ebike-storefront"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT"`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type Config struct {
	Env string `yaml:"env" env:"ENV" env-required:"true"`
	// CartStore selects the cart persistence: "postgres" or "memory".
	CartStore    string `yaml:"cart_store" env:"CART_STORE" env-default:"postgres"`
	HTTPServer   `yaml:"http_server"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	RateConfig   RateConfig   `yaml:"rateConfig"`
	Cache        CacheConfig  `yaml:"cache"`
	Security     Security     `yaml:"security"`
	StoreAPI     StoreAPI     `yaml:"storeapi"`
	Realtime     Realtime     `yaml:"realtime"`
	Chat         Chat         `yaml:"chat"`
	Currency     Currency     `yaml:"currency"`
	CORS         CORS         `yaml:"cors"`
	Otel         Otel         `yaml:"otel"`
}

// LoadConfigFromPath reads the YAML file at path, overlaid with environment
// variables.
func LoadConfigFromPath(configPath string) (*Config, error) {

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("can not read config file: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {

	// a missing .env is fine, real deployments inject the environment
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			log.Fatal("Config path is not set")
		}

	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg

}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/%d", r.Username, r.Password, r.Host, r.Port, r.DB)
}
