package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Rates        RatesConfig
	Checkout     CheckoutConfig
	Stripe       StripeConfig
	PayPal       PayPalConfig
	Paystack     PaystackConfig
	Flutterwave  FlutterwaveConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"STOREFRONT_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	CartTTL time.Duration `envconfig:"STOREFRONT_SESSION_CART_TTL" default:"720h"`
}

// RatesConfig seeds the USD exchange-rate table. RefreshURL is optional;
// when set, cmd/api fetches fresh rates at boot and reloads the converter.
type RatesConfig struct {
	USDToNGN   string `envconfig:"STOREFRONT_RATE_USD_NGN" default:"1600"`
	USDToINR   string `envconfig:"STOREFRONT_RATE_USD_INR" default:"84"`
	RefreshURL string `envconfig:"STOREFRONT_RATES_REFRESH_URL"`
}

type CheckoutConfig struct {
	ServiceFeePercent string `envconfig:"STOREFRONT_SERVICE_FEE_PERCENT" default:"5"`
	TaxTablePath      string `envconfig:"STOREFRONT_TAX_TABLE_PATH"`
}

type StripeConfig struct {
	SecretKey string `envconfig:"STOREFRONT_STRIPE_SECRET_KEY"`
	PublicKey string `envconfig:"STOREFRONT_STRIPE_PUBLIC_KEY"`
}

type PayPalConfig struct {
	ClientID string `envconfig:"STOREFRONT_PAYPAL_CLIENT_ID"`
	SecretID string `envconfig:"STOREFRONT_PAYPAL_SECRET_ID"`
	BaseURL  string `envconfig:"STOREFRONT_PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
}

type PaystackConfig struct {
	PublicKey  string `envconfig:"STOREFRONT_PAYSTACK_PUBLIC_KEY"`
	PrivateKey string `envconfig:"STOREFRONT_PAYSTACK_PRIVATE_KEY"`
	BaseURL    string `envconfig:"STOREFRONT_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
}

type FlutterwaveConfig struct {
	PublicKey  string `envconfig:"STOREFRONT_FLUTTERWAVE_PUBLIC_KEY"`
	PrivateKey string `envconfig:"STOREFRONT_FLUTTERWAVE_PRIVATE_KEY"`
	BaseURL    string `envconfig:"STOREFRONT_FLUTTERWAVE_BASE_URL" default:"https://api.flutterwave.com"`
}

// RateLimitConfig throttles the endpoints that create load on the payment
// gateways. A zero limit disables the corresponding throttle.
type RateLimitConfig struct {
	CheckoutWindow  time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_IP" default:"10"`
	VerifyWindow    time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_VERIFY_WINDOW" default:"1m"`
	VerifyIPLimit   int           `envconfig:"STOREFRONT_RATE_LIMIT_VERIFY_IP" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

// GatewayTimeout bounds every outbound verification call.
const GatewayTimeout = 15 * time.Second

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
