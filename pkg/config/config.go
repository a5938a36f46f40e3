package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every storefront environment variable.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Firebase      FirebaseConfig
	Redis         RedisConfig
	Guest         GuestConfig
	AuthRateLimit AuthRateLimitConfig
	Mail          MailConfig
	PubSub        PubSubConfig
	GCS           GCSConfig
	Remote        RemoteConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Firebase.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	PublicOrigin string `envconfig:"STOREFRONT_PUBLIC_ORIGIN" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// FirebaseConfig points at the hosted backend: the Firestore project, the
// admin credentials, and the Identity Toolkit web API key used for the
// password sign-in flow.
type FirebaseConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_FIREBASE_PROJECT_ID" required:"true"`
	CredentialsFile        string `envconfig:"STOREFRONT_FIREBASE_CREDENTIALS_FILE"`
	WebAPIKey              string `envconfig:"STOREFRONT_FIREBASE_WEB_API_KEY" required:"true"`
	UsersCollection        string `envconfig:"STOREFRONT_FIREBASE_USERS_COLLECTION" default:"storefront_users"`
	ProductsCollection     string `envconfig:"STOREFRONT_FIREBASE_PRODUCTS_COLLECTION" default:"uniforms"`
	SchoolsCollection      string `envconfig:"STOREFRONT_FIREBASE_SCHOOLS_COLLECTION" default:"schools"`
	InventoryCollection    string `envconfig:"STOREFRONT_FIREBASE_INVENTORY_COLLECTION" default:"batchInventory"`
	ReviewsSubcollection   string `envconfig:"STOREFRONT_FIREBASE_REVIEWS_SUBCOLLECTION" default:"reviews"`
	CartSubcollection      string `envconfig:"STOREFRONT_FIREBASE_CART_SUBCOLLECTION" default:"cart"`
	WishlistSubcollection  string `envconfig:"STOREFRONT_FIREBASE_WISHLIST_SUBCOLLECTION" default:"wishlist"`
	ExpectedAccountClass   string `envconfig:"STOREFRONT_FIREBASE_ACCOUNT_CLASS" default:"storefront"`
}

func (f FirebaseConfig) validate() error {
	if strings.TrimSpace(f.ExpectedAccountClass) == "" {
		return fmt.Errorf("%s_FIREBASE_ACCOUNT_CLASS must not be blank", EnvPrefix)
	}
	return nil
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

// GuestConfig controls the anonymous snapshot store.
type GuestConfig struct {
	SnapshotTTL time.Duration `envconfig:"STOREFRONT_GUEST_SNAPSHOT_TTL" default:"720h"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type MailConfig struct {
	SendgridAPIKey string `envconfig:"STOREFRONT_SENDGRID_API_KEY"`
	FromEmail      string `envconfig:"STOREFRONT_SENDGRID_FROM_EMAIL" default:"no-reply@monisha-uniforms.example"`
	FromName       string `envconfig:"STOREFRONT_SENDGRID_FROM_NAME" default:"Monisha Uniforms"`
}

// PubSubConfig names the optional activity topic. Empty disables publishing.
type PubSubConfig struct {
	ActivityTopic string `envconfig:"STOREFRONT_PUBSUB_ACTIVITY_TOPIC"`
}

type GCSConfig struct {
	BucketName string `envconfig:"STOREFRONT_GCS_BUCKET_NAME"`
}

// RemoteConfig bounds calls into the hosted store. The original client had
// no timeout at all; a hung call blocked its surface indefinitely.
type RemoteConfig struct {
	CallTimeout time.Duration `envconfig:"STOREFRONT_REMOTE_CALL_TIMEOUT" default:"10s"`
}
