package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must() at load
// time; optional values fall back to sensible defaults or stay empty.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	FrontendURL string // base URL of the frontend, used in checkout redirects and reset links

	PaymentSecretKey    string // API key for the payment gateway
	PaymentWebhookKey   string // shared secret used to verify webhook signatures
	PaymentCheckoutURL  string // checkout-session endpoint of the payment gateway
	WebhookToleranceSec int    // max age of a webhook signature timestamp in seconds

	SMTPHost     string // outbound mail server host
	SMTPPort     string // outbound mail server port
	SMTPFrom     string // From address on outgoing mail
	SMTPUser     string // SMTP auth username (optional)
	SMTPPassword string // SMTP auth password (optional)

	StorageDriver string // "local" or "s3"
	UploadDir     string // directory for local media storage
	S3Bucket      string // bucket name when StorageDriver is "s3"
	S3Region      string // region for the S3 client
	S3Endpoint    string // custom endpoint for S3-compatible stores (R2, LocalStack)
	S3AccessKey   string // static access key (optional, falls back to default chain)
	S3SecretKey   string // static secret key
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),

		PaymentSecretKey:    os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentWebhookKey:   os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentCheckoutURL:  getenv("PAYMENT_CHECKOUT_URL", "https://api.stripe.com/v1/checkout/sessions"),
		WebhookToleranceSec: atoi(getenv("PAYMENT_WEBHOOK_TOLERANCE_SEC", "300")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		StorageDriver: getenv("STORAGE_DRIVER", "local"),
		UploadDir:     getenv("UPLOAD_DIR", "./uploads"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Region:      getenv("S3_REGION", "auto"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:   os.Getenv("S3_SECRET_ACCESS_KEY"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
