package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port               string        `yaml:"port"`
		ReadTimeout        time.Duration `yaml:"read_timeout"`
		WriteTimeout       time.Duration `yaml:"write_timeout"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	JWT struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`
	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
	Stripe struct {
		SecretKey     string        `yaml:"secret_key"`
		WebhookSecret string        `yaml:"webhook_secret"`
		SuccessURL    string        `yaml:"success_url"`
		CancelURL     string        `yaml:"cancel_url"`
		SessionTTL    time.Duration `yaml:"session_ttl"`
	} `yaml:"stripe"`
	SendGrid struct {
		APIKey    string `yaml:"api_key"`
		FromEmail string `yaml:"from_email"`
		FromName  string `yaml:"from_name"`
	} `yaml:"sendgrid"`
	Twilio struct {
		AccountSID string `yaml:"account_sid"`
		AuthToken  string `yaml:"auth_token"`
		FromNumber string `yaml:"from_number"`
	} `yaml:"twilio"`
	Redis struct {
		URL             string        `yaml:"url"`
		AvailabilityTTL time.Duration `yaml:"availability_ttl"`
	} `yaml:"redis"`
	Jobs struct {
		ExpirePendingEvery string        `yaml:"expire_pending_every"`
		PendingTTL         time.Duration `yaml:"pending_ttl"`
	} `yaml:"jobs"`
}

func defaults() *Config {
	c := &Config{}
	c.Server.Port = "8080"
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.CORSAllowedOrigins = []string{"http://localhost:3000"}
	c.JWT.TTL = time.Hour
	c.Stripe.SuccessURL = "http://localhost:3000/bookings/confirmation?session_id={CHECKOUT_SESSION_ID}"
	c.Stripe.CancelURL = "http://localhost:3000/bookings/failed?session_id={CHECKOUT_SESSION_ID}"
	c.Stripe.SessionTTL = 30 * time.Minute
	c.SendGrid.FromName = "deskhub"
	c.Redis.AvailabilityTTL = 10 * time.Minute
	c.Jobs.ExpirePendingEvery = "@every 5m"
	c.Jobs.PendingTTL = 45 * time.Minute
	return c
}

// Load reads an optional .env file, then the YAML file at path if it exists,
// then applies environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := defaults()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDurationFromEnv(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func (c *Config) applyEnv() error {
	setFromEnv(&c.Database.URL, "DATABASE_URL")
	setFromEnv(&c.Server.Port, "PORT")
	setFromEnv(&c.JWT.Secret, "JWT_SECRET")
	setFromEnv(&c.Admin.Email, "ADMIN_EMAIL")
	setFromEnv(&c.Admin.Password, "ADMIN_PASSWORD")
	setFromEnv(&c.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setFromEnv(&c.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setFromEnv(&c.Stripe.SuccessURL, "CHECKOUT_SUCCESS_URL")
	setFromEnv(&c.Stripe.CancelURL, "CHECKOUT_CANCEL_URL")
	setFromEnv(&c.SendGrid.APIKey, "SENDGRID_API_KEY")
	setFromEnv(&c.SendGrid.FromEmail, "SENDGRID_FROM_EMAIL")
	setFromEnv(&c.SendGrid.FromName, "SENDGRID_FROM_NAME")
	setFromEnv(&c.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	setFromEnv(&c.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	setFromEnv(&c.Twilio.FromNumber, "TWILIO_FROM_NUMBER")
	setFromEnv(&c.Redis.URL, "REDIS_URL")
	setFromEnv(&c.Jobs.ExpirePendingEvery, "EXPIRE_PENDING_EVERY")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.CORSAllowedOrigins = origins
	}

	if err := setDurationFromEnv(&c.Stripe.SessionTTL, "CHECKOUT_SESSION_TTL"); err != nil {
		return err
	}
	if err := setDurationFromEnv(&c.Redis.AvailabilityTTL, "AVAILABILITY_CACHE_TTL"); err != nil {
		return err
	}
	return setDurationFromEnv(&c.Jobs.PendingTTL, "PENDING_BOOKING_TTL")
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL not set")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET not set")
	}
	if c.Stripe.SessionTTL < 30*time.Minute || c.Stripe.SessionTTL > 24*time.Hour {
		return fmt.Errorf("CHECKOUT_SESSION_TTL %s must be between 30m and 24h", c.Stripe.SessionTTL)
	}
	// A pending booking may only be expired once its checkout can no longer complete.
	if c.Jobs.PendingTTL <= c.Stripe.SessionTTL {
		return fmt.Errorf("PENDING_BOOKING_TTL %s must be longer than CHECKOUT_SESSION_TTL %s", c.Jobs.PendingTTL, c.Stripe.SessionTTL)
	}
	return nil
}
