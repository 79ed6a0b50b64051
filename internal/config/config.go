package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Mail providers
const (
	ProviderSMTP  = "smtp"
	ProviderGmail = "gmail"
)

// STARTTLS policies
const (
	StartTLSMandatory     = "mandatory"
	StartTLSOpportunistic = "opportunistic"
	StartTLSNone          = "none"
)

// Config holds all configuration for the application.
// It is loaded once at startup and never mutated afterwards.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	SMTP   SMTPConfig   `mapstructure:"smtp"`
	Mail   MailConfig   `mapstructure:"mail"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SMTPConfig holds the outbound relay configuration
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// StartTLS is one of "mandatory", "opportunistic" or "none"
	StartTLS string `mapstructure:"starttls"`
	// Timeout bounds dialing the relay. Zero keeps the mail library default.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Addr returns the relay address
func (c SMTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MailConfig holds settings for the outgoing contact email
type MailConfig struct {
	// Provider is the delivery backend: "smtp" or "gmail"
	Provider      string      `mapstructure:"provider"`
	Recipient     string      `mapstructure:"recipient"`
	SubjectPrefix string      `mapstructure:"subject_prefix"`
	Gmail         GmailConfig `mapstructure:"gmail"`
}

// GmailConfig holds Gmail API credentials used when Provider is "gmail"
type GmailConfig struct {
	// CredentialsJSON is a service account credentials JSON with domain-wide delegation
	CredentialsJSON string `mapstructure:"credentials_json"`
	// ClientID, ClientSecret and RefreshToken are used for OAuth2 token-based auth
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
}

// HasCredentials reports whether either credential form is fully set
func (c GmailConfig) HasCredentials() bool {
	if c.CredentialsJSON != "" {
		return true
	}
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// CORSConfig holds the origin allowed on non-preflight responses
type CORSConfig struct {
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CredentialsMissing reports whether the relay cannot authenticate with the
// current configuration. It is checked per request, not at startup.
func (c Config) CredentialsMissing() bool {
	if c.SMTP.User == "" {
		return true
	}
	if c.Mail.Provider == ProviderGmail {
		return !c.Mail.Gmail.HasCredentials()
	}
	return c.SMTP.Password == ""
}

// envBindings maps config keys to the environment variables the service has
// always been deployed with.
var envBindings = map[string]string{
	"server.host":                 "HOST",
	"server.port":                 "PORT",
	"smtp.host":                   "SMTP_SERVER",
	"smtp.port":                   "SMTP_PORT",
	"smtp.user":                   "SMTP_USER",
	"smtp.password":               "SMTP_PASS",
	"smtp.starttls":               "SMTP_STARTTLS",
	"smtp.timeout":                "SMTP_TIMEOUT",
	"mail.provider":               "MAIL_PROVIDER",
	"mail.recipient":              "RECIPIENT_EMAIL",
	"mail.subject_prefix":         "MAIL_SUBJECT_PREFIX",
	"mail.gmail.credentials_json": "GMAIL_CREDENTIALS_JSON",
	"mail.gmail.client_id":        "GMAIL_CLIENT_ID",
	"mail.gmail.client_secret":    "GMAIL_CLIENT_SECRET",
	"mail.gmail.refresh_token":    "GMAIL_REFRESH_TOKEN",
	"cors.allowed_origin":         "CORS_ALLOWED_ORIGIN",
	"log.level":                   "LOG_LEVEL",
	"log.format":                  "LOG_FORMAT",
}

// Load reads configuration from an optional .env file, an optional config
// file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/contact-relay")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	c.Mail.Provider = strings.ToLower(c.Mail.Provider)
	switch c.Mail.Provider {
	case ProviderSMTP, ProviderGmail:
	default:
		return fmt.Errorf("invalid mail provider %q: must be smtp or gmail", c.Mail.Provider)
	}

	c.SMTP.StartTLS = strings.ToLower(c.SMTP.StartTLS)
	switch c.SMTP.StartTLS {
	case StartTLSMandatory, StartTLSOpportunistic, StartTLSNone:
	default:
		return fmt.Errorf("invalid starttls policy %q: must be mandatory, opportunistic or none", c.SMTP.StartTLS)
	}

	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid smtp port %d", c.SMTP.Port)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Relay defaults
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.starttls", StartTLSMandatory)
	v.SetDefault("smtp.timeout", "0s")

	// Mail defaults
	v.SetDefault("mail.provider", ProviderSMTP)
	v.SetDefault("mail.recipient", "me@operas.pt")
	v.SetDefault("mail.subject_prefix", "me@operas.pt | Contact | ")
	v.SetDefault("mail.gmail.credentials_json", "")
	v.SetDefault("mail.gmail.client_id", "")
	v.SetDefault("mail.gmail.client_secret", "")
	v.SetDefault("mail.gmail.refresh_token", "")

	// CORS defaults
	v.SetDefault("cors.allowed_origin", "https://operas.pt")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
