package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Webhook holds the inbound webhook verification settings.
	Webhook WebhookConfig `mapstructure:",squash"`

	// Shopify holds the Shopify Admin API configuration.
	Shopify ShopifyConfig `mapstructure:",squash"`

	// Payments holds the gift-card issuance API configuration.
	Payments PaymentsConfig `mapstructure:",squash"`

	// Mail holds the SMTP delivery configuration.
	Mail MailConfig `mapstructure:",squash"`

	// Claims holds the per-order claim store configuration.
	Claims ClaimsConfig `mapstructure:",squash"`
}

// WebhookConfig holds settings for authenticating inbound webhooks.
type WebhookConfig struct {
	// SharedSecret is the secret used to verify the HMAC signature header.
	SharedSecret string `mapstructure:"WEBHOOK_SHARED_SECRET" required:"true"`
}

// ShopifyConfig holds the credentials for the Shopify store.
type ShopifyConfig struct {
	// ShopDomain is the myshopify domain of the store (e.g., example.myshopify.com).
	ShopDomain string `mapstructure:"SHOPIFY_SHOP_DOMAIN" required:"true"`
	// AccessToken is the Admin API access token.
	AccessToken string `mapstructure:"SHOPIFY_ACCESS_TOKEN" required:"true"`
	// APIVersion is the Admin API version to pin requests to.
	APIVersion string `mapstructure:"SHOPIFY_API_VERSION" default:"2024-10"`
}

// PaymentsConfig holds the credentials for the gift-card issuance API.
type PaymentsConfig struct {
	// SandboxMode short-circuits issuance to synthetic results. It must
	// be explicit configuration; a sandbox process must never carry live
	// payment credentials, which Load enforces at startup.
	SandboxMode bool `mapstructure:"PAYMENTS_SANDBOX_MODE" default:"false"`
	// BaseURL is the issuance API endpoint. Required unless in sandbox mode.
	BaseURL string `mapstructure:"PAYMENTS_BASE_URL"`
	// MerchantID identifies this merchant to the issuance API.
	MerchantID string `mapstructure:"PAYMENTS_MERCHANT_ID"`
	// SigningSecret signs outbound issuance requests.
	SigningSecret string `mapstructure:"PAYMENTS_SIGNING_SECRET"`
	// CurrencyToken identifies the currency each code is denominated in.
	CurrencyToken string `mapstructure:"PAYMENTS_CURRENCY_TOKEN" required:"true"`
}

// MailConfig holds SMTP settings for customer notifications.
type MailConfig struct {
	// Host is the SMTP server hostname.
	Host string `mapstructure:"SMTP_HOST" required:"true"`
	// Port is the SMTP server port.
	Port int `mapstructure:"SMTP_PORT" default:"587"`
	// Username authenticates against the SMTP server.
	Username string `mapstructure:"SMTP_USERNAME"`
	// Password authenticates against the SMTP server.
	Password string `mapstructure:"SMTP_PASSWORD"`
	// FromAddress is the sender address on outgoing mail.
	FromAddress string `mapstructure:"MAIL_FROM_ADDRESS" required:"true"`
	// Subject is the subject line of the gift-card delivery email.
	Subject string `mapstructure:"MAIL_SUBJECT" default:"Your gift card codes"`
}

// ClaimsConfig holds settings for the short-lived per-order claim store.
type ClaimsConfig struct {
	// RedisURL is the claim store address. Empty disables claiming and
	// leaves the platform-side sent flag as the only duplicate guard.
	RedisURL string `mapstructure:"CLAIMS_REDIS_URL"`
	// TTLSeconds bounds how long an in-flight order claim is held.
	TTLSeconds int `mapstructure:"CLAIMS_TTL_SECONDS" default:"120"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if err := config.Payments.validateMode(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateMode enforces the sandbox/live credential split: sandbox mode
// must not hold live issuance credentials, and live mode must hold all of them.
func (p PaymentsConfig) validateMode() error {
	if p.SandboxMode {
		if p.BaseURL != "" || p.MerchantID != "" || p.SigningSecret != "" {
			return errors.New("invalid payments configuration: sandbox mode cannot be combined with live payment credentials")
		}
		return nil
	}

	liveKeys := []struct {
		key string
		val string
	}{
		{"PAYMENTS_BASE_URL", p.BaseURL},
		{"PAYMENTS_MERCHANT_ID", p.MerchantID},
		{"PAYMENTS_SIGNING_SECRET", p.SigningSecret},
	}
	for _, k := range liveKeys {
		if k.val == "" {
			return fmt.Errorf("missing required configuration: %s", k.key)
		}
	}
	return nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
