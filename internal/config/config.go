package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Zakati"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"zakati"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"SERVER_ALLOWED_ORIGINS" default:"*"`
	}

	Log Log

	Auth struct {
		// JWTSecret verifies HS256 bearer tokens issued by the account service.
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	}

	Zakat struct {
		Rate                decimal.Decimal `envconfig:"ZAKAT_RATE" default:"0.025"`
		HawlDays            int             `envconfig:"ZAKAT_HAWL_DAYS" default:"354"`
		GoldNisabGrams      decimal.Decimal `envconfig:"ZAKAT_NISAB_GOLD_GRAMS" default:"85"`
		SilverNisabGrams    decimal.Decimal `envconfig:"ZAKAT_NISAB_SILVER_GRAMS" default:"595"`
		GoldFallbackPrice   decimal.Decimal `envconfig:"ZAKAT_GOLD_FALLBACK_PRICE" default:"75.0"`
		SilverFallbackPrice decimal.Decimal `envconfig:"ZAKAT_SILVER_FALLBACK_PRICE" default:"1.0"`
		MoneyBenchmark      string          `envconfig:"ZAKAT_MONEY_BENCHMARK" default:"GOLD"`
		ReminderOffsets     []int           `envconfig:"ZAKAT_REMINDER_OFFSETS" default:"30,15,7,0"`
		BaseCode            string          `envconfig:"ZAKAT_BASE_CODE" default:"USD"`
		GoldReferenceCode   string          `envconfig:"ZAKAT_GOLD_REFERENCE_CODE" default:"GOLD_24"`
	}

	PriceFeed struct {
		CurrencyURL string        `envconfig:"PRICEFEED_CURRENCY_URL" default:"https://open.er-api.com/v6/latest/USD"`
		MetalURL    string        `envconfig:"PRICEFEED_METAL_URL" default:"https://api.metalpriceapi.com/v1/latest"`
		MetalAPIKey string        `envconfig:"PRICEFEED_METAL_API_KEY"`
		Timeout     time.Duration `envconfig:"PRICEFEED_TIMEOUT" default:"15s"`
	}

	Export struct {
		// ReceiptBaseURL is the document store attachments must live under.
		// Empty means attachments are refused.
		ReceiptBaseURL string `envconfig:"EXPORT_RECEIPT_BASE_URL"`
		// ReceiptToken is sent as "Authorization: Token ..." when fetching receipts.
		ReceiptToken string        `envconfig:"EXPORT_RECEIPT_TOKEN"`
		Timeout      time.Duration `envconfig:"EXPORT_TIMEOUT" default:"30s"`
	}

	Discord struct {
		Token     string `envconfig:"DISCORD_TOKEN"`
		ChannelID string `envconfig:"DISCORD_CHANNEL_ID"`
		Language  string `envconfig:"DISCORD_LANGUAGE" default:"ar"`
	}

	TUI struct {
		UserID   int64  `envconfig:"TUI_USER_ID" default:"1"`
		Staff    bool   `envconfig:"TUI_STAFF" default:"false"`
		Language string `envconfig:"TUI_LANGUAGE" default:"en"`
	}
}

// Log controls the process-wide slog handler.
type Log struct {
	Level     string `envconfig:"LOG_LEVEL" default:"info"`
	Format    string `envconfig:"LOG_FORMAT" default:"text"`
	AddSource bool   `envconfig:"LOG_ADD_SOURCE" default:"false"`
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// ReceiptStore parses the configured receipt store base URL.
func (c *Config) ReceiptStore() (ledger.ReceiptStore, error) {
	return ledger.NewReceiptStore(c.Export.ReceiptBaseURL)
}

// ZakatParams converts the Zakat section into validated computation rules.
func (c *Config) ZakatParams() (zakat.Params, error) {
	z := c.Zakat

	p := zakat.DefaultParams().WithReminderOffsets(z.ReminderOffsets...)
	p.Rate = z.Rate
	p.HawlDays = z.HawlDays
	p.GoldNisabGrams = z.GoldNisabGrams
	p.SilverNisabGrams = z.SilverNisabGrams
	p.GoldFallbackPrice = z.GoldFallbackPrice
	p.SilverFallbackPrice = z.SilverFallbackPrice
	p.BaseCode = strings.ToUpper(z.BaseCode)
	p.GoldReferenceCode = strings.ToUpper(z.GoldReferenceCode)

	switch strings.ToUpper(z.MoneyBenchmark) {
	case "GOLD":
		p.MoneyBenchmark = ledger.ClassGold
	case "SILVER":
		p.MoneyBenchmark = ledger.ClassSilver
	default:
		p.MoneyBenchmark = ledger.Class(z.MoneyBenchmark)
	}

	if err := p.Validate(); err != nil {
		return zakat.Params{}, fmt.Errorf("invalid zakat config: %w", err)
	}

	return p, nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
