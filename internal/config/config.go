package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"medica-diagnosis/internal/disease"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	MigrationsDir    string        `mapstructure:"MIGRATIONS_DIR"`
	OracleBaseURL    string        `mapstructure:"ORACLE_BASE_URL"`
	OracleTimeout    time.Duration `mapstructure:"ORACLE_TIMEOUT"`
	TreatmentURL     string        `mapstructure:"TREATMENT_URL"`
	TreatmentTimeout time.Duration `mapstructure:"TREATMENT_TIMEOUT"`
	TelegramBotToken string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	DoctorChatID     int64         `mapstructure:"DOCTOR_CHAT_ID"`
	PDFFontPath      string        `mapstructure:"PDF_FONT_PATH"`
	CatalogFile      string        `mapstructure:"CATALOG_FILE"`
	CORSOrigin       string        `mapstructure:"CORS_ORIGIN"`

	DiseaseMinLength     int `mapstructure:"DISEASE_MIN_LENGTH"`
	DiseaseMinWords      int `mapstructure:"DISEASE_MIN_WORDS"`
	DiseaseMinWordLength int `mapstructure:"DISEASE_MIN_WORD_LENGTH"`
}

var keys = []string{
	"PORT",
	"ENV",
	"DATABASE_URL",
	"MIGRATIONS_DIR",
	"ORACLE_BASE_URL",
	"ORACLE_TIMEOUT",
	"TREATMENT_URL",
	"TREATMENT_TIMEOUT",
	"TELEGRAM_BOT_TOKEN",
	"DOCTOR_CHAT_ID",
	"PDF_FONT_PATH",
	"CATALOG_FILE",
	"CORS_ORIGIN",
	"DISEASE_MIN_LENGTH",
	"DISEASE_MIN_WORDS",
	"DISEASE_MIN_WORD_LENGTH",
}

// Load reads configuration from the environment, after merging any .env
// file in the working directory. Variables already set win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MIGRATIONS_DIR", "file://migrations")
	v.SetDefault("ORACLE_BASE_URL", "http://localhost:8000")
	v.SetDefault("ORACLE_TIMEOUT", "0s")
	v.SetDefault("TREATMENT_URL", "http://localhost:5000")
	v.SetDefault("TREATMENT_TIMEOUT", "60s")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("DISEASE_MIN_LENGTH", disease.DefaultRules.MinLength)
	v.SetDefault("DISEASE_MIN_WORDS", disease.DefaultRules.MinWords)
	v.SetDefault("DISEASE_MIN_WORD_LENGTH", disease.DefaultRules.MinWordLength)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// DiseaseRules returns the configured name heuristics.
func (c *Config) DiseaseRules() disease.Rules {
	return disease.Rules{
		MinLength:     c.DiseaseMinLength,
		MinWords:      c.DiseaseMinWords,
		MinWordLength: c.DiseaseMinWordLength,
	}
}

// ReportsEnabled reports whether prescriptions can be sent to a doctor chat.
func (c *Config) ReportsEnabled() bool {
	return c.TelegramBotToken != "" && c.DoctorChatID != 0
}

// Validate checks that the configuration is usable before anything starts.
func (c *Config) Validate() error {
	if c.DiseaseMinLength <= 0 || c.DiseaseMinWords <= 0 || c.DiseaseMinWordLength <= 0 {
		return fmt.Errorf("disease name thresholds must be positive, got length=%d words=%d word_length=%d",
			c.DiseaseMinLength, c.DiseaseMinWords, c.DiseaseMinWordLength)
	}
	if c.OracleTimeout < 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must not be negative, got %s", c.OracleTimeout)
	}
	if c.TreatmentTimeout < 0 {
		return fmt.Errorf("TREATMENT_TIMEOUT must not be negative, got %s", c.TreatmentTimeout)
	}
	for name, raw := range map[string]string{"ORACLE_BASE_URL": c.OracleBaseURL, "TREATMENT_URL": c.TreatmentURL} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
		}
	}
	if c.DoctorChatID != 0 && c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when DOCTOR_CHAT_ID is set")
	}
	return nil
}
