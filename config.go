package focusmomo

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	SessionBus = "session"
	SystemBus  = "system"
)

type Config struct {
	DatabaseURL         string
	PrefsPath           string
	LogLevel            log.Level
	Bus                 string
	DiscordWebhookID    string
	DiscordWebhookToken string
}

// LoadConfig reads .env (with -p) or .env.dev, then the FOCUSMOMO_* environment.
func LoadConfig() (Config, error) {
	isProd := flag.Bool("p", false, "is production environment")
	flag.Parse()
	if *isProd {
		_ = godotenv.Load(".env")
	} else {
		_ = godotenv.Load(".env.dev")
	}
	return ConfigFromEnv()
}

func ConfigFromEnv() (Config, error) {
	config := Config{
		DatabaseURL:         os.Getenv("FOCUSMOMO_DB_PATH"),
		PrefsPath:           os.Getenv("FOCUSMOMO_PREFS_PATH"),
		Bus:                 strings.ToLower(strings.TrimSpace(os.Getenv("FOCUSMOMO_BUS"))),
		DiscordWebhookID:    os.Getenv("FOCUSMOMO_DISCORD_WEBHOOK_ID"),
		DiscordWebhookToken: os.Getenv("FOCUSMOMO_DISCORD_WEBHOOK_TOKEN"),
		LogLevel:            log.InfoLevel,
	}

	if config.DatabaseURL == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("required environment variable: FOCUSMOMO_DB_PATH")
		}
		config.DatabaseURL = dir + "/focusmomo/focusmomo.db"
	}

	switch config.Bus {
	case "":
		config.Bus = SessionBus
	case SessionBus, SystemBus:
	default:
		return Config{}, fmt.Errorf("FOCUSMOMO_BUS must be %q or %q, got %q", SessionBus, SystemBus, config.Bus)
	}

	if lvl := os.Getenv("FOCUSMOMO_LOG_LEVEL"); lvl != "" {
		parsed, err := log.ParseLevel(lvl)
		if err != nil {
			return Config{}, fmt.Errorf("FOCUSMOMO_LOG_LEVEL: %w", err)
		}
		config.LogLevel = parsed
	}

	if (config.DiscordWebhookID == "") != (config.DiscordWebhookToken == "") {
		return Config{}, fmt.Errorf("FOCUSMOMO_DISCORD_WEBHOOK_ID and FOCUSMOMO_DISCORD_WEBHOOK_TOKEN must be set together")
	}

	return config, nil
}
