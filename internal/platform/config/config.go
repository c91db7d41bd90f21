// Package config loads application configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries all runtime settings. Required values fail Load when
// absent; everything else has a working default.
type Config struct {
	AppEnv       string  `env:"APP_ENV" envDefault:"local"`
	BotToken     string  `env:"BOT_TOKEN,required"`
	TargetChatID int64   `env:"TARGET_CHAT_ID,required"`
	AdminIDs     []int64 `env:"ADMIN_IDS" envSeparator:","`

	// GroupTitle gates the housekeeping handlers (night mode, welcome)
	// to one group, matching by chat title.
	GroupTitle string `env:"GROUP_TITLE" envDefault:"GENERAL"`

	// Source pages.
	AgendaURL       string `env:"AGENDA_URL,required"`
	CatalogURL      string `env:"CATALOG_URL,required"`
	AgendaThreadID  int64  `env:"AGENDA_THREAD_ID"`
	CatalogThreadID int64  `env:"CATALOG_THREAD_ID"`

	// Daily trigger, local to Timezone.
	Timezone  string `env:"TIMEZONE" envDefault:"Europe/Madrid"`
	DailyTime string `env:"DAILY_TIME" envDefault:"10:00"`

	// Night mode window, hours in Timezone.
	NightStartHour int `env:"NIGHT_START_HOUR" envDefault:"23"`
	NightEndHour   int `env:"NIGHT_END_HOUR" envDefault:"8"`

	// Rendering.
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"45s"`
	FetchSettle    time.Duration `env:"FETCH_SETTLE" envDefault:"2s"`
	FetchScrolls   int           `env:"FETCH_SCROLLS" envDefault:"3"`
	ChromeHeadless bool          `env:"CHROME_HEADLESS" envDefault:"true"`

	// Delivery.
	MessageLimit int           `env:"MESSAGE_LIMIT" envDefault:"3900"`
	SendDelay    time.Duration `env:"SEND_DELAY" envDefault:"500ms"`

	StateDir   string `env:"STATE_DIR" envDefault:"./state"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8080"`
}

// Load reads .env if present and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
