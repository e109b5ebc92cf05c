package bot

import (
	"strings"
	"time"

	"ghosttunes/internal/playback"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Token         string `env:"DISCORD_TOKEN" validate:"required"`
	GuildID       string `env:"GUILD_ID"` // register slash commands on one guild only
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!" validate:"required,max=5"`

	MusicAPIBase string  `env:"MUSIC_API_BASE" validate:"required,url"`
	MusicPrefix  string  `env:"MUSIC_API_PREFIX" envDefault:"/api"`
	MusicAPIRPS  float64 `env:"MUSIC_API_RPS" envDefault:"5" validate:"gte=0"`
	FFmpegPath   string  `env:"FFMPEG_PATH" envDefault:"ffmpeg" validate:"required"`

	Port string `env:"PORT" envDefault:"10000" validate:"required,numeric"`

	JoinTimeout            time.Duration `env:"VOICE_JOIN_TIMEOUT" envDefault:"10s" validate:"gte=0"`
	ResolveTimeout         time.Duration `env:"STREAM_RESOLVE_TIMEOUT" envDefault:"30s" validate:"gte=0"`
	MaxConsecutiveFailures int           `env:"MAX_CONSECUTIVE_FAILURES" envDefault:"5" validate:"gte=0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

// LoadConfigFromEnv reads the process environment (after any .env file has
// been loaded) and validates it.
func LoadConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Token = strings.TrimSpace(c.Token)
	c.GuildID = strings.TrimSpace(c.GuildID)
	c.MusicAPIBase = strings.TrimRight(strings.TrimSpace(c.MusicAPIBase), "/")
	c.MusicPrefix = strings.TrimSpace(c.MusicPrefix)
	if !strings.HasPrefix(c.MusicPrefix, "/") {
		c.MusicPrefix = "/" + c.MusicPrefix
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	return nil
}

func (c Config) PlaybackConfig() playback.Config {
	return playback.Config{
		JoinTimeout:            c.JoinTimeout,
		ResolveTimeout:         c.ResolveTimeout,
		MaxConsecutiveFailures: c.MaxConsecutiveFailures,
	}
}
