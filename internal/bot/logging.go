package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var discordgoLevels = map[int]zerolog.Level{
	discordgo.LogError:         zerolog.ErrorLevel,
	discordgo.LogWarning:       zerolog.WarnLevel,
	discordgo.LogInformational: zerolog.InfoLevel,
	discordgo.LogDebug:         zerolog.DebugLevel,
}

// discordgoLogger routes discordgo's internal logging into zerolog.
func discordgoLogger(msgL, _ int, format string, a ...any) {
	level, ok := discordgoLevels[msgL]
	if !ok {
		level = zerolog.InfoLevel
	}
	zlog.WithLevel(level).
		Str("logger", "discordgo").
		Msg(strings.ReplaceAll(fmt.Sprintf(format, a...), "\n", " "))
}

func discordgoLogLevel(level string) int {
	switch level {
	case "debug":
		return discordgo.LogInformational
	case "warn":
		return discordgo.LogWarning
	case "error":
		return discordgo.LogError
	default:
		return discordgo.LogWarning
	}
}
