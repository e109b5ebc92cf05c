package main

import (
	"os"
	"os/signal"
	"syscall"

	"ghosttunes/internal/bot"
	"ghosttunes/internal/logger"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
)

var (
	app     = kingpin.New("ghosttunes", "Discord voice music bot")
	envFile = app.Flag("env-file", "Path to a .env file").Default(".env").String()
	verbose = app.Flag("verbose", "Enable debug logging").Short('v').Bool()
	logfile = app.Flag("logfile", "Write JSON logs to this file instead of stdout").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	envErr := godotenv.Load(*envFile)

	cfg, err := bot.LoadConfigFromEnv()
	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	if _, lerr := logger.Init(logger.Config{Level: level, File: *logfile}); lerr != nil {
		zlog.Fatal().Err(lerr).Msg("init logger")
	}
	if envErr != nil {
		zlog.Warn().Str("file", *envFile).Msg(".env not loaded, using system env")
	}
	if err != nil {
		zlog.Fatal().Err(err).Msg("load config")
	}

	b, err := bot.New(cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("create bot")
	}

	if err := b.Start(); err != nil {
		zlog.Fatal().Err(err).Msg("start bot")
	}
	zlog.Info().Msg("Bot running. Ctrl+C to stop.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := b.Close(); err != nil {
		zlog.Error().Err(err).Msg("shutdown")
	}
}
