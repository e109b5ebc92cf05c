// Package bot wires the Discord gateway to the playback controller.
package bot

import (
	"context"
	"net/http"
	"time"

	"ghosttunes/internal/media"
	"ghosttunes/internal/musicapi"
	"ghosttunes/internal/playback"
	"ghosttunes/internal/voice"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// commandTimeout bounds one command, search and voice join included.
const commandTimeout = 45 * time.Second

type Bot struct {
	cfg Config
	dg  *discordgo.Session

	store  *playback.Store
	pm     *playback.Controller
	router *Router
	health *http.Server
}

func New(cfg Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "discord session")
	}
	dg.LogLevel = discordgoLogLevel(cfg.LogLevel)
	discordgo.Logger = discordgoLogger

	api := musicapi.New(cfg.MusicAPIBase, cfg.MusicPrefix, cfg.MusicAPIRPS)
	resolver := media.NewChain(
		api,
		media.NewYouTube(&http.Client{Timeout: 15 * time.Second}),
		media.NewFFmpeg(cfg.FFmpegPath),
	)

	b := &Bot{
		cfg:   cfg,
		dg:    dg,
		store: playback.NewStore(),
	}
	b.pm = playback.NewController(
		b.store,
		voice.NewTransport(dg),
		resolver,
		&channelNotifier{dg: dg},
		cfg.PlaybackConfig(),
		zlog.Logger,
	)
	b.router = NewRouter(cfg.CommandPrefix, b.pm, resolver, b)

	return b, nil
}

func (b *Bot) Start() error {
	// MessageContent is privileged: enable it in the developer portal
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return errors.Wrap(err, "open gateway")
	}
	if err := b.registerCommands(); err != nil {
		return errors.Wrap(err, "register slash commands")
	}

	b.health = StartHealthServer(":"+b.cfg.Port, b.store.Len)
	return nil
}

// Close ends every session before leaving the gateway.
func (b *Bot) Close() error {
	b.pm.StopAll()

	if b.health != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.health.Shutdown(ctx)
	}
	return b.dg.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	zlog.Info().Str("user", r.User.String()).Int("guilds", len(r.Guilds)).Msg("logged in")
}
