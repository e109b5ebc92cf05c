package bot

import (
	"context"

	"ghosttunes/internal/playback"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"
)

// MessageSender is the slice of *discordgo.Session the notifier uses.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// channelNotifier posts session events to the guild's text channel.
type channelNotifier struct {
	dg MessageSender
}

func (n *channelNotifier) Notify(ctx context.Context, channelID string, note playback.Notification) {
	var err error
	switch note.Kind {
	case playback.NotifyNowPlaying:
		_, err = n.dg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:    "🎶 " + note.String(),
			Embeds:     []*discordgo.MessageEmbed{NowPlayingEmbed(note.Track, UIState{VoiceChanID: note.VoiceChannelID})},
			Components: PlayerControls(false, note.Token),
		}, discordgo.WithContext(ctx))
	default:
		_, err = n.dg.ChannelMessageSend(channelID, "❌ "+note.String(), discordgo.WithContext(ctx))
	}
	if err != nil {
		zlog.Warn().Err(err).Str("guild", note.GuildID).Str("channel", channelID).Msg("notify")
	}
}
