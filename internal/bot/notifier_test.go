package bot

import (
	"context"
	"testing"

	"ghosttunes/internal/media"
	"ghosttunes/internal/playback"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	channelID string
	content   string
	complex   *discordgo.MessageSend
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: content})
	return &discordgo.Message{}, f.err
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: data.Content, complex: data})
	return &discordgo.Message{}, f.err
}

func TestChannelNotifier_NowPlaying(t *testing.T) {
	sender := &fakeSender{}
	n := &channelNotifier{dg: sender}

	n.Notify(context.Background(), "text-1", playback.Notification{
		Kind:           playback.NotifyNowPlaying,
		GuildID:        "g1",
		VoiceChannelID: "voice-1",
		Track:          media.Track{Title: "Song1", URL: "https://example.com/1"},
		Token:          "sess.1",
	})

	require.Len(t, sender.sent, 1)
	got := sender.sent[0]
	assert.Equal(t, "text-1", got.channelID)
	assert.Equal(t, "🎶 Now playing: Song1", got.content)
	require.NotNil(t, got.complex)
	require.Len(t, got.complex.Embeds, 1)
	assert.Contains(t, got.complex.Embeds[0].Description, "Song1")
	assert.Equal(t, "<#voice-1>", got.complex.Embeds[0].Fields[0].Value)
	require.Len(t, got.complex.Components, 1)
	row := got.complex.Components[0].(discordgo.ActionsRow)
	assert.Equal(t, "ctrl_pause:sess.1", row.Components[0].(discordgo.Button).CustomID)
}

func TestChannelNotifier_Failures(t *testing.T) {
	sender := &fakeSender{err: errors.New("missing access")}
	n := &channelNotifier{dg: sender}

	n.Notify(context.Background(), "text-1", playback.Notification{
		Kind:  playback.NotifyTrackFailed,
		Track: media.Track{Title: "Song2"},
		Err:   errors.New("unavailable"),
	})
	n.Notify(context.Background(), "text-1", playback.Notification{Kind: playback.NotifyGaveUp})

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "❌ Error playing Song2, skipping", sender.sent[0].content)
	assert.Nil(t, sender.sent[0].complex)
	assert.Equal(t, "❌ Too many tracks failed in a row, leaving the voice channel", sender.sent[1].content)
}
