package bot

import (
	"github.com/cockroachdb/errors"
)

var errNoVoiceState = errors.New("user not in a voice channel")

// UserVoiceChannel finds the voice channel a member is connected to, from the
// state cache first and the REST API otherwise.
func (b *Bot) UserVoiceChannel(guildID, userID string) (string, error) {
	if g, err := b.dg.State.Guild(guildID); err == nil {
		for _, vs := range g.VoiceStates {
			if vs.UserID == userID && vs.ChannelID != "" {
				return vs.ChannelID, nil
			}
		}
	}

	g, err := b.dg.Guild(guildID)
	if err != nil {
		return "", errors.Wrap(err, "fetch guild")
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}
	return "", errNoVoiceState
}
