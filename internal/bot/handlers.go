package bot

import (
	"context"
	"strings"

	"ghosttunes/internal/playback"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"
)

const (
	ctrlPauseID  = "ctrl_pause"
	ctrlResumeID = "ctrl_resume"
	ctrlSkipID   = "ctrl_skip"
	ctrlStopID   = "ctrl_stop"
)

var controlCommands = map[string]string{
	ctrlPauseID:  "pause",
	ctrlResumeID: "resume",
	ctrlSkipID:   "skip",
	ctrlStopID:   "stop",
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	reply, ok := b.router.Route(ctx, Message{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		AuthorID:    m.Author.ID,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
	})
	if !ok || reply.Content == "" {
		return
	}

	var err error
	if reply.Reference {
		_, err = s.ChannelMessageSendReply(m.ChannelID, reply.Content, m.Reference())
	} else {
		_, err = s.ChannelMessageSend(m.ChannelID, reply.Content)
	}
	if err != nil {
		zlog.Warn().Err(err).Str("channel", m.ChannelID).Msg("send reply")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		replyText(s, i, "Commands only work inside a server.")
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleSlash(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleControl(s, i)
	}
}

// handleSlash turns a slash command into the equivalent text command.
func (b *Bot) handleSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	content := b.cfg.CommandPrefix + data.Name
	if len(data.Options) > 0 {
		content += " " + strings.TrimSpace(data.Options[0].StringValue())
	}

	// Ack quickly: search and voice join can take longer than Discord waits
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	reply, ok := b.router.Route(ctx, Message{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		AuthorID:  i.Member.User.ID,
		Content:   content,
	})
	if !ok {
		editReplyText(s, i, "Unknown command.")
		return
	}
	if reply.Content == "" {
		reply.Content = "🎶 Starting playback…"
	}
	editReplyText(s, i, reply.Content)
}

// handleControl runs a now-playing button and refreshes the message it is on.
// Buttons left on the message of an earlier track only retire that message.
func (b *Bot) handleControl(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cmd, token, ok := parseControlID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	// Ack fast
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})

	if snap, ok := b.pm.Snapshot(i.GuildID); !ok || !isCurrentControl(snap, token) {
		zlog.Debug().Str("guild", i.GuildID).Str("command", cmd).Msg("stale player control ignored")
		editStatus(s, i, "This track is no longer playing.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	reply, _ := b.router.Route(ctx, Message{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		AuthorID:  i.Member.User.ID,
		Content:   b.cfg.CommandPrefix + cmd,
	})

	snap, ok := b.pm.Snapshot(i.GuildID)
	track, loaded := snap.NowPlaying()
	if cmd == "skip" || cmd == "stop" || !ok || !loaded || snap.Token != token {
		editStatus(s, i, reply.Content)
		return
	}

	paused := snap.State == playback.StatePaused
	status := "Playing"
	if paused {
		status = "Paused"
	}
	embed := NowPlayingEmbed(track, UIState{Status: status, VoiceChanID: snap.VoiceChannelID})
	comps := PlayerControls(paused, snap.Token)
	_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &comps,
	})
}

// isCurrentControl reports whether a button rendered with token still
// belongs to the loaded track.
func isCurrentControl(snap playback.Snapshot, token string) bool {
	return token != "" && snap.Token == token
}

// editStatus replaces the now-playing embed with a status line and drops the
// buttons.
func editStatus(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	embed := StatusEmbed(text)
	_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &[]discordgo.MessageComponent{},
	})
}
