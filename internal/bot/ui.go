package bot

import (
	"fmt"
	"strings"

	"ghosttunes/internal/media"

	"github.com/bwmarrin/discordgo"
)

// Discord blurple
const uiColor = 0x5865F2

type UIState struct {
	Status      string
	VoiceChanID string
}

func NowPlayingEmbed(t media.Track, ui UIState) *discordgo.MessageEmbed {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "Unknown Title"
	}
	status := strings.TrimSpace(ui.Status)
	if status == "" {
		status = "Playing"
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎶 Now Playing",
		Description: fmt.Sprintf("**%s**\n\n**Status:** `%s`", truncate(title, 200), status),
		Color:       uiColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Voice", Value: mentionChannel(ui.VoiceChanID), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Pause/Resume toggles • Skip plays the next song • Stop clears the queue",
		},
	}
	if strings.HasPrefix(t.URL, "https://") {
		embed.URL = t.URL
	}
	return embed
}

// StatusEmbed replaces the now-playing embed once the track it showed is gone.
func StatusEmbed(text string) *discordgo.MessageEmbed {
	if text == "" {
		text = "Stopped"
	}
	return &discordgo.MessageEmbed{
		Title:       "Player",
		Description: text,
		Color:       uiColor,
	}
}

// PlayerControls is one row: Pause/Resume toggle, Skip, Stop. token ties the
// buttons to the track they were rendered for.
func PlayerControls(isPaused bool, token string) []discordgo.MessageComponent {
	toggle := discordgo.Button{
		CustomID: controlID(ctrlPauseID, token),
		Label:    "Pause",
		Style:    discordgo.PrimaryButton,
		Emoji:    &discordgo.ComponentEmoji{Name: "⏸️"},
	}
	if isPaused {
		toggle = discordgo.Button{
			CustomID: controlID(ctrlResumeID, token),
			Label:    "Resume",
			Style:    discordgo.SuccessButton,
			Emoji:    &discordgo.ComponentEmoji{Name: "▶️"},
		}
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				toggle,
				discordgo.Button{
					CustomID: controlID(ctrlSkipID, token),
					Label:    "Skip",
					Style:    discordgo.SecondaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "⏭️"},
				},
				discordgo.Button{
					CustomID: controlID(ctrlStopID, token),
					Label:    "Stop",
					Style:    discordgo.DangerButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "⏹️"},
				},
			},
		},
	}
}

func mentionChannel(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "`unknown`"
	}
	return "<#" + id + ">"
}

func controlID(action, token string) string {
	return action + ":" + token
}

// parseControlID splits a button ID into its command and track token.
func parseControlID(customID string) (cmd, token string, ok bool) {
	action, token, _ := strings.Cut(customID, ":")
	cmd, ok = controlCommands[action]
	return cmd, token, ok
}
