package bot

import "github.com/bwmarrin/discordgo"

func slashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a song from a link or search term, or add it to the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Link or search term",
					Required:    true,
				},
			},
		},
		{Name: "skip", Description: "Skip the current song"},
		{Name: "stop", Description: "Clear the queue and leave the voice channel"},
		{Name: "pause", Description: "Pause playback"},
		{Name: "resume", Description: "Resume playback"},
		{Name: "queue", Description: "Show the queue"},
	}
}

// registerCommands registers on GUILD_ID when set (instant), globally otherwise.
func (b *Bot) registerCommands() error {
	appID := b.dg.State.User.ID
	for _, c := range slashCommands() {
		if _, err := b.dg.ApplicationCommandCreate(appID, b.cfg.GuildID, c); err != nil {
			return err
		}
	}
	return nil
}
