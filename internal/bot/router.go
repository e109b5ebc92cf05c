package bot

import (
	"context"
	"fmt"
	"strings"

	"ghosttunes/internal/media"
	"ghosttunes/internal/playback"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const maxQueueLines = 10

// Message is an inbound chat message, stripped to what routing needs.
type Message struct {
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorIsBot bool
	Content     string
}

// Reply is the router's answer. Reference replies quote the command message;
// the others are plain channel messages.
type Reply struct {
	Content   string
	Reference bool
}

// Controller is the part of *playback.Controller the router drives.
type Controller interface {
	Enqueue(ctx context.Context, req playback.EnqueueRequest) (playback.EnqueueResult, error)
	Pause(guildID string) error
	Resume(guildID string) error
	Skip(guildID string) error
	Stop(guildID string) error
	Snapshot(guildID string) (playback.Snapshot, bool)
}

type VoiceLocator interface {
	UserVoiceChannel(guildID, userID string) (string, error)
}

// Router maps text commands to playback operations.
type Router struct {
	prefix string
	ctl    Controller
	search media.Searcher
	voice  VoiceLocator
}

func NewRouter(prefix string, ctl Controller, search media.Searcher, voice VoiceLocator) *Router {
	return &Router{prefix: strings.ToLower(prefix), ctl: ctl, search: search, voice: voice}
}

// Route handles one message. ok is false when the message is not a command
// for this bot.
func (r *Router) Route(ctx context.Context, m Message) (reply Reply, ok bool) {
	if m.GuildID == "" || m.AuthorIsBot {
		return Reply{}, false
	}
	fields := strings.Fields(m.Content)
	if len(fields) == 0 {
		return Reply{}, false
	}
	keyword := strings.ToLower(fields[0])
	if !strings.HasPrefix(keyword, r.prefix) {
		return Reply{}, false
	}
	args := fields[1:]

	switch strings.TrimPrefix(keyword, r.prefix) {
	case "play":
		return r.play(ctx, m, strings.Join(args, " ")), true
	case "skip":
		return r.simple(m.GuildID, r.ctl.Skip, "⏭️ Skipped!", "Nothing to skip!"), true
	case "stop":
		return r.simple(m.GuildID, r.ctl.Stop, "🛑 Stopped!", "Nothing is playing!"), true
	case "pause":
		return r.simple(m.GuildID, r.ctl.Pause, "⏸️ Paused!", "Nothing is playing!"), true
	case "resume":
		return r.simple(m.GuildID, r.ctl.Resume, "▶️ Resumed!", "Nothing is paused!"), true
	case "queue":
		return r.queue(m.GuildID), true
	}
	return Reply{}, false
}

func (r *Router) play(ctx context.Context, m Message, query string) Reply {
	log := zlog.With().Str("guild", m.GuildID).Str("query", query).Logger()

	if strings.TrimSpace(query) == "" {
		return Reply{Content: "Please provide a YouTube link or search term!", Reference: true}
	}
	vcID, err := r.voice.UserVoiceChannel(m.GuildID, m.AuthorID)
	if err != nil || vcID == "" {
		return Reply{Content: "You must be in a voice channel first!", Reference: true}
	}

	tracks, err := r.search.Search(ctx, query, 1)
	if err != nil {
		log.Warn().Err(err).Msg("router: search failed")
		return Reply{Content: "Search failed, try again later.", Reference: true}
	}
	if len(tracks) == 0 {
		return Reply{Content: "No results found!", Reference: true}
	}
	track := tracks[0]

	res, err := r.ctl.Enqueue(ctx, playback.EnqueueRequest{
		GuildID:        m.GuildID,
		TextChannelID:  m.ChannelID,
		VoiceChannelID: vcID,
		Track:          track,
	})
	if err != nil {
		log.Error().Err(err).Msg("router: enqueue failed")
		if errors.Is(err, playback.ErrTransport) {
			return Reply{Content: "Error joining voice channel!"}
		}
		return Reply{Content: "Error starting playback!"}
	}
	if res.Started {
		// the session announces the track itself
		return Reply{}
	}
	return Reply{Content: fmt.Sprintf("✅ **%s** added to queue!", track.Title)}
}

func (r *Router) simple(guildID string, op func(string) error, done, nothing string) Reply {
	if err := op(guildID); err != nil {
		return Reply{Content: nothing, Reference: true}
	}
	return Reply{Content: done, Reference: true}
}

func (r *Router) queue(guildID string) Reply {
	snap, ok := r.ctl.Snapshot(guildID)
	if !ok || len(snap.Pending) == 0 {
		return Reply{Content: "Nothing is playing!", Reference: true}
	}

	var sb strings.Builder
	rest := snap.Pending
	if now, ok := snap.NowPlaying(); ok {
		state := "Now playing"
		if snap.State == playback.StatePaused {
			state = "Paused"
		}
		fmt.Fprintf(&sb, "🎶 %s: **%s**\n", state, now.Title)
		rest = rest[1:]
	}
	for i, t := range rest {
		if i == maxQueueLines {
			fmt.Fprintf(&sb, "…and %d more\n", len(rest)-maxQueueLines)
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t.Title)
	}
	return Reply{Content: strings.TrimRight(sb.String(), "\n"), Reference: true}
}
