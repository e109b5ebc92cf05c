package playback

import (
	"context"
	"fmt"

	"ghosttunes/internal/media"
)

type NotificationKind int

const (
	NotifyNowPlaying NotificationKind = iota
	NotifyTrackFailed
	NotifyGaveUp
)

// Notification is sent to the guild's text channel on session events.
type Notification struct {
	Kind           NotificationKind
	GuildID        string
	VoiceChannelID string
	Track          media.Track
	Err            error
	// Token matches Snapshot.Token while the announced track is loaded.
	Token string
}

func (n Notification) String() string {
	switch n.Kind {
	case NotifyNowPlaying:
		return "Now playing: " + n.Track.Title
	case NotifyTrackFailed:
		return fmt.Sprintf("Error playing %s, skipping", n.Track.Title)
	case NotifyGaveUp:
		return "Too many tracks failed in a row, leaving the voice channel"
	default:
		return ""
	}
}

type Notifier interface {
	Notify(ctx context.Context, channelID string, n Notification)
}
