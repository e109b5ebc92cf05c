package musicapi

// Song is one entry of the music API, in whatever shape it was returned.
type Song struct {
	ID        string
	Title     string
	Artist    string
	Image     string
	Link      string // web page, not audio
	StreamURL string // direct audio stream if the API provides it
}

// DisplayTitle appends the artist to the title when it is known.
func (s Song) DisplayTitle() string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Title + " — " + s.Artist
}
