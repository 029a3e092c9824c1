package domain

import "fmt"

// UnknownField is substituted for a missing title or artist so that both are
// always non-empty after provider normalization.
const UnknownField = "Unknown"

// Track is one candidate result produced by a provider. It is immutable after
// construction and round-trips through JSON field-for-field, which is the only
// wire format the session cache persists.
type Track struct {
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	DurationSeconds int    `json:"duration"`
	PreviewURL      string `json:"preview_url,omitempty"`
	FullAudioURL    string `json:"audio_url,omitempty"`
	Album           string `json:"album,omitempty"`
	ArtworkURL      string `json:"artwork_url,omitempty"`
	SourceID        string `json:"track_id,omitempty"`
	SourceName      string `json:"source,omitempty"`
}

// DownloadURL returns the best playable URL: the full audio when present,
// otherwise the preview, otherwise empty.
func (t Track) DownloadURL() string {
	if t.FullAudioURL != "" {
		return t.FullAudioURL
	}
	return t.PreviewURL
}

// FormatDuration renders the duration as mm:ss.
func (t Track) FormatDuration() string {
	seconds := t.DurationSeconds
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FullTitle combines artist and title for display.
func (t Track) FullTitle() string {
	return t.Artist + " – " + t.Title
}

func (t Track) String() string {
	return t.FullTitle() + " (" + t.FormatDuration() + ")"
}
