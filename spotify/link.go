package spotify

import (
	"regexp"
)

// Reference holds the catalog IDs recognized in a free-form input string, one
// per item kind. A string never matches more than one kind; unmatched kinds
// stay empty.
type Reference struct {
	TrackID    string
	AlbumID    string
	PlaylistID string
	EpisodeID  string
	ShowID     string
	ArtistID   string
}

func (r Reference) IsZero() bool {
	return r == Reference{}
}

var linkPatterns = map[string][2]*regexp.Regexp{
	"track":    kindPatterns("track"),
	"album":    kindPatterns("album"),
	"playlist": kindPatterns("playlist"),
	"episode":  kindPatterns("episode"),
	"show":     kindPatterns("show"),
	"artist":   kindPatterns("artist"),
}

func kindPatterns(kind string) [2]*regexp.Regexp {
	return [2]*regexp.Regexp{
		regexp.MustCompile(`^spotify:` + kind + `:([0-9a-zA-Z]{22})$`),
		regexp.MustCompile(`^(?:https?://)?open\.spotify\.com(?:/intl-\w+)?/` + kind + `/([0-9a-zA-Z]{22})(?:\?si=.+?)?$`),
	}
}

// ParseReference recognizes native-URI and web-URL forms of catalog links.
// Malformed input yields a zero Reference, which callers treat as "not a
// recognized reference". No network access is performed.
func ParseReference(input string) Reference {
	var ref Reference
	for kind, patterns := range linkPatterns {
		var id string
		for _, re := range patterns {
			if m := re.FindStringSubmatch(input); nil != m {
				id = m[1]
				break
			}
		}
		if id == "" {
			continue
		}
		switch kind {
		case "track":
			ref.TrackID = id
		case "album":
			ref.AlbumID = id
		case "playlist":
			ref.PlaylistID = id
		case "episode":
			ref.EpisodeID = id
		case "show":
			ref.ShowID = id
		case "artist":
			ref.ArtistID = id
		}
	}
	return ref
}
