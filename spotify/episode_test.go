package spotify_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pxrave/zotify/spotify"
)

func TestEpisodeDirectURLRouting(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		wantURL    string
		wantDirect bool
	}{
		{
			name:       "DirectlyHosted",
			body:       `{"data":{"episode":{"audio_preview_url":"https://p.scdn.co/mp3-preview/abc","audio":{"items":[{"url":"https://traffic.example.com/ep1.mp3"}]}}}}`,
			wantURL:    "https://traffic.example.com/ep1.mp3",
			wantDirect: true,
		},
		{
			name:       "AnonCDNHosted",
			body:       `{"data":{"episode":{"audio_preview_url":"https://p.scdn.co/mp3-preview/abc","audio":{"items":[{"url":"https://anon-podcast.scdn.co/ep1"}]}}}}`,
			wantURL:    "https://anon-podcast.scdn.co/ep1",
			wantDirect: false,
		},
		{
			name:       "NoPreviewURL",
			body:       `{"data":{"episode":{"audio":{"items":[{"url":"https://traffic.example.com/ep1.mp3"}]}}}}`,
			wantURL:    "https://traffic.example.com/ep1.mp3",
			wantDirect: false,
		},
		{
			name:       "LastAudioItemWins",
			body:       `{"data":{"episode":{"audio_preview_url":"https://p.scdn.co/mp3-preview/abc","audio":{"items":[{"url":"https://traffic.example.com/low.mp3"},{"url":"https://traffic.example.com/high.mp3"}]}}}}`,
			wantURL:    "https://traffic.example.com/high.mp3",
			wantDirect: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			restore := spotify.SetPartnerQueryURL(srv.URL)
			defer restore()

			c := newTestClient(1)
			downloadURL, direct, err := c.EpisodeDirectURL(context.Background(), "episode1")
			require.NoError(t, err)
			require.Equal(t, tc.wantURL, downloadURL)
			require.Equal(t, tc.wantDirect, direct)
		})
	}
}
