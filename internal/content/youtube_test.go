package content_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/content"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abcDEF_123-", "abcDEF_123-"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, err := content.VideoID(tt.link)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := content.VideoID("definitely not a link")
	assert.ErrorIs(t, err, content.ErrInvalidVideoLink)
}

const watchPage = `<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
	`{"baseUrl":"/api/timedtext?v=dQw4w9WgXcQ&lang=de","name":{"runs":[{"text":"German"}]},"languageCode":"de"},` +
	`{"baseUrl":"/api/timedtext?v=dQw4w9WgXcQ&lang=en&kind=asr","name":{"runs":[{"text":"English (auto)"}]},"languageCode":"en","kind":"asr"},` +
	`{"baseUrl":"/api/timedtext?v=dQw4w9WgXcQ&lang=en","name":{"runs":[{"text":"English"}]},"languageCode":"en"}` +
	`]}}};</script></html>`

const timedTextXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0" dur="1.5">Welcome to the   lecture</text>` +
	`<text start="1.5" dur="2">today we&amp;#39;ll cover &amp;quot;entropy&amp;quot;</text>` +
	`<text start="3.5" dur="1"></text>` +
	`</transcript>`

func TestYouTubeClient_Transcript(t *testing.T) {
	var captionQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("v"))
		_, _ = w.Write([]byte(watchPage))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		captionQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(timedTextXML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := content.NewYouTubeClient(content.WithWatchURL(srv.URL + "/watch"))
	text, err := client.Transcript(context.Background(), "https://youtu.be/dQw4w9WgXcQ")

	require.NoError(t, err)
	assert.Equal(t, `Welcome to the lecture today we'll cover "entropy"`, text)
	assert.Equal(t, "v=dQw4w9WgXcQ&lang=en", captionQuery)
}

func TestYouTubeClient_NoCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>no captions here</html>`))
	}))
	defer srv.Close()

	client := content.NewYouTubeClient(content.WithWatchURL(srv.URL))
	_, err := client.Transcript(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")

	assert.ErrorIs(t, err, content.ErrNoCaptions)
}

func TestYouTubeClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := content.NewYouTubeClient(content.WithWatchURL(srv.URL))
	_, err := client.Transcript(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")

	assert.ErrorContains(t, err, "youtube status 429")
}
