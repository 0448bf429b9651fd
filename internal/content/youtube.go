package content

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/logger"
	"golang.org/x/net/html"
)

const (
	defaultWatchURL   = "https://www.youtube.com/watch"
	captionTracksMark = `"captionTracks":`
	maxPageBytes      = 8 << 20
)

var (
	ErrInvalidVideoLink = errors.New("not a YouTube video link")
	ErrNoCaptions       = errors.New("video has no captions")

	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
)

// TranscriptFetcher returns the spoken text of a video.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, link string) (string, error)
}

type YouTubeClient struct {
	httpClient *http.Client
	watchURL   string
	log        *logger.Logger
}

type YouTubeOption func(*YouTubeClient)

// WithWatchURL points the client at another watch page endpoint, for tests.
func WithWatchURL(u string) YouTubeOption {
	return func(c *YouTubeClient) { c.watchURL = u }
}

func WithHTTPClient(hc *http.Client) YouTubeOption {
	return func(c *YouTubeClient) { c.httpClient = hc }
}

func NewYouTubeClient(opts ...YouTubeOption) *YouTubeClient {
	c := &YouTubeClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		watchURL:   defaultWatchURL,
		log:        logger.Default().WithPrefix("youtube"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Texts []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

// Transcript fetches the caption track of the video behind link, preferring
// English, and returns its text joined by spaces.
func (c *YouTubeClient) Transcript(ctx context.Context, link string) (string, error) {
	id, err := VideoID(link)
	if err != nil {
		return "", err
	}
	log := logger.FromContext(ctx).WithPrefix("youtube").WithField("video_id", id)
	start := time.Now()

	page, err := c.get(ctx, c.watchURL+"?v="+url.QueryEscape(id))
	if err != nil {
		log.WithError(err).Error("failed to fetch watch page")
		return "", err
	}

	track, err := pickTrack(page)
	if err != nil {
		log.WithError(err).Warn("no usable caption track")
		return "", err
	}
	trackURL, err := c.resolve(track.BaseURL)
	if err != nil {
		return "", err
	}

	body, err := c.get(ctx, trackURL)
	if err != nil {
		log.WithError(err).Error("failed to fetch captions")
		return "", err
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		log.WithError(err).Error("failed to decode captions")
		return "", fmt.Errorf("decode captions: %w", err)
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		line := strings.Join(strings.Fields(html.UnescapeString(t.Body)), " ")
		if line != "" {
			parts = append(parts, line)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoCaptions
	}

	log.Info("fetched transcript in %v: lang=%s lines=%d", time.Since(start), track.LanguageCode, len(parts))
	return strings.Join(parts, " "), nil
}

func (c *YouTubeClient) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("youtube status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

func (c *YouTubeClient) resolve(ref string) (string, error) {
	base, err := url.Parse(c.watchURL)
	if err != nil {
		return "", err
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid caption url: %w", err)
	}
	return u.String(), nil
}

// pickTrack reads the caption track list embedded in a watch page. Manual
// English tracks win over generated ones, which win over other languages.
func pickTrack(page []byte) (captionTrack, error) {
	idx := bytes.Index(page, []byte(captionTracksMark))
	if idx < 0 {
		return captionTrack{}, ErrNoCaptions
	}
	var tracks []captionTrack
	dec := json.NewDecoder(bytes.NewReader(page[idx+len(captionTracksMark):]))
	if err := dec.Decode(&tracks); err != nil {
		return captionTrack{}, fmt.Errorf("decode caption tracks: %w", err)
	}

	best, bestRank := -1, 0
	for i, t := range tracks {
		if t.BaseURL == "" {
			continue
		}
		rank := 1
		if strings.HasPrefix(t.LanguageCode, "en") {
			rank = 2
			if t.Kind != "asr" {
				rank = 3
			}
		}
		if rank > bestRank {
			best, bestRank = i, rank
		}
	}
	if best < 0 {
		return captionTrack{}, ErrNoCaptions
	}
	return tracks[best], nil
}

// VideoID extracts the video id from watch, short, embed and youtu.be links.
// Other URLs fall back to their last path segment.
func VideoID(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidVideoLink, link)
	}

	id := u.Query().Get("v")
	if id == "" {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, s := range segments {
			if (s == "shorts" || s == "embed" || s == "live") && i+1 < len(segments) {
				id = segments[i+1]
				break
			}
		}
		if id == "" {
			id = segments[len(segments)-1]
		}
	}

	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %s", ErrInvalidVideoLink, link)
	}
	return id, nil
}

var _ TranscriptFetcher = (*YouTubeClient)(nil)
