package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"musicsaver/searchservice/internal/domain"
	"musicsaver/searchservice/internal/providers/common"
)

const (
	defaultEndpoint  = "https://itunes.apple.com/search"
	defaultUserAgent = "music-saver-search/1.0"
)

type Config struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

type Provider struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

type apiItem struct {
	TrackName       string `json:"trackName"`
	ArtistName      string `json:"artistName"`
	TrackTimeMillis int64  `json:"trackTimeMillis"`
	PreviewURL      string `json:"previewUrl"`
	CollectionName  string `json:"collectionName"`
	ArtworkURL100   string `json:"artworkUrl100"`
	TrackID         int64  `json:"trackId"`
}

type apiResponse struct {
	ResultCount int       `json:"resultCount"`
	Results     []apiItem `json:"results"`
}

func NewProvider(cfg Config) *Provider {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Provider{client: client, endpoint: endpoint, userAgent: userAgent}
}

func (p *Provider) Name() string {
	return "itunes"
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.Name(),
		Label:   "iTunes Search API",
		Kind:    "catalog",
		Enabled: true,
	}
}

func (p *Provider) Search(ctx context.Context, request domain.SearchRequest) ([]domain.Track, error) {
	uri, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := uri.Query()
	query.Set("term", strings.TrimSpace(request.Query))
	query.Set("media", "music")
	query.Set("entity", "song")
	query.Set("explicit", "yes")
	if request.Limit > 0 {
		query.Set("limit", strconv.Itoa(request.Limit))
	}
	uri.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("provider HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// When blocked or rate limited iTunes sometimes answers with a javascript
	// alert snippet instead of JSON.
	if contentType := resp.Header.Get("Content-Type"); strings.Contains(strings.ToLower(contentType), "javascript") {
		return nil, fmt.Errorf("provider returned javascript instead of JSON")
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected provider payload: %w", err)
	}

	limit := request.Limit
	if limit <= 0 {
		limit = 20
	}
	tracks := make([]domain.Track, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		tracks = append(tracks, p.toTrack(item))
		if len(tracks) >= limit {
			break
		}
	}
	return tracks, nil
}

func (p *Provider) toTrack(item apiItem) domain.Track {
	sourceID := ""
	if item.TrackID != 0 {
		sourceID = strconv.FormatInt(item.TrackID, 10)
	}
	return domain.Track{
		Title:           common.OrUnknown(item.TrackName),
		Artist:          common.OrUnknown(item.ArtistName),
		DurationSeconds: common.MillisToSeconds(item.TrackTimeMillis),
		PreviewURL:      strings.TrimSpace(item.PreviewURL),
		// iTunes serves 30s previews only, so the preview doubles as the audio url.
		FullAudioURL: strings.TrimSpace(item.PreviewURL),
		Album:        common.CleanText(item.CollectionName),
		ArtworkURL:   strings.TrimSpace(item.ArtworkURL100),
		SourceID:     sourceID,
		SourceName:   p.Name(),
	}
}
