package deezer

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
	defaultEndpoint  = "https://api.deezer.com/search"
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

type apiArtist struct {
	Name string `json:"name"`
}

type apiAlbum struct {
	Title       string `json:"title"`
	CoverMedium string `json:"cover_medium"`
}

type apiItem struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Duration int       `json:"duration"`
	Preview  string    `json:"preview"`
	Artist   apiArtist `json:"artist"`
	Album    apiAlbum  `json:"album"`
}

type apiResponse struct {
	Data  []apiItem `json:"data"`
	Total int       `json:"total"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
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
	return "deezer"
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.Name(),
		Label:   "Deezer",
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
	query.Set("q", strings.TrimSpace(request.Query))
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

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected provider payload: %w", err)
	}
	// Deezer reports quota and auth problems inside an HTTP 200 body.
	if parsed.Error != nil {
		return nil, fmt.Errorf("provider error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	limit := request.Limit
	if limit <= 0 {
		limit = 20
	}
	tracks := make([]domain.Track, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		tracks = append(tracks, p.toTrack(item))
		if len(tracks) >= limit {
			break
		}
	}
	return tracks, nil
}

func (p *Provider) toTrack(item apiItem) domain.Track {
	sourceID := ""
	if item.ID != 0 {
		sourceID = strconv.FormatInt(item.ID, 10)
	}
	return domain.Track{
		Title:           common.OrUnknown(item.Title),
		Artist:          common.OrUnknown(item.Artist.Name),
		DurationSeconds: common.ClampSeconds(item.Duration),
		PreviewURL:      strings.TrimSpace(item.Preview),
		// Deezer exposes 30s previews without auth; treat them as the audio url.
		FullAudioURL: strings.TrimSpace(item.Preview),
		Album:        common.CleanText(item.Album.Title),
		ArtworkURL:   strings.TrimSpace(item.Album.CoverMedium),
		SourceID:     sourceID,
		SourceName:   p.Name(),
	}
}
