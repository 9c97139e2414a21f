package unsplash

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/blisspaper/internal/domain"
	"github.com/timmy/blisspaper/internal/source"
	"golang.org/x/time/rate"
)

const (
	SourceID       = "unsplash"
	DefaultBaseURL = "https://api.unsplash.com"
)

// Config holds configuration for the Unsplash client.
type Config struct {
	BaseURL         string
	ClientID        string
	Timeout         time.Duration
	RequestsPerHour int // <= 0 disables the local limiter
}

// Client implements source.Collection against the Unsplash collections API.
type Client struct {
	client   *resty.Client
	clientID string
	limiter  *rate.Limiter
}

type apiPhoto struct {
	ID   string           `json:"id"`
	URLs domain.PhotoURLs `json:"urls"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

type apiError struct {
	Errors []string `json:"errors"`
}

// NewClient creates a new Unsplash client.
// Parameters:
//   - cfg: base URL, client id, timeout and request quota.
//
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Accept-Version", "v1")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerHour > 0 {
		burst := cfg.RequestsPerHour / 10
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Hour/time.Duration(cfg.RequestsPerHour)), burst)
	}

	return &Client{
		client:   client,
		clientID: cfg.ClientID,
		limiter:  limiter,
	}
}

// GetSourceID returns the unique identifier for this source
func (c *Client) GetSourceID() string {
	return SourceID
}

// FetchPage fetches one page of a collection's photos.
func (c *Client) FetchPage(ctx context.Context, collectionID string, page int) (*source.Page, error) {
	if !c.limiter.Allow() {
		return nil, source.ErrRateLimited
	}

	var photos []apiPhoto
	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", collectionID).
		SetQueryParams(map[string]string{
			"page":      strconv.Itoa(page),
			"client_id": c.clientID,
		}).
		SetResult(&photos).
		SetError(&apiErr).
		Get("/collections/{id}/photos")
	if err != nil {
		return nil, fmt.Errorf("failed to call collections API: %w", err)
	}

	if resp.IsError() {
		if len(apiErr.Errors) > 0 {
			return nil, fmt.Errorf("collections API returned HTTP %d: %s", resp.StatusCode(), strings.Join(apiErr.Errors, "; "))
		}
		return nil, fmt.Errorf("collections API returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	if ct := resp.Header().Get("Content-Type"); !strings.Contains(ct, "json") {
		return nil, fmt.Errorf("collections API returned unexpected content type %q", ct)
	}

	result := &source.Page{
		CollectionID: collectionID,
		Number:       page,
		Photos:       make([]domain.Photo, 0, len(photos)),
	}
	for _, p := range photos {
		result.Photos = append(result.Photos, domain.Photo{
			ID:     p.ID,
			URLs:   p.URLs,
			Author: p.User.Name,
		})
	}
	return result, nil
}

// Download opens the image body. Image hosts are not part of the API quota,
// so downloads bypass the limiter.
func (c *Client) Download(ctx context.Context, ref domain.PhotoRef) (io.ReadCloser, error) {
	if _, err := url.ParseRequestURI(ref.URL); err != nil {
		return nil, fmt.Errorf("invalid photo url %q: %w", ref.URL, err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(ref.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}

	body := resp.RawBody()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		if body != nil {
			body.Close()
		}
		return nil, fmt.Errorf("photo download returned HTTP %d", resp.StatusCode())
	}
	return body, nil
}
