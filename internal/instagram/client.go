// Package instagram provides a read-only client for the Instagram Graph API
// media endpoints: listing an account's media, resolving carousel children,
// and downloading media bytes from the CDN.
//
// The client requires a long-lived Instagram access token, typically loaded
// from SSM Parameter Store at Lambda cold start.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// defaultBaseURL is the Instagram Graph API base URL.
	defaultBaseURL = "https://graph.instagram.com"

	// defaultTimeout is the HTTP client timeout for API and CDN calls.
	defaultTimeout = 30 * time.Second

	// mediaFields is the field selection for media listing requests.
	mediaFields = "id,media_type,media_url,caption,children"
)

// Media type values returned by the Graph API.
const (
	MediaTypeImage         = "IMAGE"
	MediaTypeVideo         = "VIDEO"
	MediaTypeCarouselAlbum = "CAROUSEL_ALBUM"
)

// Client calls the Instagram Graph API on behalf of one account.
type Client struct {
	httpClient  *http.Client
	accessToken string
	baseURL     string
}

// NewClient creates an Instagram API client for the given access token.
func NewClient(accessToken string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
	}
}

// Media is one item from the account's media listing.
type Media struct {
	ID        string         `json:"id"`
	Caption   string         `json:"caption,omitempty"`
	MediaType string         `json:"media_type"`
	MediaURL  string         `json:"media_url,omitempty"`
	Children  *MediaChildren `json:"children,omitempty"`
}

// IsAlbum reports whether the item is a carousel album with child items.
func (m Media) IsAlbum() bool {
	return m.MediaType == MediaTypeCarouselAlbum && m.Children != nil
}

// MediaChildren wraps the Graph API's nested child-item listing.
type MediaChildren struct {
	Data []MediaChild `json:"data"`
}

// MediaChild is a carousel child reference; only the ID is returned by the
// listing call, the media URL requires a follow-up fetch.
type MediaChild struct {
	ID string `json:"id"`
}

type mediaListResponse struct {
	Data  []Media `json:"data"`
	Error *apiErr `json:"error,omitempty"`
}

type mediaURLResponse struct {
	ID       string  `json:"id"`
	MediaURL string  `json:"media_url"`
	Error    *apiErr `json:"error,omitempty"`
}

type apiErr struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

// ListMedia fetches the account's media listing.
// Only the first page is fetched; paging cursors are not followed.
func (c *Client) ListMedia(ctx context.Context) ([]Media, error) {
	endpoint := fmt.Sprintf("/me/media?fields=%s&access_token=%s",
		mediaFields, url.QueryEscape(c.accessToken))

	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}

	var resp mediaListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("list media: parse response: %w (body: %s)", err, truncate(string(body), 200))
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("list media: Instagram API error: %s (type: %s, code: %d)",
			resp.Error.Message, resp.Error.Type, resp.Error.Code)
	}

	log.Debug().Int("count", len(resp.Data)).Msg("Instagram media listing fetched")
	return resp.Data, nil
}

// ChildMediaURL resolves the media URL of a single carousel child item.
func (c *Client) ChildMediaURL(ctx context.Context, childID string) (string, error) {
	endpoint := fmt.Sprintf("/%s?fields=media_url&access_token=%s",
		childID, url.QueryEscape(c.accessToken))

	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("child media %s: %w", childID, err)
	}

	var resp mediaURLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("child media %s: parse response: %w", childID, err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("child media %s: Instagram API error: %s (type: %s, code: %d)",
			childID, resp.Error.Message, resp.Error.Type, resp.Error.Code)
	}
	if resp.MediaURL == "" {
		return "", fmt.Errorf("child media %s: no media_url in response", childID)
	}

	return resp.MediaURL, nil
}

// getJSON performs a GET against the Graph API and returns the raw body.
func (c *Client) getJSON(ctx context.Context, endpoint string) ([]byte, error) {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Int("statusCode", 0).Dur("duration", duration).Err(err).Msg("Instagram API response")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	log.Debug().Int("statusCode", httpResp.StatusCode).Dur("duration", duration).Msg("Instagram API response")

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// truncate returns the first n characters of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
