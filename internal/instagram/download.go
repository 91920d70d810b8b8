package instagram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// defaultFormat is used when the CDN response carries no usable Content-Type.
const defaultFormat = "jpg"

// Download fetches media bytes from a CDN URL and derives the file format
// from the response's Content-Type subtype (e.g. "image/jpeg" -> "jpeg").
func (c *Client) Download(ctx context.Context, mediaURL string) (data []byte, format string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download media: unexpected status %d", resp.StatusCode)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read media body: %w", err)
	}

	format = formatFromContentType(resp.Header.Get("Content-Type"))
	log.Debug().Int("bytes", len(data)).Str("format", format).Msg("Media downloaded")
	return data, format, nil
}

// formatFromContentType extracts the subtype of a MIME type, falling back to
// defaultFormat when the header is missing or malformed.
func formatFromContentType(contentType string) string {
	slash := strings.Index(contentType, "/")
	if slash < 0 {
		return defaultFormat
	}
	subtype := contentType[slash+1:]
	if semi := strings.Index(subtype, ";"); semi >= 0 {
		subtype = subtype[:semi]
	}
	subtype = strings.TrimSpace(subtype)
	if subtype == "" {
		return defaultFormat
	}
	return subtype
}
