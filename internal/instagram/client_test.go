package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestClient creates a Client pointing at a test HTTP server.
func newTestClient(server *httptest.Server) *Client {
	return &Client{
		httpClient:  server.Client(),
		accessToken: "test-token",
		baseURL:     server.URL,
	}
}

func TestListMedia(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if !strings.HasPrefix(r.URL.Path, "/me/media") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("access_token"); got != "test-token" {
			t.Errorf("unexpected access_token: %s", got)
		}
		if got := r.URL.Query().Get("fields"); got != "id,media_type,media_url,caption,children" {
			t.Errorf("unexpected fields: %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id": "100", "media_type": "IMAGE", "media_url": "https://cdn.example.com/100.jpg", "caption": "Obra industrial"},
				{"id": "200", "media_type": "CAROUSEL_ALBUM", "caption": "residencial", "children": {"data": [{"id": "201"}, {"id": "202"}]}}
			],
			"paging": {"cursors": {"before": "b", "after": "a"}}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	media, err := client.ListMedia(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(media) != 2 {
		t.Fatalf("expected 2 items, got %d", len(media))
	}
	if media[0].ID != "100" || media[0].MediaType != MediaTypeImage {
		t.Errorf("unexpected first item: %+v", media[0])
	}
	if media[0].IsAlbum() {
		t.Error("IMAGE item should not report as album")
	}
	if !media[1].IsAlbum() {
		t.Error("CAROUSEL_ALBUM item with children should report as album")
	}
	if len(media[1].Children.Data) != 2 || media[1].Children.Data[1].ID != "202" {
		t.Errorf("unexpected children: %+v", media[1].Children)
	}
}

func TestListMedia_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "Invalid OAuth access token", "type": "OAuthException", "code": 190}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.ListMedia(context.Background()); err == nil {
		t.Error("expected error for API error response")
	} else if !strings.Contains(err.Error(), "OAuthException") {
		t.Errorf("error should carry the API error type, got: %v", err)
	}
}

func TestChildMediaURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/201" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("fields"); got != "media_url" {
			t.Errorf("unexpected fields: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "201", "media_url": "https://cdn.example.com/201.jpg"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	url, err := client.ChildMediaURL(context.Background(), "201")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.example.com/201.jpg" {
		t.Errorf("unexpected media URL: %s", url)
	}
}

func TestChildMediaURL_MissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "201"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.ChildMediaURL(context.Background(), "201"); err == nil {
		t.Error("expected error when media_url is absent")
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	client := newTestClient(server)
	data, format, err := client.Download(context.Background(), server.URL+"/media.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("unexpected body: %q", data)
	}
	if format != "png" {
		t.Errorf("expected format png, got %s", format)
	}
}

func TestDownload_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, _, err := client.Download(context.Background(), server.URL+"/gone.jpg"); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestFormatFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", "jpeg"},
		{"image/png", "png"},
		{"image/webp; charset=binary", "webp"},
		{"", "jpg"},
		{"garbage", "jpg"},
		{"image/", "jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := formatFromContentType(tt.contentType); got != tt.want {
				t.Errorf("formatFromContentType(%q) = %q, want %q", tt.contentType, got, tt.want)
			}
		})
	}
}
