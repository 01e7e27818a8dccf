package imageset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
)

var ErrIndexOutOfRange = errors.New("imageset: slot index out of range")

// maxImageBytes bounds a single downloaded image.
const maxImageBytes = 32 << 20

// Fetcher downloads the bytes of a stored image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	return f(ctx, url)
}

// HTTPFetcher downloads images with a plain GET. Stored images are public, so no token is sent.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch returns the body of url and its content type. When the server does not
// declare one, it is sniffed from the bytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	return data, contentTypeOf(resp.Header.Get("Content-Type"), data), nil
}

func contentTypeOf(header string, data []byte) string {
	if header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil && mediaType != "application/octet-stream" {
			return mediaType
		}
	}
	return mimetype.Detect(data).String()
}
