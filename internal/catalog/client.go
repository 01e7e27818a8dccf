package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
	"github.com/pearguacamole/VroomVault/internal/imageset"
	"github.com/pearguacamole/VroomVault/internal/platform/contextkeys"
	"github.com/pearguacamole/VroomVault/internal/platform/logger"
	"github.com/pearguacamole/VroomVault/internal/session"
)

// Client calls the catalog API over HTTP on behalf of the signed-in user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   session.Store
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a catalog client. The token is read from sessions on every call.
func NewClient(baseURL string, sessions session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		sessions:   sessions,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "catalog_client")
	return c
}

// List returns every product owned by the signed-in user, in server order.
func (c *Client) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/cars", auth: true}, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return nonNil(products), nil
}

// Search returns the products matching keyword. A blank keyword lists everything.
func (c *Client) Search(ctx context.Context, keyword string) ([]Product, error) {
	if strings.TrimSpace(keyword) == "" {
		return c.List(ctx)
	}
	var products []Product
	req := request{
		method: http.MethodGet,
		path:   "/cars/search",
		query:  url.Values{"keyword": {keyword}},
		auth:   true,
	}
	if err := c.do(ctx, req, &products); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return nonNil(products), nil
}

// Get returns one product.
func (c *Client) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	if err := c.do(ctx, request{method: http.MethodGet, path: productPath(id), auth: true}, &p); err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Create stores a new product with the composed images.
func (c *Client) Create(ctx context.Context, fields Fields, images imageset.Payload) (Product, error) {
	if _, err := c.token(ctx); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	if err := fields.Validate(); err != nil {
		return Product{}, err
	}
	var p Product
	if err := c.doMultipart(ctx, http.MethodPost, "/cars", fields, images, &p); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update replaces the fields and the image set of a product.
func (c *Client) Update(ctx context.Context, id string, fields Fields, images imageset.Payload) (Product, error) {
	if _, err := c.token(ctx); err != nil {
		return Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	if err := fields.Validate(); err != nil {
		return Product{}, err
	}
	var p Product
	if err := c.doMultipart(ctx, http.MethodPut, productPath(id), fields, images, &p); err != nil {
		return Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

// Delete removes a product.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, request{method: http.MethodDelete, path: productPath(id), auth: true}, nil); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

// Fetch downloads a stored image through the client's transport.
func (c *Client) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	f := imageset.HTTPFetcher{Client: c.httpClient}
	return f.Fetch(ctx, imageURL)
}

func (c *Client) doMultipart(ctx context.Context, method, path string, fields Fields, images imageset.Payload, out any) error {
	body, contentType, err := encodeMultipart(fields, images)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	return c.do(ctx, request{method: method, path: path, body: body, contentType: contentType, auth: true}, out)
}

// encodeMultipart writes the text fields followed by one images part per attachment, in order.
func encodeMultipart(fields Fields, images imageset.Payload) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range []struct{ name, value string }{
		{"title", fields.Title},
		{"description", fields.Description},
		{"tags", fields.Tags},
	} {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	for _, a := range images.Attachments {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, escapeQuotes(a.Filename)))
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(a.Data); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	auth        bool
}

// token returns the current bearer token, or ErrUnauthenticated when there is none.
func (c *Client) token(ctx context.Context) (string, error) {
	t, ok, err := c.sessions.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: read session: %w", catalogerrors.ErrUnauthenticated, err)
	}
	if !ok {
		return "", catalogerrors.ErrUnauthenticated
	}
	return t, nil
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	var token string
	if r.auth {
		t, err := c.token(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set(contextkeys.RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	reqLogger := c.logger.With("method", r.method, "path", r.path, "request_id", requestID)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		reqLogger.WarnContext(ctx, "catalog request failed", "error", err)
		return fmt.Errorf("%w: %w", catalogerrors.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()
	reqLogger.DebugContext(ctx, "catalog request completed",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &catalogerrors.APIError{
			Status:  resp.StatusCode,
			Message: decodeDetail(resp.Body),
			Kind:    catalogerrors.Classify(resp.StatusCode),
		}
		reqLogger.WarnContext(ctx, "catalog request rejected", "status", resp.StatusCode, "error", apiErr.Error())
		if r.auth && errors.Is(apiErr, catalogerrors.ErrUnauthenticated) {
			c.dropSession(ctx)
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &catalogerrors.APIError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("malformed response: %v", err),
			Kind:    catalogerrors.ErrServerError,
		}
	}
	return nil
}

// dropSession clears the rejected token even when the caller's context is done.
func (c *Client) dropSession(ctx context.Context) {
	if err := c.sessions.Clear(context.WithoutCancel(ctx)); err != nil {
		c.logger.ErrorContext(ctx, "failed to clear rejected session", "error", err)
	}
}

// decodeDetail extracts the server's detail text: either a string or a list of field errors.
func decodeDetail(r io.Reader) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		return text
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if len(it.Loc) == 0 {
			msgs = append(msgs, it.Msg)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
	}
	return strings.Join(msgs, "; ")
}

func productPath(id string) string {
	return "/cars/" + url.PathEscape(id)
}

func nonNil(products []Product) []Product {
	if products == nil {
		return []Product{}
	}
	return products
}
