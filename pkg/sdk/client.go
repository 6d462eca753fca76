package minicompass

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "minicompass-go-sdk"
)

// Client is the minicompass SDK entry point. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	database  string
	userAgent string
	obs       *observer
}

// New creates a Client for the API at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout, userAgent: defaultUserAgent}
	for _, o := range opts {
		o.apply(cfg)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("minicompass: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("minicompass: base url %q must be http or https", baseURL)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   u,
		http:      hc,
		database:  cfg.database,
		userAgent: cfg.userAgent,
		obs:       obs,
	}, nil
}

// InDatabase returns a copy of the client bound to another database.
func (c *Client) InDatabase(name string) *Client {
	cp := *c
	cp.database = name
	return &cp
}

// Database returns the database sent with requests ("" means the server default).
func (c *Client) Database() string { return c.database }

// Documents returns the document service for a collection.
func (c *Client) Documents(collection string) *DocumentService {
	return &DocumentService{c: c, collection: collection}
}

// ListCollections returns the collection names of the client's database.
func (c *Client) ListCollections(ctx context.Context) (names []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_collections", start, err) }()

	var resp struct {
		Collections []string `json:"collections"`
	}
	if err = c.do(ctx, http.MethodGet, c.path("collections"), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return resp.Collections, nil
}

// path joins escaped segments under the base URL.
func (c *Client) path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL.Path + "/" + strings.Join(escaped, "/")
}

// send performs one round trip and returns the status code and raw body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	u := *c.baseURL
	u.Path = path
	u.RawPath = ""
	if query == nil {
		query = url.Values{}
	}
	if c.database != "" {
		query.Set("db", c.database)
	}
	u.RawQuery = query.Encode()

	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// do sends a request and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	status, data, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return decodeAPIError(status, data)
	}
	if out == nil {
		return nil
	}
	return decodeJSON(data, out)
}

func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	var env struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &env); err == nil && env.Error != "" {
		msg = env.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

// normalize converts json.Number values into int64, or float64 when the
// literal is not an integer.
func normalize(raw map[string]any) (Document, error) {
	if raw == nil {
		return nil, errors.New("missing document in response")
	}
	v, err := normalizeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	return v.(map[string]any), nil
}

func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", t.String(), err)
		}
		return f, nil
	case map[string]any:
		for k, e := range t {
			nv, err := normalizeValue(e)
			if err != nil {
				return nil, err
			}
			t[k] = nv
		}
		return t, nil
	case []any:
		for i, e := range t {
			nv, err := normalizeValue(e)
			if err != nil {
				return nil, err
			}
			t[i] = nv
		}
		return t, nil
	default:
		return v, nil
	}
}
