package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/dicekv/dicekv/pkg/types"
)

const (
	defaultTimeout = 10 * time.Second
	defaultHeader  = "x-api-key"
	recordsPath    = "/api/v1/records"
	streamPath     = "/ws/records"
)

// ErrNotFound is returned when the server reports 404 for a record.
var ErrNotFound = errors.New("client: record not found")

// APIError is a non-2xx reply other than 404.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: server returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("client: server returned HTTP %d: %s", e.Status, e.Message)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the server root, e.g. http://localhost:4321.
	BaseURL string

	// APIKey is sent in Header on every request when non-empty.
	APIKey string
	Header string // default x-api-key

	// CAFile adds a PEM bundle to the trusted roots.
	CAFile             string
	InsecureSkipVerify bool

	Timeout time.Duration // default 10s
}

// Client talks to one dicekv server.
type Client struct {
	base   *url.URL
	http   *http.Client
	header string
	key    string
	tls    *tls.Config
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("client: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("client: base URL %q must be http or https", opts.BaseURL)
	}

	tlsCfg, err := buildTLS(opts)
	if err != nil {
		return nil, err
	}

	header := opts.Header
	if header == "" {
		header = defaultHeader
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{base: base, header: header, key: opts.APIKey, tls: tlsCfg}
	c.http = &http.Client{
		Transport: &authRoundTripper{
			base:   &http.Transport{TLSClientConfig: tlsCfg, Proxy: http.ProxyFromEnvironment},
			header: header,
			key:    opts.APIKey,
		},
		Timeout: timeout,
	}
	return c, nil
}

// authRoundTripper adds the API key header to every outgoing request.
type authRoundTripper struct {
	base   http.RoundTripper
	header string
	key    string
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.key != "" {
		req = req.Clone(req.Context())
		req.Header.Set(t.header, t.key)
	}
	return t.base.RoundTrip(req)
}

func buildTLS(opts Options) (*tls.Config, error) {
	cfg := &tls.Config{
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	if opts.CAFile == "" {
		return cfg, nil
	}
	caPEM, err := os.ReadFile(opts.CAFile)
	if err != nil {
		return nil, fmt.Errorf("client: read ca file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("client: no valid certs found in ca file %q", opts.CAFile)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// --- records ----------------------------------------------------------------

// Create stores raw and returns the new record.
func (c *Client) Create(ctx context.Context, raw string) (types.RecordResponse, error) {
	var out types.RecordResponse
	err := c.do(ctx, http.MethodPost, recordsPath, types.WriteRequest{Value: &raw}, &out)
	return out, err
}

// Get fetches one record.
func (c *Client) Get(ctx context.Context, id uint64) (types.RecordResponse, error) {
	var out types.RecordResponse
	err := c.do(ctx, http.MethodGet, recordPath(id), nil, &out)
	return out, err
}

// List fetches every live record.
func (c *Client) List(ctx context.Context) ([]types.RecordResponse, error) {
	var out []types.RecordResponse
	err := c.do(ctx, http.MethodGet, recordsPath, nil, &out)
	return out, err
}

// Update replaces the value of id with raw.
func (c *Client) Update(ctx context.Context, id uint64, raw string) (types.RecordResponse, error) {
	var out types.RecordResponse
	err := c.do(ctx, http.MethodPut, recordPath(id), types.WriteRequest{Value: &raw}, &out)
	return out, err
}

// Delete removes id.
func (c *Client) Delete(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, recordPath(id), nil, nil)
}

// --- server state -----------------------------------------------------------

// Stats fetches the store counters.
func (c *Client) Stats(ctx context.Context) (types.StatsResponse, error) {
	var out types.StatsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &out)
	return out, err
}

// Health fetches the liveness summary.
func (c *Client) Health(ctx context.Context) (types.HealthResponse, error) {
	var out types.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &out)
	return out, err
}

// Metrics scrapes /metrics and returns the parsed families by name.
func (c *Client) Metrics(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/metrics"), nil)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: get metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("client: parse metrics: %w", err)
	}
	return mfs, nil
}

// WatchURL returns the WebSocket URL of the record stream and the headers
// a dialer must send.
func (c *Client) WatchURL() (string, http.Header) {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + streamPath

	h := http.Header{}
	if c.key != "" {
		h.Set(c.header, c.key)
	}
	return u.String(), h
}

// TLSConfig returns the TLS settings so a WebSocket dialer can match the
// HTTP client.
func (c *Client) TLSConfig() *tls.Config {
	return c.tls
}

// --- helpers ----------------------------------------------------------------

func recordPath(id uint64) string {
	return recordsPath + "/" + strconv.FormatUint(id, 10)
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.base.String(), "/") + path
}

// do sends in as JSON (when non-nil) and decodes a 2xx body into out (when
// non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	var e types.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &e) != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: resp.StatusCode, Message: e.Error}
}
