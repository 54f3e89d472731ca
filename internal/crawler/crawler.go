
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultUserAgent = "challenge-harvester/1.0 (+https://github.com/challenge-harvester)"

var ErrNotHTML = errors.New("non-html content")

// StatusError is returned for responses outside 2xx/3xx.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("http status %d for %s", e.Code, e.URL) }

// Markup is one retrieved page.
type Markup struct {
	Body        []byte
	FinalURL    string
	ContentType string
	Elapsed     time.Duration
}

// Fetcher retrieves page markup for a URL.
type Fetcher interface {
	FetchMarkup(ctx context.Context, rawURL string) (*Markup, error)
}

type HTTPClient struct {
	client  *http.Client
	sizeCap int64
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap: sizeCap,
	}
}

// FetchMarkup retrieves one server-rendered page, body capped at the size limit.
// Pages that build their content in the browser need a BrowserFetcher.
func (h *HTTPClient) FetchMarkup(ctx context.Context, rawURL string) (*Markup, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	// still allow if empty (some servers omit), otherwise reject non-html
	if mediaType != "" && !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") {
		return nil, fmt.Errorf("%s: %w (%s)", rawURL, ErrNotHTML, mediaType)
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(io.LimitReader(body, h.sizeCap))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return &Markup{
		Body:        data,
		FinalURL:    resp.Request.URL.String(),
		ContentType: contentType,
		Elapsed:     time.Since(start),
	}, nil
}
