package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	DefaultAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 5 << 20
)

// NetworkError is returned when the page could not be fetched: connection failure,
// timeout or a non-2xx status code.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("error fetching URL: %s, status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("error fetching URL: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request ran into its deadline.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

type BaseScraper struct {
	Logger   *logrus.Logger
	URL      string
	Headers  map[string]string
	MaxBytes int64

	client *http.Client
}

func NewBaseScraper(logger *logrus.Logger, URL string, headers map[string]string, timeout time.Duration) *BaseScraper {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	h := map[string]string{
		"User-Agent":      DefaultUserAgent,
		"Accept":          DefaultAccept,
		"Accept-Language": "ru,en;q=0.8",
	}
	for k, v := range headers {
		h[http.CanonicalHeaderKey(k)] = v
	}
	return &BaseScraper{
		Logger:   logger,
		URL:      URL,
		Headers:  h,
		MaxBytes: defaultMaxBytes,
		client:   &http.Client{Timeout: timeout},
	}
}

// Fetch returns the raw page body. It never retries; every failure is a *NetworkError.
func (s *BaseScraper) Fetch(ctx context.Context) (string, error) {
	s.Logger.Debugf("Fetching page from URL: %s", s.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", &NetworkError{URL: s.URL, Err: err}
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: s.URL, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return "", &NetworkError{URL: s.URL, StatusCode: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, s.MaxBytes))
	if err != nil {
		return "", &NetworkError{URL: s.URL, Err: err}
	}
	s.Logger.Debugf("Fetched %d bytes from %s", len(body), s.URL)
	return string(body), nil
}
