package recipe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PageFetcher 抓取網頁原始 HTML
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// HTTPFetcher 以瀏覽器標頭抓取網頁，失敗時改用最少標頭重試一次
type HTTPFetcher struct {
	client        *resty.Client
	userAgent     string
	timeout       time.Duration
	minBodyLength int
}

// NewHTTPFetcher 建立網頁抓取器
func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	return &HTTPFetcher{
		client:        resty.New().SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)),
		userAgent:     ua,
		timeout:       cfg.Timeout,
		minBodyLength: cfg.MinBodyLength,
	}
}

// ValidateURL 檢查網址是否為 http(s) 絕對網址
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, common.NewInvalidInputError("url is required", nil)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, common.NewInvalidInputError("invalid url", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, common.NewInvalidInputError("url must be an absolute http(s) url", nil)
	}
	return u, nil
}

// Fetch 抓取網頁，逾時由 context 控制並在所有路徑釋放
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if _, err := ValidateURL(pageURL); err != nil {
		return "", err
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	body, err := f.get(ctx, pageURL, f.browserHeaders())
	if err != nil {
		if ctx.Err() != nil {
			return "", f.wrap(err)
		}
		common.LogWarn("網頁抓取失敗，改用精簡標頭重試",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		body, err = f.get(ctx, pageURL, f.minimalHeaders())
		if err != nil {
			return "", f.wrap(err)
		}
	}

	if len(strings.TrimSpace(body)) < f.minBodyLength {
		return "", common.NewInvalidInputError(
			fmt.Sprintf("fetched page is too short (%d bytes)", len(body)), nil)
	}
	return body, nil
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

func (f *HTTPFetcher) get(ctx context.Context, pageURL string, headers map[string]string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(pageURL)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return "", &statusError{status: resp.StatusCode()}
	}
	return resp.String(), nil
}

func (f *HTTPFetcher) wrap(err error) error {
	status := 0
	var se *statusError
	if errors.As(err, &se) {
		status = se.status
	}
	timeout := errors.Is(err, context.DeadlineExceeded)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	msg := "failed to fetch page"
	if timeout {
		msg = "page fetch timed out"
	}
	return common.NewFetchError(msg, status, timeout, err)
}

func (f *HTTPFetcher) browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      f.userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Cache-Control":   "no-cache",
	}
}

func (f *HTTPFetcher) minimalHeaders() map[string]string {
	return map[string]string{
		"User-Agent": f.userAgent,
		"Accept":     "text/html",
	}
}
