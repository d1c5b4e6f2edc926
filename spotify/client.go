package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/pxrave/zotify/config"
	"github.com/pxrave/zotify/session"
)

const (
	apiBaseURL = "https://api.spotify.com/v1"

	pageLimit = 50
)

// Endpoint URLs are variables so tests can point them at local fixtures.
var (
	TracksURL          = apiBaseURL + "/tracks"
	SavedTracksURL     = apiBaseURL + "/me/tracks"
	FollowedArtistsURL = apiBaseURL + "/me/following?type=artist"
	audioFeaturesURL   = apiBaseURL + "/audio-features/"
	lyricsURLFormat    = "https://spclient.wg.spotify.com/color-lyrics/v2/track/%s"
)

// ErrMetadataFetch marks a catalog response that still carried an error body
// after the configured retry attempts were exhausted.
var ErrMetadataFetch = errors.New("failed to fetch metadata")

// MetadataParseError carries the raw response body for diagnostics when a
// non-error body does not have the expected shape.
type MetadataParseError struct {
	Reason  string
	RawBody []byte
}

func (e *MetadataParseError) Error() string {
	return fmt.Sprintf("failed to parse metadata response: %s\n%s", e.Reason, e.RawBody)
}

type Client struct {
	sess          session.Session
	http          *http.Client
	limiter       *rate.Limiter
	retryAttempts int
	retryDelay    time.Duration
	language      string
	warnLogger    zerolog.Logger
	apiErrLogger  zerolog.Logger
}

func NewClient(sess session.Session, cfg *config.Config, warnLogger, apiErrLogger zerolog.Logger) *Client {
	return &Client{
		sess:          sess,
		http:          &http.Client{Timeout: config.TrackMetaRequestTimeout}, //nolint:exhaustruct
		limiter:       rate.NewLimiter(rate.Limit(8), 1),
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    config.MetaRetryDelay,
		language:      cfg.Language,
		warnLogger:    warnLogger,
		apiErrLogger:  apiErrLogger,
	}
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); nil != err {
		return nil, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		return nil, fmt.Errorf("failed to create catalog request: %v", err)
	}

	token, err := c.sess.AccessToken(ctx)
	if nil != err {
		return nil, fmt.Errorf("failed to obtain access token: %v", err)
	}
	req.Header.Add("Authorization", "Bearer "+token)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Accept-Language", c.language)
	req.Header.Add("app-platform", "WebPlayer")

	resp, err := c.http.Do(req)
	if nil != err {
		return nil, fmt.Errorf("failed to send catalog request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if nil != err {
		return nil, fmt.Errorf("failed to read catalog response body: %v", err)
	}
	return body, nil
}

// emptyResponseBody stands in for responses without a JSON body so the retry
// and error reporting paths see a uniform error shape.
const emptyResponseBody = `{"error": {"status": "unknown", "message": "received an empty response"}}`

// ErrorBody extracts the top-level error field of a catalog response, if any.
func ErrorBody(body []byte) (status, message string, ok bool) {
	errField := gjson.GetBytes(body, "error")
	if !errField.Exists() {
		return "", "", false
	}
	return errField.Get("status").String(), errField.Get("message").String(), true
}

// Invoke issues a GET against the catalog API with bounded retry: a response
// without a JSON body or with a top-level error field is retried after a fixed
// delay until the configured attempt count is exhausted, at which point the
// final error body is logged to the API errors channel and returned as-is.
// Callers must treat a returned body that still carries an error field as a
// failed fetch.
func (c *Client) Invoke(ctx context.Context, reqURL string) ([]byte, error) {
	var (
		body []byte
		try  int
	)
	op := func() error {
		b, err := c.get(ctx, reqURL)
		if nil != err {
			return backoff.Permanent(err)
		}
		if !gjson.ValidBytes(b) || len(b) == 0 {
			b = []byte(emptyResponseBody)
		}
		body = b

		status, message, ok := ErrorBody(b)
		if !ok {
			return nil
		}

		try++
		if try < c.retryAttempts {
			c.warnLogger.
				Warn().
				Str("status", status).
				Str("message", message).
				Int("try", try).
				Msg("Catalog API error, retrying")
			return fmt.Errorf("catalog API error (%s): %s", status, message)
		}

		c.apiErrLogger.
			Error().
			Str("status", status).
			Str("message", message).
			Msg("Catalog API error")
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.retryAttempts)),
		ctx,
	)
	if err := backoff.Retry(op, bo); nil != err {
		return nil, err
	}
	return body, nil
}

// InvokeWithParams issues a single windowed GET with limit/offset query
// parameters. No retry is performed on this path.
func (c *Client) InvokeWithParams(ctx context.Context, baseURL string, limit, offset int, extra url.Values) ([]byte, error) {
	reqURL, err := url.Parse(baseURL)
	if nil != err {
		return nil, fmt.Errorf("failed to parse paged items URL: %v", err)
	}

	params := reqURL.Query()
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	reqURL.RawQuery = params.Encode()

	body, err := c.get(ctx, reqURL.String())
	if nil != err {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, &MetadataParseError{Reason: "response body is not JSON", RawBody: body}
	}
	return body, nil
}

// PagedItems walks a paged collection, advancing offset by the page limit and
// stopping when a page returns fewer items than the limit. itemsPath addresses
// the item array within each response page.
func (c *Client) PagedItems(ctx context.Context, baseURL, itemsPath string, extra url.Values) ([]gjson.Result, error) {
	var items []gjson.Result
	for offset := 0; ; offset += pageLimit {
		body, err := c.InvokeWithParams(ctx, baseURL, pageLimit, offset, extra)
		if nil != err {
			return nil, fmt.Errorf("failed to fetch collection page at offset %d: %v", offset, err)
		}
		if status, message, ok := ErrorBody(body); ok {
			return nil, fmt.Errorf("%w: (%s) %s", ErrMetadataFetch, status, message)
		}

		page := gjson.GetBytes(body, itemsPath)
		if !page.Exists() {
			return nil, &MetadataParseError{Reason: fmt.Sprintf("missing %q field", itemsPath), RawBody: body}
		}

		pageItems := page.Array()
		items = append(items, pageItems...)
		if len(pageItems) < pageLimit {
			return items, nil
		}
	}
}
