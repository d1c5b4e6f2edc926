package spotify_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pxrave/zotify/config"
	"github.com/pxrave/zotify/session"
	"github.com/pxrave/zotify/spotify"
)

type fakeSession struct{}

func (fakeSession) ContentStream(_ context.Context, catalogID string, _ session.Quality) (session.ContentStream, error) {
	return nil, fmt.Errorf("%w: %s", session.ErrStreamUnavailable, catalogID)
}

func (fakeSession) AccessToken(context.Context) (string, error) {
	return "test-token", nil
}

func (fakeSession) CheckPremium(context.Context) (bool, error) {
	return false, nil
}

func newTestClient(retryAttempts int) *spotify.Client {
	cfg := config.Default()
	cfg.RetryAttempts = retryAttempts
	return spotify.NewClient(fakeSession{}, &cfg, zerolog.Nop(), zerolog.Nop())
}

func TestPagedItemsWalksAllPages(t *testing.T) {
	var offsets []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "50", r.URL.Query().Get("limit"))

		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		require.NoError(t, err)
		offsets = append(offsets, offset)

		count := 50
		if offset >= 100 {
			count = 20
		}
		items := make([]string, 0, count)
		for i := 0; i < count; i++ {
			items = append(items, fmt.Sprintf(`{"id":"item-%d"}`, offset+i))
		}
		fmt.Fprintf(w, `{"items":[%s]}`, strings.Join(items, ","))
	}))
	defer srv.Close()

	c := newTestClient(1)
	items, err := c.PagedItems(context.Background(), srv.URL, "items", nil)
	require.NoError(t, err)
	require.Len(t, items, 120)
	require.Equal(t, []int{0, 50, 100}, offsets)
	require.Equal(t, "item-0", items[0].Get("id").String())
	require.Equal(t, "item-119", items[119].Get("id").String())
}

func TestPagedItemsStopsOnEmptyFirstPage(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		fmt.Fprint(w, `{"items":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(1)
	items, err := c.PagedItems(context.Background(), srv.URL, "items", nil)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, 1, requests)
}

func TestInvokeRetriesExactlyConfiguredAttempts(t *testing.T) {
	restore := config.MetaRetryDelay
	config.MetaRetryDelay = time.Millisecond
	defer func() { config.MetaRetryDelay = restore }()

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		fmt.Fprint(w, `{"error":{"status":"500","message":"upstream failure"}}`)
	}))
	defer srv.Close()

	c := newTestClient(3)
	body, err := c.Invoke(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, 3, requests)

	// the final error body comes back as-is for the caller to inspect
	status, message, ok := spotify.ErrorBody(body)
	require.True(t, ok)
	require.Equal(t, "500", status)
	require.Equal(t, "upstream failure", message)
}

func TestInvokeRecoversMidRetry(t *testing.T) {
	restore := config.MetaRetryDelay
	config.MetaRetryDelay = time.Millisecond
	defer func() { config.MetaRetryDelay = restore }()

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests == 1 {
			fmt.Fprint(w, `{"error":{"status":"429","message":"slow down"}}`)
			return
		}
		fmt.Fprint(w, `{"name":"ok"}`)
	}))
	defer srv.Close()

	c := newTestClient(3)
	body, err := c.Invoke(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, 2, requests)

	_, _, ok := spotify.ErrorBody(body)
	require.False(t, ok)
}

func TestInvokeTreatsEmptyBodyAsError(t *testing.T) {
	restore := config.MetaRetryDelay
	config.MetaRetryDelay = time.Millisecond
	defer func() { config.MetaRetryDelay = restore }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(1)
	body, err := c.Invoke(context.Background(), srv.URL)
	require.NoError(t, err)

	status, message, ok := spotify.ErrorBody(body)
	require.True(t, ok)
	require.Equal(t, "unknown", status)
	require.Equal(t, "received an empty response", message)
}
