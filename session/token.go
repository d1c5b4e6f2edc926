package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// TokenSession is a Session backed by a user-supplied OAuth access token. It
// serves catalog API calls and account checks; raw audio streaming requires
// the proprietary streaming client, so ContentStream always reports the stream
// as unavailable. Integrations with a streaming client supply their own
// Session implementation instead.
type TokenSession struct {
	token string
	http  *http.Client
}

func NewTokenSession(token string) *TokenSession {
	return &TokenSession{
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second}, //nolint:exhaustruct
	}
}

func (s *TokenSession) AccessToken(_ context.Context) (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("no access token is configured")
	}
	return s.token, nil
}

func (s *TokenSession) CheckPremium(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.spotify.com/v1/me", nil)
	if nil != err {
		return false, fmt.Errorf("failed to create account request: %v", err)
	}
	req.Header.Add("Authorization", "Bearer "+s.token)
	req.Header.Add("Accept", "application/json")

	resp, err := s.http.Do(req)
	if nil != err {
		return false, fmt.Errorf("failed to fetch account info: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if nil != err {
		return false, fmt.Errorf("failed to read account info response: %v", err)
	}
	return gjson.GetBytes(body, "product").String() == "premium", nil
}

func (s *TokenSession) ContentStream(_ context.Context, catalogID string, _ Quality) (ContentStream, error) {
	return nil, fmt.Errorf("%w: streaming %s requires a streaming-capable session", ErrStreamUnavailable, catalogID)
}
