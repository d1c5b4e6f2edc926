// Package session declares the authenticated streaming capability the
// downloader consumes. Its implementation speaks a proprietary wire protocol
// and lives outside this codebase.
package session

import (
	"context"
	"errors"
	"io"
)

var ErrStreamUnavailable = errors.New("content stream is unavailable")

// Quality is the caller-selected audio quality tier.
type Quality string

const (
	QualityAuto     Quality = "auto"
	QualityNormal   Quality = "normal"
	QualityHigh     Quality = "high"
	QualityVeryHigh Quality = "very_high"
)

// ContentStream is a sized byte stream with a blocking chunked read primitive.
// Read returns 0, nil at end of stream.
type ContentStream interface {
	io.ReadCloser
	Size() int64
}

type Session interface {
	// ContentStream yields the raw audio stream for a catalog ID.
	ContentStream(ctx context.Context, catalogID string, quality Quality) (ContentStream, error)
	// AccessToken returns a bearer token for catalog API requests.
	AccessToken(ctx context.Context) (string, error)
	// CheckPremium reports whether the account has a premium subscription.
	CheckPremium(ctx context.Context) (bool, error)
}
