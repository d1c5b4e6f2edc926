package log

import (
	"io"

	"github.com/rs/zerolog"
)

// Channel mirrors the console output channels the downloader writes to.
// Each channel can be silenced independently through configuration.
type Channel string

const (
	ChannelDownloads Channel = "downloads"
	ChannelSkips     Channel = "skips"
	ChannelWarnings  Channel = "warnings"
	ChannelErrors    Channel = "errors"
	ChannelAPIErrors Channel = "api_errors"
	ChannelProgress  Channel = "progress_info"
)

type ChannelToggles struct {
	Downloads bool
	Skips     bool
	Warnings  bool
	Errors    bool
	APIErrors bool
	Progress  bool
}

type Channels struct {
	Downloads zerolog.Logger
	Skips     zerolog.Logger
	Warnings  zerolog.Logger
	Errors    zerolog.Logger
	APIErrors zerolog.Logger
	Progress  zerolog.Logger
}

func NewChannels(base zerolog.Logger, t ChannelToggles) Channels {
	return Channels{
		Downloads: channelLogger(base, ChannelDownloads, t.Downloads),
		Skips:     channelLogger(base, ChannelSkips, t.Skips),
		Warnings:  channelLogger(base, ChannelWarnings, t.Warnings),
		Errors:    channelLogger(base, ChannelErrors, t.Errors),
		APIErrors: channelLogger(base, ChannelAPIErrors, t.APIErrors),
		Progress:  channelLogger(base, ChannelProgress, t.Progress),
	}
}

func channelLogger(base zerolog.Logger, ch Channel, enabled bool) zerolog.Logger {
	if !enabled {
		return zerolog.New(io.Discard)
	}
	return base.With().Str("channel", string(ch)).Logger()
}
