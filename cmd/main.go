package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/pxrave/zotify/archive"
	"github.com/pxrave/zotify/cache"
	"github.com/pxrave/zotify/config"
	"github.com/pxrave/zotify/constant"
	"github.com/pxrave/zotify/download"
	"github.com/pxrave/zotify/errutil"
	"github.com/pxrave/zotify/log"
	"github.com/pxrave/zotify/m3u"
	"github.com/pxrave/zotify/must"
	"github.com/pxrave/zotify/outpath"
	"github.com/pxrave/zotify/postprocess"
	"github.com/pxrave/zotify/session"
	"github.com/pxrave/zotify/spotify"
)

const (
	flagConfigFilePath = "config"
	flagToken          = "token"
	flagLiked          = "liked"
	flagFollowed       = "followed"
	flagDownload       = "download"
	flagNoSplash       = "no-splash"
)

const splash = `
███████╗ ██████╗ ████████╗██╗███████╗██╗   ██╗
╚══███╔╝██╔═══██╗╚══██╔══╝██║██╔════╝╚██╗ ██╔╝
  ███╔╝ ██║   ██║   ██║   ██║█████╗   ╚████╔╝
 ███╔╝  ██║   ██║   ██║   ██║██╔══╝    ╚██╔╝
███████╗╚██████╔╝   ██║   ██║██║        ██║
╚══════╝ ╚═════╝    ╚═╝   ╚═╝╚═╝        ╚═╝
`

func main() {
	logger := log.NewPretty(os.Stdout).Level(zerolog.TraceLevel)
	if err := godotenv.Load(); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Msg(".env file was not found")
		} else {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	//nolint:exhaustruct
	app := &cli.App{
		Name:      "zotify",
		Version:   constant.Version,
		Compiled:  constant.CompileTime,
		Suggest:   true,
		Usage:     "Music and podcast downloader",
		ArgsUsage: "[urls...]",
		Action:    run,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagConfigFilePath,
				Aliases: []string{"c"},
				Usage:   "Config file path",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  flagToken,
				Usage: "Account access token",
			},
			//nolint:exhaustruct
			&cli.BoolFlag{
				Name:    flagLiked,
				Aliases: []string{"l"},
				Usage:   "Download all liked songs of the account",
			},
			//nolint:exhaustruct
			&cli.BoolFlag{
				Name:    flagFollowed,
				Aliases: []string{"f"},
				Usage:   "Download all songs of all followed artists",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagDownload,
				Aliases: []string{"d"},
				Usage:   "Download every URL listed in the given file, one per line",
			},
			//nolint:exhaustruct
			&cli.BoolFlag{
				Name:  flagNoSplash,
				Usage: "Suppress the splash screen when loading",
			},
		},
	}

	if err := app.Run(os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			return
		}
		if errutil.IsFlaw(err) {
			logger.Fatal().Func(log.Flaw(must.BeFlaw(err))).Msg("Application exited with flaw")
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}

func run(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.NewPretty(os.Stdout).Level(zerolog.TraceLevel)
	defer func() {
		if r := recover(); nil != r {
			logger.Fatal().Func(log.Panic(r)).Msg("Unexpected panic")
		}
	}()

	var cfg *config.Config
	if cfgFilePath := cliCtx.String(flagConfigFilePath); cfgFilePath != "" {
		logger.Debug().Str("config_file_path", cfgFilePath).Msg("Loading config from file")
		c, err := config.FromFile(cfgFilePath)
		if nil != err {
			return fmt.Errorf("failed to load config file: %v", err)
		}
		cfg = c
	} else {
		c := config.Default()
		cfg = &c
	}

	if cfg.PrintSplash && !cliCtx.Bool(flagNoSplash) {
		color.Green(splash)
	}

	token := cliCtx.String(flagToken)
	if token == "" {
		token = os.Getenv("TOKEN")
	}
	sess := session.NewTokenSession(token)

	channels := log.NewChannels(logger, log.ChannelToggles{
		Downloads: cfg.PrintDownloads,
		Skips:     cfg.PrintSkips,
		Warnings:  cfg.PrintWarnings,
		Errors:    cfg.PrintErrors,
		APIErrors: cfg.PrintAPIErrors,
		Progress:  cfg.PrintProgressInfo,
	})

	client := spotify.NewClient(sess, cfg, channels.Warnings, channels.APIErrors)
	caches := cache.New()
	archives := archive.NewManager(
		cfg.SongArchivePath(),
		cfg.DisableDirectoryArchives,
		cfg.SkipExisting,
		cfg.SkipPreviouslyDownloaded,
	)
	exporter := m3u.NewExporter(cfg.M3U8Dir(), time.Now(), cfg.ExportM3U8, cfg.LikedSongsArchiveM3U8)
	post := postprocess.New(cfg, sess, &http.Client{Timeout: config.CoverDownloadTimeout}, caches, &channels) //nolint:exhaustruct
	d := download.New(cfg, sess, client, caches, &channels, archives, exporter, post)

	switch {
	case cliCtx.Bool(flagLiked):
		return d.Liked(ctx)
	case cliCtx.Bool(flagFollowed):
		return d.Followed(ctx)
	case cliCtx.String(flagDownload) != "":
		urls, err := readURLFile(cliCtx.String(flagDownload))
		if nil != err {
			return err
		}
		return dispatchAll(ctx, d, channels.Errors, urls)
	case cliCtx.Args().Len() > 0:
		return dispatchAll(ctx, d, channels.Errors, cliCtx.Args().Slice())
	default:
		return errors.New("nothing to download. pass URLs, --liked, --followed, or --download")
	}
}

// readURLFile loads a bulk download file, one URL per line. Blank lines and
// #-prefixed lines are ignored.
func readURLFile(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to open bulk download file %q: %v", filePath, err)
	}
	defer func() { _ = f.Close() }()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); nil != err {
		return nil, fmt.Errorf("failed to read bulk download file %q: %v", filePath, err)
	}
	return urls, nil
}

// dispatchAll routes each input to the downloader matching its reference
// kind. An unrecognized input is logged and skipped.
func dispatchAll(ctx context.Context, d *download.Downloader, errLogger zerolog.Logger, inputs []string) error {
	for _, input := range inputs {
		ref := spotify.ParseReference(input)
		if ref.IsZero() {
			errLogger.Error().Str("input", input).Msg("Not a recognized track, album, playlist, episode, show, or artist URL")
			continue
		}
		if err := dispatch(ctx, d, ref); nil != err {
			return err
		}
	}
	return nil
}

func dispatch(ctx context.Context, d *download.Downloader, ref spotify.Reference) error {
	switch {
	case ref.TrackID != "":
		return d.Track(ctx, config.ModeSingle, ref.TrackID, outpath.TemplateContext{}, nil, nil) //nolint:exhaustruct
	case ref.AlbumID != "":
		return d.Album(ctx, ref.AlbumID, nil)
	case ref.PlaylistID != "":
		return d.Playlist(ctx, config.ModePlaylist, ref.PlaylistID, nil)
	case ref.EpisodeID != "":
		_, err := d.Episode(ctx, ref.EpisodeID, nil)
		return err
	case ref.ShowID != "":
		return d.Show(ctx, ref.ShowID, nil)
	case ref.ArtistID != "":
		return d.Artist(ctx, ref.ArtistID, nil)
	default:
		return nil
	}
}
