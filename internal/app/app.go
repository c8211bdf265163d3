// Package app wires configuration, adapters and services into the cli
// entrypoint and dispatches the selected mode.
package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"

	"github.com/redgrab/redgrab/internal/adapter/fetch"
	"github.com/redgrab/redgrab/internal/adapter/ffmpegexec"
	"github.com/redgrab/redgrab/internal/adapter/page"
	"github.com/redgrab/redgrab/internal/adapter/reddit"
	"github.com/redgrab/redgrab/internal/adapter/ytdlp"
	"github.com/redgrab/redgrab/internal/config"
	"github.com/redgrab/redgrab/internal/entity"
	"github.com/redgrab/redgrab/internal/httpclient"
	"github.com/redgrab/redgrab/internal/repository/history"
	"github.com/redgrab/redgrab/internal/service/grab"
	sindex "github.com/redgrab/redgrab/internal/service/index"
	"github.com/redgrab/redgrab/internal/service/scan"
	"github.com/redgrab/redgrab/internal/service/watch"
	"github.com/redgrab/redgrab/internal/storage/archive"
)

const indexTimeout = 30 * time.Second

var (
	savedLabel   = color.New(color.FgGreen).SprintFunc()
	skippedLabel = color.New(color.FgYellow).SprintFunc()
	failedLabel  = color.New(color.FgRed).SprintFunc()

	kindColors = map[entity.MediaKind]*color.Color{
		entity.MediaKindVideo:        color.New(color.FgCyan),
		entity.MediaKindGallery:      color.New(color.FgMagenta),
		entity.MediaKindDirectImage:  color.New(color.FgGreen),
		entity.MediaKindPreviewImage: color.New(color.FgGreen),
		entity.MediaKindExternal:     color.New(color.FgYellow),
	}
)

// Options carry the parsed command line.
type Options struct {
	ConfigPath string
	Subreddit  string
	Limit      int
	Download   bool
	Watch      bool
	Index      bool
	Force      bool
	Args       []string
}

type App struct {
	opts *Options
	cfg  *config.Config

	reddit  *reddit.Client
	grabber *grab.GrabService
	scanner *scan.ScanService
	watcher *watch.WatchService
	indexer *sindex.IndexerService

	log *slog.Logger
}

func New(opts *Options) *App {
	return &App{
		opts: opts,
	}
}

func (a *App) setup(ctx context.Context) {
	a.cfg = config.MustLoad(a.opts.ConfigPath)

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	var hist grab.History
	if a.cfg.History.RedisURL != "" {
		opt, err := redis.ParseURL(a.cfg.History.RedisURL)
		if err != nil {
			panic(err)
		}

		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			panic(err)
		}

		hist = history.NewRedisHistory(rdb, a.cfg.History.SeenTTL, log)
	} else {
		hist = history.NewMemoryHistory(a.cfg.History.SeenTTL)
	}

	apiClient := httpclient.New(a.cfg.Reddit.Timeout, a.cfg.Reddit.UserAgent, a.cfg.Fetch.Retries, log)
	fileClient := httpclient.New(a.cfg.Fetch.Timeout, a.cfg.Reddit.UserAgent, a.cfg.Fetch.Retries, log)

	a.reddit = reddit.New(&a.cfg.Reddit, apiClient, log)
	fetcher := fetch.New(&a.cfg.Fetch, fileClient, log)
	arch := archive.New(a.cfg.OutputDir, log)
	external := ytdlp.New(log)

	var muxer grab.Muxer
	if binary, err := ffmpegexec.Locate(a.cfg.FFmpeg); err != nil {
		log.Warn("No ffmpeg found, videos keep a separate audio track", slog.Any("error", err))
	} else {
		muxer = ffmpegexec.NewRunner(binary, log)
	}

	a.grabber = grab.New(a.reddit, fetcher, external, muxer, arch, hist, &a.cfg.Grab, log)
	a.scanner = scan.New(a.reddit, a.grabber, log)

	renderer, err := page.NewPageAdapter(a.cfg.IndexTemplate, log)
	if err != nil {
		panic(err)
	}

	a.indexer = sindex.NewIndexService(arch, renderer, log)
	a.watcher = watch.New(a.scanner, a.indexer, &a.cfg.Watch, log)
}

// Run executes the selected mode and returns the process exit code.
func (a *App) Run(ctx context.Context) int {
	a.setup(ctx)

	if err := a.reddit.Authenticate(ctx); err != nil {
		a.log.Error("Cannot authenticate", slog.Any("error", err))

		return 2
	}

	fmt.Printf("Output dir: %s\n", a.cfg.OutputDir)

	switch {
	case a.opts.Index:
		return a.runIndex(ctx)
	case a.opts.Watch:
		return a.runWatch(ctx)
	case a.opts.Subreddit != "":
		return a.runScan(ctx)
	default:
		return a.runGrab(ctx)
	}
}

// Index rebuilds the archive index. It is also triggered by SIGUSR1 in
// watch mode.
func (a *App) Index(ctx context.Context) {
	if a.indexer == nil {
		return
	}

	ictx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	a.runIndex(ictx)
}

func (a *App) runIndex(ctx context.Context) int {
	fmt.Println("Building index...")

	count, err := a.indexer.Index(ctx)
	if err != nil {
		fmt.Printf("Cannot build index: %s\n", err)

		return 1
	}

	fmt.Printf("Indexed %d posts to %s\n", count, a.cfg.OutputDir)
	fmt.Println("Done.")

	return 0
}

func (a *App) runWatch(ctx context.Context) int {
	if a.opts.Subreddit == "" {
		fmt.Println("Watch mode needs a subreddit, pass -r.")

		return 2
	}

	if err := a.watcher.Run(ctx, a.opts.Subreddit); err != nil {
		a.log.Error("Watch failed", slog.Any("error", err))

		return 1
	}

	return 0
}

func (a *App) runScan(ctx context.Context) int {
	if !a.opts.Download {
		posts, err := a.scanner.List(ctx, a.opts.Subreddit, a.opts.Limit)
		if err != nil {
			fmt.Printf("Cannot list r/%s: %s\n", a.opts.Subreddit, err)

			return 1
		}

		for i, post := range posts {
			fmt.Printf("%d. %s %s\n   %s\n", i+1, kindTag(post.Kind()), post.Title, postURL(post))
		}

		return 0
	}

	results, failed, err := a.scanner.GrabAll(ctx, a.opts.Subreddit, a.opts.Limit, a.opts.Force)
	if err != nil {
		fmt.Printf("Cannot grab r/%s: %s\n", a.opts.Subreddit, err)

		return 1
	}

	for _, result := range results {
		a.printResult(result)
	}

	a.reindex(ctx, results)

	if failed > 0 {
		return 1
	}

	return 0
}

func (a *App) runGrab(ctx context.Context) int {
	args := a.opts.Args
	if len(args) == 0 {
		if arg := prompt(); arg != "" {
			args = []string{arg}
		}
	}

	if len(args) == 0 {
		fmt.Println("Nothing to grab.")

		return 2
	}

	var (
		results []*entity.GrabResult
		failed  int
	)

	for _, arg := range args {
		result, err := a.grabber.Grab(ctx, arg, a.opts.Force)
		if err != nil {
			fmt.Printf("%s %s: %s\n", failedLabel("fail"), arg, err)
			failed++

			continue
		}

		a.printResult(result)
		results = append(results, result)
	}

	a.reindex(ctx, results)

	if failed > 0 {
		return 1
	}

	return 0
}

// reindex rebuilds the archive index after a run that grabbed anything new.
func (a *App) reindex(ctx context.Context, results []*entity.GrabResult) {
	var grabbed int
	for _, result := range results {
		if !result.Skipped {
			grabbed++
		}
	}

	if grabbed < 1 {
		return
	}

	if _, err := a.indexer.Index(ctx); err != nil {
		a.log.Error("Cannot rebuild index", slog.Any("error", err))
	}
}

func (a *App) printResult(result *entity.GrabResult) {
	if result.Skipped {
		fmt.Printf("%s %s (already grabbed)\n", skippedLabel("skip"), result.Post.ID)

		return
	}

	fmt.Printf("%s %s %s %s, files: %d, via: %s\n",
		savedLabel("grab"), result.Post.ID, kindTag(result.Kind), result.Post.Title, len(result.Files), result.Via)
}

func prompt() string {
	fmt.Print("Paste Reddit post URL or ID: ")

	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')

	return strings.TrimSpace(line)
}

func postURL(post *entity.Post) string {
	if u := post.OverriddenURL(); u != "" {
		return u
	}

	return "https://www.reddit.com" + post.Permalink
}

func kindTag(kind entity.MediaKind) string {
	if c, exists := kindColors[kind]; exists {
		return c.Sprintf("[%s]", kind)
	}

	return fmt.Sprintf("[%s]", kind)
}
