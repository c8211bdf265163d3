package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/redgrab/redgrab/internal/app"
)

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	subreddit := flag.String("r", "", "Subreddit to scan")
	limit := flag.Int("n", 25, "How many hot posts to list or grab")
	download := flag.Bool("d", false, "Download everything the scan finds")
	watchMode := flag.Bool("watch", false, "Keep rescanning the subreddit until stopped")
	indexMode := flag.Bool("index", false, "Rebuild the archive index and exit")
	force := flag.Bool("f", false, "Grab posts even when the history has them")
	flag.Parse()

	_ = godotenv.Load()

	a := app.New(&app.Options{
		ConfigPath: *cfgFileName,
		Subreddit:  *subreddit,
		Limit:      *limit,
		Download:   *download,
		Watch:      *watchMode,
		Index:      *indexMode,
		Force:      *force,
		Args:       flag.Args(),
	})

	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	go func() {
		for sig := range c {
			switch sig {
			case syscall.SIGUSR1:
				go a.Index(ctx)
			case syscall.SIGTERM, syscall.SIGINT:
				fmt.Println("Received termination signal. Shutting down...")
				cancel()

				return
			}
		}
	}()

	code := a.Run(ctx)
	cancel()
	os.Exit(code)
}
