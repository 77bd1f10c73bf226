package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"openfahrplan.dev/transit"
	"openfahrplan.dev/transit/downloader"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Downloads a GTFS dump and parses it into the data dir",
	Args:  cobra.ExactArgs(1),
	RunE:  fetch,
}

var fetchHeaders []string

func init() {
	fetchCmd.Flags().StringSliceVarP(&fetchHeaders, "header", "H", []string{}, "HTTP header on form <key>:<value>")
	rootCmd.AddCommand(fetchCmd)
}

func fetch(cmd *cobra.Command, args []string) error {
	url := args[0]

	headers, err := parseHeaders(fetchHeaders)
	if err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}

	cache, err := downloader.NewFilesystem(dataDir() + "/feed-cache.json")
	if err != nil {
		return fmt.Errorf("creating feed cache: %w", err)
	}

	buf, err := cache.Get(context.Background(), url, headers, downloader.GetOptions{
		Timeout:  5 * time.Minute,
		Cache:    true,
		CacheTTL: 12 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("downloading feed: %w", err)
	}

	s, err := openStorage()
	if err != nil {
		return err
	}

	router, err := transit.NewManager(s).LoadParsed(feedName, buf)
	if err != nil {
		return err
	}

	feed := router.Feed()
	fmt.Printf("feed %s: %d stops, %d routes, %d trips, %d stop_times, %d transfers\n",
		feedName, len(feed.Stops), len(feed.Routes), len(feed.Trips),
		len(feed.StopTimes), len(feed.Transfers))

	return nil
}
