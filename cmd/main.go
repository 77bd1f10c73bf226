package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"openfahrplan.dev/transit"
	"openfahrplan.dev/transit/storage"
)

var rootCmd = &cobra.Command{
	Use:          "openfahrplan",
	Short:        "Openfahrplan timetable tool",
	Long:         "Queries connections, departures and stations from GTFS data",
	SilenceUsage: true,
}

var (
	feedName string
	config   *viper.Viper
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&feedName, "feed", "f", "vgn", "Feed name")

	config = viper.New()
	config.SetDefault("data_dir", "./data")
	config.SetEnvPrefix("OPENFAHRPLAN")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func dataDir() string {
	return config.GetString("data_dir")
}

func openStorage() (storage.Storage, error) {
	dir := dataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return storage.NewSQLiteStorage(storage.SQLiteConfig{OnDisk: true, Directory: dir})
}

func loadRouter() (*transit.Router, error) {
	s, err := openStorage()
	if err != nil {
		return nil, err
	}
	return transit.NewManager(s).Load(feedName)
}

func parseHeaders(headers []string) (map[string]string, error) {
	parsed := map[string]string{}
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("'%s' is not on form <key>:<value>", header)
		}
		parsed[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return parsed, nil
}
