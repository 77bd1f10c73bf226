package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var stationsCmd = &cobra.Command{
	Use:   "stations <query...> [limit]",
	Short: "Fuzzy-searches stations by name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  stations,
}

func init() {
	rootCmd.AddCommand(stationsCmd)
}

func stations(cmd *cobra.Command, args []string) error {
	limit := 10
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			limit = n
			args = args[:len(args)-1]
		}
	}
	query := strings.Join(args, " ")

	router, err := loadRouter()
	if err != nil {
		return err
	}

	for _, match := range router.Feed().FindStation(query, limit) {
		fmt.Printf("%3d %s: %s\n", match.Score, match.StopID, match.Name)
	}

	return nil
}
