package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"openfahrplan.dev/transit/gtfstime"
)

var departuresCmd = &cobra.Command{
	Use:   "departures <stop_id> [HH:MM:SS]",
	Short: "Lists upcoming departures from a stop",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  departures,
}

var departuresLimit int

func init() {
	departuresCmd.Flags().IntVarP(&departuresLimit, "limit", "l", 10, "Limit the number of departures returned")
	rootCmd.AddCommand(departuresCmd)
}

func departures(cmd *cobra.Command, args []string) error {
	after := int64(0)
	if len(args) == 2 {
		after = gtfstime.Seconds(args[1])
		if after == gtfstime.Infinity {
			return fmt.Errorf("invalid time '%s'", args[1])
		}
	}

	router, err := loadRouter()
	if err != nil {
		return err
	}

	feed := router.Feed()
	for _, dep := range router.Departures(args[0], after, departuresLimit) {
		line := dep.RouteID
		if route, ok := feed.RouteByID(dep.RouteID); ok {
			line = route.DisplayName()
		}
		fmt.Printf("%s  %-11s  %s\n", gtfstime.Clock(dep.Time), line, dep.TripID)
	}

	return nil
}
