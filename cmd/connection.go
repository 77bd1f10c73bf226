package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"openfahrplan.dev/transit"
	"openfahrplan.dev/transit/gtfstime"
)

var connectionCmd = &cobra.Command{
	Use:   "connection <from_stop_id> <to_stop_id> <HH:MM:SS>",
	Short: "Computes the earliest-arrival connection between two stops",
	Args:  cobra.ExactArgs(3),
	RunE:  connection,
}

var maxRounds int

func init() {
	connectionCmd.Flags().IntVarP(&maxRounds, "max-rounds", "r", transit.DefaultMaxRounds, "Maximum number of boardings")
	rootCmd.AddCommand(connectionCmd)
}

func connection(cmd *cobra.Command, args []string) error {
	router, err := loadRouter()
	if err != nil {
		return err
	}

	journey := router.ConnectionAt(args[0], args[1], args[2], maxRounds)
	if journey == nil {
		fmt.Println("no connection found")
		return nil
	}

	feed := router.Feed()
	for _, leg := range journey.Legs {
		fromName, toName := leg.From, leg.To
		if stop, ok := feed.StopByID(leg.From); ok {
			fromName = stop.Name
		}
		if stop, ok := feed.StopByID(leg.To); ok {
			toName = stop.Name
		}

		if leg.Kind == transit.LegWalk {
			fmt.Printf("walk  %4ds  %s -> %s\n", leg.Walk, fromName, toName)
			continue
		}

		line := leg.TripID
		if route, ok := feed.RouteForTrip(leg.TripID); ok {
			line = route.DisplayName()
		}
		fmt.Printf("%-11s  %s -> %s\n", line, fromName, toName)
	}
	fmt.Printf("arrival: %s\n", gtfstime.Clock(journey.Arrival))

	return nil
}
