package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jusunglee/bahn-go/internal/config"
	"github.com/jusunglee/bahn-go/internal/models"
	"github.com/jusunglee/bahn-go/pkg/bahn"
)

func main() {
	var (
		configPath = flag.String("config", "", "Optional YAML config file")
		clientID   = flag.String("client-id", "", "DB API client id (overrides config/environment)")
		apiKey     = flag.String("api-key", "", "DB API key (overrides config/environment)")
		hours      = flag.Float64("hours", 1.0, "Time range in hours starting now")
		recent     = flag.Bool("recent", false, "Merge recent changes (/rchg) in addition to full changes")
		resolve    = flag.Bool("resolve", false, "Resolve station pattern to EVA before querying")
		search     = flag.Bool("search", false, "Only perform station lookup and print matches")
		limit      = flag.Int("limit", 10, "Maximum number of station matches to show with -search")
		asJSON     = flag.Bool("json", false, "Print raw JSON output instead of a human-readable summary")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		slog.Error("Exactly one station argument required (EVA number or pattern)")
		os.Exit(1)
	}
	station := flag.Arg(0)

	if *hours <= 0 {
		slog.Error("Value of -hours must be positive")
		os.Exit(1)
	}
	if (*clientID == "") != (*apiKey == "") {
		slog.Error("Both -client-id and -api-key must be provided together")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *clientID != "" {
		cfg.Credentials.ClientID = *clientID
		cfg.Credentials.APIKey = *apiKey
	}

	client, err := bahn.NewLocal(bahn.Config{
		ClientID: cfg.Credentials.ClientID,
		APIKey:   cfg.Credentials.APIKey,
		BaseURL:  cfg.Client.BaseURL,
		Timeout:  cfg.Timeout(),
	})
	if err != nil {
		slog.Error("Failed to create bahn client", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *search {
		stations, err := client.SearchStations(ctx, station, *limit)
		if err != nil {
			slog.Error("Station search failed", "pattern", station, "error", err)
			os.Exit(1)
		}
		printJSON(stations)
		return
	}

	stationID := station
	if *resolve {
		stationID, err = client.ResolveStationEVA(ctx, station)
		if err != nil {
			slog.Error("Failed to resolve station", "pattern", station, "error", err)
			os.Exit(1)
		}
	}

	now := time.Now()
	end := now.Add(time.Duration(*hours * float64(time.Hour)))

	departures, err := client.GetDepartures(ctx, stationID, now, end, *recent)
	if err != nil {
		slog.Error("Failed to get departures", "station", stationID, "error", err)
		os.Exit(1)
	}

	if *asJSON {
		responses := make([]models.DepartureResponse, len(departures))
		for i, dep := range departures {
			responses[i] = dep.ConvertToResponse()
		}
		printJSON(responses)
		return
	}

	if len(departures) == 0 {
		fmt.Println("No departures found in the requested interval.")
		return
	}

	for _, dep := range departures {
		fmt.Println(formatDeparture(&dep))
	}
}

func formatDeparture(dep *models.DepartureView) string {
	planned := "-"
	if dep.DeparturePlanned != nil {
		planned = dep.DeparturePlanned.Format("15:04")
	}
	actual := "-"
	if dep.DepartureActual != nil {
		actual = dep.DepartureActual.Format("15:04")
	}
	destination := dep.DestinationName
	if destination == "" {
		destination = "-"
	}
	platform := dep.PlatformActual
	if platform == "" {
		platform = "-"
	}
	delay := ""
	if dep.DelayMinutes != nil {
		delay = fmt.Sprintf("%+d min", *dep.DelayMinutes)
	}
	label := strings.TrimSpace(dep.TrainCategory + " " + dep.TrainNumber)

	return fmt.Sprintf("%s -> %s | %s | %s | Pl.: %s | %s %s %s",
		planned, actual, destination, label, platform, delay, dep.Status, dep.Operator)
}

func printJSON(data interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Error("Failed to encode output", "error", err)
		os.Exit(1)
	}
}
