package bahn

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jusunglee/bahn-go/internal/models"
)

// Client defines the interface for querying Deutsche Bahn timetable data
// Abstracts the upstream-backed implementation for testing and reuse
type Client interface {
	SearchStations(ctx context.Context, pattern string, limit int) ([]models.StationRecord, error)
	ResolveStationEVA(ctx context.Context, pattern string) (string, error)
	GetDepartures(ctx context.Context, stationID string, start, end time.Time, includeRecent bool) ([]models.DepartureView, error)
}

// Config holds configuration for the bahn client
// ClientID and APIKey are the mandatory DB API marketplace credentials
type Config struct {
	ClientID string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// DefaultConfig returns default configuration with credentials taken
// from the DB_CLIENT_ID / DB_API_KEY environment variables
func DefaultConfig() Config {
	return Config{
		ClientID: os.Getenv("DB_CLIENT_ID"),
		APIKey:   os.Getenv("DB_API_KEY"),
		Timeout:  10 * time.Second,
	}
}

// StationLookupError is returned when a station pattern resolves to
// zero or to more than one station.
type StationLookupError struct {
	Pattern    string
	Candidates []string
}

func (e *StationLookupError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no station found for pattern %q", e.Pattern)
	}
	shown := e.Candidates
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return fmt.Sprintf("pattern %q is ambiguous (%d matches): %s",
		e.Pattern, len(e.Candidates), strings.Join(shown, ", "))
}
