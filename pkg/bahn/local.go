package bahn

import (
	"context"
	"fmt"
	"time"

	"github.com/jusunglee/bahn-go/internal/board"
	"github.com/jusunglee/bahn-go/internal/models"
	"github.com/jusunglee/bahn-go/internal/parse"
	"github.com/jusunglee/bahn-go/internal/upstream"
)

// LocalClient implements the Client interface against the live
// Timetables API with an in-process cache. Stateless between calls
// apart from that cache.
type LocalClient struct {
	upstream *upstream.Client
	engine   *board.Engine
}

// NewLocal creates a new bahn client
// Fails before any network activity when the credential pair is incomplete
func NewLocal(config Config) (*LocalClient, error) {
	client, err := upstream.New(upstream.Config{
		ClientID: config.ClientID,
		APIKey:   config.APIKey,
		BaseURL:  config.BaseURL,
		Timeout:  config.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &LocalClient{
		upstream: client,
		engine:   board.New(client),
	}, nil
}

// SearchStations looks up stations by name prefix, EVA number, or DS100
// code. A non-positive limit returns all matches.
func (c *LocalClient) SearchStations(ctx context.Context, pattern string, limit int) ([]models.StationRecord, error) {
	if pattern == "" {
		return nil, &StationLookupError{Pattern: pattern}
	}

	payload, err := c.upstream.FetchStation(ctx, pattern)
	if err != nil {
		return nil, err
	}
	stations, err := parse.ParseStations(payload)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(stations) > limit {
		stations = stations[:limit]
	}
	return stations, nil
}

// ResolveStationEVA resolves a pattern to exactly one EVA number.
// Zero matches and ambiguous patterns both surface as StationLookupError.
func (c *LocalClient) ResolveStationEVA(ctx context.Context, pattern string) (string, error) {
	matches, err := c.SearchStations(ctx, pattern, 0)
	if err != nil {
		return "", err
	}

	if len(matches) == 0 {
		return "", &StationLookupError{Pattern: pattern}
	}
	if len(matches) > 1 {
		names := make([]string, 0, len(matches))
		for _, station := range matches {
			names = append(names, station.Name)
		}
		return "", &StationLookupError{Pattern: pattern, Candidates: names}
	}

	if matches[0].EVA == "" {
		return "", fmt.Errorf("station %q has no EVA number", matches[0].Name)
	}
	return matches[0].EVA, nil
}

// GetDepartures returns the reconciled departure board for stationID
// within [start, end] inclusive, sorted by effective departure time.
func (c *LocalClient) GetDepartures(ctx context.Context, stationID string, start, end time.Time, includeRecent bool) ([]models.DepartureView, error) {
	return c.engine.Departures(ctx, stationID, start, end, includeRecent)
}
