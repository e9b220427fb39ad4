// Package board reconciles baseline plan slices with realtime change
// feeds into a single ordered departure list. This is where the two
// independently-arriving datasets meet: they share the stop id keyspace
// and are merged with explicit field precedence, never field-by-field
// timestamp comparison.
package board

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/bahn-go/internal/models"
	"github.com/jusunglee/bahn-go/internal/parse"
)

var (
	// ErrEmptyStation is returned when no station identifier was given.
	ErrEmptyStation = errors.New("station id is required")
	// ErrInvalidInterval is returned when start is after end.
	ErrInvalidInterval = errors.New("start must not be after end")
)

// Fetcher is the upstream surface the engine needs. Satisfied by
// *upstream.Client.
type Fetcher interface {
	FetchPlan(ctx context.Context, eva, date, hour string) (string, error)
	FetchFullChanges(ctx context.Context, eva string) (string, error)
	FetchRecentChanges(ctx context.Context, eva string) (string, error)
}

// Engine produces departure boards for one upstream client.
type Engine struct {
	fetcher Fetcher
}

// New creates an Engine on top of the given fetcher
func New(fetcher Fetcher) *Engine {
	return &Engine{fetcher: fetcher}
}

// Departures returns the reconciled departures for a station whose
// pivot time falls within [start, end], ascending by pivot time. Any
// fetch or parse failure aborts the whole call; partial boards are
// never returned.
func (e *Engine) Departures(ctx context.Context, stationID string, start, end time.Time, includeRecent bool) ([]models.DepartureView, error) {
	if stationID == "" {
		return nil, ErrEmptyStation
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w (start=%s end=%s)", ErrInvalidInterval, start.Format(models.TimeLayout), end.Format(models.TimeLayout))
	}

	planEvents, changes, err := e.collect(ctx, stationID, start, end, includeRecent)
	if err != nil {
		return nil, err
	}

	departures := merge(planEvents, changes)

	filtered := departures[:0]
	for _, dep := range departures {
		pivot := dep.PivotTime()
		if pivot == nil {
			// Incomplete upstream data, not an error.
			continue
		}
		if pivot.Before(start) || pivot.After(end) {
			continue
		}
		filtered = append(filtered, dep)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PivotTime().Before(*filtered[j].PivotTime())
	})
	return filtered, nil
}

// collect fans out one fetch per plan slice plus the change feeds and
// combines the parsed results once all complete. Slice order is
// preserved so a later slice overwrites an earlier one on a stop id
// collision, and the recent feed overwrites the full feed.
func (e *Engine) collect(ctx context.Context, stationID string, start, end time.Time, includeRecent bool) (map[string]models.PlanEvent, map[string]models.ChangeEvent, error) {
	keys := PlanSlices(start, end)

	g, ctx := errgroup.WithContext(ctx)

	chunks := make([]map[string]models.PlanEvent, len(keys))
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			payload, err := e.fetcher.FetchPlan(ctx, stationID, key.Date, key.Hour)
			if err != nil {
				return err
			}
			chunk, err := parse.ParsePlan(payload)
			if err != nil {
				return err
			}
			chunks[i] = chunk
			return nil
		})
	}

	var full, recent map[string]models.ChangeEvent
	g.Go(func() error {
		payload, err := e.fetcher.FetchFullChanges(ctx, stationID)
		if err != nil {
			return err
		}
		full, err = parse.ParseChanges(payload)
		return err
	})
	if includeRecent {
		g.Go(func() error {
			payload, err := e.fetcher.FetchRecentChanges(ctx, stationID)
			if err != nil {
				return err
			}
			recent, err = parse.ParseChanges(payload)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	planEvents := make(map[string]models.PlanEvent)
	for _, chunk := range chunks {
		for id, event := range chunk {
			planEvents[id] = event
		}
	}

	changes := make(map[string]models.ChangeEvent, len(full))
	for id, event := range full {
		changes[id] = event
	}
	for id, event := range recent {
		changes[id] = event
	}

	return planEvents, changes, nil
}

// merge builds one DepartureView per stop id in the union of both
// keyspaces. A side missing for an id contributes defaults: no change
// means actuals fall back to planned, no plan means planned time stays
// nil and no delay can be derived.
func merge(planEvents map[string]models.PlanEvent, changes map[string]models.ChangeEvent) []models.DepartureView {
	ids := make(map[string]struct{}, len(planEvents)+len(changes))
	for id := range planEvents {
		ids[id] = struct{}{}
	}
	for id := range changes {
		ids[id] = struct{}{}
	}

	departures := make([]models.DepartureView, 0, len(ids))
	for id := range ids {
		plan := planEvents[id]
		change := changes[id]

		actual := change.ActualDeparture
		if actual == nil {
			actual = plan.PlannedDeparture
		}

		var delay *int
		if actual != nil && plan.PlannedDeparture != nil {
			minutes := int(math.Floor(actual.Sub(*plan.PlannedDeparture).Seconds() / 60))
			delay = &minutes
		}

		view := models.DepartureView{
			StopID:           id,
			StationEVA:       firstNonEmpty(change.StationEVA, plan.StationEVA),
			DeparturePlanned: plan.PlannedDeparture,
			DepartureActual:  actual,
			DelayMinutes:     delay,
			PlatformPlanned:  plan.PlannedPlatform,
			PlatformActual:   firstNonEmpty(change.ActualPlatform, plan.PlannedPlatform),
			Status:           change.Status,
			DestinationName:  firstNonEmpty(change.Destination, plan.PlannedDestination),
			Messages:         mergeMessages(plan.Remarks, change.Messages, change.StationMessages),
		}
		if plan.Line != nil {
			view.TrainCategory = plan.Line.Category
			view.TrainNumber = plan.Line.Number
			view.Operator = plan.Line.Operator
		}
		departures = append(departures, view)
	}
	return departures
}

// mergeMessages concatenates the groups in order, keeping the first
// occurrence of each non-empty message id. Messages without an id are
// never deduplicated.
func mergeMessages(groups ...[]models.Message) []models.Message {
	var merged []models.Message
	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, msg := range group {
			if msg.ID != "" {
				if _, dup := seen[msg.ID]; dup {
					continue
				}
				seen[msg.ID] = struct{}{}
			}
			merged = append(merged, msg)
		}
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
