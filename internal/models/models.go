package models

import (
	"time"
)

// TimeLayout is the wire format used when rendering departure times to callers.
const TimeLayout = "2006-01-02T15:04:05"

// StationRecord holds one station from the /station search endpoint.
// Immutable once parsed.
type StationRecord struct {
	Name     string `json:"name"`
	EVA      string `json:"eva"`
	DS100    string `json:"ds100"`
	Meta     string `json:"meta"`
	Platform string `json:"platform"`

	// Attrs preserves every wire attribute, including ones the typed
	// fields above do not cover, for forward compatibility.
	Attrs map[string]string `json:"raw,omitempty"`
}

// LineInfo describes the train line of a planned stop
type LineInfo struct {
	Category string `json:"category"`
	Number   string `json:"number"`
	Type     string `json:"type"`
	Operator string `json:"operator"`
	Line     string `json:"line"`
}

// Message is a remark attached to a stop, a departure, or a whole station.
// Messages carrying the same non-empty ID are duplicates of each other.
type Message struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	Category  string `json:"category"`
	Priority  string `json:"priority"`
	Timestamp string `json:"timestamp,omitempty"`
	ValidFrom string `json:"valid_from"`
	ValidTo   string `json:"valid_to"`
	Text      string `json:"text"`
}

// PlanEvent is one scheduled departure from a baseline plan slice,
// keyed by StopID within a single station's schedule.
type PlanEvent struct {
	StopID             string
	StationEVA         string
	PlannedDeparture   *time.Time
	PlannedPlatform    string
	PlannedPath        []string
	PlannedDestination string
	Line               *LineInfo
	Remarks            []Message
}

// ChangeEvent is one realtime update from the full or recent change feed.
// It shares the StopID keyspace with PlanEvent.
type ChangeEvent struct {
	StopID          string
	StationEVA      string
	ActualDeparture *time.Time
	ActualPlatform  string
	Status          string
	Messages        []Message
	StationMessages []Message
	Path            []string
	Destination     string
}

// DepartureView is the reconciled departure record returned to callers.
// Constructed fresh per query, never persisted.
type DepartureView struct {
	StopID           string
	StationEVA       string
	DeparturePlanned *time.Time
	DepartureActual  *time.Time
	DelayMinutes     *int
	PlatformPlanned  string
	PlatformActual   string
	Status           string
	DestinationName  string
	TrainCategory    string
	TrainNumber      string
	Operator         string
	Messages         []Message
}

// PivotTime returns the time used to filter and order a departure:
// the actual time when known, the planned time otherwise. Nil when
// neither side carried a parseable time.
func (d *DepartureView) PivotTime() *time.Time {
	if d.DepartureActual != nil {
		return d.DepartureActual
	}
	return d.DeparturePlanned
}

// DepartureResponse is the serialized form of a DepartureView. Absent
// times and delays render as null; the message list is omitted entirely
// when empty.
type DepartureResponse struct {
	StopID           string    `json:"stop_id"`
	StationEVA       string    `json:"station_eva"`
	DeparturePlanned *string   `json:"departure_planned"`
	DepartureActual  *string   `json:"departure_actual"`
	DelayMinutes     *int      `json:"delay_minutes"`
	PlatformPlanned  string    `json:"platform_planned"`
	PlatformActual   string    `json:"platform_actual"`
	Status           string    `json:"status"`
	DestinationName  string    `json:"destination_name"`
	TrainCategory    string    `json:"train_category"`
	TrainNumber      string    `json:"train_number"`
	Operator         string    `json:"operator"`
	Messages         []Message `json:"messages,omitempty"`
}

// ConvertToResponse converts a DepartureView to DepartureResponse format
func (d *DepartureView) ConvertToResponse() DepartureResponse {
	return DepartureResponse{
		StopID:           d.StopID,
		StationEVA:       d.StationEVA,
		DeparturePlanned: formatTime(d.DeparturePlanned),
		DepartureActual:  formatTime(d.DepartureActual),
		DelayMinutes:     d.DelayMinutes,
		PlatformPlanned:  d.PlatformPlanned,
		PlatformActual:   d.PlatformActual,
		Status:           d.Status,
		DestinationName:  d.DestinationName,
		TrainCategory:    d.TrainCategory,
		TrainNumber:      d.TrainNumber,
		Operator:         d.Operator,
		Messages:         d.Messages,
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(TimeLayout)
	return &s
}
