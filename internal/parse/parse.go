// Package parse decodes the three upstream wire schemas (station
// directory, baseline plan, change delta) into typed records. All
// functions are pure: no I/O, no shared state.
package parse

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/jusunglee/bahn-go/internal/models"
)

type stationList struct {
	XMLName  xml.Name      `xml:"stations"`
	Stations []stationElem `xml:"station"`
}

type stationElem struct {
	Name     string     `xml:"name,attr"`
	EVA      string     `xml:"eva,attr"`
	DS100    string     `xml:"ds100,attr"`
	Meta     string     `xml:"meta,attr"`
	Platform string     `xml:"p,attr"`
	Extra    []xml.Attr `xml:",any,attr"`
}

type timetable struct {
	XMLName  xml.Name   `xml:"timetable"`
	Stops    []stopElem `xml:"s"`
	Messages []msgElem  `xml:"m"`
}

type stopElem struct {
	ID        string     `xml:"id,attr"`
	EVA       string     `xml:"eva,attr"`
	Line      *lineElem  `xml:"tl"`
	Departure *eventElem `xml:"dp"`
	Arrival   *eventElem `xml:"ar"`
	Messages  []msgElem  `xml:"m"`
}

type eventElem struct {
	PlannedTime     string    `xml:"pt,attr"`
	ConfirmedTime   string    `xml:"ct,attr"`
	EstimatedTime   string    `xml:"rt,attr"`
	PlannedPlatform string    `xml:"pp,attr"`
	ChangedPlatform string    `xml:"cp,attr"`
	Path            string    `xml:"ppth,attr"`
	Status          string    `xml:"cs,attr"`
	Messages        []msgElem `xml:"m"`
}

type lineElem struct {
	Category string `xml:"c,attr"`
	Number   string `xml:"n,attr"`
	Type     string `xml:"t,attr"`
	Operator string `xml:"o,attr"`
	Line     string `xml:"l,attr"`
}

type msgElem struct {
	ID        string `xml:"id,attr"`
	Type      string `xml:"t,attr"`
	Code      string `xml:"c,attr"`
	Category  string `xml:"cat,attr"`
	Priority  string `xml:"pr,attr"`
	Timestamp string `xml:"ts,attr"`
	From      string `xml:"from,attr"`
	To        string `xml:"to,attr"`
	Text      string `xml:",chardata"`
}

// ParseStations decodes a /station search payload. Every wire attribute
// is kept in the record's attribute bag, known or not.
func ParseStations(payload string) ([]models.StationRecord, error) {
	if payload == "" {
		return nil, nil
	}
	var doc stationList
	if err := xml.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("station payload: %w", err)
	}

	records := make([]models.StationRecord, 0, len(doc.Stations))
	for _, st := range doc.Stations {
		attrs := map[string]string{}
		setIfPresent(attrs, "name", st.Name)
		setIfPresent(attrs, "eva", st.EVA)
		setIfPresent(attrs, "ds100", st.DS100)
		setIfPresent(attrs, "meta", st.Meta)
		setIfPresent(attrs, "p", st.Platform)
		for _, a := range st.Extra {
			attrs[a.Name.Local] = a.Value
		}
		records = append(records, models.StationRecord{
			Name:     st.Name,
			EVA:      st.EVA,
			DS100:    st.DS100,
			Meta:     st.Meta,
			Platform: st.Platform,
			Attrs:    attrs,
		})
	}
	return records, nil
}

// ParsePlan decodes a /plan slice into PlanEvents keyed by stop id.
// Stops without a departure element are arrival-only and skipped.
func ParsePlan(payload string) (map[string]models.PlanEvent, error) {
	if payload == "" {
		return map[string]models.PlanEvent{}, nil
	}
	var doc timetable
	if err := xml.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("plan payload: %w", err)
	}

	events := make(map[string]models.PlanEvent)
	for _, stop := range doc.Stops {
		if stop.ID == "" || stop.Departure == nil {
			continue
		}
		dp := stop.Departure
		path := splitPath(dp.Path)
		events[stop.ID] = models.PlanEvent{
			StopID:             stop.ID,
			StationEVA:         stop.EVA,
			PlannedDeparture:   ParseTime(dp.PlannedTime),
			PlannedPlatform:    dp.PlannedPlatform,
			PlannedPath:        path,
			PlannedDestination: lastSegment(path),
			Line:               lineInfo(stop.Line),
			Remarks:            messages(stop.Messages),
		}
	}
	return events, nil
}

// ParseChanges decodes a /fchg or /rchg payload into ChangeEvents keyed
// by stop id. A confirmed time wins over a realtime estimate when both
// are present. Station-level messages are kept apart from
// departure-level ones.
func ParseChanges(payload string) (map[string]models.ChangeEvent, error) {
	if payload == "" {
		return map[string]models.ChangeEvent{}, nil
	}
	var doc timetable
	if err := xml.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("changes payload: %w", err)
	}

	events := make(map[string]models.ChangeEvent)
	for _, stop := range doc.Stops {
		if stop.ID == "" || stop.Departure == nil {
			continue
		}
		dp := stop.Departure

		actualRaw := dp.ConfirmedTime
		if actualRaw == "" {
			actualRaw = dp.EstimatedTime
		}

		path := splitPath(dp.Path)
		events[stop.ID] = models.ChangeEvent{
			StopID:          stop.ID,
			StationEVA:      stop.EVA,
			ActualDeparture: ParseTime(actualRaw),
			ActualPlatform:  dp.ChangedPlatform,
			Status:          dp.Status,
			Messages:        messages(dp.Messages),
			StationMessages: messages(stop.Messages),
			Path:            path,
			Destination:     lastSegment(path),
		}
	}
	return events, nil
}

// splitPath splits a pipe-delimited route into trimmed non-empty stops.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var segments []string
	for _, segment := range strings.Split(path, "|") {
		segment = strings.TrimSpace(segment)
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func lastSegment(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

func lineInfo(line *lineElem) *models.LineInfo {
	if line == nil {
		return nil
	}
	return &models.LineInfo{
		Category: line.Category,
		Number:   line.Number,
		Type:     line.Type,
		Operator: line.Operator,
		Line:     line.Line,
	}
}

func messages(elems []msgElem) []models.Message {
	if len(elems) == 0 {
		return nil
	}
	out := make([]models.Message, 0, len(elems))
	for _, m := range elems {
		out = append(out, models.Message{
			ID:        m.ID,
			Type:      m.Type,
			Code:      m.Code,
			Category:  m.Category,
			Priority:  m.Priority,
			Timestamp: m.Timestamp,
			ValidFrom: m.From,
			ValidTo:   m.To,
			Text:      strings.TrimSpace(m.Text),
		})
	}
	return out
}

func setIfPresent(attrs map[string]string, key, value string) {
	if value != "" {
		attrs[key] = value
	}
}
