package parse

import (
	"reflect"
	"testing"
	"time"
)

const stationXML = `<stations>
  <station name="K&#246;ln Hbf" eva="8000207" ds100="KK" db="true" creationts="24-02-01"/>
  <station name="K&#246;ln Messe/Deutz" eva="8000208" ds100="KKDZ" meta="8003368" p="1|2|3"/>
</stations>`

const planXML = `<timetable station="K&#246;ln Hbf">
  <s id="123-1" eva="8000207">
    <tl c="ICE" n="511" o="80" t="p" l=""/>
    <dp pt="2403011000" pp="4" ppth="Bonn Hbf|Koblenz Hbf|Mainz Hbf|Frankfurt(Main)Hbf"/>
  </s>
  <s id="123-2" eva="8000207">
    <tl c="RE" n="10512" o="800337" t="p" l="5"/>
    <ar pt="2403011012" pp="7" ppth="Aachen Hbf|D&#252;ren"/>
  </s>
  <s id="123-3" eva="8000207">
    <dp pt="2403011030" pp="9" ppth=" | Solingen Hbf |Wuppertal Hbf| "/>
    <m id="r1" t="h" c="43" pr="2">Remark text</m>
  </s>
</timetable>`

const changesXML = `<timetable station="K&#246;ln Hbf">
  <s id="123-1" eva="8000207">
    <dp ct="2403011006" cp="6" cs="p" ppth="Bonn Hbf|Koblenz Hbf">
      <m id="m1" t="d" c="36" cat="2" pr="1" from="2403010900" to="2403011200">Signal fault</m>
    </dp>
    <m id="sm1" t="h" c="90">Station rebuild</m>
  </s>
  <s id="123-4" eva="8000207">
    <dp rt="2403011045" cs="a"/>
  </s>
</timetable>`

func TestParseStations(t *testing.T) {
	stations, err := ParseStations(stationXML)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("Expected 2 stations, got %d", len(stations))
	}

	first := stations[0]
	if first.Name != "Köln Hbf" || first.EVA != "8000207" || first.DS100 != "KK" {
		t.Errorf("Unexpected first station: %+v", first)
	}

	// Unknown attributes must survive in the bag alongside the known ones.
	if first.Attrs["db"] != "true" || first.Attrs["creationts"] != "24-02-01" {
		t.Errorf("Unknown attributes dropped: %v", first.Attrs)
	}
	if first.Attrs["eva"] != "8000207" {
		t.Errorf("Known attributes missing from bag: %v", first.Attrs)
	}

	second := stations[1]
	if second.Meta != "8003368" || second.Platform != "1|2|3" {
		t.Errorf("Unexpected second station: %+v", second)
	}
}

func TestParseStationsEmpty(t *testing.T) {
	stations, err := ParseStations("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(stations) != 0 {
		t.Errorf("Expected no stations, got %d", len(stations))
	}
}

func TestParsePlan(t *testing.T) {
	events, err := ParsePlan(planXML)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 123-2 is arrival-only and must be skipped.
	if len(events) != 2 {
		t.Fatalf("Expected 2 plan events, got %d", len(events))
	}
	if _, ok := events["123-2"]; ok {
		t.Error("Arrival-only stop should be skipped")
	}

	t.Run("FullDeparture", func(t *testing.T) {
		ev, ok := events["123-1"]
		if !ok {
			t.Fatal("Missing event 123-1")
		}
		want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		if ev.PlannedDeparture == nil || !ev.PlannedDeparture.Equal(want) {
			t.Errorf("Expected planned departure %v, got %v", want, ev.PlannedDeparture)
		}
		if ev.PlannedPlatform != "4" {
			t.Errorf("Expected platform 4, got %q", ev.PlannedPlatform)
		}
		if ev.PlannedDestination != "Frankfurt(Main)Hbf" {
			t.Errorf("Expected destination Frankfurt(Main)Hbf, got %q", ev.PlannedDestination)
		}
		if ev.Line == nil || ev.Line.Category != "ICE" || ev.Line.Number != "511" || ev.Line.Operator != "80" {
			t.Errorf("Unexpected line info: %+v", ev.Line)
		}
	})

	t.Run("PathTrimming", func(t *testing.T) {
		ev := events["123-3"]
		wantPath := []string{"Solingen Hbf", "Wuppertal Hbf"}
		if !reflect.DeepEqual(ev.PlannedPath, wantPath) {
			t.Errorf("Expected path %v, got %v", wantPath, ev.PlannedPath)
		}
		if ev.PlannedDestination != "Wuppertal Hbf" {
			t.Errorf("Expected destination Wuppertal Hbf, got %q", ev.PlannedDestination)
		}
		if ev.Line != nil {
			t.Errorf("Expected no line info, got %+v", ev.Line)
		}
	})

	t.Run("Remarks", func(t *testing.T) {
		ev := events["123-3"]
		if len(ev.Remarks) != 1 {
			t.Fatalf("Expected 1 remark, got %d", len(ev.Remarks))
		}
		msg := ev.Remarks[0]
		if msg.ID != "r1" || msg.Code != "43" || msg.Text != "Remark text" {
			t.Errorf("Unexpected remark: %+v", msg)
		}
	})
}

func TestParsePlanIdempotent(t *testing.T) {
	first, err := ParsePlan(planXML)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := ParsePlan(planXML)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Parsing the same payload twice should yield equal mappings")
	}
}

func TestParseChanges(t *testing.T) {
	events, err := ParseChanges(changesXML)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 change events, got %d", len(events))
	}

	t.Run("ConfirmedTime", func(t *testing.T) {
		ev := events["123-1"]
		want := time.Date(2024, 3, 1, 10, 6, 0, 0, time.UTC)
		if ev.ActualDeparture == nil || !ev.ActualDeparture.Equal(want) {
			t.Errorf("Expected actual departure %v, got %v", want, ev.ActualDeparture)
		}
		if ev.ActualPlatform != "6" || ev.Status != "p" {
			t.Errorf("Unexpected change event: %+v", ev)
		}
		if ev.Destination != "Koblenz Hbf" {
			t.Errorf("Expected overriding destination Koblenz Hbf, got %q", ev.Destination)
		}
	})

	t.Run("EstimateFallback", func(t *testing.T) {
		ev := events["123-4"]
		want := time.Date(2024, 3, 1, 10, 45, 0, 0, time.UTC)
		if ev.ActualDeparture == nil || !ev.ActualDeparture.Equal(want) {
			t.Errorf("Expected estimated departure %v, got %v", want, ev.ActualDeparture)
		}
	})

	t.Run("MessageScopes", func(t *testing.T) {
		ev := events["123-1"]
		if len(ev.Messages) != 1 || ev.Messages[0].ID != "m1" {
			t.Errorf("Unexpected departure messages: %+v", ev.Messages)
		}
		if ev.Messages[0].ValidFrom != "2403010900" || ev.Messages[0].ValidTo != "2403011200" {
			t.Errorf("Message validity not captured: %+v", ev.Messages[0])
		}
		if len(ev.StationMessages) != 1 || ev.StationMessages[0].ID != "sm1" {
			t.Errorf("Unexpected station messages: %+v", ev.StationMessages)
		}
	})
}

func TestParseMalformed(t *testing.T) {
	if _, err := ParsePlan("<timetable><s id="); err == nil {
		t.Error("Expected error for malformed plan payload")
	}
	if _, err := ParseChanges("not xml"); err == nil {
		t.Error("Expected error for malformed changes payload")
	}
	if _, err := ParseStations("<stations"); err == nil {
		t.Error("Expected error for malformed station payload")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  *time.Time
	}{
		{
			name:  "ISO 8601",
			value: "2024-03-01T10:30:00",
			want:  timePtr(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)),
		},
		{
			name:  "ten digit numeric",
			value: "2403011030",
			want:  timePtr(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)),
		},
		{
			name:  "twelve digit numeric",
			value: "202403011030",
			want:  timePtr(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)),
		},
		{
			name:  "empty",
			value: "",
			want:  nil,
		},
		{
			name:  "garbage",
			value: "tomorrow-ish",
			want:  nil,
		},
		{
			name:  "wrong width numeric",
			value: "24030110",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTime(tt.value)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Expected nil, got %v", got)
				}
				return
			}
			if got == nil || !got.Equal(*tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
