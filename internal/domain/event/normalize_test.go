package event

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{
			name: "second precision with Z",
			ev:   Event{Name: "CPI", Country: "US", TimeUTC: time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)},
			want: "2026-01-03T12:00:00Z|US|CPI",
		},
		{
			name: "sub-second time truncated",
			ev:   Event{Name: "CPI", Country: "US", TimeUTC: time.Date(2026, 1, 3, 12, 0, 0, 987654321, time.UTC)},
			want: "2026-01-03T12:00:00Z|US|CPI",
		},
		{
			name: "non-UTC location folded to UTC",
			ev:   Event{Name: "Policy Rate", Country: "JP", TimeUTC: time.Date(2026, 1, 3, 21, 0, 0, 0, time.FixedZone("JST", 9*3600))},
			want: "2026-01-03T12:00:00Z|JP|Policy Rate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDateTimeUTC(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2026-01-03T12:34:56Z", want: time.Date(2026, 1, 3, 12, 34, 56, 0, time.UTC)},
		{in: "2026-01-03T12:34:56+09:00", want: time.Date(2026, 1, 3, 3, 34, 56, 0, time.UTC)},
		{in: "2026-01-03 12:34:56Z", want: time.Date(2026, 1, 3, 12, 34, 56, 0, time.UTC)},
		{in: "2026-01-03 12:34:56", want: time.Date(2026, 1, 3, 12, 34, 56, 0, time.UTC)},
		{in: "2026-01-03T12:34:56.123456Z", want: time.Date(2026, 1, 3, 12, 34, 56, 123456000, time.UTC)},
		{in: "2026-01-03T12:34", want: time.Date(2026, 1, 3, 12, 34, 0, 0, time.UTC)},
		{in: "2026-01-03T12:34+09:00", want: time.Date(2026, 1, 3, 3, 34, 0, 0, time.UTC)},
		{in: "2026-01-03", want: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)},
		{in: "  2026-01-03T12:34:56Z  ", want: time.Date(2026, 1, 3, 12, 34, 56, 0, time.UTC)},
		{in: "12:34", wantErr: true},
		{in: "not a date", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDateTimeUTC(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDateTimeUTC(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDateTimeUTC(%q) unexpected error: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDateTimeUTC(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseDateTimeUTC(%q) location = %v, want UTC", tt.in, got.Location())
			}
		})
	}
}

func TestNormalizeTimeStrategies(t *testing.T) {
	want := time.Date(2026, 1, 3, 12, 34, 56, 0, time.UTC)
	tests := []struct {
		name string
		raw  RawRecord
		want time.Time
	}{
		{"epoch seconds", RawRecord{"timestamp": float64(1767443696)}, want},
		{"epoch milliseconds", RawRecord{"ts": float64(1767443696000)}, want},
		{"datetime alias", RawRecord{"dateTime": "2026-01-03T12:34:56Z"}, want},
		{"datetime with offset", RawRecord{"event_time": "2026-01-03T21:34:56+09:00"}, want},
		{"bad alias falls through to next", RawRecord{"datetime": "garbage", "eventTime": "2026-01-03T12:34:56Z"}, want},
		{"date plus time", RawRecord{"date": "2026-01-03", "time": "12:34:56"}, want},
		{"unparseable time field rescued by date combo", RawRecord{"time": "12:34", "date": "2026-01-03"}, time.Date(2026, 1, 3, 12, 34, 0, 0, time.UTC)},
		{"date only", RawRecord{"date": "2026-01-03"}, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Normalize([]RawRecord{tt.raw})
			if len(events) != 1 {
				t.Fatalf("Normalize() kept %d events, want 1", len(events))
			}
			if !events[0].TimeUTC.Equal(tt.want) {
				t.Errorf("TimeUTC = %v, want %v", events[0].TimeUTC, tt.want)
			}
		})
	}
}

func TestNormalizeDropsRecordsWithoutTime(t *testing.T) {
	records := []RawRecord{
		{"event": "CPI", "country": "US"},
		{"date": "2026-01-03", "time": "never oclock"},
		{"datetime": "not a date"},
		{"timestamp": "1767443696"},
	}
	if got := Normalize(records); len(got) != 0 {
		t.Errorf("Normalize() kept %d records, want 0", len(got))
	}
}

func TestNormalizeNameAndCountry(t *testing.T) {
	tests := []struct {
		name        string
		raw         RawRecord
		wantName    string
		wantCountry string
	}{
		{
			name:        "placeholders when fields absent",
			raw:         RawRecord{"datetime": "2026-01-03T12:00:00Z"},
			wantName:    UnknownName,
			wantCountry: UnknownCountry,
		},
		{
			name:        "coded country preferred over display name",
			raw:         RawRecord{"datetime": "2026-01-03T12:00:00Z", "country": "United States", "countryCode": "US", "event": "CPI"},
			wantName:    "CPI",
			wantCountry: "US",
		},
		{
			name:        "first name alias wins",
			raw:         RawRecord{"datetime": "2026-01-03T12:00:00Z", "title": "second", "event": "first"},
			wantName:    "first",
			wantCountry: UnknownCountry,
		},
		{
			name:        "blank values skipped, later alias used",
			raw:         RawRecord{"datetime": "2026-01-03T12:00:00Z", "event": "   ", "name": " Non-Farm Payrolls "},
			wantName:    "Non-Farm Payrolls",
			wantCountry: UnknownCountry,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Normalize([]RawRecord{tt.raw})
			if len(events) != 1 {
				t.Fatalf("Normalize() kept %d events, want 1", len(events))
			}
			if events[0].Name != tt.wantName {
				t.Errorf("Name = %q, want %q", events[0].Name, tt.wantName)
			}
			if events[0].Country != tt.wantCountry {
				t.Errorf("Country = %q, want %q", events[0].Country, tt.wantCountry)
			}
		})
	}
}
