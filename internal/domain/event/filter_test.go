package event

import (
	"testing"
	"time"
)

var filterNow = time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)

func mkEvent(name, country string, at time.Time) Event {
	return Event{Name: name, Country: country, TimeUTC: at}
}

func baseCriteria() Criteria {
	return Criteria{
		NowUTC:         filterNow,
		LookaheadHours: 24,
		Countries:      []string{"US", "EU", "JP"},
		Keywords:       []string{"CPI", "Interest Rate Decision"},
		MaxItems:       50,
	}
}

func TestFilterTimeWindow(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		keep bool
	}{
		{"one second in the past", filterNow.Add(-time.Second), false},
		{"exactly now", filterNow, true},
		{"inside window", filterNow.Add(12 * time.Hour), true},
		{"exactly at horizon", filterNow.Add(24 * time.Hour), true},
		{"one second past horizon", filterNow.Add(24*time.Hour + time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter([]Event{mkEvent("CPI", "US", tt.at)}, baseCriteria())
			if kept := len(got) == 1; kept != tt.keep {
				t.Errorf("kept = %v, want %v", kept, tt.keep)
			}
		})
	}
}

func TestFilterCountryGate(t *testing.T) {
	at := filterNow.Add(time.Hour)
	tests := []struct {
		name      string
		countries []string
		country   string
		keep      bool
	}{
		{"allowed country", []string{"US", "EU"}, "US", true},
		{"case insensitive", []string{"US", "EU"}, "us", true},
		{"padded country value", []string{"US"}, " US ", true},
		{"not in allow-list", []string{"US", "EU"}, "DE", false},
		{"empty allow-list admits all", nil, "DE", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCriteria()
			c.Countries = tt.countries
			got := Filter([]Event{mkEvent("CPI", tt.country, at)}, c)
			if kept := len(got) == 1; kept != tt.keep {
				t.Errorf("kept = %v, want %v", kept, tt.keep)
			}
		})
	}
}

func TestFilterMatchGate(t *testing.T) {
	at := filterNow.Add(time.Hour)
	tests := []struct {
		name  string
		ev    Event
		rules []Rule
		keep  bool
	}{
		{"keyword substring hit", mkEvent("Consumer Price Index (CPI) YoY", "US", at), nil, true},
		{"keyword is case and spacing insensitive", mkEvent("interest  rate   decision", "EU", at), nil, true},
		{"no keyword no rule", mkEvent("PMI Flash", "US", at), nil, false},
		{"explicit rule rescues non-keyword event", mkEvent("PMI Flash", "US", at), []Rule{{Country: "us", NameContains: "pmi"}}, true},
		{"rule for another country does not", mkEvent("PMI Flash", "US", at), []Rule{{Country: "JP", NameContains: "PMI"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCriteria()
			c.MatchRules = tt.rules
			got := Filter([]Event{tt.ev}, c)
			if kept := len(got) == 1; kept != tt.keep {
				t.Errorf("kept = %v, want %v", kept, tt.keep)
			}
		})
	}
}

func TestFilterIgnoreAlwaysWins(t *testing.T) {
	at := filterNow.Add(time.Hour)
	c := baseCriteria()
	c.MatchRules = []Rule{{Country: "US", NameContains: "CPI"}}
	c.IgnoreRules = []Rule{{Country: "US", NameContains: "cpi"}}

	// Matches a keyword and an explicit match rule, yet the ignore rule drops it.
	got := Filter([]Event{mkEvent("CPI MoM", "US", at)}, c)
	if len(got) != 0 {
		t.Fatalf("Filter() kept %d events, want 0", len(got))
	}
}

func TestFilterOrderingAndTruncation(t *testing.T) {
	evs := []Event{
		mkEvent("CPI d", "US", filterNow.Add(9*time.Hour)),
		mkEvent("CPI a", "US", filterNow.Add(2*time.Hour)),
		mkEvent("CPI e", "US", filterNow.Add(11*time.Hour)),
		mkEvent("CPI c", "US", filterNow.Add(7*time.Hour)),
		mkEvent("CPI b", "US", filterNow.Add(5*time.Hour)),
	}
	c := baseCriteria()
	c.MaxItems = 3

	got := Filter(evs, c)
	if len(got) != 3 {
		t.Fatalf("Filter() kept %d events, want 3", len(got))
	}
	wantOrder := []string{"CPI a", "CPI b", "CPI c"}
	for i, want := range wantOrder {
		if got[i].Name != want {
			t.Errorf("got[%d].Name = %q, want %q", i, got[i].Name, want)
		}
	}
}

func TestFilterStableForEqualTimestamps(t *testing.T) {
	at := filterNow.Add(time.Hour)
	evs := []Event{
		mkEvent("CPI first", "US", at),
		mkEvent("CPI second", "US", at),
		mkEvent("CPI third", "US", at),
	}
	got := Filter(evs, baseCriteria())
	if len(got) != 3 {
		t.Fatalf("Filter() kept %d events, want 3", len(got))
	}
	for i, want := range []string{"CPI first", "CPI second", "CPI third"} {
		if got[i].Name != want {
			t.Errorf("got[%d].Name = %q, want %q", i, got[i].Name, want)
		}
	}
}
