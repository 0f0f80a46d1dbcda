package pricing

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}

func TestBillableHours(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int64
	}{
		{"exact hours", "2026-09-01T09:00:00Z", "2026-09-01T11:00:00Z", 2},
		{"partial hour rounds up", "2026-09-01T09:00:00Z", "2026-09-01T11:30:00Z", 3},
		{"one minute bills one hour", "2026-09-01T09:00:00Z", "2026-09-01T09:01:00Z", 1},
		{"sub-hour window bills minimum", "2026-09-01T09:00:00Z", "2026-09-01T09:59:00Z", 1},
		{"full day", "2026-09-01T00:00:00Z", "2026-09-02T00:00:00Z", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BillableHours(mustTime(t, tt.start), mustTime(t, tt.end))
			if got != tt.want {
				t.Errorf("BillableHours() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	start := mustTime(t, "2026-09-01T09:00:00Z")
	end := mustTime(t, "2026-09-01T11:30:00Z")

	got := Quote(100, start, end)
	if got != 300 {
		t.Errorf("Quote() = %v, want 300", got)
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   int64
	}{
		{"whole amount", 300, 30000},
		{"fractional amount", 49.99, 4999},
		{"rounding up", 10.005, 1001},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinorUnits(tt.amount); got != tt.want {
				t.Errorf("MinorUnits(%v) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}
