package schedule

import (
	"testing"
	"time"
)

func TestDailyNextAfter(t *testing.T) {
	d := Daily{Timezone: "UTC", Time: "10:00"}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before trigger, same day",
			now:  time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "after trigger, next day",
			now:  time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at trigger, next day",
			now:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.NextAfter(tt.now)
			if err != nil {
				t.Fatalf("NextAfter returned error: %v", err)
			}

			if !got.Equal(tt.want) {
				t.Errorf("NextAfter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDailyNextAfterTimezone(t *testing.T) {
	d := Daily{Timezone: "Europe/Madrid", Time: "09:00"}

	// 06:30 UTC in winter is 07:30 in Madrid, before the trigger.
	now := time.Date(2026, 1, 15, 6, 30, 0, 0, time.UTC)

	got, err := d.NextAfter(now)
	if err != nil {
		t.Fatalf("NextAfter returned error: %v", err)
	}

	loc, _ := time.LoadLocation("Europe/Madrid")
	want := time.Date(2026, 1, 15, 9, 0, 0, 0, loc)

	if !got.Equal(want) {
		t.Errorf("NextAfter = %v, want %v", got, want)
	}
}

func TestDailyValidate(t *testing.T) {
	if err := (Daily{Timezone: "UTC", Time: "25:00"}).Validate(); err == nil {
		t.Error("expected error for hour out of range")
	}

	if err := (Daily{Timezone: "Mars/Olympus", Time: "10:00"}).Validate(); err == nil {
		t.Error("expected error for bad timezone")
	}

	if err := (Daily{Timezone: "America/Guayaquil", Time: "9:30"}).Validate(); err != nil {
		t.Errorf("Validate returned error: %v", err)
	}
}

func TestNightWindowContains(t *testing.T) {
	w := NightWindow{StartHour: 23, EndHour: 8}

	tests := []struct {
		hour int
		want bool
	}{
		{23, true},
		{2, true},
		{7, true},
		{8, false},
		{12, false},
		{22, false},
	}

	for _, tt := range tests {
		moment := time.Date(2026, 3, 2, tt.hour, 15, 0, 0, time.UTC)
		if got := w.Contains(moment); got != tt.want {
			t.Errorf("Contains(hour=%d) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestNightWindowEnd(t *testing.T) {
	w := NightWindow{StartHour: 23, EndHour: 8}

	late := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	if got := w.End(late); got.Day() != 3 || got.Hour() != 8 {
		t.Errorf("End(23:30) = %v, want next day 08:00", got)
	}

	early := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	if got := w.End(early); got.Day() != 2 || got.Hour() != 8 {
		t.Errorf("End(03:00) = %v, want same day 08:00", got)
	}
}
