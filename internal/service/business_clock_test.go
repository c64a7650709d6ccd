package service

import (
	"errors"
	"testing"
	"time"
)

func TestParseResetTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ResetTime
		wantErr bool
	}{
		{in: "00:00", want: ResetTime{}},
		{in: "06:30", want: ResetTime{Hour: 6, Minute: 30}},
		{in: "23:59", want: ResetTime{Hour: 23, Minute: 59}},
		{in: "24:00", wantErr: true},
		{in: "6am", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseResetTime(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidResetTime) {
				t.Errorf("ParseResetTime(%q) error = %v, want ErrInvalidResetTime", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseResetTime(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseResetTime(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got.String() != tt.in {
			t.Errorf("ResetTime.String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestBusinessDayOf(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	reset := ResetTime{Hour: 6}

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"before reset belongs to previous day", time.Date(2024, 3, 10, 5, 59, 0, 0, jakarta), "2024-03-09"},
		{"at reset starts new day", time.Date(2024, 3, 10, 6, 0, 0, 0, jakarta), "2024-03-10"},
		{"evening", time.Date(2024, 3, 10, 22, 0, 0, 0, jakarta), "2024-03-10"},
		{"utc instant converted to location", time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC), "2024-03-10"},
		{"month boundary", time.Date(2024, 3, 1, 1, 0, 0, 0, jakarta), "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BusinessDayOf(tt.at, reset, jakarta)
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("BusinessDayOf = %s, want %s", got.Format("2006-01-02"), tt.want)
			}
			if got.Location() != time.UTC || got.Hour() != 0 {
				t.Errorf("BusinessDayOf should return UTC midnight, got %v", got)
			}
		})
	}
}

func TestBusinessClockFollowsSettings(t *testing.T) {
	holder := NewSettingsHolder(Settings{TokenResetTime: ResetTime{}})
	at := time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC)
	clock := NewBusinessClock(holder, time.UTC).WithNow(func() time.Time { return at })

	if got := clock.Today().Format("2006-01-02"); got != "2024-05-02" {
		t.Fatalf("Today() = %s, want 2024-05-02", got)
	}

	holder.Set(Settings{TokenResetTime: ResetTime{Hour: 4}})
	if got := clock.Today().Format("2006-01-02"); got != "2024-05-01" {
		t.Fatalf("Today() after reset change = %s, want 2024-05-01", got)
	}
	if !clock.Now().Equal(at) {
		t.Errorf("Now() = %v, want %v", clock.Now(), at)
	}
}

func TestNewBusinessClockDefaultsToUTC(t *testing.T) {
	clock := NewBusinessClock(NewSettingsHolder(Settings{}), nil)
	if clock.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", clock.Location())
	}
}
