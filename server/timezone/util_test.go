package timezone

import (
	"testing"
	"time"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		want    string
		wantErr bool
	}{
		{name: "empty string defaults to local", tz: "", want: time.Local.String()},
		{name: "Local", tz: "Local", want: time.Local.String()},
		{name: "UTC", tz: "UTC", want: "UTC"},
		{name: "Asia/Shanghai", tz: "Asia/Shanghai", want: "Asia/Shanghai"},
		{name: "invalid timezone", tz: "Mars/Olympus", want: time.Local.String(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseTimezone(tt.tz)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimezone(%q) error = %v, wantErr %v", tt.tz, err, tt.wantErr)
			}
			if loc == nil {
				t.Fatal("location should never be nil")
			}
			if loc.String() != tt.want {
				t.Errorf("ParseTimezone(%q) = %s, want %s", tt.tz, loc, tt.want)
			}
		})
	}
}

func TestIsValidTimezone(t *testing.T) {
	if !IsValidTimezone("Asia/Shanghai") {
		t.Error("Asia/Shanghai should be valid")
	}
	if IsValidTimezone("Invalid/Zone") {
		t.Error("Invalid/Zone should be invalid")
	}
}

func TestStartOfDay(t *testing.T) {
	shanghai, err := ParseTimezone(TimezoneAsiaShanghai)
	if err != nil {
		t.Fatal(err)
	}
	// 2024-06-16 20:00 UTC is already Monday in Shanghai.
	ts := time.Date(2024, 6, 16, 20, 0, 0, 0, time.UTC)

	start := StartOfDay(ts, shanghai)
	want := time.Date(2024, 6, 17, 0, 0, 0, 0, shanghai)
	if !start.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", start, want)
	}
	if got := DateKey(ts, shanghai); got != "2024-06-17" {
		t.Errorf("DateKey = %s, want 2024-06-17", got)
	}
	if got := DateKey(ts, time.UTC); got != "2024-06-16" {
		t.Errorf("DateKey = %s, want 2024-06-16", got)
	}
}

func TestNowInTimezone(t *testing.T) {
	now := NowInTimezone(time.UTC)
	if now.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", now.Location())
	}
	if time.Since(now) > time.Minute {
		t.Error("NowInTimezone should be close to time.Now")
	}
}
