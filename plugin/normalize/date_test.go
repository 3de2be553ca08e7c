package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	june10 := time.Date(2024, time.June, 10, 15, 4, 0, 0, time.Local)

	tests := []struct {
		name   string
		input  any
		want   string
		wantOK bool
	}{
		{"dotted", "2024.6.10", "2024-06-10", true},
		{"dotted padded", "2024.06.01", "2024-06-01", true},
		{"dotted invalid day", "2024.2.30", "", false},
		{"canonical", "2024-06-10", "2024-06-10", true},
		{"unpadded dashes", "2024-6-1", "2024-06-01", true},
		{"slashes", "2024/06/10", "2024-06-10", true},
		{"with clock", "2024-06-10 00:00:00", "2024-06-10", true},
		{"slashes with clock", "2024/6/10 08:30:00", "2024-06-10", true},
		{"native time", june10, "2024-06-10", true},
		{"native pointer", &june10, "2024-06-10", true},
		{"nil pointer", (*time.Time)(nil), "", false},
		{"serial int", 45292, "2024-01-01", true},
		{"serial float", 45453.75, "2024-06-10", true},
		{"serial string", "45453", "2024-06-10", true},
		{"serial one", 1, "1899-12-31", true},
		{"serial zero", 0, "", false},
		{"serial negative", -5.0, "", false},
		{"serial too large", 2958466, "", false},
		{"words", "next tuesday", "", false},
		{"empty", "", "", false},
		{"nil", nil, "", false},
		{"bool", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Date(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateStrategies_Order(t *testing.T) {
	names := make([]string, 0, len(DateStrategies))
	for _, s := range DateStrategies {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"dotted", "native", "layout", "serial"}, names)
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "2024.6.10", DisplayDate("2024-06-10"))
	assert.Equal(t, "2024.12.1", DisplayDate("2024-12-01"))
	assert.Equal(t, "2024.6.10", DisplayDate("2024.6.10"))
	assert.Equal(t, "garbage", DisplayDate("garbage"))
}

func TestDisplayDate_RoundTrip(t *testing.T) {
	day := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i++ {
		key := KeyOf(day.AddDate(0, 0, i))
		got, ok := Date(DisplayDate(key))
		require.True(t, ok, key)
		require.Equal(t, key, got)
	}
}

func TestIsDateKey(t *testing.T) {
	assert.True(t, IsDateKey("2024-06-10"))
	assert.False(t, IsDateKey("2024-6-10"))
	assert.False(t, IsDateKey("2024-02-30"))
	assert.False(t, IsDateKey("2024.06.10"))
	assert.False(t, IsDateKey(""))
}
