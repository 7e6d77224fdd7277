package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarter_StartEnd(t *testing.T) {
	tests := []struct {
		quarter   Quarter
		wantStart time.Time
		wantEnd   time.Time
	}{
		{Quarter{2024, 1}, date(2024, time.January, 1), date(2024, time.March, 31)},
		{Quarter{2024, 2}, date(2024, time.April, 1), date(2024, time.June, 30)},
		{Quarter{2024, 3}, date(2024, time.July, 1), date(2024, time.September, 30)},
		{Quarter{2024, 4}, date(2024, time.October, 1), date(2024, time.December, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.quarter.String(), func(t *testing.T) {
			assert.Equal(t, tt.wantStart, tt.quarter.Start())
			assert.Equal(t, tt.wantEnd, tt.quarter.End())
		})
	}
}

func TestQuarter_PrevNext(t *testing.T) {
	q1 := Quarter{Year: 2025, Q: 1}
	assert.Equal(t, Quarter{Year: 2024, Q: 4}, q1.Prev())
	assert.Equal(t, Quarter{Year: 2025, Q: 2}, q1.Next())

	q4 := Quarter{Year: 2024, Q: 4}
	assert.Equal(t, Quarter{Year: 2024, Q: 3}, q4.Prev())
	assert.Equal(t, Quarter{Year: 2025, Q: 1}, q4.Next())
}

func TestNewQuarter_Validation(t *testing.T) {
	_, err := NewQuarter(2024, 0)
	assert.ErrorIs(t, err, ErrInvalidQuarter)

	_, err = NewQuarter(2024, 5)
	assert.ErrorIs(t, err, ErrInvalidQuarter)

	_, err = NewQuarter(1800, 2)
	assert.ErrorIs(t, err, ErrInvalidYear)

	q, err := NewQuarter(2024, 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-Q3", q.String())
}

func TestLookbackWindow_Quarters(t *testing.T) {
	// Lookback for 2025: Q3+Q4 of 2023, Q1+Q2 of 2024.
	window := LookbackWindow(2025)

	assert.Equal(t, Quarter{Year: 2023, Q: 3}, window[0])
	assert.Equal(t, Quarter{Year: 2023, Q: 4}, window[1])
	assert.Equal(t, Quarter{Year: 2024, Q: 1}, window[2])
	assert.Equal(t, Quarter{Year: 2024, Q: 2}, window[3])
}

func TestWindowBounds(t *testing.T) {
	// July 1 of year-2 through June 30 of year-1, inclusive.
	start, end := WindowBounds(2025)

	assert.Equal(t, date(2023, time.July, 1), start)
	assert.Equal(t, date(2024, time.June, 30), end)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
