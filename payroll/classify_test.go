package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_ThresholdRule(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		wantExceeds  bool
		wantSchedule DepositSchedule
	}{
		{
			name:         "well under threshold",
			total:        "40000.00",
			wantExceeds:  false,
			wantSchedule: ScheduleMonthly,
		},
		{
			name:         "well over threshold",
			total:        "60000.00",
			wantExceeds:  true,
			wantSchedule: ScheduleSemiWeekly,
		},
		{
			name:         "exactly at threshold stays monthly",
			total:        "50000.00",
			wantExceeds:  false,
			wantSchedule: ScheduleMonthly,
		},
		{
			name:         "one cent over threshold",
			total:        "50000.01",
			wantExceeds:  true,
			wantSchedule: ScheduleSemiWeekly,
		},
		{
			name:         "zero total is monthly",
			total:        "0",
			wantExceeds:  false,
			wantSchedule: ScheduleMonthly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := MustDecimal(tt.total)

			got, err := Classify(total)
			require.NoError(t, err)

			assert.Equal(t, tt.wantExceeds, got.ExceedsThreshold)
			assert.Equal(t, tt.wantSchedule, got.Schedule)
		})
	}
}

func TestClassify_NegativeTotalRejected(t *testing.T) {
	// A negative aggregate can only come from corrupted filing data;
	// it must surface as an error, never be clamped to monthly.
	_, err := Classify(decimal.NewFromInt(-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeLiability)
}

func TestDepositSchedule_Valid(t *testing.T) {
	assert.True(t, ScheduleMonthly.Valid())
	assert.True(t, ScheduleSemiWeekly.Valid())
	assert.False(t, DepositSchedule("weekly").Valid())
	assert.False(t, DepositSchedule("").Valid())
}
