package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priorRecord(schedule DepositSchedule) *LookbackPeriod {
	return &LookbackPeriod{
		EmployerID:      "emp-1",
		LookbackYear:    2024,
		DepositSchedule: schedule,
	}
}

func TestDetectChange_NoPriorRecord(t *testing.T) {
	// First computation is a baseline, never a change, regardless of the
	// computed schedule.
	for _, schedule := range []DepositSchedule{ScheduleMonthly, ScheduleSemiWeekly} {
		change := DetectChange(schedule, nil, 2025)
		assert.False(t, change.Changed)
		assert.Nil(t, change.EffectiveDate)
	}
}

func TestDetectChange_SameSchedule(t *testing.T) {
	change := DetectChange(ScheduleMonthly, priorRecord(ScheduleMonthly), 2025)
	assert.False(t, change.Changed)
	assert.Nil(t, change.EffectiveDate)
}

func TestDetectChange_MonthlyToSemiWeekly(t *testing.T) {
	change := DetectChange(ScheduleSemiWeekly, priorRecord(ScheduleMonthly), 2025)

	require.True(t, change.Changed)
	require.NotNil(t, change.EffectiveDate)

	// Effective January 1 of the year after the lookback year.
	want := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, *change.EffectiveDate)
}

func TestDetectChange_SemiWeeklyToMonthly(t *testing.T) {
	change := DetectChange(ScheduleMonthly, priorRecord(ScheduleSemiWeekly), 2025)

	require.True(t, change.Changed)
	require.NotNil(t, change.EffectiveDate)
	assert.Equal(t, 2026, change.EffectiveDate.Year())
}

func TestLookbackPeriod_EffectiveYear(t *testing.T) {
	// The record's nominal year is the computation year; the schedule
	// governs deposits for the following calendar year.
	lp := &LookbackPeriod{LookbackYear: 2025}
	assert.Equal(t, 2026, lp.EffectiveYear())
}
