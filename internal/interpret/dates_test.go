package interpret

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	// testRef is Tuesday, March 10, 2026.
	tests := []struct {
		utterance string
		want      time.Time
		wantOK    bool
	}{
		{"today", day(2026, time.March, 10), true},
		{"Tomorrow.", day(2026, time.March, 11), true},
		{"yesterday", day(2026, time.March, 9), true},
		{"the day after tomorrow", day(2026, time.March, 12), true},
		{"in 30 days", day(2026, time.April, 9), true},
		{"in two weeks", day(2026, time.March, 24), true},
		{"in three months", day(2026, time.June, 10), true},
		{"10 days from now", day(2026, time.March, 20), true},
		{"five days after today", day(2026, time.March, 15), true},
		{"next friday", day(2026, time.March, 13), true},
		{"this tuesday", day(2026, time.March, 10), true},
		{"next tuesday", day(2026, time.March, 17), true},
		{"end of the month", day(2026, time.March, 31), true},
		{"April 15th", day(2026, time.April, 15), true},
		{"the 15th of March", day(2026, time.March, 15), true},
		{"march 1st", day(2027, time.March, 1), true},
		{"March 30, 2026", day(2026, time.March, 30), true},
		{"2026-05-01", day(2026, time.May, 1), true},
		{"as soon as possible", time.Time{}, false},
		{"", time.Time{}, false},
		{"2026", time.Time{}, false},
		{"15", time.Time{}, false},
		{"3/4/5/6", time.Time{}, false},
		{"March 4, 1850", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			got, ok := NormalizeDate(tt.utterance, testRef)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalizeDate_SkipsImpossibleDays(t *testing.T) {
	got, ok := NormalizeDate("February 29", testRef)

	assert.True(t, ok)
	assert.Equal(t, 2028, got.Year())
}

func TestNormalizeDate_ClampsMonthEnds(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		ref       time.Time
		want      time.Time
		utterance string
	}{
		{utterance: "in one month", ref: day(2026, time.January, 31), want: day(2026, time.February, 28)},
		{utterance: "in a month", ref: day(2028, time.January, 30), want: day(2028, time.February, 29)},
		{utterance: "two months from now", ref: day(2026, time.January, 31), want: day(2026, time.March, 31)},
		{utterance: "in 1 month", ref: day(2026, time.August, 31), want: day(2026, time.September, 30)},
		{utterance: "in 13 months", ref: day(2026, time.January, 31), want: day(2027, time.February, 28)},
		{utterance: "in three months", ref: day(2026, time.November, 15), want: day(2027, time.February, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.utterance+" from "+tt.ref.Format("Jan 2"), func(t *testing.T) {
			got, ok := NormalizeDate(tt.utterance, tt.ref)
			assert.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}
