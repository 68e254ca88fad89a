package commute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seconds(v float64) *float64 { return &v }

func TestReconcilePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		start  string
		end    string
		live   *float64
		routed float64
		want   Result
	}{
		{
			name: "manual wins", start: "08:00", end: "08:30", live: seconds(2000), routed: 3600,
			want: Result{DurationMinutes: 30, EstimatedMinutes: 60, Source: SourceManual},
		},
		{
			name: "live without manual", live: seconds(2000), routed: 3600,
			want: Result{DurationMinutes: 33, EstimatedMinutes: 60, Source: SourceLive},
		},
		{
			name: "routed only", routed: 1500,
			want: Result{DurationMinutes: 25, EstimatedMinutes: 25, Source: SourceRouted},
		},
		{
			name: "end before start falls through", start: "09:00", end: "08:00", routed: 1800,
			want: Result{DurationMinutes: 30, EstimatedMinutes: 30, Source: SourceRouted},
		},
		{
			name: "equal times fall through", start: "09:00", end: "09:00", live: seconds(600), routed: 1800,
			want: Result{DurationMinutes: 10, EstimatedMinutes: 30, Source: SourceLive},
		},
		{
			name: "only one manual time", start: "09:00", routed: 1800,
			want: Result{DurationMinutes: 30, EstimatedMinutes: 30, Source: SourceRouted},
		},
		{
			name: "seconds precision", start: "08:00:30", end: "08:45:10", routed: 600,
			want: Result{DurationMinutes: 44, EstimatedMinutes: 10, Source: SourceManual},
		},
		{
			name: "garbage manual time", start: "8am", end: "09:00", routed: 900,
			want: Result{DurationMinutes: 15, EstimatedMinutes: 15, Source: SourceRouted},
		},
		{
			name: "no sources", want: Result{Source: SourceRouted},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Reconcile(tc.start, tc.end, tc.live, tc.routed))
		})
	}
}

func TestReconcileNeverNegative(t *testing.T) {
	res := Reconcile("23:00", "01:00", seconds(-50), -10)
	assert.Equal(t, 0, res.DurationMinutes)
	assert.Equal(t, 0, res.EstimatedMinutes)
	assert.Equal(t, SourceLive, res.Source)
}

func TestParseClock(t *testing.T) {
	v, ok := ParseClock("07:45")
	assert.True(t, ok)
	assert.Equal(t, 7*3600+45*60, v)

	v, ok = ParseClock("07:45:09")
	assert.True(t, ok)
	assert.Equal(t, 7*3600+45*60+9, v)

	for _, bad := range []string{"", "7", "24:00", "12:60", "aa:bb", "1:2:3:4", "-1:00"} {
		_, ok := ParseClock(bad)
		assert.False(t, ok, bad)
	}
}
