package stats

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"backend-commutepro/internal/auth"
	"backend-commutepro/internal/commute"
	"backend-commutepro/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	records []commute.TripRecord
	err     error
}

func (f fakeHistory) List(context.Context, string) ([]commute.TripRecord, error) {
	return f.records, f.err
}

type fakeGate struct {
	enabled bool
	err     error
}

func (f fakeGate) AISuggestions(context.Context, string) (bool, error) {
	return f.enabled, f.err
}

type sent struct{ userID, title, body string }

type fakeNotifier struct{ sent []sent }

func (f *fakeNotifier) Notify(userID, title, body string) {
	f.sent = append(f.sent, sent{userID, title, body})
}

func TestTipNotifiesWhenEnabled(t *testing.T) {
	n := &fakeNotifier{}
	svc := NewService(fakeHistory{records: sampleHistory()}, fakeGate{enabled: true}, n, Options{}, logger.Discard())

	msg, notified, err := svc.Tip(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, notified)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "user-1", n.sent[0].userID)
	assert.Equal(t, msg, n.sent[0].body)
	assert.Contains(t, msg, "Tuesday commutes are the longest (40 mins)")
}

func TestTipSkipsNotification(t *testing.T) {
	cases := []struct {
		name    string
		history fakeHistory
		gate    fakeGate
	}{
		{"disabled", fakeHistory{records: sampleHistory()}, fakeGate{}},
		{"gate error", fakeHistory{records: sampleHistory()}, fakeGate{enabled: true, err: errors.New("db down")}},
		{"no history", fakeHistory{}, fakeGate{enabled: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := &fakeNotifier{}
			svc := NewService(tc.history, tc.gate, n, Options{}, logger.Discard())

			msg, notified, err := svc.Tip(context.Background(), "user-1")
			require.NoError(t, err)
			assert.False(t, notified)
			assert.NotEmpty(t, msg)
			assert.Empty(t, n.sent)
		})
	}
}

func TestTipWithoutLoggerSurvivesGateError(t *testing.T) {
	n := &fakeNotifier{}
	svc := NewService(fakeHistory{records: sampleHistory()}, fakeGate{enabled: true, err: errors.New("db down")}, n, Options{}, nil)

	msg, notified, err := svc.Tip(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, notified)
	assert.NotEmpty(t, msg)
	assert.Empty(t, n.sent)
}

func TestServiceErrors(t *testing.T) {
	svc := NewService(fakeHistory{err: errors.New("db down")}, fakeGate{}, &fakeNotifier{}, Options{}, logger.Discard())

	_, err := svc.Insights(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = svc.Tip(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Insights(context.Background(), "user-1")
	assert.EqualError(t, err, "db down")
	_, _, err = svc.Tip(context.Background(), "user-1")
	assert.EqualError(t, err, "db down")
}

func newTestApp(svc *Service, userID string) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/insights"), svc, auth.WithUserID(userID))
	return app
}

func TestInsightsHandlers(t *testing.T) {
	n := &fakeNotifier{}
	svc := NewService(fakeHistory{records: sampleHistory()}, fakeGate{enabled: true}, n, Options{AssumedSpeedKmh: 35}, logger.Discard())
	app := newTestApp(svc, "user-1")

	resp, err := app.Test(httptest.NewRequest("GET", "/insights", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var in Insights
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&in))
	assert.Equal(t, 3, in.TripCount)
	assert.Equal(t, "Monday", in.BusiestWeekday)
	assert.Equal(t, "07:45", in.PeakWindow.StartLabel)

	resp, err = app.Test(httptest.NewRequest("POST", "/insights/tip", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"notified":true`)
	assert.Len(t, n.sent, 1)
}

func TestInsightsHandlersErrors(t *testing.T) {
	svc := NewService(fakeHistory{err: errors.New("db down")}, fakeGate{}, &fakeNotifier{}, Options{}, logger.Discard())

	resp, err := newTestApp(svc, "").Test(httptest.NewRequest("GET", "/insights", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = newTestApp(svc, "user-1").Test(httptest.NewRequest("POST", "/insights/tip", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
