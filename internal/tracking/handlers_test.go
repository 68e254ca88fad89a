package tracking

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-commutepro/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func postJSON(app *fiber.App, path, body string) (*http.Response, error) {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return app.Test(req)
}

func TestTrackingHandlers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService(mock, nil, fakeGate{allowed: true}, &fakeSink{}, nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), svc, auth.WithUserID("user-1"))

	expectStart(mock)
	resp, err := postJSON(app, "/tracking/sessions", `{}`)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status: %v", err)
	}

	svc.mu.Lock()
	sessionID := svc.byUser["user-1"].id
	svc.mu.Unlock()

	mock.ExpectQuery(`INSERT INTO track_points`).
		WithArgs(sessionID, 3.1, 101.6, pgxmock.AnyArg(), 0.0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))
	resp, err = postJSON(app, "/tracking/sessions/"+sessionID+"/points", `{"lat":3.1,"lng":101.6}`)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("point status: %v", err)
	}

	resp, err = postJSON(app, "/tracking/sessions/"+sessionID+"/points", `{"lat":3.1,"lng":101.6}`)
	if err != nil || resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected duplicate point to be accepted without storing: %v", err)
	}

	resp, err = postJSON(app, "/tracking/sessions/"+sessionID+"/points", `{"lat":3.1}`)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request: %v", err)
	}

	resp, err = postJSON(app, "/tracking/sessions/unknown/points", `{"lat":3.1,"lng":101.6}`)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found: %v", err)
	}

	mock.ExpectExec(`UPDATE track_sessions\s+SET ended_at`).
		WithArgs(sessionID, "stopped", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`FROM track_sessions WHERE id=\$1 AND user_id=\$2`).
		WithArgs(sessionID, "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "started_at", "ended_at", "dist", "status", "path_wkt"}).
			AddRow(sessionID, time.Now().Add(-time.Minute), nil, 0.0, "stopped", nil))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM track_points`).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	resp, err = postJSON(app, "/tracking/sessions/"+sessionID+"/stop", ``)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status: %v", err)
	}

	mock.ExpectQuery(`FROM track_points tp`).
		WithArgs(sessionID, "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "session_id", "lat", "lng", "recorded_at", "speed_mps", "created_at"}))
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/tracking/sessions/"+sessionID+"/points", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("points status: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTrackingHandlersLocationDisabled(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), NewService(nil, nil, fakeGate{}, nil, nil), auth.WithUserID("user-1"))

	resp, _ := postJSON(app, "/tracking/sessions", `{}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", resp.StatusCode)
	}
}

func TestTrackingHandlersUnauthenticated(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), NewService(nil, nil, nil, nil, nil), auth.WithUserID(""))

	resp, _ := postJSON(app, "/tracking/sessions", `{}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}
}
