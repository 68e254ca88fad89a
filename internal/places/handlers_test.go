package places

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

func TestPlaceHandlers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO saved_places`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Home", "", 3.1, 101.6).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("place-1", time.Now()))
	mock.ExpectQuery(`FROM saved_places WHERE user_id=\$1`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(placeColumns).AddRow("place-1", "user-1", "Home", "", 3.1, 101.6, time.Now()))
	mock.ExpectExec(`DELETE FROM saved_places`).
		WithArgs("user-1", "Home").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	app := fiber.New()
	RegisterRoutes(app.Group("/places"), NewService(mock), auth.WithUserID("user-1"))

	req := httptest.NewRequest(http.MethodPut, "/places/", bytes.NewBufferString(`{"label":"Home","lat":3.1,"lng":101.6}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/places/", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/places/Home", nil))
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %v", err)
	}
}

func TestPlaceHandlersBadRequest(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/places"), NewService(nil), auth.WithUserID("user-1"))

	req := httptest.NewRequest(http.MethodPut, "/places/", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestPlaceHandlersUnauthenticated(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/places"), NewService(nil), auth.WithUserID(""))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/places/", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}
}
