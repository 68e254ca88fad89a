package db

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
)

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	for range schema {
		mock.ExpectExec(`CREATE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	if err := EnsureSchema(context.Background(), mock); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureSchemaStopsOnError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnError(errors.New("boom"))

	if err := EnsureSchema(context.Background(), mock); err == nil {
		t.Fatalf("expected error")
	}
}
