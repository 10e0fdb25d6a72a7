package kvstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPGStore_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPGStore(mock, "")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "public"."kv_document"`)).WithArgs("patientcare_reviews").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))
	data, err := s.Get(context.Background(), "patientcare_reviews")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected [], got %s", data)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "public"."kv_document"`)).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStore_Put(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPGStore(mock, "")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "public"."kv_document"`)).WithArgs("k", []byte(`{"n":1}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := s.Put(context.Background(), "k", []byte(`{"n":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStore_UsesConfiguredSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPGStore(mock, "tenant_a")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "tenant_a"."kv_document" WHERE key = $1`)).WithArgs("k").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{}`)))
	if _, err := s.Get(context.Background(), "k"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenant_a"."kv_document"`)).WithArgs("k", []byte(`{}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := s.Put(context.Background(), "k", []byte(`{}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "tenant_a"."kv_document" WHERE key = $1 FOR UPDATE`)).WithArgs("k").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenant_a"."kv_document"`)).WithArgs("k", []byte(`{"n":1}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	err = UpdateJSON(context.Background(), s, "k", func(c *counter) error {
		c.N++
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateJSON: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStore_UpdateLocksRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPGStore(mock, "")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "public"."kv_document" WHERE key = $1 FOR UPDATE`)).WithArgs("counter").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{"n":4}`)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "public"."kv_document"`)).WithArgs("counter", []byte(`{"n":5}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = UpdateJSON(context.Background(), s, "counter", func(c *counter) error {
		c.N++
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateJSON: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStore_UpdateMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPGStore(mock, "")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "public"."kv_document"`)).WithArgs("counter").WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "public"."kv_document"`)).WithArgs("counter", []byte(`{"n":1}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = UpdateJSON(context.Background(), s, "counter", func(c *counter) error {
		c.N++
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateJSON: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStore_UpdateFnErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPGStore(mock, "")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "public"."kv_document"`)).WithArgs("k").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = s.Update(context.Background(), "k", func([]byte, bool) ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
