package services

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"shopshield-service/models"
)

var sweepProductColumns = []string{
	"product_id",
	"name",
	"description",
	"image_url",
	"weight",
	"price",
	"packaging_info",
	"last_checked_timestamp",
}

func TestRunSweep(t *testing.T) {
	store, mock := newTestStore(t)

	// One worker keeps the sweep order deterministic
	sweeper := NewComplianceSweeper(store, time.Hour, 1)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WillReturnRows(sqlmock.NewRows(sweepProductColumns).
			AddRow(1, "Tea", "loose leaf", nil, 100.0, 10.0, "sealed box", nil).
			AddRow(2, "Sugar", nil, nil, 100.0, nil, "paper bag", nil))

	// Product 1 is compliant: only its timestamp advances
	mock.ExpectExec("UPDATE products SET last_checked_timestamp = (.+) WHERE product_id = (.+)").
		WithArgs(sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Product 2 is missing its price: the violation lands before the timestamp
	mock.ExpectExec("INSERT INTO violations \\(product_id, violated_rule_code, violated_rule_description, detected_at, status\\) VALUES \\((.+)\\)").
		WithArgs(int64(2), RulePriceMissing, sqlmock.AnyArg(), sqlmock.AnyArg(), models.ViolationUnresolved).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE products SET last_checked_timestamp = (.+) WHERE product_id = (.+)").
		WithArgs(sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sweeper.RunSweep(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet database expectations: %v", err)
	}
}

func TestRunSweepIsolatesProductFailures(t *testing.T) {
	store, mock := newTestStore(t)
	sweeper := NewComplianceSweeper(store, time.Hour, 1)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WillReturnRows(sqlmock.NewRows(sweepProductColumns).
			AddRow(1, "Tea", nil, nil, 100.0, nil, "sealed box", nil).
			AddRow(2, "Sugar", nil, nil, 100.0, 5.0, "paper bag", nil))

	// Product 1's violation insert fails: its timestamp must not advance
	mock.ExpectExec("INSERT INTO violations (.+)").
		WithArgs(int64(1), RulePriceMissing, sqlmock.AnyArg(), sqlmock.AnyArg(), models.ViolationUnresolved).
		WillReturnError(errors.New("insert test error"))

	// Product 2 is still checked
	mock.ExpectExec("UPDATE products SET last_checked_timestamp = (.+) WHERE product_id = (.+)").
		WithArgs(sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sweeper.RunSweep(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet database expectations: %v", err)
	}
}

func TestRunSweepSkipsWhileSweepInFlight(t *testing.T) {
	store, mock := newTestStore(t)
	sweeper := NewComplianceSweeper(store, time.Hour, 1)

	// Simulate a sweep still in flight: the tick must not touch the database
	sweeper.sweeping.Store(true)
	sweeper.RunSweep(context.Background())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("skipped sweep touched the database: %v", err)
	}
	if !sweeper.sweeping.Load() {
		t.Error("skipped sweep must not release the in-flight guard")
	}

	// Once the guard is released the next sweep runs normally
	sweeper.sweeping.Store(false)
	mock.ExpectQuery("SELECT (.+) FROM products").
		WillReturnRows(sqlmock.NewRows(sweepProductColumns))
	sweeper.RunSweep(context.Background())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet database expectations: %v", err)
	}
}

func TestSweeperStartStop(t *testing.T) {
	store, _ := newTestStore(t)
	sweeper := NewComplianceSweeper(store, time.Hour, 4)

	if sweeper.IsRunning() {
		t.Error("sweeper must not run before Start")
	}
	sweeper.Start()
	if !sweeper.IsRunning() {
		t.Error("sweeper should be running after Start")
	}
	sweeper.Stop()
	if sweeper.IsRunning() {
		t.Error("sweeper should be stopped after Stop")
	}
}
