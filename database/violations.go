package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopshield-service/models"
)

const violationColumns = "violation_id, product_id, violated_rule_code, violated_rule_description, detected_at, status, resolution_timestamp"

// CreateViolation inserts a new violation record and fills in its id
func (s *Service) CreateViolation(ctx context.Context, v *models.Violation) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO violations (product_id, violated_rule_code, violated_rule_description, detected_at, status) VALUES (?, ?, ?, ?, ?)",
		v.ProductID, v.RuleCode, v.RuleDescription, v.DetectedAt, v.Status)
	if err != nil {
		return fmt.Errorf("failed to insert violation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get violation id: %w", err)
	}
	v.ViolationID = id
	return nil
}

// GetAllViolations returns every violation, most recent first
func (s *Service) GetAllViolations(ctx context.Context) ([]models.Violation, error) {
	return s.queryViolations(ctx,
		"SELECT "+violationColumns+" FROM violations ORDER BY detected_at DESC")
}

// GetViolationsByStatus returns violations with the given status, most recent first
func (s *Service) GetViolationsByStatus(ctx context.Context, status models.ViolationStatus) ([]models.Violation, error) {
	return s.queryViolations(ctx,
		"SELECT "+violationColumns+" FROM violations WHERE status = ? ORDER BY detected_at DESC", status)
}

// GetViolationsByProduct returns all violations recorded for one product
func (s *Service) GetViolationsByProduct(ctx context.Context, productID int64) ([]models.Violation, error) {
	return s.queryViolations(ctx,
		"SELECT "+violationColumns+" FROM violations WHERE product_id = ? ORDER BY detected_at DESC", productID)
}

// GetViolationsPage returns one page of violations with an optional status filter
func (s *Service) GetViolationsPage(ctx context.Context, page, size int, status *models.ViolationStatus) (*models.ViolationPage, error) {
	var total int64
	var violations []models.Violation
	var err error

	if status != nil {
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM violations WHERE status = ?", *status).Scan(&total)
	} else {
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM violations").Scan(&total)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to count violations: %w", err)
	}

	offset := page * size
	if status != nil {
		violations, err = s.queryViolations(ctx,
			"SELECT "+violationColumns+" FROM violations WHERE status = ? ORDER BY detected_at DESC LIMIT ? OFFSET ?",
			*status, size, offset)
	} else {
		violations, err = s.queryViolations(ctx,
			"SELECT "+violationColumns+" FROM violations ORDER BY detected_at DESC LIMIT ? OFFSET ?",
			size, offset)
	}
	if err != nil {
		return nil, err
	}

	return &models.ViolationPage{
		Violations: violations,
		Page:       page,
		Size:       size,
		TotalCount: total,
	}, nil
}

// GetViolationByID returns one violation or ErrNotFound
func (s *Service) GetViolationByID(ctx context.Context, id int64) (*models.Violation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+violationColumns+" FROM violations WHERE violation_id = ?", id)
	v, err := scanViolation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query violation: %w", err)
	}
	return v, nil
}

// ResolveViolation closes an unresolved violation, recording a resolution
// with the given notes. The resolution insert and the status flip commit
// together so a RESOLVED violation always has its resolution row.
func (s *Service) ResolveViolation(ctx context.Context, violationID int64, notes string) (*models.Resolution, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status models.ViolationStatus
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM violations WHERE violation_id = ?", violationID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query violation status: %w", err)
	}
	if status == models.ViolationResolved {
		return nil, errors.New("violation already resolved")
	}

	resolvedAt := time.Now()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO resolutions (violation_id, notes, resolved_at) VALUES (?, ?, ?)",
		violationID, notes, resolvedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert resolution: %w", err)
	}

	resolutionID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get resolution id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE violations SET status = ?, resolution_timestamp = ? WHERE violation_id = ?",
		models.ViolationResolved, resolvedAt, violationID)
	if err != nil {
		return nil, fmt.Errorf("failed to update violation status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit resolution: %w", err)
	}

	return &models.Resolution{
		ResolutionID: resolutionID,
		ViolationID:  violationID,
		Notes:        notes,
		ResolvedAt:   resolvedAt,
	}, nil
}

func (s *Service) queryViolations(ctx context.Context, query string, args ...any) ([]models.Violation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	var violations []models.Violation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan violation row: %w", err)
		}
		violations = append(violations, *v)
	}
	return violations, rows.Err()
}

func scanViolation(row rowScanner) (*models.Violation, error) {
	var v models.Violation
	var description sql.NullString
	var resolvedAt sql.NullTime

	if err := row.Scan(&v.ViolationID, &v.ProductID, &v.RuleCode, &description, &v.DetectedAt, &v.Status, &resolvedAt); err != nil {
		return nil, err
	}

	v.RuleDescription = description.String
	if resolvedAt.Valid {
		v.ResolutionTimestamp = &resolvedAt.Time
	}
	return &v, nil
}
