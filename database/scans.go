package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopshield-service/models"
)

// SaveOcrScanResult persists one OCR scan record and fills in its id.
// Scan records are insert-only; they are never updated after creation.
func (s *Service) SaveOcrScanResult(ctx context.Context, result *models.OcrScanResult) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO ocr_scan_results (user_id, image_path, extracted_text, scan_metadata, compliance_result, scanned_at) VALUES (?, ?, ?, ?, ?, ?)",
		result.UserID, result.ImagePath, result.ExtractedText, result.ScanMetadata, result.ComplianceResult, result.ScannedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ocr scan result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get ocr scan result id: %w", err)
	}
	result.ID = id
	return nil
}

// SaveCvScanResult persists one counterfeit-detection scan record and fills in its id
func (s *Service) SaveCvScanResult(ctx context.Context, result *models.CvScanResult) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO cv_scan_results (user_id, image_path, detection_result, confidence_score, analyzed_at) VALUES (?, ?, ?, ?, ?)",
		result.UserID, result.ImagePath, result.DetectionResult, result.ConfidenceScore, result.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cv scan result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get cv scan result id: %w", err)
	}
	result.ID = id
	return nil
}

// GetOcrScanByID returns one OCR scan record or ErrNotFound
func (s *Service) GetOcrScanByID(ctx context.Context, id int64) (*models.OcrScanResult, error) {
	var r models.OcrScanResult
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, image_path, extracted_text, scan_metadata, compliance_result, scanned_at FROM ocr_scan_results WHERE id = ?",
		id).Scan(&r.ID, &r.UserID, &r.ImagePath, &r.ExtractedText, &r.ScanMetadata, &r.ComplianceResult, &r.ScannedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query ocr scan result: %w", err)
	}
	return &r, nil
}

// GetOcrScansByUser returns a user's OCR scan history, most recent first
func (s *Service) GetOcrScansByUser(ctx context.Context, userID int64) ([]models.OcrScanResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, image_path, extracted_text, scan_metadata, compliance_result, scanned_at FROM ocr_scan_results WHERE user_id = ? ORDER BY scanned_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ocr scan history: %w", err)
	}
	defer rows.Close()

	var results []models.OcrScanResult
	for rows.Next() {
		var r models.OcrScanResult
		if err := rows.Scan(&r.ID, &r.UserID, &r.ImagePath, &r.ExtractedText, &r.ScanMetadata, &r.ComplianceResult, &r.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ocr scan row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetCvScansByUser returns a user's counterfeit-detection history, most recent first
func (s *Service) GetCvScansByUser(ctx context.Context, userID int64) ([]models.CvScanResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, image_path, detection_result, confidence_score, analyzed_at FROM cv_scan_results WHERE user_id = ? ORDER BY analyzed_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cv scan history: %w", err)
	}
	defer rows.Close()

	var results []models.CvScanResult
	for rows.Next() {
		var r models.CvScanResult
		if err := rows.Scan(&r.ID, &r.UserID, &r.ImagePath, &r.DetectionResult, &r.ConfidenceScore, &r.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cv scan row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
