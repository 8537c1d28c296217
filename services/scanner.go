package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"shopshield-service/database"
	"shopshield-service/detector"
	"shopshield-service/models"
)

// ErrEmptyImage is returned when a scan is requested with no image data
var ErrEmptyImage = errors.New("image is empty")

// fakeConfidenceThreshold is the score above which a product is flagged fake
const fakeConfidenceThreshold = 0.8

// ScanService orchestrates image scans against the detection microservices
// and persists their results
type ScanService struct {
	db     *database.Service
	client *detector.Client
}

// NewScanService creates a new scan orchestration service
func NewScanService(db *database.Service, client *detector.Client) *ScanService {
	return &ScanService{db: db, client: client}
}

// PerformOcrScan runs the OCR compliance scan for one uploaded image and
// persists the result. No result is returned without a durable record.
func (s *ScanService) PerformOcrScan(ctx context.Context, image []byte, filename string, userID int64) (*models.OcrScanResult, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	response, err := s.client.ScanPriceTag(ctx, image, filename)
	if err != nil {
		return nil, err
	}

	result := &models.OcrScanResult{
		UserID:           userID,
		ImagePath:        filename,
		ExtractedText:    response.ExtractedText,
		ScanMetadata:     string(response.ScanMetadata),
		ComplianceResult: response.ComplianceResult,
		ScannedAt:        time.Now(),
	}
	if err := s.db.SaveOcrScanResult(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// PerformCounterfeitScan runs the fake-product detection for one uploaded
// image and persists the result
func (s *ScanService) PerformCounterfeitScan(ctx context.Context, image []byte, filename string, userID int64) (*models.CvScanResult, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	response, err := s.client.DetectCounterfeit(ctx, image, filename)
	if err != nil {
		return nil, err
	}

	result := &models.CvScanResult{
		UserID:          userID,
		ImagePath:       filename,
		DetectionResult: response.DetectionResult,
		ConfidenceScore: response.ConfidenceScore,
		AnalyzedAt:      time.Now(),
	}
	if err := s.db.SaveCvScanResult(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ScanProductImage runs both scans concurrently and merges their outcomes.
// If either scan fails the whole operation fails; the shared context
// cancels the outstanding sibling call.
func (s *ScanService) ScanProductImage(ctx context.Context, image []byte, filename string, userID int64) (*models.ScanResult, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	var ocrResult *models.OcrScanResult
	var cvResult *models.CvScanResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ocrResult, err = s.PerformOcrScan(gctx, image, filename, userID)
		return err
	})
	g.Go(func() error {
		var err error
		cvResult, err = s.PerformCounterfeitScan(gctx, image, filename, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.ScanResult{
		OcrResult: models.OcrResult{
			Status:        ocrResult.ComplianceResult,
			ExtractedText: ocrResult.ExtractedText,
		},
		CvResult: models.CvResult{
			Status:          cvResult.DetectionResult,
			IsFake:          cvResult.ConfidenceScore > fakeConfidenceThreshold,
			ConfidenceScore: cvResult.ConfidenceScore,
		},
	}, nil
}
