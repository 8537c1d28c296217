package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"shopshield-service/database"
	"shopshield-service/detector"
)

func newTestStore(t *testing.T) (*database.Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return database.NewService(db), mock
}

func stubBackend(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestScanProductImage(t *testing.T) {
	ocr := stubBackend(t, `{"status": "success", "extracted_text": "MRP Rs. 150.00", "compliance_result": "COMPLIANT"}`)
	cv := stubBackend(t, `{"status": "success", "detection_result": "FAKE", "confidence_score": 0.92}`)

	store, mock := newTestStore(t)
	// The two scans run concurrently, so their inserts may land in any order
	mock.MatchExpectationsInOrder(false)
	mock.ExpectExec("INSERT INTO ocr_scan_results (.+)").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO cv_scan_results (.+)").
		WillReturnResult(sqlmock.NewResult(1, 1))

	scanner := NewScanService(store, detector.NewClient(ocr.URL, cv.URL, 5*time.Second))
	result, err := scanner.ScanProductImage(context.Background(), []byte("imagedata"), "product.jpg", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.OcrResult.Status != "COMPLIANT" {
		t.Errorf("unexpected ocr status: %s", result.OcrResult.Status)
	}
	if result.OcrResult.ExtractedText != "MRP Rs. 150.00" {
		t.Errorf("unexpected extracted text: %s", result.OcrResult.ExtractedText)
	}
	if !result.CvResult.IsFake {
		t.Error("expected confidence 0.92 to be flagged fake")
	}
	if result.CvResult.ConfidenceScore != 0.92 {
		t.Errorf("unexpected confidence score: %f", result.CvResult.ConfidenceScore)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet database expectations: %v", err)
	}
}

func TestScanProductImageThresholdIsStrict(t *testing.T) {
	ocr := stubBackend(t, `{"status": "success", "extracted_text": "", "compliance_result": "COMPLIANT"}`)
	cv := stubBackend(t, `{"status": "success", "detection_result": "GENUINE", "confidence_score": 0.8}`)

	store, mock := newTestStore(t)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectExec("INSERT INTO ocr_scan_results (.+)").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO cv_scan_results (.+)").
		WillReturnResult(sqlmock.NewResult(1, 1))

	scanner := NewScanService(store, detector.NewClient(ocr.URL, cv.URL, 5*time.Second))
	result, err := scanner.ScanProductImage(context.Background(), []byte("imagedata"), "product.jpg", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.CvResult.IsFake {
		t.Error("confidence exactly at the threshold must not be flagged fake")
	}
}

func TestScanProductImageCvFailureFailsWholeScan(t *testing.T) {
	ocr := stubBackend(t, `{"status": "success", "extracted_text": "abc", "compliance_result": "COMPLIANT"}`)
	cv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(cv.Close)

	store, mock := newTestStore(t)
	mock.MatchExpectationsInOrder(false)
	// The OCR side may complete before the failure propagates
	mock.ExpectExec("INSERT INTO ocr_scan_results (.+)").
		WillReturnResult(sqlmock.NewResult(1, 1))

	scanner := NewScanService(store, detector.NewClient(ocr.URL, cv.URL, 5*time.Second))
	if _, err := scanner.ScanProductImage(context.Background(), []byte("imagedata"), "product.jpg", 7); !errors.Is(err, detector.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestScanProductImageEmptyImage(t *testing.T) {
	store, _ := newTestStore(t)
	scanner := NewScanService(store, detector.NewClient("http://127.0.0.1:1", "http://127.0.0.1:1", time.Second))

	if _, err := scanner.ScanProductImage(context.Background(), nil, "product.jpg", 7); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := scanner.PerformOcrScan(context.Background(), []byte{}, "product.jpg", 7); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestPerformOcrScanPersistsBeforeReturning(t *testing.T) {
	ocr := stubBackend(t, `{"status": "success", "extracted_text": "MRP Rs. 150.00", "scan_metadata": {"lang": "en"}, "compliance_result": "COMPLIANT"}`)

	store, mock := newTestStore(t)
	mock.ExpectExec("INSERT INTO ocr_scan_results \\(user_id, image_path, extracted_text, scan_metadata, compliance_result, scanned_at\\) VALUES \\((.+)\\)").
		WithArgs(int64(7), "tag.jpg", "MRP Rs. 150.00", `{"lang": "en"}`, "COMPLIANT", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	scanner := NewScanService(store, detector.NewClient(ocr.URL, "", 5*time.Second))
	result, err := scanner.PerformOcrScan(context.Background(), []byte("imagedata"), "tag.jpg", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ID != 42 {
		t.Errorf("expected persisted record id 42, got %d", result.ID)
	}
	if result.UserID != 7 || result.ImagePath != "tag.jpg" {
		t.Errorf("unexpected scan record: %+v", result)
	}
}

func TestPerformCounterfeitScanPersistFailure(t *testing.T) {
	cv := stubBackend(t, `{"status": "success", "detection_result": "GENUINE", "confidence_score": 0.1}`)

	store, mock := newTestStore(t)
	mock.ExpectExec("INSERT INTO cv_scan_results (.+)").
		WillReturnError(errors.New("insert test error"))

	scanner := NewScanService(store, detector.NewClient("", cv.URL, 5*time.Second))
	if result, err := scanner.PerformCounterfeitScan(context.Background(), []byte("imagedata"), "product.jpg", 7); err == nil {
		t.Errorf("expected error when the scan record cannot be persisted, got result %+v", result)
	}
}
