package models

import (
	"fmt"
	"strings"
	"time"
)

// ViolationStatus is the lifecycle state of a compliance violation
type ViolationStatus string

const (
	ViolationUnresolved ViolationStatus = "UNRESOLVED"
	ViolationResolved   ViolationStatus = "RESOLVED"
)

// ParseViolationStatus normalizes a status filter string to a ViolationStatus.
// Unknown values are rejected rather than treated as "no filter".
func ParseViolationStatus(s string) (ViolationStatus, error) {
	switch ViolationStatus(strings.ToUpper(s)) {
	case ViolationUnresolved:
		return ViolationUnresolved, nil
	case ViolationResolved:
		return ViolationResolved, nil
	default:
		return "", fmt.Errorf("unknown violation status %q", s)
	}
}

// Product represents a catalog product subject to compliance checks
type Product struct {
	ProductID            int64      `json:"product_id"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	ImageURL             string     `json:"image_url"`
	Weight               *float64   `json:"weight"`
	Price                *float64   `json:"price"`
	PackagingInfo        string     `json:"packaging_info"`
	LastCheckedTimestamp *time.Time `json:"last_checked_timestamp"`
}

// Violation represents a detected compliance violation for a product
type Violation struct {
	ViolationID         int64           `json:"violation_id"`
	ProductID           int64           `json:"product_id"`
	RuleCode            string          `json:"violated_rule_code"`
	RuleDescription     string          `json:"violated_rule_description"`
	DetectedAt          time.Time       `json:"detected_at"`
	Status              ViolationStatus `json:"status"`
	ResolutionTimestamp *time.Time      `json:"resolution_timestamp,omitempty"`
}

// Resolution records how a violation was closed
type Resolution struct {
	ResolutionID int64     `json:"resolution_id"`
	ViolationID  int64     `json:"violation_id"`
	Notes        string    `json:"notes"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// OcrScanResult is a persisted OCR/compliance scan of one uploaded image
type OcrScanResult struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	ImagePath        string    `json:"image_path"`
	ExtractedText    string    `json:"extracted_text"`
	ScanMetadata     string    `json:"scan_metadata"`
	ComplianceResult string    `json:"compliance_result"`
	ScannedAt        time.Time `json:"scanned_at"`
}

// CvScanResult is a persisted counterfeit-detection scan of one uploaded image
type CvScanResult struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	ImagePath       string    `json:"image_path"`
	DetectionResult string    `json:"detection_result"`
	ConfidenceScore float64   `json:"confidence_score"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// ScanResult is the combined outcome of the OCR and counterfeit scans for
// a single upload. It is a response shape only and is never persisted.
type ScanResult struct {
	OcrResult OcrResult `json:"ocrResult"`
	CvResult  CvResult  `json:"cvResult"`
}

// OcrResult is the OCR half of a combined scan
type OcrResult struct {
	Status        string `json:"status"`
	ExtractedText string `json:"extractedText"`
}

// CvResult is the counterfeit-detection half of a combined scan
type CvResult struct {
	Status          string  `json:"status"`
	IsFake          bool    `json:"isFake"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// User represents an authenticated operator account
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SignUpRequest is the registration payload
type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the authentication payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued access token
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// CreateProductRequest is the product creation payload
type CreateProductRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"image_url"`
	Weight        *float64 `json:"weight"`
	Price         *float64 `json:"price"`
	PackagingInfo string   `json:"packaging_info"`
}

// ResolveViolationRequest is the payload for closing a violation
type ResolveViolationRequest struct {
	Notes string `json:"notes"`
}

// ViolationPage is one page of violations
type ViolationPage struct {
	Violations []Violation `json:"violations"`
	Page       int         `json:"page"`
	Size       int         `json:"size"`
	TotalCount int64       `json:"total_count"`
}

// ScanHistoryResponse groups a user's past scans by kind
type ScanHistoryResponse struct {
	OcrScans              []OcrScanResult `json:"ocrScans"`
	FakeProductDetections []CvScanResult  `json:"fakeProductDetections"`
}

// ErrorResponse is the common error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the common success message body
type MessageResponse struct {
	Message string `json:"message"`
}
