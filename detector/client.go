package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/apex/log"
)

// Error classes for detection backend failures. The client never retries;
// retry policy belongs to the caller.
var (
	// ErrBackendUnavailable covers transport errors, timeouts and 5xx responses
	ErrBackendUnavailable = errors.New("detection backend unavailable")
	// ErrBackendProtocol covers unexpected statuses and unparseable bodies
	ErrBackendProtocol = errors.New("detection backend protocol error")
)

// OcrResponse is the typed payload of the OCR compliance service
type OcrResponse struct {
	Status           string          `json:"status"`
	ExtractedText    string          `json:"extracted_text"`
	ScanMetadata     json.RawMessage `json:"scan_metadata"`
	ComplianceResult string          `json:"compliance_result"`
}

// CvResponse is the typed payload of the counterfeit detection service
type CvResponse struct {
	Status          string  `json:"status"`
	DetectionResult string  `json:"detection_result"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// Client handles communication with the OCR and counterfeit detection services
type Client struct {
	ocrURL     string
	cvURL      string
	httpClient *http.Client
}

// NewClient creates a new detection backend client
func NewClient(ocrURL, cvURL string, timeout time.Duration) *Client {
	return &Client{
		ocrURL: ocrURL,
		cvURL:  cvURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ScanPriceTag sends an image to the OCR service and returns its verdict
func (c *Client) ScanPriceTag(ctx context.Context, image []byte, filename string) (*OcrResponse, error) {
	body, err := c.post(ctx, c.ocrURL, image, filename)
	if err != nil {
		return nil, err
	}

	var response OcrResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode ocr response: %v", ErrBackendProtocol, err)
	}
	if response.ComplianceResult == "" {
		// Older OCR backends only report the overall status field
		response.ComplianceResult = response.Status
	}
	if len(response.ScanMetadata) == 0 {
		response.ScanMetadata = json.RawMessage("{}")
	}

	log.Infof("OCR scan completed: compliance=%s, %d chars extracted",
		response.ComplianceResult, len(response.ExtractedText))
	return &response, nil
}

// DetectCounterfeit sends an image to the counterfeit detection service and
// returns its verdict and confidence score
func (c *Client) DetectCounterfeit(ctx context.Context, image []byte, filename string) (*CvResponse, error) {
	body, err := c.post(ctx, c.cvURL, image, filename)
	if err != nil {
		return nil, err
	}

	var response CvResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode cv response: %v", ErrBackendProtocol, err)
	}
	if response.DetectionResult == "" {
		response.DetectionResult = response.Status
	}

	log.Infof("Counterfeit detection completed: result=%s, confidence=%.2f",
		response.DetectionResult, response.ConfidenceScore)
	return &response, nil
}

// post sends the image as multipart/form-data and returns the raw response body
func (c *Client) post(ctx context.Context, url string, image []byte, filename string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Infof("Sending image to detection service: %s, image size: %d bytes", url, len(image))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrBackendUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: service returned status %d", ErrBackendUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: service returned status %d: %s", ErrBackendProtocol, resp.StatusCode, string(body))
	}

	return body, nil
}
