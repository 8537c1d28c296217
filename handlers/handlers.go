package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"shopshield-service/auth"
	"shopshield-service/database"
	"shopshield-service/detector"
	"shopshield-service/models"
	"shopshield-service/services"
)

// Handlers handles HTTP requests for the compliance service
type Handlers struct {
	db      *database.Service
	scanner *services.ScanService
	tokens  *auth.TokenManager
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *database.Service, scanner *services.ScanService, tokens *auth.TokenManager) *Handlers {
	return &Handlers{
		db:      db,
		scanner: scanner,
		tokens:  tokens,
	}
}

// SignUp handles user registration
func (h *Handlers) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.db.CreateUser(c.Request.Context(), req)
	if err != nil {
		if err.Error() == "user already exists" {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// SignIn handles user authentication
func (h *Handlers) SignIn(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	userID, err := h.db.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid credentials"})
		return
	}

	token, err := h.tokens.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(h.tokens.Expiry().Seconds()),
	})
}

// ScanProduct handles a combined OCR + counterfeit scan of an uploaded image
func (h *Handlers) ScanProduct(c *gin.Context) {
	image, filename, ok := h.readImage(c, "file")
	if !ok {
		return
	}

	result, err := h.scanner.ScanProductImage(c.Request.Context(), image, filename, c.GetInt64("user_id"))
	if err != nil {
		h.scanError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// OcrScan handles an OCR-only scan of an uploaded image
func (h *Handlers) OcrScan(c *gin.Context) {
	image, filename, ok := h.readImage(c, "image")
	if !ok {
		return
	}

	result, err := h.scanner.PerformOcrScan(c.Request.Context(), image, filename, c.GetInt64("user_id"))
	if err != nil {
		h.scanError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// FakeProductScan handles a counterfeit-detection-only scan of an uploaded image
func (h *Handlers) FakeProductScan(c *gin.Context) {
	image, filename, ok := h.readImage(c, "image")
	if !ok {
		return
	}

	result, err := h.scanner.PerformCounterfeitScan(c.Request.Context(), image, filename, c.GetInt64("user_id"))
	if err != nil {
		h.scanError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetViolations returns a page of violations with an optional status filter
func (h *Handlers) GetViolations(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid page parameter"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid size parameter"})
		return
	}

	var status *models.ViolationStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseViolationStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		status = &parsed
	}

	result, err := h.db.GetViolationsPage(c.Request.Context(), page, size, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list violations"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetViolationByID returns one violation by id
func (h *Handlers) GetViolationByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("violationId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid violation id"})
		return
	}

	violation, err := h.db.GetViolationByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "violation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get violation"})
		return
	}

	c.JSON(http.StatusOK, violation)
}

// ListViolations returns all violations, optionally filtered by status
func (h *Handlers) ListViolations(c *gin.Context) {
	var violations []models.Violation
	var err error

	if raw := c.Query("status"); raw != "" {
		status, parseErr := models.ParseViolationStatus(raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: parseErr.Error()})
			return
		}
		violations, err = h.db.GetViolationsByStatus(c.Request.Context(), status)
	} else {
		violations, err = h.db.GetAllViolations(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list violations"})
		return
	}

	c.JSON(http.StatusOK, violations)
}

// GetViolationsByProduct returns all violations for one product
func (h *Handlers) GetViolationsByProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product id"})
		return
	}

	violations, err := h.db.GetViolationsByProduct(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list violations"})
		return
	}

	c.JSON(http.StatusOK, violations)
}

// ResolveViolation closes a violation with resolution notes
func (h *Handlers) ResolveViolation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("violationId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid violation id"})
		return
	}

	var req models.ResolveViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resolution, err := h.db.ResolveViolation(c.Request.Context(), id, req.Notes)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "violation not found"})
			return
		}
		if err.Error() == "violation already resolved" {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to resolve violation"})
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// GetScanHistory returns the authenticated user's scan history, both kinds
func (h *Handlers) GetScanHistory(c *gin.Context) {
	userID := c.GetInt64("user_id")

	ocrScans, err := h.db.GetOcrScansByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get scan history"})
		return
	}
	cvScans, err := h.db.GetCvScansByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get scan history"})
		return
	}

	c.JSON(http.StatusOK, models.ScanHistoryResponse{
		OcrScans:              ocrScans,
		FakeProductDetections: cvScans,
	})
}

// CreateProduct adds a product to the catalog
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	product, err := h.db.CreateProduct(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProducts returns the full product catalog
func (h *Handlers) GetProducts(c *gin.Context) {
	products, err := h.db.GetAllProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProductByID returns one product by id
func (h *Handlers) GetProductByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product id"})
		return
	}

	product, err := h.db.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// HealthCheck returns the service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shopshield-service",
	})
}

// readImage reads an uploaded image from the named multipart field,
// rejecting missing or empty uploads before any backend call
func (h *Handlers) readImage(c *gin.Context, field string) ([]byte, string, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "image file is required"})
		return nil, "", false
	}
	if fileHeader.Size == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "uploaded image is empty"})
		return nil, "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read image file"})
		return nil, "", false
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read image file"})
		return nil, "", false
	}
	if len(image) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "uploaded image is empty"})
		return nil, "", false
	}

	return image, fileHeader.Filename, true
}

// scanError maps scan failures onto HTTP statuses
func (h *Handlers) scanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyImage):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, detector.ErrBackendUnavailable), errors.Is(err, detector.ErrBackendProtocol):
		log.Errorf("Scan failed against detection backend: %v", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "detection backend unavailable"})
	default:
		log.Errorf("Scan failed: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "scan failed"})
	}
}
