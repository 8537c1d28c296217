package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopshield-service/models"
)

// ErrNotFound is returned when a lookup by id matches no record
var ErrNotFound = errors.New("not found")

// Service handles all database operations for the compliance service
type Service struct {
	db *sql.DB
}

// NewService creates a new database service instance
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// CreateProduct inserts a new catalog product
func (s *Service) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO products (name, description, image_url, weight, price, packaging_info) VALUES (?, ?, ?, ?, ?, ?)",
		req.Name, req.Description, req.ImageURL, req.Weight, req.Price, req.PackagingInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get product id: %w", err)
	}

	return &models.Product{
		ProductID:     id,
		Name:          req.Name,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Weight:        req.Weight,
		Price:         req.Price,
		PackagingInfo: req.PackagingInfo,
	}, nil
}

// GetAllProducts returns the full product catalog
func (s *Service) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT product_id, name, description, image_url, weight, price, packaging_info, last_checked_timestamp FROM products")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

// GetProductByID returns one product or ErrNotFound
func (s *Service) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT product_id, name, description, image_url, weight, price, packaging_info, last_checked_timestamp FROM products WHERE product_id = ?",
		id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

// UpdateLastChecked advances a product's last compliance check timestamp
func (s *Service) UpdateLastChecked(ctx context.Context, productID int64, checkedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE products SET last_checked_timestamp = ? WHERE product_id = ?",
		checkedAt, productID)
	if err != nil {
		return fmt.Errorf("failed to update last checked timestamp: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var description, imageURL, packagingInfo sql.NullString
	var weight, price sql.NullFloat64
	var lastChecked sql.NullTime

	if err := row.Scan(&p.ProductID, &p.Name, &description, &imageURL, &weight, &price, &packagingInfo, &lastChecked); err != nil {
		return nil, err
	}

	p.Description = description.String
	p.ImageURL = imageURL.String
	p.PackagingInfo = packagingInfo.String
	if weight.Valid {
		p.Weight = &weight.Float64
	}
	if price.Valid {
		p.Price = &price.Float64
	}
	if lastChecked.Valid {
		p.LastCheckedTimestamp = &lastChecked.Time
	}
	return &p, nil
}
