package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// Schema contains the database schema for the compliance service
const Schema = `
CREATE DATABASE IF NOT EXISTS shopshield;
USE shopshield;

CREATE TABLE IF NOT EXISTS users (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(256) NOT NULL,
    email VARCHAR(256) NOT NULL UNIQUE,
    password_hash VARCHAR(256) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS products (
    product_id BIGINT AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(256) NOT NULL,
    description TEXT,
    image_url VARCHAR(512),
    weight DOUBLE,
    price DECIMAL(12,2),
    packaging_info TEXT,
    last_checked_timestamp TIMESTAMP NULL DEFAULT NULL
);

CREATE TABLE IF NOT EXISTS violations (
    violation_id BIGINT AUTO_INCREMENT PRIMARY KEY,
    product_id BIGINT NOT NULL,
    violated_rule_code VARCHAR(64) NOT NULL,
    violated_rule_description VARCHAR(512),
    detected_at TIMESTAMP NOT NULL,
    status ENUM('UNRESOLVED', 'RESOLVED') NOT NULL DEFAULT 'UNRESOLVED',
    resolution_timestamp TIMESTAMP NULL DEFAULT NULL,
    FOREIGN KEY (product_id) REFERENCES products(product_id),
    INDEX idx_violations_product (product_id)
);

CREATE TABLE IF NOT EXISTS resolutions (
    resolution_id BIGINT AUTO_INCREMENT PRIMARY KEY,
    violation_id BIGINT NOT NULL UNIQUE,
    notes TEXT,
    resolved_at TIMESTAMP NOT NULL,
    FOREIGN KEY (violation_id) REFERENCES violations(violation_id)
);

CREATE TABLE IF NOT EXISTS ocr_scan_results (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT,
    image_path VARCHAR(512),
    extracted_text TEXT,
    scan_metadata JSON,
    compliance_result VARCHAR(256),
    scanned_at TIMESTAMP NOT NULL,
    INDEX idx_ocr_user (user_id)
);

CREATE TABLE IF NOT EXISTS cv_scan_results (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT,
    image_path VARCHAR(512),
    detection_result VARCHAR(256),
    confidence_score DOUBLE,
    analyzed_at TIMESTAMP NOT NULL,
    INDEX idx_cv_user (user_id)
);

CREATE TABLE IF NOT EXISTS schema_migrations (
    version INT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      string
}

// Migrations list all database migrations
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "add_status_index_to_violations",
		Up: `
			SET @preparedStatement = (SELECT IF(
				(SELECT COUNT(*) FROM INFORMATION_SCHEMA.STATISTICS
				WHERE TABLE_SCHEMA = DATABASE()
				AND TABLE_NAME = 'violations'
				AND INDEX_NAME = 'idx_violations_status') = 0,
				'ALTER TABLE violations ADD INDEX idx_violations_status (status);',
				'SELECT 1;'
			));
			PREPARE addIndexIfNotExists FROM @preparedStatement;
			EXECUTE addIndexIfNotExists;
			DEALLOCATE PREPARE addIndexIfNotExists;
		`,
	},
}

// InitializeSchema creates the database schema and runs migrations
func InitializeSchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database schema initialized successfully")
	return nil
}

// RunMigrations applies all pending database migrations
func RunMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	for _, migration := range Migrations {
		if !applied[migration.Version] {
			log.Infof("Applying migration %d: %s", migration.Version, migration.Name)

			if _, err := db.Exec(migration.Up); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
			}

			if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
			}

			log.Infof("Migration %d applied successfully", migration.Version)
		}
	}

	return nil
}
