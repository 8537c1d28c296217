package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"

	"shopshield-service/database"
	"shopshield-service/models"
)

// ComplianceSweeper periodically checks every catalog product against the
// compliance rule set and records violations
type ComplianceSweeper struct {
	db         *database.Service
	interval   time.Duration
	maxWorkers int
	running    bool
	stopChan   chan struct{}
	sweeping   atomic.Bool
}

// NewComplianceSweeper creates a new compliance sweeper
func NewComplianceSweeper(db *database.Service, interval time.Duration, maxWorkers int) *ComplianceSweeper {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &ComplianceSweeper{
		db:         db,
		interval:   interval,
		maxWorkers: maxWorkers,
		stopChan:   make(chan struct{}),
	}
}

// Start starts the periodic sweep loop
func (s *ComplianceSweeper) Start() {
	if s.running {
		log.Warn("Compliance sweeper is already running")
		return
	}
	s.running = true
	log.Infof("Starting compliance sweeper with interval %v, %d workers", s.interval, s.maxWorkers)
	go s.run()
}

// Stop stops the periodic sweep loop
func (s *ComplianceSweeper) Stop() {
	if !s.running {
		return
	}
	log.Info("Stopping compliance sweeper...")
	s.running = false
	close(s.stopChan)
}

// IsRunning returns whether the sweep loop is active
func (s *ComplianceSweeper) IsRunning() bool {
	return s.running
}

func (s *ComplianceSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			log.Info("Compliance sweeper stopped")
			return
		case <-ticker.C:
			s.RunSweep(context.Background())
		}
	}
}

// RunSweep performs one compliance pass over the whole catalog. Only one
// sweep may be in flight at a time; a tick arriving while the previous
// sweep is still running is skipped and logged.
func (s *ComplianceSweeper) RunSweep(ctx context.Context) {
	if !s.sweeping.CompareAndSwap(false, true) {
		log.Warn("Previous compliance sweep still running, skipping this tick")
		return
	}
	defer s.sweeping.Store(false)

	log.Info("Starting compliance sweep...")

	products, err := s.db.GetAllProducts(ctx)
	if err != nil {
		log.Errorf("Failed to load products for compliance sweep: %v", err)
		return
	}

	jobs := make(chan models.Product)
	var wg sync.WaitGroup
	for i := 0; i < s.maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for product := range jobs {
				s.checkProduct(ctx, product)
			}
		}()
	}

	for _, product := range products {
		jobs <- product
	}
	close(jobs)
	wg.Wait()

	log.Infof("Compliance sweep finished: %d products checked", len(products))
}

// checkProduct evaluates one product and persists its findings. Violations
// are written before the last-checked timestamp advances, so the timestamp
// never moves without its findings being durable. Errors are isolated to
// this product and never abort the sweep.
func (s *ComplianceSweeper) checkProduct(ctx context.Context, product models.Product) {
	for _, finding := range EvaluateProduct(product) {
		violation := &models.Violation{
			ProductID:       product.ProductID,
			RuleCode:        finding.RuleCode,
			RuleDescription: finding.Description,
			DetectedAt:      time.Now(),
			Status:          models.ViolationUnresolved,
		}
		if err := s.db.CreateViolation(ctx, violation); err != nil {
			log.Errorf("Failed to record violation for product %d: %v", product.ProductID, err)
			return
		}
		log.Warnf("Violation detected for product %d: %s", product.ProductID, finding.Description)
	}

	if err := s.db.UpdateLastChecked(ctx, product.ProductID, time.Now()); err != nil {
		log.Errorf("Failed to update last checked timestamp for product %d: %v", product.ProductID, err)
	}
}
