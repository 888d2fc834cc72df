package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/oilchain/internal/models"
)

// ReportFilter narrows a bulk report listing
type ReportFilter struct {
	SessionID string
	Entity    string
	Limit     int
}

func (f ReportFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 500 {
		return 50
	}
	return f.Limit
}

// BulkReportRepository provides access to the bulk report audit trail
type BulkReportRepository struct {
	db *gorm.DB
}

// NewBulkReportRepository creates a new bulk report repository
func NewBulkReportRepository(db *gorm.DB) *BulkReportRepository {
	return &BulkReportRepository{db: db}
}

// Create stores a report
func (r *BulkReportRepository) Create(ctx context.Context, report *models.BulkReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return errors.Wrap(ErrCreateFailed, err.Error())
	}
	return nil
}

// Get returns one report
func (r *BulkReportRepository) Get(ctx context.Context, id uuid.UUID) (*models.BulkReport, error) {
	var report models.BulkReport
	err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bulk report")
	}
	return &report, nil
}

// List returns the most recent reports first
func (r *BulkReportRepository) List(ctx context.Context, filter ReportFilter) ([]models.BulkReport, error) {
	q := r.db.WithContext(ctx).Order("started_at DESC").Limit(filter.limit())
	if filter.SessionID != "" {
		q = q.Where("session_id = ?", filter.SessionID)
	}
	if filter.Entity != "" {
		q = q.Where("entity = ?", filter.Entity)
	}

	var reports []models.BulkReport
	if err := q.Find(&reports).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list bulk reports")
	}
	return reports, nil
}

// MemoryBulkReportRepository keeps reports in process memory. It backs the
// service when no database is configured.
type MemoryBulkReportRepository struct {
	mu      sync.RWMutex
	reports []models.BulkReport
}

// NewMemoryBulkReportRepository creates an empty in-memory repository
func NewMemoryBulkReportRepository() *MemoryBulkReportRepository {
	return &MemoryBulkReportRepository{}
}

// Create stores a report
func (r *MemoryBulkReportRepository) Create(_ context.Context, report *models.BulkReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, *report)
	return nil
}

// Get returns one report
func (r *MemoryBulkReportRepository) Get(_ context.Context, id uuid.UUID) (*models.BulkReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.reports {
		if r.reports[i].ID == id {
			report := r.reports[i]
			return &report, nil
		}
	}
	return nil, ErrNotFound
}

// List returns the most recent reports first
func (r *MemoryBulkReportRepository) List(_ context.Context, filter ReportFilter) ([]models.BulkReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.BulkReport, 0, len(r.reports))
	for _, report := range r.reports {
		if filter.SessionID != "" && report.SessionID != filter.SessionID {
			continue
		}
		if filter.Entity != "" && report.Entity != filter.Entity {
			continue
		}
		out = append(out, report)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > filter.limit() {
		out = out[:filter.limit()]
	}
	return out, nil
}
