package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
)

type ledgerReader interface {
	Snapshot() LedgerSnapshot
	Revision() uint64
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// ReportServiceConfig governs grouping and caching of class reports.
type ReportServiceConfig struct {
	Grouping  ReportGrouping
	CacheTTL  time.Duration
	KeyPrefix string
}

// ReportService serves class reports computed over the committed ledger.
// Cached entries are keyed by ledger revision, so a cached report always
// matches the snapshot it was computed from.
type ReportService struct {
	ledger ledgerReader
	cache  reportCache
	cfg    ReportServiceConfig
	logger *zap.Logger
}

// ClassReportList is the payload of the class report listing.
type ClassReportList struct {
	Revision uint64               `json:"revision"`
	Grouping ReportGrouping       `json:"grouping"`
	Reports  []models.ClassReport `json:"reports"`
}

// NewReportService constructs the report service. cache may be nil.
func NewReportService(ledger ledgerReader, cache reportCache, cfg ReportServiceConfig, logger *zap.Logger) *ReportService {
	if cfg.Grouping == "" {
		cfg.Grouping = GroupByGrade
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{ledger: ledger, cache: cache, cfg: cfg, logger: logger}
}

// Grouping returns the configured grouping.
func (s *ReportService) Grouping() ReportGrouping {
	return s.cfg.Grouping
}

func (s *ReportService) cachePattern() string {
	return s.cfg.KeyPrefix + "reports:*"
}

func (s *ReportService) cacheKey(kind string, revision uint64, key string) string {
	return fmt.Sprintf("%sreports:%s:%s:r%d:%s", s.cfg.KeyPrefix, kind, s.cfg.Grouping, revision, key)
}

// ClassReports returns every non-empty group of the current ledger.
func (s *ReportService) ClassReports(ctx context.Context) (*ClassReportList, error) {
	revision := s.ledger.Revision()
	key := s.cacheKey("classes", revision, "all")

	var cached ClassReportList
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	snap := s.ledger.Snapshot()
	result := &ClassReportList{
		Revision: snap.Revision,
		Grouping: s.cfg.Grouping,
		Reports:  ComputeClassReports(snap.Students, snap.Transactions, s.cfg.Grouping),
	}
	s.cacheSet(ctx, s.cacheKey("classes", snap.Revision, "all"), result)
	return result, nil
}

// ClassDetail returns one group with per-student rows.
func (s *ReportService) ClassDetail(ctx context.Context, groupKey string) (*models.ClassReportDetail, error) {
	revision := s.ledger.Revision()
	key := s.cacheKey("detail", revision, groupKey)

	var cached models.ClassReportDetail
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	snap := s.ledger.Snapshot()
	detail, ok := ComputeClassDetail(snap.Students, snap.Transactions, s.cfg.Grouping, groupKey)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class report not found")
	}
	s.cacheSet(ctx, s.cacheKey("detail", snap.Revision, groupKey), detail)
	return detail, nil
}

// HandleLedgerEvent drops cached reports of superseded revisions.
func (s *ReportService) HandleLedgerEvent(ctx context.Context, _ models.LedgerEvent) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, s.cachePattern()); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

func (s *ReportService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false
	}
	return hit
}

func (s *ReportService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("report cache write skipped", zap.String("key", key), zap.Error(err))
	}
}
