// Package reconcile recomputes settlement reports from a fresh snapshot on
// every query.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rewired-gh/auctionledger/internal/ingest"
	"github.com/rewired-gh/auctionledger/internal/logger"
	"github.com/rewired-gh/auctionledger/internal/metrics"
	"github.com/rewired-gh/auctionledger/internal/models"
	"github.com/rewired-gh/auctionledger/internal/settlement"
	"github.com/rewired-gh/auctionledger/internal/sheets"
	"github.com/rewired-gh/auctionledger/internal/timebucket"
	"github.com/rewired-gh/auctionledger/internal/vip"
)

// ErrUnknownParticipant is returned when a statement is requested for someone
// with no activity in the window.
var ErrUnknownParticipant = errors.New("participant has no activity in window")

// Source supplies raw sheet rows.
type Source interface {
	FetchSnapshot(ctx context.Context) (*sheets.Snapshot, error)
}

// Config holds settlement policy.
type Config struct {
	Fees               settlement.FeeSchedule
	IncludeCarriedDebt bool
	ExemptMarker       string
}

// DefaultConfig returns the standard fee schedule with carried debt excluded.
func DefaultConfig() Config {
	return Config{
		Fees:         settlement.DefaultFeeSchedule(),
		ExemptMarker: models.DefaultExemptMarker,
	}
}

// Dataset is one normalized snapshot.
type Dataset struct {
	Transactions []models.Transaction
	Directory    models.Directory
	Schema       models.MemberSchema
	Diagnostics  models.Diagnostics
	FetchedAt    time.Time
}

// HoursReport is the per-hour revenue breakdown of a window.
type HoursReport struct {
	Window     *models.Window      `json:"window,omitempty"`
	Buckets    []models.HourBucket `json:"buckets"`
	Peak       *models.HourBucket  `json:"peak,omitempty"`
	Unparsable int                 `json:"unparsable"`
}

// Service owns no derived state: each report reloads the snapshot and
// recomputes from scratch.
type Service struct {
	source     Source
	aggregator *settlement.Aggregator
	config     Config

	mu       sync.RWMutex
	lastLoad time.Time
	lastErr  error
}

func New(source Source, config Config) *Service {
	if config.ExemptMarker == "" {
		config.ExemptMarker = models.DefaultExemptMarker
	}
	return &Service{
		source:     source,
		aggregator: settlement.NewAggregator(config.Fees, config.IncludeCarriedDebt),
		config:     config,
	}
}

// Load fetches and normalizes both sheets.
func (s *Service) Load(ctx context.Context) (*Dataset, error) {
	started := time.Now()
	snap, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		metrics.ObserveFetch("error", started)
		s.recordLoad(err)
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	result := "ok"
	if snap.Cached {
		result = "cached"
	}
	metrics.ObserveFetch(result, started)
	metrics.SnapshotRows.WithLabelValues("transactions").Set(float64(len(snap.Transactions)))
	metrics.SnapshotRows.WithLabelValues("members").Set(float64(len(snap.Members)))

	txs, txDiag := ingest.NormalizeTransactions(snap.Transactions)
	dir, schema, memberDiag := ingest.NormalizeMembers(snap.Members, s.config.ExemptMarker)

	ds := &Dataset{
		Transactions: txs,
		Directory:    dir,
		Schema:       schema,
		Diagnostics:  txDiag,
		FetchedAt:    snap.FetchedAt,
	}
	ds.Diagnostics.Add(memberDiag)
	_, ds.Diagnostics.UnparsableBidTimes = timebucket.BucketByHour(txs)

	// A cached snapshot was already counted when it was fetched.
	if n := ds.Diagnostics.Total(); n > 0 && !snap.Cached {
		logger.Warn("Snapshot has %d recoverable problems: %v", n, ds.Diagnostics.Counts())
		metrics.RecordDiagnostics(ds.Diagnostics.Counts())
	}
	logger.Debug("Loaded %d transactions and %d members (schema v%d)", len(txs), len(dir), schema.Width())
	s.recordLoad(nil)
	return ds, nil
}

func (s *Service) recordLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if err == nil {
		s.lastLoad = time.Now()
	}
}

// LastLoad reports when the snapshot last loaded successfully and the most
// recent load error, if the last attempt failed.
func (s *Service) LastLoad() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLoad, s.lastErr
}

// Settle computes the settlement for a window. With byAmount set, both lists
// are ordered by amount descending instead of by name.
func (s *Service) Settle(ctx context.Context, w models.Window, byAmount bool) (models.Settlement, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return models.Settlement{}, err
	}
	result := s.aggregator.Aggregate(ds.Transactions, ds.Directory, w)
	if byAmount {
		result.PayIn = settlement.SortByAmount(result.PayIn)
		result.PayOut = settlement.SortByAmount(result.PayOut)
	}
	metrics.Recomputations.WithLabelValues("settlement").Inc()
	if result.Diagnostics.Total() > 0 {
		logger.Debug("Window %s excluded rows: %v", w.ID, result.Diagnostics.Counts())
	}
	return result, nil
}

// Statement returns one participant's detail for a window.
func (s *Service) Statement(ctx context.Context, w models.Window, participantID string) (models.Statement, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return models.Statement{}, err
	}
	metrics.Recomputations.WithLabelValues("statement").Inc()
	st, ok := s.aggregator.Statement(ds.Transactions, ds.Directory, w, participantID)
	if !ok {
		return models.Statement{}, fmt.Errorf("%w: %s in %s", ErrUnknownParticipant, participantID, w.ID)
	}
	return st, nil
}

// Participants lists everyone active in the window.
func (s *Service) Participants(ctx context.Context, w models.Window) ([]string, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return settlement.Participants(ds.Transactions, w), nil
}

// Hours buckets revenue by auction-day hour. A nil window covers every
// transaction, dated or not.
func (s *Service) Hours(ctx context.Context, w *models.Window) (HoursReport, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return HoursReport{}, err
	}
	txs := ds.Transactions
	if w != nil {
		txs = settlement.WindowTransactions(txs, *w)
	}
	buckets, unparsable := timebucket.BucketByHour(txs)
	metrics.Recomputations.WithLabelValues("hours").Inc()

	report := HoursReport{Window: w, Buckets: buckets, Unparsable: unparsable}
	if peak, ok := timebucket.Peak(buckets); ok {
		report.Peak = &peak
	}
	return report, nil
}

// VIP classifies every buyer over full history.
func (s *Service) VIP(ctx context.Context) ([]models.VipStanding, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	metrics.Recomputations.WithLabelValues("vip").Inc()
	return vip.ClassifyAll(ds.Transactions, ds.Directory), nil
}

// Dates lists the auction dates present in the snapshot, newest first.
func (s *Service) Dates(ctx context.Context) ([]time.Time, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return settlement.AvailableDates(ds.Transactions), nil
}
