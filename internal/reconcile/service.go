// Package reconcile drives one batch run end to end: resolve raw rows into
// canonical events, drop redeliveries, validate lifecycle transitions and
// commit the survivors atomically. A batch is a pure function from (raw
// rows, persisted state) to (new persisted state, rejected rows).
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shelfsync/internal/catalog"
	"shelfsync/internal/domain"
	"shelfsync/internal/ledger"
	"shelfsync/internal/platform/metrics"
	"shelfsync/internal/reconcile/dedup"
	"shelfsync/internal/reconcile/lifecycle"
	"shelfsync/internal/reconcile/matcher"
	"shelfsync/internal/reconcile/normalize"
	"shelfsync/internal/reconcile/resolver"
	"shelfsync/internal/reconcile/writer"
	"shelfsync/internal/rejects"
	"shelfsync/internal/runlock"
	"shelfsync/pkg/platform/sentinel"
)

// lockName is the advisory lock guarding the one-checkpoint, one-run rule.
const lockName = "reconcile"

// RejectionPublisher mirrors rejection entries to an external feed.
// Publishing is best-effort; failures are logged and never fail the batch.
type RejectionPublisher interface {
	Publish(ctx context.Context, rejection domain.Rejection) error
}

// Service orchestrates batch reconciliation runs.
type Service struct {
	lock        runlock.Locker
	lockTTL     time.Duration
	items       catalog.ItemStore
	borrowers   catalog.BorrowerStore
	categories  catalog.CategoryStore
	events      ledger.Store
	checkpoints ledger.CheckpointStore
	rejections  rejects.Store
	writer      writer.Writer

	publisher RejectionPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p RejectionPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) { s.lockTTL = ttl }
}

// New wires a Service. All store dependencies are required; observability
// and the rejection feed are optional.
func New(
	lock runlock.Locker,
	items catalog.ItemStore,
	borrowers catalog.BorrowerStore,
	categories catalog.CategoryStore,
	events ledger.Store,
	checkpoints ledger.CheckpointStore,
	rejections rejects.Store,
	w writer.Writer,
	opts ...Option,
) (*Service, error) {
	if lock == nil {
		return nil, fmt.Errorf("run lock is required")
	}
	if items == nil || borrowers == nil || categories == nil {
		return nil, fmt.Errorf("catalog stores are required")
	}
	if events == nil || checkpoints == nil {
		return nil, fmt.Errorf("ledger stores are required")
	}
	if rejections == nil {
		return nil, fmt.Errorf("rejection store is required")
	}
	if w == nil {
		return nil, fmt.Errorf("writer is required")
	}

	svc := &Service{
		lock:        lock,
		lockTTL:     10 * time.Minute,
		items:       items,
		borrowers:   borrowers,
		categories:  categories,
		events:      events,
		checkpoints: checkpoints,
		rejections:  rejections,
		writer:      w,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Report summarizes one batch run for the trigger caller.
type Report struct {
	BatchID    string             `json:"batch_id"`
	Rows       int                `json:"rows"`
	Committed  int                `json:"committed"`
	Duplicates int                `json:"duplicates"`
	Rejected   int                `json:"rejected"`
	Checkpoint domain.Checkpoint  `json:"checkpoint"`
	Rejections []domain.Rejection `json:"-"`
}

// Run executes one batch. Row-level failures become rejection entries and
// never abort the run; a held lock or any storage failure aborts the whole
// batch with no partial effect. Cancelling the context before the commit is
// indistinguishable from the run never having started.
func (s *Service) Run(ctx context.Context, rows []domain.RawRow) (Report, error) {
	start := s.now()

	release, err := s.lock.Acquire(ctx, lockName, s.lockTTL)
	if err != nil {
		s.countBatch("conflict")
		return Report{}, fmt.Errorf("batch refused: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "run lock release failed", "error", err.Error())
		}
	}()

	report, err := s.run(ctx, rows)
	if err != nil {
		s.countBatch("failed")
		return Report{}, err
	}

	outcome := "committed"
	if report.Committed == 0 {
		outcome = "empty"
	}
	s.countBatch(outcome)
	if s.metrics != nil {
		s.metrics.BatchDuration.Observe(s.now().Sub(start).Seconds())
	}
	return report, nil
}

func (s *Service) run(ctx context.Context, rows []domain.RawRow) (Report, error) {
	batchID := uuid.NewString()
	report := Report{BatchID: batchID, Rows: len(rows)}

	checkpoint, err := s.checkpoints.Load(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load checkpoint: %w", err)
	}

	res, err := resolver.New(ctx, s.items, s.categories)
	if err != nil {
		return Report{}, err
	}
	roster, err := s.borrowers.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load roster: %w", err)
	}

	norm := normalize.New(res, matcher.New(roster))
	events, failures, err := norm.Normalize(ctx, rows)
	if err != nil {
		return Report{}, err
	}

	committed, err := s.committedKeys(ctx, events)
	if err != nil {
		return Report{}, err
	}
	deduped := dedup.Dedup(events, committed)
	report.Duplicates = len(deduped.Duplicates)
	for _, dup := range deduped.Duplicates {
		s.logger.DebugContext(ctx, "duplicate event dropped",
			"batch_id", batchID,
			"item_id", dup.ItemID.String(),
			"source_ref", dup.SourceRef,
		)
	}

	initial, err := s.initialStatuses(ctx, deduped.Kept)
	if err != nil {
		return Report{}, err
	}
	outcome := lifecycle.Reduce(initial, deduped.Kept)

	rejections := s.collectRejections(batchID, rows, failures, outcome.Rejected)
	report.Rejected = len(rejections)
	report.Rejections = rejections

	committedAt := s.now()
	if len(outcome.Accepted) > 0 {
		batch := writer.Batch{
			Events:      outcome.Accepted,
			Statuses:    outcome.Statuses,
			Checkpoint:  s.advance(checkpoint, outcome.Accepted, committedAt),
			CommittedAt: committedAt,
		}
		if err := s.writer.Commit(ctx, batch); err != nil {
			return Report{}, fmt.Errorf("commit batch %s: %w", batchID, err)
		}
		checkpoint = batch.Checkpoint
	}
	report.Committed = len(outcome.Accepted)
	report.Checkpoint = checkpoint

	// The committed state is durable at this point; the rejection log is an
	// operator feed outside the atomic unit, so a failure here is surfaced
	// but does not roll the batch back. Rejection ids are content-derived,
	// so the retry re-appends the already-written entries as no-ops.
	if err := s.recordRejections(ctx, rejections); err != nil {
		return Report{}, err
	}

	if s.metrics != nil {
		s.metrics.RowsProcessed.Add(float64(len(rows)))
		s.metrics.RowsDeduped.Add(float64(report.Duplicates))
		s.metrics.EventsCommitted.Add(float64(report.Committed))
		for _, r := range rejections {
			s.metrics.RowsRejected.WithLabelValues(r.Reason.String()).Inc()
		}
	}
	s.logger.InfoContext(ctx, "batch reconciled",
		"batch_id", batchID,
		"rows", report.Rows,
		"committed", report.Committed,
		"duplicates", report.Duplicates,
		"rejected", report.Rejected,
		"high_water", checkpoint.HighWater,
	)
	return report, nil
}

func (s *Service) committedKeys(ctx context.Context, events []domain.ResolvedEvent) (map[domain.DedupKey]bool, error) {
	keys := make([]domain.DedupKey, 0, len(events))
	for _, ev := range events {
		keys = append(keys, ev.Key())
	}
	committed, err := s.events.CommittedKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("probe committed keys: %w", err)
	}
	return committed, nil
}

func (s *Service) initialStatuses(ctx context.Context, events []domain.ResolvedEvent) (map[domain.ItemID]domain.ItemStatus, error) {
	statuses := make(map[domain.ItemID]domain.ItemStatus)
	for _, ev := range events {
		if _, ok := statuses[ev.ItemID]; ok {
			continue
		}
		item, err := s.items.Item(ctx, ev.ItemID)
		if err != nil {
			// The resolver verified existence moments ago; a miss here is an
			// infrastructure fault, not row noise.
			return nil, fmt.Errorf("load item %s: %w", ev.ItemID, err)
		}
		statuses[ev.ItemID] = item.Status
	}
	return statuses, nil
}

func (s *Service) collectRejections(batchID string, rows []domain.RawRow, failures []normalize.Failure, refused []lifecycle.Rejected) []domain.Rejection {
	now := s.now()
	out := make([]domain.Rejection, 0, len(failures)+len(refused))
	for _, f := range failures {
		out = append(out, domain.Rejection{
			ID:      domain.NewRejectionID(f.Row, f.Reason),
			BatchID: batchID,
			Row:     f.Row,
			Reason:  f.Reason,
			Detail:  f.Detail,
			At:      now,
		})
	}
	for _, r := range refused {
		reason, ok := domain.ReasonForError(r.Err)
		if !ok {
			reason = domain.ReasonInvalidTransition
		}
		row := rows[r.Event.SourceOrder]
		out = append(out, domain.Rejection{
			ID:      domain.NewRejectionID(row, reason),
			BatchID: batchID,
			Row:     row,
			Reason:  reason,
			Detail:  r.Err.Error(),
			At:      now,
		})
	}
	return out
}

func (s *Service) recordRejections(ctx context.Context, rejections []domain.Rejection) error {
	for _, r := range rejections {
		if err := s.rejections.Append(ctx, r); err != nil {
			return fmt.Errorf("record rejection %s: %w", r.ID, err)
		}
		if s.publisher == nil {
			continue
		}
		if err := s.publisher.Publish(ctx, r); err != nil {
			s.logger.WarnContext(ctx, "rejection publish failed",
				"rejection_id", r.ID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

// advance computes the post-batch checkpoint from the accepted events, which
// arrive ordered so the newest effective time is at the tail.
func (s *Service) advance(cp domain.Checkpoint, accepted []domain.ResolvedEvent, now time.Time) domain.Checkpoint {
	latest := accepted[len(accepted)-1].EffectiveTime
	var n int64
	for _, ev := range accepted {
		if ev.EffectiveTime.Equal(latest) {
			n++
		}
	}
	return cp.Advance(latest, n, now)
}

func (s *Service) countBatch(outcome string) {
	if s.metrics != nil {
		s.metrics.BatchesRun.WithLabelValues(outcome).Inc()
	}
}

// IsLockHeld reports whether err is the single-flight refusal, so transport
// layers can translate it to a retry-later response.
func IsLockHeld(err error) bool {
	return errors.Is(err, sentinel.ErrLockHeld)
}
