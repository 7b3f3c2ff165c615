//go:build integration

package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"shelfsync/internal/catalog"
	"shelfsync/internal/domain"
	"shelfsync/internal/ledger"
	"shelfsync/internal/reconcile"
	"shelfsync/internal/reconcile/writer"
	"shelfsync/internal/rejects"
	"shelfsync/internal/runlock"
	"shelfsync/pkg/testutil/containers"
)

type IntegrationSuite struct {
	suite.Suite

	ctx     context.Context
	pg      *containers.PostgresContainer
	catalog *catalog.PostgresStore
	events  *ledger.PostgresStore
	svc     *reconcile.Service
}

func (s *IntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetPostgres(s.T())
}

func (s *IntegrationSuite) SetupTest() {
	err := s.pg.TruncateTables(s.ctx, "ledger_events", "sync_checkpoint", "rejections", "items", "borrowers", "categories")
	s.Require().NoError(err)

	_, err = s.pg.DB.ExecContext(s.ctx, `INSERT INTO categories (code, label_width) VALUES ('A', 3)`)
	s.Require().NoError(err)
	_, err = s.pg.DB.ExecContext(s.ctx, `
		INSERT INTO items (id, name, status) VALUES
			('A-001', 'Charlotte''s Web', 'available'),
			('A-002', 'The Giving Tree', 'on_loan')
	`)
	s.Require().NoError(err)
	_, err = s.pg.DB.ExecContext(s.ctx, `
		INSERT INTO borrowers (id, name, classroom) VALUES
			(1, 'Alice Wang', '3A'),
			(2, 'Bob Chen', '3B')
	`)
	s.Require().NoError(err)

	s.catalog = catalog.NewPostgres(s.pg.DB)
	s.events = ledger.NewPostgres(s.pg.DB)
	w := writer.NewPostgres(s.pg.DB, s.events, s.events, s.catalog)

	svc, err := reconcile.New(
		runlock.NewMemoryLocker(),
		s.catalog, s.catalog, s.catalog,
		s.events, s.events,
		rejects.NewPostgres(s.pg.DB),
		w,
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *IntegrationSuite) row(ref, name, label, action string, at time.Time) domain.RawRow {
	return domain.RawRow{
		Ref:             ref,
		BorrowerName:    name,
		CategoryCode:    "A",
		LabelRaw:        label,
		ActionKeyword:   action,
		ClientTimestamp: &at,
	}
}

func (s *IntegrationSuite) TestBatchCommitsAtomically() {
	at := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	rows := []domain.RawRow{
		s.row("row:2", "Alice Wang", "1", "borrow", at),
		s.row("row:3", "Alice Wang", "1", "borrow", at.Add(20*time.Second)),
		s.row("row:4", "Bob Chen", "2", "return", at.Add(time.Minute)),
		s.row("row:5", "Zzyzx Qwfp", "1", "return", at.Add(2*time.Minute)),
	}

	report, err := s.svc.Run(s.ctx, rows)
	s.Require().NoError(err)
	s.Equal(2, report.Committed)
	s.Equal(1, report.Duplicates)
	s.Equal(1, report.Rejected)

	item, err := s.catalog.Item(s.ctx, "A-001")
	s.Require().NoError(err)
	s.Equal(domain.StatusOnLoan, item.Status)
	item, err = s.catalog.Item(s.ctx, "A-002")
	s.Require().NoError(err)
	s.Equal(domain.StatusAvailable, item.Status)

	history, err := s.events.ListByItem(s.ctx, "A-001")
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(domain.ActionBorrow, history[0].Action)
	s.Equal(domain.BorrowerID(1), history[0].BorrowerID)

	cp, err := s.events.Load(s.ctx)
	s.Require().NoError(err)
	s.True(cp.HighWater.Equal(at.Add(time.Minute)))
	s.Equal(int64(1), cp.Offset)

	var rejected int
	err = s.pg.DB.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM rejections`).Scan(&rejected)
	s.Require().NoError(err)
	s.Equal(1, rejected)
}

func (s *IntegrationSuite) TestRerunWritesNothing() {
	at := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	rows := []domain.RawRow{
		s.row("row:2", "Alice Wang", "1", "borrow", at),
	}

	first, err := s.svc.Run(s.ctx, rows)
	s.Require().NoError(err)
	s.Equal(1, first.Committed)

	second, err := s.svc.Run(s.ctx, rows)
	s.Require().NoError(err)
	s.Equal(0, second.Committed)
	s.Equal(1, second.Duplicates)

	var count int
	err = s.pg.DB.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM ledger_events`).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)

	cp, err := s.events.Load(s.ctx)
	s.Require().NoError(err)
	s.True(cp.HighWater.Equal(first.Checkpoint.HighWater))
	s.Equal(first.Checkpoint.Offset, cp.Offset)
}

// The unique index absorbs a duplicate that slips past the in-pipeline
// deduplicator, for example when two events land in the same minute bucket
// from different batches.
func (s *IntegrationSuite) TestLedgerUniqueIndexBackstop() {
	at := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	event := domain.ResolvedEvent{
		ItemID:        "A-001",
		BorrowerID:    1,
		Action:        domain.ActionBorrow,
		EffectiveTime: at,
		SourceRef:     "row:2",
	}

	s.Require().NoError(s.events.Append(s.ctx, event, at))
	jittered := event
	jittered.EffectiveTime = at.Add(30 * time.Second)
	jittered.SourceRef = "row:9"
	s.Require().NoError(s.events.Append(s.ctx, jittered, at))

	var count int
	err := s.pg.DB.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM ledger_events`).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}
