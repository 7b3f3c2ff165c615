// Package normalize combines resolver and matcher output with the action
// keyword and effective time into canonical events. Rows that fail any
// resolution step are tagged for operator review, not thrown away.
package normalize

import (
	"context"
	"fmt"

	"shelfsync/internal/domain"
	"shelfsync/internal/reconcile/matcher"
	"shelfsync/internal/reconcile/resolver"
)

// Normalizer turns raw rows into resolved events.
type Normalizer struct {
	resolver *resolver.Resolver
	matcher  *matcher.Matcher
}

func New(r *resolver.Resolver, m *matcher.Matcher) *Normalizer {
	return &Normalizer{resolver: r, matcher: m}
}

// Failure is a row that could not be normalized, with the reason preserved
// for the rejection log.
type Failure struct {
	Row    domain.RawRow
	Reason domain.RejectReason
	Detail string
}

// Normalize processes the batch in source order. Every row lands in exactly
// one of the two result slices; a failed row never aborts the batch.
func (n *Normalizer) Normalize(ctx context.Context, rows []domain.RawRow) ([]domain.ResolvedEvent, []Failure, error) {
	var (
		events   []domain.ResolvedEvent
		failures []Failure
	)
	for i, row := range rows {
		event, err := n.one(ctx, row, i)
		if err != nil {
			reason, ok := domain.ReasonForError(err)
			if !ok {
				// Infrastructure failure, not row noise: abort so the
				// scheduler retries the whole batch.
				return nil, nil, fmt.Errorf("normalize row %s: %w", row.Ref, err)
			}
			failures = append(failures, Failure{Row: row, Reason: reason, Detail: err.Error()})
			continue
		}
		events = append(events, event)
	}
	return events, failures, nil
}

func (n *Normalizer) one(ctx context.Context, row domain.RawRow, order int) (domain.ResolvedEvent, error) {
	action, err := domain.ParseAction(row.ActionKeyword)
	if err != nil {
		return domain.ResolvedEvent{}, err
	}
	effective, err := row.EffectiveTime()
	if err != nil {
		return domain.ResolvedEvent{}, err
	}
	itemID, err := n.resolver.Resolve(ctx, row.CategoryCode, row.LabelRaw)
	if err != nil {
		return domain.ResolvedEvent{}, err
	}
	borrowerID, err := n.matcher.Match(row.BorrowerName)
	if err != nil {
		return domain.ResolvedEvent{}, err
	}
	return domain.ResolvedEvent{
		ItemID:        itemID,
		BorrowerID:    borrowerID,
		Action:        action,
		EffectiveTime: effective,
		SourceRef:     row.Ref,
		SourceOrder:   order,
		Notes:         row.Notes,
	}, nil
}
