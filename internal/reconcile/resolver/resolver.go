// Package resolver reconstructs canonical item identifiers from the
// category code and the partially-typed numeric label operators enter on the
// form.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"shelfsync/internal/catalog"
	"shelfsync/internal/domain"
	"shelfsync/pkg/platform/sentinel"
)

// Resolver normalizes "{code}, {raw label}" pairs into catalog item ids.
type Resolver struct {
	items  catalog.ItemStore
	widths map[string]int
}

// New builds a Resolver with the category width table loaded once; the
// category set is closed, so per-batch loading is enough.
func New(ctx context.Context, items catalog.ItemStore, categories catalog.CategoryStore) (*Resolver, error) {
	widths, err := categories.LabelWidths(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category widths: %w", err)
	}
	return &Resolver{items: items, widths: widths}, nil
}

// Resolve strips non-digit noise from the raw label, left-pads it to the
// category's width and verifies the resulting id exists in the catalog.
// Everything that cannot produce a known catalog item is
// domain.ErrInvalidIdentifier.
func (r *Resolver) Resolve(ctx context.Context, categoryCode, rawLabel string) (domain.ItemID, error) {
	code := strings.ToUpper(strings.TrimSpace(categoryCode))
	width, ok := r.widths[code]
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", domain.ErrInvalidIdentifier, categoryCode)
	}

	digits := digitsOf(rawLabel)
	if digits == "" {
		return "", fmt.Errorf("%w: label %q contains no digits", domain.ErrInvalidIdentifier, rawLabel)
	}
	// Re-pad from the numeric value so "7", "07" and " 007 " all land on
	// the same id.
	label, err := strconv.Atoi(digits)
	if err != nil {
		return "", fmt.Errorf("%w: label %q", domain.ErrInvalidIdentifier, rawLabel)
	}
	padded := fmt.Sprintf("%0*d", width, label)
	if len(padded) > width {
		return "", fmt.Errorf("%w: label %q exceeds width %d", domain.ErrInvalidIdentifier, rawLabel, width)
	}

	id, err := domain.ParseItemID(code + "-" + padded)
	if err != nil {
		return "", err
	}

	if _, err := r.items.Item(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", fmt.Errorf("%w: %s not in catalog", domain.ErrInvalidIdentifier, id)
		}
		return "", fmt.Errorf("catalog lookup: %w", err)
	}
	return id, nil
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
