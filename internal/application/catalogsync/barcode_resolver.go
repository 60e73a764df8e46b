package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/google/uuid"
)

// BarcodeOutcome describes what Reconcile did to an item's barcode
type BarcodeOutcome int

const (
	BarcodeUnchanged BarcodeOutcome = iota
	BarcodeReleased
	BarcodeBound
	BarcodeRebound
	BarcodeConflict
)

// Changed reports whether the item's binding moved
func (o BarcodeOutcome) Changed() bool {
	return o == BarcodeReleased || o == BarcodeBound || o == BarcodeRebound
}

func (o BarcodeOutcome) String() string {
	switch o {
	case BarcodeUnchanged:
		return "unchanged"
	case BarcodeReleased:
		return "released"
	case BarcodeBound:
		return "bound"
	case BarcodeRebound:
		return "rebound"
	case BarcodeConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

func isBarcodeSeparator(r rune) bool {
	switch r {
	case ',', ';', '|', '/', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// SplitBarcode returns the first token of a barcode cell and whether the cell held more than one
func SplitBarcode(raw string) (string, bool) {
	tokens := strings.FieldsFunc(raw, isBarcodeSeparator)
	if len(tokens) == 0 {
		return "", false
	}
	return tokens[0], len(tokens) > 1
}

// BarcodeResolver is the only writer of the global barcode registry during a
// run. It works against a registry snapshot loaded once; every snapshot change
// made by the row in flight is journaled so Rollback can undo it.
type BarcodeResolver struct {
	tenantID uuid.UUID
	byCode   map[string]*catalog.SecondaryCode
	byItem   map[uuid.UUID]string
	journal  []func()
}

// NewBarcodeResolver creates a resolver over the global registry snapshot
func NewBarcodeResolver(tenantID uuid.UUID, registry []catalog.SecondaryCode) *BarcodeResolver {
	r := &BarcodeResolver{
		tenantID: tenantID,
		byCode:   make(map[string]*catalog.SecondaryCode, len(registry)),
		byItem:   make(map[uuid.UUID]string),
	}
	for i := range registry {
		sc := &registry[i]
		r.byCode[sc.Code] = sc
		if sc.ItemID != nil {
			r.byItem[*sc.ItemID] = sc.Code
		}
	}
	return r
}

// Current returns the barcode bound to an item, empty when none
func (r *BarcodeResolver) Current(itemID uuid.UUID) string {
	return r.byItem[itemID]
}

// Reconcile moves the item's barcode to desired. The old binding is removed
// first. A code owned by another tenant is never touched: the result is
// BarcodeConflict with a nil error.
func (r *BarcodeResolver) Reconcile(ctx context.Context, tx syncrun.Store, item *catalog.Item, desired string) (BarcodeOutcome, error) {
	desired = strings.TrimSpace(desired)
	current := r.byItem[item.ID]
	if current == desired {
		return BarcodeUnchanged, nil
	}

	if current != "" {
		if err := tx.SecondaryCodes().ReleaseItem(ctx, item.ID); err != nil {
			return BarcodeUnchanged, fmt.Errorf("failed to release barcode %q: %w", current, err)
		}
		r.setCode(current, nil)
		r.setItem(item.ID, "")
	}
	if desired == "" {
		return BarcodeReleased, nil
	}

	entry, exists := r.byCode[desired]
	switch {
	case !exists:
		sc, err := catalog.NewSecondaryCode(desired, item.ID, r.tenantID)
		if err != nil {
			return BarcodeUnchanged, err
		}
		err = tx.Transaction(ctx, func(sp syncrun.Store) error {
			return sp.SecondaryCodes().Insert(ctx, sc)
		})
		if err != nil {
			return r.claimFailed(desired, err)
		}
		r.setCode(desired, sc)
		r.setItem(item.ID, desired)
		return BarcodeBound, nil

	case entry.IsOrphan():
		if err := r.claim(ctx, tx, entry, item.ID, nil); err != nil {
			return r.claimFailed(desired, err)
		}
		r.setItem(item.ID, desired)
		return BarcodeBound, nil

	case entry.OwnedByTenant(r.tenantID):
		previous := *entry.ItemID
		if err := r.claim(ctx, tx, entry, item.ID, &previous); err != nil {
			return r.claimFailed(desired, err)
		}
		r.setItem(previous, "")
		r.setItem(item.ID, desired)
		return BarcodeRebound, nil

	default:
		return BarcodeConflict, nil
	}
}

func (r *BarcodeResolver) claim(ctx context.Context, tx syncrun.Store, entry *catalog.SecondaryCode, itemID uuid.UUID, expectedOwner *uuid.UUID) error {
	err := tx.Transaction(ctx, func(sp syncrun.Store) error {
		return sp.SecondaryCodes().Claim(ctx, entry.Code, itemID, r.tenantID, expectedOwner)
	})
	if err != nil {
		return err
	}
	next := *entry
	next.BindTo(itemID, r.tenantID)
	r.setCode(entry.Code, &next)
	return nil
}

// claimFailed turns a lost race into a conflict. The registry now holds a
// binding this snapshot never saw, so the code is treated as foreign.
func (r *BarcodeResolver) claimFailed(code string, err error) (BarcodeOutcome, error) {
	if errors.Is(err, catalog.ErrBarcodeTaken) {
		return BarcodeConflict, nil
	}
	return BarcodeUnchanged, fmt.Errorf("failed to bind barcode %q: %w", code, err)
}

// Commit keeps the snapshot changes of the current row
func (r *BarcodeResolver) Commit() {
	r.journal = r.journal[:0]
}

// Rollback undoes the snapshot changes of the current row, newest first
func (r *BarcodeResolver) Rollback() {
	for i := len(r.journal) - 1; i >= 0; i-- {
		r.journal[i]()
	}
	r.journal = r.journal[:0]
}

func (r *BarcodeResolver) setCode(code string, sc *catalog.SecondaryCode) {
	prev, had := r.byCode[code]
	r.journal = append(r.journal, func() {
		if had {
			r.byCode[code] = prev
		} else {
			delete(r.byCode, code)
		}
	})
	if sc == nil {
		delete(r.byCode, code)
		return
	}
	r.byCode[code] = sc
}

func (r *BarcodeResolver) setItem(itemID uuid.UUID, code string) {
	prev, had := r.byItem[itemID]
	r.journal = append(r.journal, func() {
		if had {
			r.byItem[itemID] = prev
		} else {
			delete(r.byItem, itemID)
		}
	})
	if code == "" {
		delete(r.byItem, itemID)
		return
	}
	r.byItem[itemID] = code
}
