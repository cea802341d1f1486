package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/documents"
)

// docTable stores one document type. T is the document pointer type.
type docTable[T documents.Record, L any] struct {
	store  *Store
	entity string
	clone  func(T) T

	rows  map[id.ID]T
	order []id.ID
	lines map[id.ID][]L
}

func newDocTable[T documents.Record, L any](s *Store, entity string, clone func(T) T) *docTable[T, L] {
	return &docTable[T, L]{
		store:  s,
		entity: entity,
		clone:  clone,
		rows:   make(map[id.ID]T),
		lines:  make(map[id.ID][]L),
	}
}

func (t *docTable[T, L]) Create(ctx context.Context, doc T) error {
	h := doc.Header()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if _, ok := t.rows[h.ID]; ok {
		return apperror.NewDuplicate(t.entity, "id", h.ID.String())
	}
	for _, row := range t.rows {
		if h.Number != "" && row.Header().Number == h.Number {
			return apperror.NewDuplicate(t.entity, "number", h.Number)
		}
	}

	docID := h.ID
	t.rows[docID] = t.clone(doc)
	t.order = append(t.order, docID)
	onRollback(ctx, func() {
		delete(t.rows, docID)
		t.order = slices.DeleteFunc(t.order, func(v id.ID) bool { return v == docID })
	})
	return nil
}

func (t *docTable[T, L]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	row, ok := t.rows[docID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(t.entity, docID.String())
	}
	return t.clone(row), nil
}

func (t *docTable[T, L]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	if err := t.store.lock(ctx, "doc:"+docID.String()); err != nil {
		var zero T
		return zero, err
	}
	return t.GetByID(ctx, docID)
}

func (t *docTable[T, L]) Update(ctx context.Context, doc T) error {
	h := doc.Header()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	prev, ok := t.rows[h.ID]
	if !ok {
		return apperror.NewNotFound(t.entity, h.ID.String())
	}
	if prev.Header().Version != h.Version-1 {
		return apperror.NewConcurrentModification(t.entity, h.ID.String())
	}

	docID := h.ID
	t.rows[docID] = t.clone(doc)
	onRollback(ctx, func() { t.rows[docID] = prev })
	return nil
}

func (t *docTable[T, L]) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[T], error) {
	t.store.mu.RLock()
	matched := make([]T, 0, len(t.order))
	for _, docID := range t.order {
		row := t.rows[docID]
		if filter.Match(row) {
			matched = append(matched, t.clone(row))
		}
	}
	t.store.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b T) int {
		c := compareDocs(a, b, filter.SortBy)
		if filter.SortOrder == domain.SortDesc {
			return -c
		}
		return c
	})

	return paginate(matched, filter.Page, filter.Limit), nil
}

func (t *docTable[T, L]) SaveLines(ctx context.Context, docID id.ID, lines []L) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	prev, existed := t.lines[docID]
	t.lines[docID] = slices.Clone(lines)
	onRollback(ctx, func() {
		if existed {
			t.lines[docID] = prev
		} else {
			delete(t.lines, docID)
		}
	})
	return nil
}

func (t *docTable[T, L]) GetLines(ctx context.Context, docID id.ID) ([]L, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return slices.Clone(t.lines[docID]), nil
}

func compareDocs[T documents.Record](a, b T, sortBy string) int {
	ha, hb := a.Header(), b.Header()
	switch sortBy {
	case "number":
		return strings.Compare(ha.Number, hb.Number)
	case "status":
		return strings.Compare(string(ha.Status), string(hb.Status))
	case "updatedAt":
		return ha.UpdatedAt.Compare(hb.UpdatedAt)
	case "appliedAt":
		return compareTimePtr(ha.AppliedAt, hb.AppliedAt)
	default:
		return ha.CreatedAt.Compare(hb.CreatedAt)
	}
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func paginate[T any](items []T, page, limit int) domain.ListResult[T] {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	total := len(items)
	from := min((page-1)*limit, total)
	to := min(from+limit, total)
	return domain.ListResult[T]{
		Items:      items[from:to],
		TotalCount: int64(total),
		Page:       page,
		Limit:      limit,
	}
}
