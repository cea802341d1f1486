// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/documents"
	"stockledger/internal/infrastructure/storage/postgres"
)

const uniqueViolation = "23505"

// tableSpec describes where a document type lives.
type tableSpec struct {
	entity     string // name used in errors
	table      string
	linesTable string

	// counterpartCol is searched together with number; empty for transfers.
	counterpartCol string

	// primaryCol and secondaryCol back the warehouse filters.
	primaryCol   string
	secondaryCol string
}

// BaseDocumentRepo implements documents.Repository for any header type T
// stored in one table with its lines L in a child table keyed by document_id.
type BaseDocumentRepo[T documents.Record, L any] struct {
	txm        *postgres.TxManager
	spec       tableSpec
	selectCols []string
	lineCols   []string
	newFn      func() T
}

func newBaseDocumentRepo[T documents.Record, L any](txm *postgres.TxManager, spec tableSpec, newFn func() T) *BaseDocumentRepo[T, L] {
	return &BaseDocumentRepo[T, L]{
		txm:        txm,
		spec:       spec,
		selectCols: postgres.ExtractDBColumns[T](),
		lineCols:   postgres.ExtractDBColumns[L](),
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T, L]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T, L]) columns(doc T, skip ...string) map[string]any {
	data := postgres.StructToMap(doc)
	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if slices.Contains(skip, col) {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// Create inserts a new document header.
func (r *BaseDocumentRepo[T, L]) Create(ctx context.Context, doc T) error {
	data := r.columns(doc)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", r.spec.entity)
	}

	sql, args, err := r.Builder().Insert(r.spec.table).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate(r.spec.entity, "number", doc.Header().Number)
		}
		return fmt.Errorf("insert %s: %w", r.spec.table, err)
	}
	return nil
}

// Update writes the header with optimistic locking: the caller has already
// bumped Version, so the stored row must still carry Version-1.
func (r *BaseDocumentRepo[T, L]) Update(ctx context.Context, doc T) error {
	h := doc.Header()
	data := r.columns(doc, "id", "created_at", "created_by")

	sql, args, err := r.Builder().
		Update(r.spec.table).
		SetMap(data).
		Where(squirrel.Eq{"id": h.ID}).
		Where(squirrel.Eq{"version": h.Version - 1}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.spec.table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.spec.entity, h.ID)
	}
	return nil
}

func (r *BaseDocumentRepo[T, L]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.spec.table)
}

func (r *BaseDocumentRepo[T, L]) getOne(ctx context.Context, q squirrel.SelectBuilder, docID id.ID) (T, error) {
	doc := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.spec.entity, docID.String())
		}
		return doc, fmt.Errorf("get %s: %w", r.spec.entity, err)
	}
	return doc, nil
}

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T, L]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID)
}

// GetForUpdate retrieves the header with a row lock held until the transaction ends.
func (r *BaseDocumentRepo[T, L]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	if r.txm.GetTx(ctx) == nil {
		var zero T
		return zero, fmt.Errorf("GetForUpdate requires transaction context")
	}
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}).Suffix("FOR UPDATE"), docID)
}

// List retrieves documents with filtering, sorting and page-based pagination.
func (r *BaseDocumentRepo[T, L]) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Page: filter.Page, Limit: filter.Limit}

	q := r.applyFilter(r.baseSelect(), filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.spec.table, err)
	}

	col, ok := documents.SortFields[filter.SortBy]
	if !ok {
		col = "created_at"
	}
	order, err := domain.NormalizeSortOrder(filter.SortOrder)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(col+" "+order, "id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset()))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.spec.table, err)
	}
	return result, nil
}

func (r *BaseDocumentRepo[T, L]) applyFilter(q squirrel.SelectBuilder, f documents.ListFilter) squirrel.SelectBuilder {
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.WarehouseID != nil {
		or := squirrel.Or{squirrel.Eq{r.spec.primaryCol: *f.WarehouseID}}
		if r.spec.secondaryCol != "" {
			or = append(or, squirrel.Eq{r.spec.secondaryCol: *f.WarehouseID})
		}
		q = q.Where(or)
	}
	if f.FromWarehouseID != nil {
		q = q.Where(squirrel.Eq{r.spec.primaryCol: *f.FromWarehouseID})
	}
	if f.ToWarehouseID != nil {
		if r.spec.secondaryCol == "" {
			q = q.Where("FALSE")
		} else {
			q = q.Where(squirrel.Eq{r.spec.secondaryCol: *f.ToWarehouseID})
		}
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.DateTo})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		search := squirrel.Or{squirrel.ILike{"number": pattern}}
		if r.spec.counterpartCol != "" {
			search = append(search, squirrel.ILike{r.spec.counterpartCol: pattern})
		}
		q = q.Where(search)
	}
	return q
}

// SaveLines replaces every line of a document in one round-trip.
func (r *BaseDocumentRepo[T, L]) SaveLines(ctx context.Context, docID id.ID, lines []L) error {
	queries := make([]postgres.BatchQuery, 0, 1+len(lines))

	del, delArgs, err := r.Builder().Delete(r.spec.linesTable).Where(squirrel.Eq{"document_id": docID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	queries = append(queries, postgres.BatchQuery{SQL: del, Args: delArgs})

	if len(lines) > 0 {
		ins := r.Builder().Insert(r.spec.linesTable).Columns(append([]string{"document_id"}, r.lineCols...)...)
		for _, line := range lines {
			data := postgres.StructToMap(line)
			values := make([]any, 0, len(r.lineCols)+1)
			values = append(values, docID)
			for _, col := range r.lineCols {
				values = append(values, data[col])
			}
			ins = ins.Values(values...)
		}
		sql, args, err := ins.ToSql()
		if err != nil {
			return fmt.Errorf("build insert lines: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}

	if r.txm.GetTx(ctx) == nil {
		return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			return postgres.NewBatchExecutor(r.txm).ExecuteBatch(ctx, queries)
		})
	}
	return postgres.NewBatchExecutor(r.txm).ExecuteBatch(ctx, queries)
}

// GetLines returns document lines ordered by line number.
func (r *BaseDocumentRepo[T, L]) GetLines(ctx context.Context, docID id.ID) ([]L, error) {
	sql, args, err := r.Builder().
		Select(r.lineCols...).
		From(r.spec.linesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []L
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
