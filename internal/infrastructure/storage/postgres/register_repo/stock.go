// Package register_repo provides the PostgreSQL stock index and movement ledger.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	stockLevelsTable    = "stock_levels"
	stockMovementsTable = "stock_movements"
)

var movementColumns = postgres.ExtractDBColumns[entity.MovementEntry]()

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetLevel returns the current quantity for key.
func (r *StockRepo) GetLevel(ctx context.Context, key entity.StockKey) (int64, error) {
	sql, args, err := r.builder.Select("quantity").
		From(stockLevelsTable).
		Where(squirrel.Eq{"product_id": key.ProductID, "warehouse_id": key.WarehouseID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var qty int64
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &qty, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get level: %w", err)
	}
	return qty, nil
}

// GetLevelsForUpdate locks the index rows of keys. Missing rows are first
// materialised at zero so that the lock covers keys seen for the first time;
// a rollback removes them again. Rows are locked in (warehouse_id, product_id)
// order, which for uuid columns is the byte order used by StockKey.Compare.
func (r *StockRepo) GetLevelsForUpdate(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, fmt.Errorf("GetLevelsForUpdate requires transaction context")
	}
	out := make(map[entity.StockKey]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	querier := r.txm.GetQuerier(ctx)

	ins := r.builder.Insert(stockLevelsTable).
		Columns("product_id", "warehouse_id", "quantity", "updated_at").
		Suffix("ON CONFLICT (product_id, warehouse_id) DO NOTHING")
	for _, k := range keys {
		ins = ins.Values(k.ProductID, k.WarehouseID, 0, squirrel.Expr("NOW()"))
	}
	sql, args, err := ins.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build materialise: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("materialise levels: %w", err)
	}

	or := make(squirrel.Or, 0, len(keys))
	for _, k := range keys {
		or = append(or, squirrel.Eq{"product_id": k.ProductID, "warehouse_id": k.WarehouseID})
	}
	sql, args, err = r.builder.Select("product_id", "warehouse_id", "quantity", "updated_at").
		From(stockLevelsTable).
		Where(or).
		OrderBy("warehouse_id", "product_id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []entity.StockLevel
	if err := pgxscan.Select(ctx, querier, &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("lock levels: %w", err)
	}
	for _, l := range levels {
		out[l.Key()] = l.Quantity
	}
	for _, k := range keys {
		if _, ok := out[k]; !ok {
			out[k] = 0
		}
	}
	return out, nil
}

// UpsertLevels writes absolute quantities.
func (r *StockRepo) UpsertLevels(ctx context.Context, levels []entity.StockLevel) error {
	if len(levels) == 0 {
		return nil
	}

	q := r.builder.Insert(stockLevelsTable).
		Columns("product_id", "warehouse_id", "quantity", "updated_at").
		Suffix("ON CONFLICT (product_id, warehouse_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at")
	for _, l := range levels {
		q = q.Values(l.ProductID, l.WarehouseID, l.Quantity, l.UpdatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert levels: %w", err)
	}
	return nil
}

// ListLevels returns levels joined with catalog data, ordered by product name.
func (r *StockRepo) ListLevels(ctx context.Context, filter stock.LevelFilter) ([]stock.LevelView, error) {
	q := r.builder.Select(
		"l.product_id", "l.warehouse_id", "l.quantity", "l.updated_at",
		"p.sku AS product_sku", "p.name AS product_name", "p.unit", "p.reorder_level",
		"w.name AS warehouse_name",
	).
		From(stockLevelsTable + " l").
		Join("products p ON p.id = l.product_id").
		Join("warehouses w ON w.id = l.warehouse_id")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"l.product_id": *filter.ProductID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"l.warehouse_id": *filter.WarehouseID})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"l.quantity": int64(0)})
	}
	q = q.OrderBy("p.name", "w.name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []stock.LevelView
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("select levels: %w", err)
	}
	return levels, nil
}

// AppendMovements writes ledger entries with COPY inside the posting transaction.
func (r *StockRepo) AppendMovements(ctx context.Context, entries []entity.MovementEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if !e.Consistent() {
			return apperror.NewInternal(fmt.Errorf("inconsistent ledger entry %s", e.ID))
		}
		data := postgres.StructToMap(e)
		row := make([]any, 0, len(movementColumns))
		for _, col := range movementColumns {
			row = append(row, data[col])
		}
		rows = append(rows, row)
	}

	if _, err := postgres.NewBatchInserter(r.txm).CopyFromSlice(ctx, stockMovementsTable, movementColumns, rows); err != nil {
		return fmt.Errorf("copy movements: %w", err)
	}
	return nil
}

func (r *StockRepo) movementSelect() squirrel.SelectBuilder {
	cols := make([]string, 0, len(movementColumns)+3)
	for _, c := range movementColumns {
		cols = append(cols, "m."+c)
	}
	cols = append(cols, "p.sku AS product_sku", "p.name AS product_name", "w.name AS warehouse_name")

	return r.builder.Select(cols...).
		From(stockMovementsTable + " m").
		Join("products p ON p.id = m.product_id").
		Join("warehouses w ON w.id = m.warehouse_id")
}

// QueryMovements returns a filtered, sorted page of the ledger.
func (r *StockRepo) QueryMovements(ctx context.Context, filter stock.MovementFilter) (domain.ListResult[stock.MovementView], error) {
	result := domain.ListResult[stock.MovementView]{Page: filter.Page, Limit: filter.Limit}

	where := squirrel.And{}
	if filter.ProductID != nil {
		where = append(where, squirrel.Eq{"m.product_id": *filter.ProductID})
	}
	if filter.WarehouseID != nil {
		where = append(where, squirrel.Eq{"m.warehouse_id": *filter.WarehouseID})
	}
	if filter.MovementType != nil {
		where = append(where, squirrel.Eq{"m.movement_type": *filter.MovementType})
	}
	if filter.ReferenceID != "" {
		where = append(where, squirrel.Eq{"m.reference_id": filter.ReferenceID})
	}
	if filter.StartDate != nil {
		where = append(where, squirrel.GtOrEq{"m.created_at": *filter.StartDate})
	}
	if filter.EndDate != nil {
		where = append(where, squirrel.LtOrEq{"m.created_at": *filter.EndDate})
	}

	countQ := r.builder.Select("COUNT(*)").From(stockMovementsTable + " m")
	if len(where) > 0 {
		countQ = countQ.Where(where)
	}
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count movements: %w", err)
	}

	order, err := domain.NormalizeSortOrder(filter.SortOrder)
	if err != nil {
		return result, err
	}

	q := r.movementSelect()
	if len(where) > 0 {
		q = q.Where(where)
	}
	q = q.OrderBy("m."+filter.SortColumn()+" "+order, "m.seq "+order).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset()))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select movements: %w", err)
	}
	return result, nil
}

// GetMovement returns one ledger entry.
func (r *StockRepo) GetMovement(ctx context.Context, movementID id.ID) (*stock.MovementView, error) {
	sql, args, err := r.movementSelect().Where(squirrel.Eq{"m.id": movementID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var view stock.MovementView
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &view, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID.String())
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &view, nil
}
