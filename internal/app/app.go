// Package app assembles domain services on top of a storage driver.
package app

import (
	"context"
	"time"

	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/documents/adjustment"
	"stockledger/internal/domain/documents/delivery"
	"stockledger/internal/domain/documents/receipt"
	"stockledger/internal/domain/documents/transfer"
	"stockledger/internal/domain/idempotency"
	"stockledger/internal/domain/notify"
	"stockledger/internal/domain/posting"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/memory"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/document_repo"
	"stockledger/internal/infrastructure/storage/postgres/register_repo"
	pgnumerator "stockledger/pkg/numerator"
)

// Storage bundles the repositories of one storage driver.
type Storage struct {
	Driver string

	TxManager   tx.Manager
	Numerator   numerator.Generator
	Idempotency idempotency.Store

	Products    product.Repository
	Warehouses  warehouse.Repository
	Stock       stock.Repository
	Receipts    receipt.Repository
	Deliveries  delivery.Repository
	Transfers   transfer.Repository
	Adjustments adjustment.Repository

	// Ping reports storage health; nil means always healthy.
	Ping func(ctx context.Context) error
}

// MemoryStorage wraps an in-memory store.
func MemoryStorage(s *memory.Store, idempotencyTTL time.Duration) Storage {
	return Storage{
		Driver:      "memory",
		TxManager:   s,
		Numerator:   s.Numerator(),
		Idempotency: memory.NewIdempotencyStore(idempotencyTTL),
		Products:    s.Products(),
		Warehouses:  s.Warehouses(),
		Stock:       s.Stock(),
		Receipts:    s.Receipts(),
		Deliveries:  s.Deliveries(),
		Transfers:   s.Transfers(),
		Adjustments: s.Adjustments(),
	}
}

// PostgresStorage builds repositories on a pool.
func PostgresStorage(pool *postgres.Pool, txm *postgres.TxManager, idempotencyTTL time.Duration) Storage {
	return Storage{
		Driver:      "postgres",
		TxManager:   txm,
		Numerator:   pgnumerator.New(txm),
		Idempotency: postgres.NewIdempotencyStore(txm, idempotencyTTL),
		Products:    catalog_repo.NewProductRepo(txm),
		Warehouses:  catalog_repo.NewWarehouseRepo(txm),
		Stock:       register_repo.NewStockRepo(txm),
		Receipts:    document_repo.NewReceiptRepo(txm),
		Deliveries:  document_repo.NewDeliveryRepo(txm),
		Transfers:   document_repo.NewTransferRepo(txm),
		Adjustments: document_repo.NewAdjustmentRepo(txm),
		Ping:        pool.Ping,
	}
}

// Services are the domain services exposed over HTTP.
type Services struct {
	Products    *product.Service
	Warehouses  *warehouse.Service
	Stock       *stock.Service
	Engine      *posting.Engine
	Receipts    *receipt.Service
	Deliveries  *delivery.Service
	Transfers   *transfer.Service
	Adjustments *adjustment.Service
}

// NewServices wires services on st. Events are handed to publisher after commit.
func NewServices(st Storage, publisher notify.Publisher, opts ...posting.Option) *Services {
	stockService := stock.NewService(st.Stock)
	engine := posting.NewEngine(st.Stock, st.TxManager, opts...)
	catalogs := documents.NewCatalogResolver(st.Warehouses, st.Products)

	return &Services{
		Products:    product.NewService(st.Products),
		Warehouses:  warehouse.NewService(st.Warehouses),
		Stock:       stockService,
		Engine:      engine,
		Receipts:    receipt.NewService(st.Receipts, engine, st.Numerator, st.TxManager, catalogs, publisher),
		Deliveries:  delivery.NewService(st.Deliveries, engine, st.Numerator, st.TxManager, catalogs, stockService, publisher),
		Transfers:   transfer.NewService(st.Transfers, engine, st.Numerator, st.TxManager, catalogs, stockService, publisher),
		Adjustments: adjustment.NewService(st.Adjustments, engine, st.Numerator, st.TxManager, catalogs, stockService, publisher),
	}
}
