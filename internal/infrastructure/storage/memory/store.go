package memory

import (
	"sync"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/domain/documents/adjustment"
	"stockledger/internal/domain/documents/delivery"
	"stockledger/internal/domain/documents/receipt"
	"stockledger/internal/domain/documents/transfer"
	"stockledger/internal/domain/registers/stock"
)

// Store holds all tables. mu guards the maps; row locks live in locks.
type Store struct {
	mu    sync.RWMutex
	locks *lockTable

	products       map[id.ID]entity.Product
	productOrder   []id.ID
	warehouses     map[id.ID]entity.Warehouse
	warehouseOrder []id.ID

	levels    map[entity.StockKey]entity.StockLevel
	movements []entity.MovementEntry
	movementN map[id.ID]int

	receipts    *docTable[*receipt.Receipt, entity.LineItem]
	deliveries  *docTable[*delivery.Delivery, entity.LineItem]
	transfers   *docTable[*transfer.Transfer, entity.LineItem]
	adjustments *docTable[*adjustment.Adjustment, adjustment.Line]

	numbers *numerator.MemoryGenerator
}

// New creates an empty store.
func New() *Store {
	s := &Store{
		locks:      newLockTable(),
		products:   make(map[id.ID]entity.Product),
		warehouses: make(map[id.ID]entity.Warehouse),
		levels:     make(map[entity.StockKey]entity.StockLevel),
		movementN:  make(map[id.ID]int),
		numbers:    numerator.NewMemoryGenerator(),
	}
	s.receipts = newDocTable[*receipt.Receipt, entity.LineItem](s, "receipt", func(d *receipt.Receipt) *receipt.Receipt {
		c := *d
		c.Lines = nil
		c.AppliedAt = cloneTime(d.AppliedAt)
		return &c
	})
	s.deliveries = newDocTable[*delivery.Delivery, entity.LineItem](s, "delivery", func(d *delivery.Delivery) *delivery.Delivery {
		c := *d
		c.Lines = nil
		c.AppliedAt = cloneTime(d.AppliedAt)
		return &c
	})
	s.transfers = newDocTable[*transfer.Transfer, entity.LineItem](s, "transfer", func(d *transfer.Transfer) *transfer.Transfer {
		c := *d
		c.Lines = nil
		c.AppliedAt = cloneTime(d.AppliedAt)
		return &c
	})
	s.adjustments = newDocTable[*adjustment.Adjustment, adjustment.Line](s, "adjustment", func(d *adjustment.Adjustment) *adjustment.Adjustment {
		c := *d
		c.Lines = nil
		c.AppliedAt = cloneTime(d.AppliedAt)
		return &c
	})
	return s
}

func (s *Store) Products() product.Repository     { return (*productRepo)(s) }
func (s *Store) Warehouses() warehouse.Repository { return (*warehouseRepo)(s) }
func (s *Store) Stock() stock.Repository           { return (*stockRepo)(s) }
func (s *Store) Numerator() numerator.Generator    { return s.numbers }

func (s *Store) Receipts() receipt.Repository       { return s.receipts }
func (s *Store) Deliveries() delivery.Repository    { return s.deliveries }
func (s *Store) Transfers() transfer.Repository     { return s.transfers }
func (s *Store) Adjustments() adjustment.Repository { return s.adjustments }
