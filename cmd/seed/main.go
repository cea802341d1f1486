// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"stockledger/internal/app"
	"stockledger/internal/config"
	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/documents/receipt"
	"stockledger/internal/domain/notify"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

type demoProduct struct {
	sku, name, unit string
	reorder         int64
	opening         int64
}

var demoProducts = []demoProduct{
	{"SKU-1001", "Steel bolt M8", "pcs", 200, 1500},
	{"SKU-1002", "Steel nut M8", "pcs", 200, 1800},
	{"SKU-2001", "Copper wire 2.5mm", "m", 50, 600},
	{"SKU-3001", "Safety gloves", "pair", 20, 120},
	{"SKU-4001", "Pallet wrap", "roll", 5, 0},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.App.Storage != config.StoragePostgres {
		log.Fatal("seed requires postgres storage")
	}

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "seed"})

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.DSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool, "up"); err != nil {
		log.Fatalw("failed to migrate", "error", err)
	}

	txm := postgres.NewTxManager(pool, cfg.DB.StatementTimeout)
	services := app.NewServices(app.PostgresStorage(pool, txm, cfg.IdempotencyTTL), notify.Discard{})

	if err := seed(ctx, services, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}
	log.Info("seeding completed successfully")
}

func seed(ctx context.Context, services *app.Services, log *logger.Logger) error {
	mainWH := entity.NewWarehouse("Main warehouse", "WH-MAIN")
	mainWH.Address = "1 Dock Road"
	overflow := entity.NewWarehouse("Overflow", "WH-OVF")
	for _, w := range []*entity.Warehouse{mainWH, overflow} {
		if err := services.Warehouses.Create(ctx, w); err != nil {
			if apperror.HasCode(err, apperror.CodeDuplicate) {
				log.Infow("warehouse exists, skipping seed", "code", w.Code)
				return nil
			}
			return fmt.Errorf("create warehouse %s: %w", w.Code, err)
		}
	}

	opening := receipt.NewReceipt(mainWH.ID, "Opening balance")
	for _, d := range demoProducts {
		p := entity.NewProduct(d.sku, d.name, d.unit)
		p.ReorderLevel = d.reorder
		if err := services.Products.Create(ctx, p); err != nil {
			return fmt.Errorf("create product %s: %w", d.sku, err)
		}
		if d.opening > 0 {
			opening.Lines = append(opening.Lines, entity.LineItem{
				LineNo:    len(opening.Lines) + 1,
				ProductID: p.ID,
				Quantity:  d.opening,
			})
		}
	}

	if err := services.Receipts.Create(ctx, opening); err != nil {
		return fmt.Errorf("create opening receipt: %w", err)
	}
	if _, err := services.Receipts.Validate(ctx, opening.ID); err != nil {
		return fmt.Errorf("validate opening receipt: %w", err)
	}

	log.Infow("demo data seeded",
		"warehouses", 2,
		"products", len(demoProducts),
		"receipt", opening.Number)
	return nil
}
