package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/config"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/notify"
)

func testConfig(mr *miniredis.Miniredis) config.RedisConfig {
	return config.RedisConfig{
		URL:              "redis://" + mr.Addr() + "/0",
		StockChannel:     "test:stock",
		DashboardChannel: "test:dashboard",
	}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), testConfig(mr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = NewClient(context.Background(), config.RedisConfig{})
	assert.Error(t, err)
}

func TestSinkDeliverStockEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(mr)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, cfg.StockChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	productID, warehouseID := id.New(), id.New()
	sink := NewSink(client, cfg)
	err = sink.Deliver(ctx, notify.Event{
		Name: notify.EventStockUpdate,
		Stock: &notify.StockChanged{
			ProductID:    productID,
			WarehouseID:  warehouseID,
			Quantity:     40,
			Change:       -10,
			MovementType: entity.MovementDelivery,
			ReferenceID:  "DO-2026-00001",
		},
	})
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var got notify.StockChanged
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, productID, got.ProductID)
		assert.Equal(t, int64(40), got.Quantity)
		assert.Equal(t, "DO-2026-00001", got.ReferenceID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSinkChannels(t *testing.T) {
	sink := NewSink(nil, config.RedisConfig{StockChannel: "s", DashboardChannel: "d"})

	ch, ok := sink.Channel(notify.EventDashboardUpdate)
	assert.True(t, ok)
	assert.Equal(t, "d", ch)

	_, ok = sink.Channel("unknown")
	assert.False(t, ok)

	err := sink.PublishRaw(context.Background(), "unknown", []byte("{}"))
	assert.Error(t, err)
}
