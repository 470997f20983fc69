package fridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-fridge/internal/infrastructure/store"
	"smart-fridge/internal/pkg/common"
)

// failingRepo 讀或寫時回傳錯誤
type failingRepo struct {
	items    []common.FridgeItem
	getErr   error
	putErr   error
	putCalls int
}

func (r *failingRepo) Get(context.Context) ([]common.FridgeItem, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return append([]common.FridgeItem(nil), r.items...), nil
}

func (r *failingRepo) Put(_ context.Context, items []common.FridgeItem) error {
	r.putCalls++
	if r.putErr != nil {
		return r.putErr
	}
	r.items = items
	return nil
}

func newTestService(t *testing.T) (*Service, store.KV) {
	t.Helper()
	kv := store.NewMemory()
	svc := NewService(NewKVRepository(kv))
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	svc.newID = sequentialIDs()
	return svc, kv
}

func TestServiceAddBatchAndList(t *testing.T) {
	svc, kv := newTestService(t)
	ctx := context.Background()

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.AddBatch(ctx, []Incoming{{Name: "사과", Quantity: 2, Freshness: common.FreshnessGood}})
	require.NoError(t, err)
	items, err = svc.AddBatch(ctx, []Incoming{{Name: "사과", Quantity: 3}, {Name: "우유", Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, "id-1", items[0].ID)

	// 整份清單存在單一鍵
	raw, err := kv.Get(ctx, InventoryKey)
	require.NoError(t, err)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Len(t, stored, 2)
	assert.Contains(t, stored[1], "expiryDate")
	assert.Nil(t, stored[1]["expiryDate"])

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, listed)
}

func TestServiceAddBatchReconciliationError(t *testing.T) {
	boom := errors.New("disk full")
	tests := []struct {
		name string
		repo *failingRepo
	}{
		{"read failure", &failingRepo{getErr: boom}},
		{"write failure", &failingRepo{putErr: boom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo)
			_, err := svc.AddBatch(context.Background(), []Incoming{{Name: "a", Quantity: 1}})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrReconciliation)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, common.ErrCodeReconciliation, common.CodeOf(err))
			assert.Equal(t, http.StatusInternalServerError, common.StatusOf(err))
		})
	}
}

func TestServiceUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddBatch(ctx, []Incoming{{Name: "사과", Quantity: 2}})
	require.NoError(t, err)

	var u Update
	require.NoError(t, json.Unmarshal([]byte(`{"name":"풋사과","quantity":0,"expiryDate":"2026-05-10"}`), &u))
	item, err := svc.Update(ctx, "id-1", u)
	require.NoError(t, err)
	assert.Equal(t, "풋사과", item.Name)
	assert.Equal(t, 0, item.Quantity)
	require.NotNil(t, item.ExpiryDate)
	assert.Equal(t, "2026-05-10", *item.ExpiryDate)

	// 空名稱與缺少的欄位保持原值
	require.NoError(t, json.Unmarshal([]byte(`{"name":""}`), &u))
	item, err = svc.Update(ctx, "id-1", u)
	require.NoError(t, err)
	assert.Equal(t, "풋사과", item.Name)
	require.NotNil(t, item.ExpiryDate)

	// null 清除到期日
	require.NoError(t, json.Unmarshal([]byte(`{"expiryDate":null}`), &u))
	item, err = svc.Update(ctx, "id-1", u)
	require.NoError(t, err)
	assert.Nil(t, item.ExpiryDate)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, *item, items[0])
}

func TestServiceUpdateErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddBatch(ctx, []Incoming{{Name: "사과", Quantity: 2}})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "missing", Update{})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, "Ingredient not found", common.MessageOf(err))

	negative := -1
	_, err = svc.Update(ctx, "id-1", Update{Quantity: &negative})
	assert.True(t, common.IsValidationError(err))

	var u Update
	err = json.Unmarshal([]byte(`{"expiryDate":20260101}`), &u)
	assert.True(t, common.IsValidationError(err))
}

func TestServiceDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddBatch(ctx, []Incoming{{Name: "a", Quantity: 1}, {Name: "b", Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "id-1"))
	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Name)

	err = svc.Delete(ctx, "id-1")
	assert.Equal(t, http.StatusNotFound, common.StatusOf(err))
}

func TestCorruptInventoryIsNotOverwritten(t *testing.T) {
	svc, kv := newTestService(t)
	ctx := context.Background()
	corrupt := []byte(`[{"id":"a","name":"x","quantity":"oops"}]`)
	require.NoError(t, kv.Set(ctx, InventoryKey, corrupt))

	_, err := NewKVRepository(kv).Get(ctx)
	assert.ErrorIs(t, err, common.ErrTransport)

	_, err = svc.AddBatch(ctx, []Incoming{{Name: "계란", Quantity: 6}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrReconciliation)

	_, err = svc.List(ctx)
	assert.Equal(t, http.StatusInternalServerError, common.StatusOf(err))

	name := "달걀"
	_, err = svc.Update(ctx, "a", Update{Name: &name})
	require.Error(t, err)
	assert.Error(t, svc.Delete(ctx, "a"))

	raw, err := kv.Get(ctx, InventoryKey)
	require.NoError(t, err)
	assert.Equal(t, corrupt, raw)
}

func TestServiceUpdateRejectsDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddBatch(ctx, []Incoming{{Name: "사과", Quantity: 2}, {Name: "Milk", Quantity: 1}})
	require.NoError(t, err)

	name := "MILK"
	_, err = svc.Update(ctx, "id-1", Update{Name: &name})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, common.StatusOf(err))

	// 只改自己的大小寫不算重複
	name = "milk"
	item, err := svc.Update(ctx, "id-2", Update{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "milk", item.Name)

	items, err := svc.AddBatch(ctx, []Incoming{{Name: "milk", Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "사과", items[0].Name)
	assert.Equal(t, 2, items[1].Quantity)
}
