package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-fridge/internal/infrastructure/store"
	"smart-fridge/internal/pkg/common"
)

type stubRenderer struct {
	texts []string
}

func (r *stubRenderer) RenderPlaceholder(text string, _ int, _ time.Time) (string, error) {
	r.texts = append(r.texts, text)
	return "data:image/png;base64,placeholder", nil
}

func newTestService(t *testing.T) (*Service, *stubRenderer, store.KV) {
	t.Helper()
	kv := store.NewMemory()
	renderer := &stubRenderer{}
	svc := NewService(kv, renderer)

	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}
	return svc, renderer, kv
}

const batchJSON = `{"ingredients":[{"name":"사과","quantity":2},{"name":"우유","quantity":1}],"totalCount":99,"warning":"w"}`

func TestSaveAndGet(t *testing.T) {
	svc, renderer, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Save(ctx, SaveRequest{
		ImageData:      "data:image/jpeg;base64,abc",
		IngredientData: json.RawMessage(batchJSON),
		Timestamp:      "2026-04-01T08:00:00.000Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", id)
	assert.Empty(t, renderer.texts)

	rec, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,abc", rec.ImageData)
	assert.Equal(t, "2026-04-01T08:00:00.000Z", rec.Timestamp)
	assert.Len(t, rec.IngredientData.Ingredients, 2)
	assert.Equal(t, 3, rec.IngredientData.TotalCount)
	assert.Equal(t, "w", rec.IngredientData.Warning)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSaveRendersPlaceholder(t *testing.T) {
	svc, renderer, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Save(ctx, SaveRequest{IngredientData: json.RawMessage(batchJSON), SourceText: "사과 두 개랑 우유"})
	require.NoError(t, err)
	rec, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,placeholder", rec.ImageData)
	assert.NotEmpty(t, rec.Timestamp)

	_, err = svc.Save(ctx, SaveRequest{IngredientData: json.RawMessage(batchJSON)})
	require.NoError(t, err)
	assert.Equal(t, []string{"사과 두 개랑 우유", "사과, 우유"}, renderer.texts)
}

func TestSaveRejectsUnknownShape(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, raw := range []string{"", "null", `{"foo":1}`, `[1,2]`, `{"ingredients":[]}`, `{"ingredients":null}`} {
		t.Run(raw, func(t *testing.T) {
			_, err := svc.Save(context.Background(), SaveRequest{IngredientData: json.RawMessage(raw)})
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, common.StatusOf(err))
		})
	}

	records, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSavedItemsAreFullyPopulated(t *testing.T) {
	svc, _, kv := newTestService(t)
	ctx := context.Background()

	id, err := svc.Save(ctx, SaveRequest{
		ImageData:      "data:image/png;base64,x",
		IngredientData: json.RawMessage(`{"ingredients":[{"name":" 사과 ","freshness":"FAIR"}]}`),
	})
	require.NoError(t, err)

	legacy := `{"id":"bare","imageData":"x","ingredientData":{"ingredients":[{"name":"우유","quantity":0}]},"timestamp":"t","createdAt":"2025-01-01T00:00:00Z"}`
	require.NoError(t, kv.Set(ctx, recordKey("bare"), []byte(legacy)))

	for _, recID := range []string{id, "bare"} {
		rec, err := svc.Get(ctx, recID)
		require.NoError(t, err)
		require.Len(t, rec.IngredientData.Ingredients, 1)

		item := rec.IngredientData.Ingredients[0]
		assert.NotEmpty(t, item.Name)
		assert.Equal(t, 1, item.Quantity)
		assert.Equal(t, 70, item.Confidence)
		assert.True(t, item.Freshness.Valid())
		assert.NotEmpty(t, item.Storage)
		assert.NotEmpty(t, item.Recipes)
		assert.NotEmpty(t, item.Tips)
		assert.Equal(t, "정보 없음", item.Nutrition.Vitamin)
		assert.Equal(t, 1, rec.IngredientData.TotalCount)
	}

	rec, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "사과", rec.IngredientData.Ingredients[0].Name)
	assert.Equal(t, common.FreshnessFair, rec.IngredientData.Ingredients[0].Freshness)
}

func TestLegacySingleIngredientIsNormalized(t *testing.T) {
	svc, _, kv := newTestService(t)
	ctx := context.Background()

	legacy := `{"id":"old","imageData":"data:image/png;base64,x","ingredientData":{"name":"토마토","quantity":3,"confidence":80,"_warning":"low"},"timestamp":"t","createdAt":"2025-01-01T00:00:00Z"}`
	require.NoError(t, kv.Set(ctx, recordKey("old"), []byte(legacy)))

	rec, err := svc.Get(ctx, "old")
	require.NoError(t, err)
	require.Len(t, rec.IngredientData.Ingredients, 1)
	assert.Equal(t, "토마토", rec.IngredientData.Ingredients[0].Name)
	assert.Equal(t, 3, rec.IngredientData.TotalCount)
	assert.Equal(t, "low", rec.IngredientData.Warning)
}

func TestRecent(t *testing.T) {
	svc, _, kv := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.Save(ctx, SaveRequest{ImageData: "data:image/png;base64,x", IngredientData: json.RawMessage(batchJSON)})
		require.NoError(t, err)
	}
	require.NoError(t, kv.Set(ctx, recordKey("broken"), []byte("{not json")))
	require.NoError(t, kv.Set(ctx, "fridge:ingredients", []byte("[]")))

	records, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, DefaultLimit)
	assert.Equal(t, "rec-12", records[0].ID)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i-1].CreatedAt.After(records[i].CreatedAt))
	}

	records, err = svc.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = svc.Recent(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, records, 12)
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Save(ctx, SaveRequest{ImageData: "data:image/png;base64,x", IngredientData: json.RawMessage(batchJSON)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))

	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, "Record not found", common.MessageOf(err))

	err = svc.Delete(ctx, id)
	assert.Equal(t, http.StatusNotFound, common.StatusOf(err))
}
