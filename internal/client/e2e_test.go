package client_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/api"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/client"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/reference"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/storage"
)

// Полный цикл против настоящего сервера: черновик → save → refetch →
// подписи ссылочных значений.
func TestEndToEndDraftSaveAndLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(api.NewRouter(storage.NewMemory(), zap.NewNop()))
	defer srv.Close()

	g := client.NewGateway(srv.URL)
	store := client.NewStore(g)
	ctx := context.Background()

	require.NoError(t, store.EnsureLoaded(ctx))
	assert.Empty(t, store.Items())

	// черновик справочника стран с буфером записей
	draft := store.CreateDraft()
	store.SetName(draft.ID, "Страны")
	store.AddField(draft.ID, model.Field{Name: "Название", Type: model.FieldString})
	_, ok := store.AddDraftRecord(draft.ID, map[string]any{"Название": "Россия"})
	require.True(t, ok)
	_, ok = store.AddDraftRecord(draft.ID, map[string]any{"Название": ""})
	require.True(t, ok)

	savedID, found, err := store.Save(ctx, draft.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Positive(t, savedID)

	// после save черновика нет, есть подтверждённый с записями
	saved, ok := store.GetByID(savedID)
	require.True(t, ok)
	assert.False(t, saved.Draft)
	assert.Equal(t, int64(2), saved.RecordCount)
	assert.Empty(t, store.Drafts())

	// кэш подписей по первому строковому полю
	first, ok := model.FirstStringField(saved.Fields)
	require.True(t, ok)
	cache := reference.NewLabelCache(g, 0)
	require.NoError(t, cache.EnsureLoaded(ctx, savedID, first))

	// порядок создания записей при save не детерминирован (errgroup),
	// поэтому проверяем по множеству подписей
	opts, ok := cache.Options(savedID)
	require.True(t, ok)
	require.Len(t, opts, 2)
	labels := []string{opts[0].Label, opts[1].Label}
	assert.Contains(t, labels, "Россия")
	for _, o := range opts {
		if o.Label != "Россия" {
			assert.Equal(t, fmt.Sprintf("#%d", o.Value), o.Label, "пустое значение — фоллбэк на #id")
		}
	}

	// update подтверждённого: имя меняется, код и recordCount — нет
	store.SetName(savedID, "Страны мира")
	id2, found, err := store.Save(ctx, savedID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, savedID, id2)

	after, _ := store.GetByID(savedID)
	assert.Equal(t, "Страны мира", after.Name)
	assert.Equal(t, saved.Code, after.Code)
	assert.Equal(t, int64(2), after.RecordCount)
}

// Ошибка валидации бэкенда всплывает человекочитаемым сообщением.
func TestEndToEndValidationErrorSurfaced(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(api.NewRouter(storage.NewMemory(), zap.NewNop()))
	defer srv.Close()

	store := client.NewStore(client.NewGateway(srv.URL))
	ctx := context.Background()

	draft := store.CreateDraft()
	store.SetName(draft.ID, "X")
	store.AddField(draft.ID, model.Field{Name: "Число", Type: model.FieldNumber})
	store.AddDraftRecord(draft.ID, map[string]any{"Число": "не число"})

	_, _, err := store.Save(ctx, draft.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a number")
	assert.Error(t, store.Err())

	// черновик остался и может быть исправлен
	got, ok := store.GetByID(draft.ID)
	require.True(t, ok)
	assert.True(t, got.Draft)
}
