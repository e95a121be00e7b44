package reference

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
)

// pageSize — сколько записей целевого справочника тянем под подписи.
const pageSize = 200

// Option — пара значение/подпись для селекта ссылочного поля.
type Option struct {
	Value int64  `json:"value"`
	Label string `json:"label"`
}

// RecordLister — кусок шлюза, нужный кэшу.
type RecordLister interface {
	ListRecords(ctx context.Context, directoryID int64, page, size int, search string) (model.RecordPage, error)
}

type entry struct {
	labels   map[int64]string
	options  []Option
	loadedAt time.Time
}

// LabelCache резолвит id записей в человекочитаемые подписи по первому
// строковому полю целевого справочника. Загрузка по требованию,
// single-flight на каждый directoryId. TTL > 0 включает протухание
// записей; ноль — поведение «загрузили и навсегда».
type LabelCache struct {
	api RecordLister
	ttl time.Duration

	mu      sync.RWMutex
	entries map[int64]*entry
	flight  singleflight.Group
}

func NewLabelCache(api RecordLister, ttl time.Duration) *LabelCache {
	return &LabelCache{
		api:     api,
		ttl:     ttl,
		entries: make(map[int64]*entry),
	}
}

// EnsureLoaded гарантирует, что для справочника directoryID есть свежий
// кэш подписей. Конкурентные вызовы по одному id разделяют один запрос.
// Неудачная загрузка ничего не кэширует — следующий вызов повторит её.
func (c *LabelCache) EnsureLoaded(ctx context.Context, directoryID int64, firstStringField string) error {
	if c.fresh(directoryID) {
		return nil
	}

	_, err, _ := c.flight.Do(strconv.FormatInt(directoryID, 10), func() (any, error) {
		if c.fresh(directoryID) {
			return nil, nil
		}
		return nil, c.load(ctx, directoryID, firstStringField)
	})
	return err
}

func (c *LabelCache) load(ctx context.Context, directoryID int64, firstStringField string) error {
	page, err := c.api.ListRecords(ctx, directoryID, 0, pageSize, "")
	if err != nil {
		return err
	}

	labels := make(map[int64]string, len(page.Content))
	options := make([]Option, 0, len(page.Content))
	for _, r := range page.Content {
		label := labelFor(r, firstStringField)
		labels[r.ID] = label
		options = append(options, Option{Value: r.ID, Label: label})
	}

	c.mu.Lock()
	c.entries[directoryID] = &entry{labels: labels, options: options, loadedAt: time.Now()}
	c.mu.Unlock()
	return nil
}

// labelFor: значение первого строкового поля, если оно непустая строка,
// иначе "#<id>".
func labelFor(r model.Record, firstStringField string) string {
	if firstStringField != "" {
		if v, ok := r.Values[firstStringField]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("#%d", r.ID)
}

func (c *LabelCache) fresh(directoryID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.entries[directoryID]
	if e == nil {
		return false
	}
	return c.ttl == 0 || time.Since(e.loadedAt) < c.ttl
}

// Label возвращает подпись записи, если справочник уже загружен.
func (c *LabelCache) Label(directoryID, recordID int64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.entries[directoryID]
	if e == nil {
		return "", false
	}
	label, ok := e.labels[recordID]
	return label, ok
}

// Options возвращает список опций для селекта, если справочник загружен.
func (c *LabelCache) Options(directoryID int64) ([]Option, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.entries[directoryID]
	if e == nil {
		return nil, false
	}
	return append([]Option(nil), e.options...), true
}

// Invalidate сбрасывает кэш одного справочника (например, после
// редактирования его записей).
func (c *LabelCache) Invalidate(directoryID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, directoryID)
}
