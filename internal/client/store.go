package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
)

// DefaultDraftName подставляется вместо пустого имени при сохранении.
const DefaultDraftName = "Без названия"

// DraftRecord — запись, набранная в черновике и ещё не отправленная.
type DraftRecord struct {
	ID     int64
	Values map[string]any
}

// Item — элемент единого списка: черновик или подтверждённый справочник.
// Дискриминант — явный флаг Draft, а не знак id; при этом id черновиков
// всегда отрицательные, id бэкенда положительные, так что пространства
// не пересекаются по построению.
type Item struct {
	ID          int64
	Name        string
	Code        string
	Fields      []model.Field
	FieldCount  int64
	RecordCount int64
	Draft       bool
	// Records — буфер записей, есть только у черновиков. У подтверждённых
	// справочников записи ходят страницами с бэкенда.
	Records []DraftRecord
}

// API — граница шлюза, которая нужна стору. *Gateway её реализует.
type API interface {
	ListDirectories(ctx context.Context) ([]model.DirectoryAndCount, error)
	CreateDirectory(ctx context.Context, dto model.DirectoryCreate) (model.Directory, error)
	UpdateDirectory(ctx context.Context, dto model.Directory) (model.Directory, error)
	CreateRecord(ctx context.Context, directoryID int64, values map[string]any) (model.Record, error)
}

// Store — клиентский стор синхронизации справочников: единый список
// черновиков и подтверждённых сущностей, single-flight начальной загрузки
// и протокол save черновика (create + прогон буфера записей + refetch).
// Безопасен для конкурентного использования.
type Store struct {
	api API

	mu      sync.Mutex
	items   []Item
	loading bool
	loaded  bool
	lastErr error

	flight singleflight.Group

	draftClock int64 // мс, строго растёт — отрицательные id черновиков
	recClock   int64 // то же для id черновых записей (положительные)
}

func NewStore(api API) *Store {
	return &Store{api: api}
}

// EnsureLoaded — идемпотентная начальная загрузка. Конкурентные вызовы
// до завершения загрузки разделяют один запрос к бэкенду.
func (s *Store) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}

	_, err, _ := s.flight.Do("directories", func() (any, error) {
		// перепроверка: загрузка могла завершиться, пока мы ждали Do
		s.mu.Lock()
		done := s.loaded
		s.mu.Unlock()
		if done {
			return nil, nil
		}
		return nil, s.FetchAll(ctx)
	})
	return err
}

// FetchAll тянет весь список с бэкенда. Черновики из текущего списка
// сохраняются, старые подтверждённые записи заменяются свежими.
func (s *Store) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	remote, err := s.api.ListDirectories(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		return err
	}

	next := make([]Item, 0, len(s.items)+len(remote))
	for _, it := range s.items {
		if it.Draft {
			next = append(next, it)
		}
	}
	for _, d := range remote {
		next = append(next, Item{
			ID:          d.ID,
			Name:        d.Name,
			Code:        d.Code,
			Fields:      append([]model.Field(nil), d.Fields...),
			FieldCount:  d.FieldCount,
			RecordCount: d.RecordCount,
		})
	}
	s.items = next
	s.loaded = true
	return nil
}

// CreateDraft добавляет пустой черновик и возвращает его снимок.
// Бэкенд не трогается.
func (s *Store) CreateDraft() Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := -s.nextDraftClock()
	draft := Item{
		ID:      id,
		Name:    "",
		Code:    fmt.Sprintf("new_%d", -id),
		Fields:  []model.Field{},
		Draft:   true,
		Records: []DraftRecord{},
	}
	s.items = append(s.items, draft)
	return cloneItem(draft)
}

func (s *Store) SetName(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i].Name = name
	}
}

func (s *Store) AddField(id int64, field model.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i].Fields = append(s.items[i].Fields, field)
		s.items[i].FieldCount = int64(len(s.items[i].Fields))
	}
}

// RemoveField удаляет поле по позиции; индекс вне диапазона — no-op.
func (s *Store) RemoveField(id int64, idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 || idx < 0 || idx >= len(s.items[i].Fields) {
		return
	}
	s.items[i].Fields = append(s.items[i].Fields[:idx], s.items[i].Fields[idx+1:]...)
	s.items[i].FieldCount = int64(len(s.items[i].Fields))
}

// AddDraftRecord кладёт запись в буфер черновика и возвращает её локальный
/// id. Для подтверждённых справочников — no-op: их записи живут на бэкенде.
func (s *Store) AddDraftRecord(directoryID int64, values map[string]any) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(directoryID)
	if i < 0 || !s.items[i].Draft {
		return 0, false
	}
	rec := DraftRecord{ID: s.nextRecClock(), Values: copyValues(values)}
	s.items[i].Records = append(s.items[i].Records, rec)
	s.items[i].RecordCount = int64(len(s.items[i].Records))
	return rec.ID, true
}

func (s *Store) DeleteDraftRecord(directoryID, recordID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(directoryID)
	if i < 0 || !s.items[i].Draft {
		return
	}
	recs := s.items[i].Records[:0:0]
	for _, r := range s.items[i].Records {
		if r.ID != recordID {
			recs = append(recs, r)
		}
	}
	s.items[i].Records = recs
	s.items[i].RecordCount = int64(len(recs))
}

// Save переводит черновик в подтверждённое состояние либо отправляет
// update подтверждённого справочника. Возвращает id сохранённой сущности;
// found=false (без ошибки), если id не нашёлся. До успеха удалённого
// вызова items не меняется.
func (s *Store) Save(ctx context.Context, directoryID int64) (savedID int64, found bool, err error) {
	s.mu.Lock()
	i := s.indexOf(directoryID)
	if i < 0 {
		s.mu.Unlock()
		return 0, false, nil
	}
	snap := cloneItem(s.items[i])
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	if snap.Draft {
		savedID, err = s.saveDraft(ctx, snap)
	} else {
		savedID, err = s.savePersisted(ctx, snap)
	}

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = err
	}
	s.mu.Unlock()

	if err != nil {
		return 0, true, err
	}
	return savedID, true, nil
}

func (s *Store) saveDraft(ctx context.Context, d Item) (int64, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		name = DefaultDraftName
	}

	created, err := s.api.CreateDirectory(ctx, model.DirectoryCreate{Name: name, Fields: d.Fields})
	if err != nil {
		return 0, err
	}

	// прогон буфера записей на новый id; падение любой из них валит save,
	// черновик остаётся на месте и может быть сохранён повторно
	g, gctx := errgroup.WithContext(ctx)
	for i, rec := range d.Records {
		i, rec := i, rec
		g.Go(func() error {
			if _, err := s.api.CreateRecord(gctx, created.ID, rec.Values); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.removeByID(d.ID)
	s.mu.Unlock()

	// авторитетное состояние (включая recordCount) берём с бэкенда
	if err := s.FetchAll(ctx); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (s *Store) savePersisted(ctx context.Context, d Item) (int64, error) {
	updated, err := s.api.UpdateDirectory(ctx, model.Directory{
		ID:     d.ID,
		Name:   strings.TrimSpace(d.Name),
		Code:   d.Code,
		Fields: d.Fields,
	})
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(d.ID); i >= 0 {
		// ответ update не несёт recordCount — оставляем прежний
		s.items[i] = Item{
			ID:          updated.ID,
			Name:        updated.Name,
			Code:        updated.Code,
			Fields:      append([]model.Field(nil), updated.Fields...),
			FieldCount:  int64(len(updated.Fields)),
			RecordCount: d.RecordCount,
		}
	}
	return d.ID, nil
}

func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// GetByID возвращает снимок элемента.
func (s *Store) GetByID(id int64) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return cloneItem(s.items[i]), true
	}
	return Item{}, false
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, cloneItem(it))
	}
	return out
}

func (s *Store) Drafts() []Item    { return s.filter(true) }
func (s *Store) Persisted() []Item { return s.filter(false) }

func (s *Store) filter(draft bool) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Item
	for _, it := range s.items {
		if it.Draft == draft {
			out = append(out, cloneItem(it))
		}
	}
	return out
}

// --- внутреннее, всё под s.mu ---

func (s *Store) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeByID(id int64) {
	out := s.items[:0]
	for _, it := range s.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	s.items = out
}

// nextDraftClock — миллисекундные часы, строго растущие даже при двух
// вызовах в одну миллисекунду: id черновиков в процессе не повторяются.
func (s *Store) nextDraftClock() int64 {
	now := time.Now().UnixMilli()
	if now <= s.draftClock {
		now = s.draftClock + 1
	}
	s.draftClock = now
	return now
}

func (s *Store) nextRecClock() int64 {
	now := time.Now().UnixMilli()
	if now <= s.recClock {
		now = s.recClock + 1
	}
	s.recClock = now
	return now
}

// cloneItem копирует слайсы и value-карты записей: снимок не делит
// состояние с буфером стора. Слайсы не-nil: пустой список полей должен
// уходить на бэкенд как [], а не null.
func cloneItem(it Item) Item {
	out := it
	out.Fields = make([]model.Field, len(it.Fields))
	copy(out.Fields, it.Fields)
	out.Records = make([]DraftRecord, len(it.Records))
	for i, r := range it.Records {
		out.Records[i] = DraftRecord{ID: r.ID, Values: copyValues(r.Values)}
	}
	return out
}

func copyValues(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
