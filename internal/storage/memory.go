package storage

import (
	"context"
	"io"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
)

type storedDirectory struct {
	id     int64
	name   string
	code   string
	fields []model.Field
}

type storedRecord struct {
	id          int64
	directoryID int64
	values      map[string]any
}

// Memory — in-memory хранилище. Годится для разработки и тестов,
// продакшен ходит в Postgres.
type Memory struct {
	mu      sync.RWMutex
	dirs    map[int64]*storedDirectory
	recs    map[int64]*storedRecord
	nextDir int64
	nextRec int64
	entropy io.Reader
}

func NewMemory() *Memory {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Memory{
		dirs:    make(map[int64]*storedDirectory),
		recs:    make(map[int64]*storedRecord),
		entropy: ulid.Monotonic(src, 0),
	}
}

func (m *Memory) newCode() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), m.entropy).String()
}

func (m *Memory) ListDirectories(ctx context.Context) ([]model.DirectoryAndCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[int64]int64, len(m.dirs))
	for _, r := range m.recs {
		counts[r.directoryID]++
	}

	out := make([]model.DirectoryAndCount, 0, len(m.dirs))
	for _, d := range m.dirs {
		out = append(out, model.DirectoryAndCount{
			ID:          d.id,
			Name:        d.name,
			Code:        d.code,
			Fields:      append([]model.Field(nil), d.fields...),
			FieldCount:  int64(len(d.fields)),
			RecordCount: counts[d.id],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetDirectory(ctx context.Context, id int64) (model.Directory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d := m.dirs[id]
	if d == nil {
		return model.Directory{}, ErrDirectoryNotFound
	}
	return model.Directory{
		ID:     d.id,
		Name:   d.name,
		Code:   d.code,
		Fields: append([]model.Field(nil), d.fields...),
	}, nil
}

func (m *Memory) DirectoryExists(ctx context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[id] != nil, nil
}

func (m *Memory) CreateDirectory(ctx context.Context, dto model.DirectoryCreate) (model.Directory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextDir++
	d := &storedDirectory{
		id:     m.nextDir,
		name:   dto.Name,
		code:   m.newCode(),
		fields: append([]model.Field(nil), dto.Fields...),
	}
	m.dirs[d.id] = d
	return model.Directory{ID: d.id, Name: d.name, Code: d.code, Fields: append([]model.Field(nil), d.fields...)}, nil
}

func (m *Memory) UpdateDirectory(ctx context.Context, id int64, dto model.Directory) (model.Directory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.dirs[id]
	if d == nil {
		return model.Directory{}, ErrDirectoryNotFound
	}
	d.name = dto.Name
	d.fields = append([]model.Field(nil), dto.Fields...)
	return model.Directory{ID: d.id, Name: d.name, Code: d.code, Fields: append([]model.Field(nil), d.fields...)}, nil
}

func (m *Memory) ListRecords(ctx context.Context, directoryID int64, page, size int, search string) (model.RecordPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d := m.dirs[directoryID]
	if d == nil {
		return model.RecordPage{}, ErrDirectoryNotFound
	}

	all := make([]*storedRecord, 0)
	for _, r := range m.recs {
		if r.directoryID == directoryID {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].id < all[j].id })

	if q := strings.TrimSpace(search); q != "" {
		all = filterBySearch(all, d.fields, q)
	}

	total := int64(len(all))
	start := page * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	content := make([]model.Record, 0, end-start)
	for _, r := range all[start:end] {
		content = append(content, model.Record{ID: r.id, Values: copyValues(r.values)})
	}
	return model.RecordPage{
		Content: content,
		Page: model.PageInfo{
			Size:          size,
			Number:        page,
			TotalElements: total,
			TotalPages:    totalPages(total, size),
		},
	}, nil
}

// поиск — подстрока без учёта регистра, только по строковым полям
func filterBySearch(recs []*storedRecord, fields []model.Field, q string) []*storedRecord {
	q = strings.ToLower(q)
	out := recs[:0:0]
	for _, r := range recs {
		for _, f := range fields {
			if f.Type != model.FieldString {
				continue
			}
			if s, ok := r.values[f.Name].(string); ok && strings.Contains(strings.ToLower(s), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func totalPages(total int64, size int) int {
	if size <= 0 || total == 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

func copyValues(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

func (m *Memory) CreateRecord(ctx context.Context, directoryID int64, values map[string]any) (model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dirs[directoryID] == nil {
		return model.Record{}, ErrDirectoryNotFound
	}
	m.nextRec++
	r := &storedRecord{id: m.nextRec, directoryID: directoryID, values: copyValues(values)}
	m.recs[r.id] = r
	return model.Record{ID: r.id, Values: copyValues(r.values)}, nil
}

func (m *Memory) DeleteRecord(ctx context.Context, recordID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recs[recordID] == nil {
		return ErrRecordNotFound
	}
	delete(m.recs, recordID)
	return nil
}

func (m *Memory) RecordExists(ctx context.Context, directoryID, recordID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r := m.recs[recordID]
	return r != nil && r.directoryID == directoryID, nil
}
