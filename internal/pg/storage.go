package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/storage"
)

// Storage — Postgres-реализация storage.Store. Поля справочника и значения
// записей лежат в jsonb.
type Storage struct {
	db      *sql.DB
	entropy io.Reader
}

func NewStorage(db *sql.DB) *Storage {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Storage{db: db, entropy: ulid.Monotonic(src, 0)}
}

func (s *Storage) newCode() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Storage) ListDirectories(ctx context.Context) ([]model.DirectoryAndCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.code, d.fields, count(r.id)
		FROM directories d
		LEFT JOIN records r ON r.directory_id = d.id
		GROUP BY d.id
		ORDER BY d.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.DirectoryAndCount, 0)
	for rows.Next() {
		var (
			d      model.DirectoryAndCount
			fields []byte
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &fields, &d.RecordCount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fields, &d.Fields); err != nil {
			return nil, fmt.Errorf("directory %d: bad fields json: %w", d.ID, err)
		}
		d.FieldCount = int64(len(d.Fields))
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Storage) GetDirectory(ctx context.Context, id int64) (model.Directory, error) {
	var (
		d      model.Directory
		fields []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, code, fields FROM directories WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Code, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Directory{}, storage.ErrDirectoryNotFound
	}
	if err != nil {
		return model.Directory{}, err
	}
	if err := json.Unmarshal(fields, &d.Fields); err != nil {
		return model.Directory{}, fmt.Errorf("directory %d: bad fields json: %w", id, err)
	}
	return d, nil
}

func (s *Storage) DirectoryExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM directories WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (s *Storage) CreateDirectory(ctx context.Context, dto model.DirectoryCreate) (model.Directory, error) {
	fields, err := json.Marshal(dto.Fields)
	if err != nil {
		return model.Directory{}, err
	}
	code := s.newCode()

	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO directories (name, code, fields) VALUES ($1, $2, $3) RETURNING id`,
		dto.Name, code, fields).Scan(&id)
	if err != nil {
		return model.Directory{}, err
	}
	return model.Directory{ID: id, Name: dto.Name, Code: code, Fields: dto.Fields}, nil
}

func (s *Storage) UpdateDirectory(ctx context.Context, id int64, dto model.Directory) (model.Directory, error) {
	fields, err := json.Marshal(dto.Fields)
	if err != nil {
		return model.Directory{}, err
	}

	var code string
	err = s.db.QueryRowContext(ctx,
		`UPDATE directories SET name = $2, fields = $3 WHERE id = $1 RETURNING code`,
		id, dto.Name, fields).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Directory{}, storage.ErrDirectoryNotFound
	}
	if err != nil {
		return model.Directory{}, err
	}
	return model.Directory{ID: id, Name: dto.Name, Code: code, Fields: dto.Fields}, nil
}

func (s *Storage) ListRecords(ctx context.Context, directoryID int64, page, size int, search string) (model.RecordPage, error) {
	dir, err := s.GetDirectory(ctx, directoryID)
	if err != nil {
		return model.RecordPage{}, err
	}

	where := `directory_id = $1`
	args := []any{directoryID}
	if q := strings.TrimSpace(search); q != "" {
		// поиск только по строковым полям схемы
		var parts []string
		for _, f := range dir.Fields {
			if f.Type != model.FieldString {
				continue
			}
			args = append(args, f.Name, "%"+q+"%")
			parts = append(parts, fmt.Sprintf("vals ->> ($%d::text) ILIKE $%d", len(args)-1, len(args)))
		}
		if len(parts) == 0 {
			// строковых полей нет — искать не по чему
			return emptyPage(page, size), nil
		}
		where += " AND (" + strings.Join(parts, " OR ") + ")"
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM records WHERE `+where, args...).Scan(&total); err != nil {
		return model.RecordPage{}, err
	}

	args = append(args, size, page*size)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, vals FROM records WHERE %s ORDER BY id LIMIT $%d OFFSET $%d`,
			where, len(args)-1, len(args)), args...)
	if err != nil {
		return model.RecordPage{}, err
	}
	defer rows.Close()

	content := make([]model.Record, 0, size)
	for rows.Next() {
		var (
			r    model.Record
			vals []byte
		)
		if err := rows.Scan(&r.ID, &vals); err != nil {
			return model.RecordPage{}, err
		}
		if err := json.Unmarshal(vals, &r.Values); err != nil {
			return model.RecordPage{}, fmt.Errorf("record %d: bad values json: %w", r.ID, err)
		}
		content = append(content, r)
	}
	if err := rows.Err(); err != nil {
		return model.RecordPage{}, err
	}

	totalPages := 0
	if size > 0 && total > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return model.RecordPage{
		Content: content,
		Page: model.PageInfo{
			Size:          size,
			Number:        page,
			TotalElements: total,
			TotalPages:    totalPages,
		},
	}, nil
}

func emptyPage(page, size int) model.RecordPage {
	return model.RecordPage{
		Content: []model.Record{},
		Page:    model.PageInfo{Size: size, Number: page},
	}
}

func (s *Storage) CreateRecord(ctx context.Context, directoryID int64, values map[string]any) (model.Record, error) {
	if ok, err := s.DirectoryExists(ctx, directoryID); err != nil {
		return model.Record{}, err
	} else if !ok {
		return model.Record{}, storage.ErrDirectoryNotFound
	}

	vals, err := json.Marshal(values)
	if err != nil {
		return model.Record{}, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO records (directory_id, vals) VALUES ($1, $2) RETURNING id`,
		directoryID, vals).Scan(&id)
	if err != nil {
		return model.Record{}, err
	}
	return model.Record{ID: id, Values: values}, nil
}

func (s *Storage) DeleteRecord(ctx context.Context, recordID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, recordID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrRecordNotFound
	}
	return nil
}

func (s *Storage) RecordExists(ctx context.Context, directoryID, recordID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM records WHERE id = $1 AND directory_id = $2)`,
		recordID, directoryID).Scan(&ok)
	return ok, err
}
