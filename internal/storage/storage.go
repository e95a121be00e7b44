package storage

import (
	"context"
	"errors"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
)

var (
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrRecordNotFound    = errors.New("record not found")
)

// Store — хранилище справочников и записей за REST-слоем.
// Реализации: in-memory (по умолчанию) и Postgres (internal/pg).
type Store interface {
	// ListDirectories возвращает все справочники с агрегатами, в порядке id.
	ListDirectories(ctx context.Context) ([]model.DirectoryAndCount, error)
	// GetDirectory — справочник по id; ErrDirectoryNotFound, если нет.
	GetDirectory(ctx context.Context, id int64) (model.Directory, error)
	// DirectoryExists — быстрая проверка существования (для валидации ссылок).
	DirectoryExists(ctx context.Context, id int64) (bool, error)
	// CreateDirectory назначает id и код, сохраняет и возвращает результат.
	CreateDirectory(ctx context.Context, dto model.DirectoryCreate) (model.Directory, error)
	// UpdateDirectory перезаписывает имя и поля; код и id не меняются.
	UpdateDirectory(ctx context.Context, id int64, dto model.Directory) (model.Directory, error)

	// ListRecords — страница записей справочника; search фильтрует по
	// строковым полям (подстрока, без учёта регистра).
	ListRecords(ctx context.Context, directoryID int64, page, size int, search string) (model.RecordPage, error)
	// CreateRecord сохраняет уже провалидированные значения.
	CreateRecord(ctx context.Context, directoryID int64, values map[string]any) (model.Record, error)
	// DeleteRecord удаляет запись по её глобальному id.
	DeleteRecord(ctx context.Context, recordID int64) error
	// RecordExists — есть ли запись recordID в справочнике directoryID.
	RecordExists(ctx context.Context, directoryID, recordID int64) (bool, error)
}
