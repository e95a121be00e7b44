package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Схема фиксированная: динамика живёт в jsonb (fields у справочника,
// values у записи), а не в DDL.
var bootstrapDDL = []string{
	`CREATE TABLE IF NOT EXISTS directories (
		id    bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name  text  NOT NULL,
		code  text  NOT NULL UNIQUE,
		fields jsonb NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		id           bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		directory_id bigint NOT NULL REFERENCES directories(id) ON DELETE CASCADE,
		vals         jsonb  NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_directory ON records (directory_id)`,
}

// Bootstrap применяет idempotent DDL (create ... if not exists).
// duplicate_object (42710) не считаем ошибкой.
func Bootstrap(db *sql.DB, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, stmt := range bootstrapDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "42710" {
				log.Info("DDL skipped (already exists)", zap.String("detail", strings.TrimSpace(pgErr.Message)))
				continue
			}
			return fmt.Errorf("DDL apply failed: %w", err)
		}
	}
	return nil
}
