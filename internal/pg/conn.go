package pg

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
)

const (
	connMaxLifetime = time.Hour
	maxOpenConns    = 16
	maxIdleConns    = 4
	pingTimeout     = 3 * time.Second
)

// Open открывает пул к Postgres и проверяет его пингом.
// Нагрузка у справочников читающая, поэтому пул шире, чем idle-хвост.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
