package pgstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"metrics-buffer/internal/storage"
	"metrics-buffer/internal/storage/codec"
	"metrics-buffer/pkg/errs"
	"metrics-buffer/pkg/logpack"
)

const (
	queryMigrate = `CREATE TABLE IF NOT EXISTS buffered_items (
                    key        TEXT PRIMARY KEY,
                    data       BYTEA NOT NULL,
                    updated_at TIMESTAMPTZ NOT NULL );`

	queryUpsert = `INSERT INTO buffered_items (key,data,updated_at)
                   VALUES ($1,$2,$3)
                   ON CONFLICT (key)
                   DO UPDATE
                   SET data=$2,updated_at=$3;`

	queryCount  = `SELECT COUNT(*) FROM buffered_items;`
	queryGet    = `SELECT data FROM buffered_items WHERE key=$1;`
	queryDelete = `DELETE FROM buffered_items WHERE key=$1;`
	queryClear  = `DELETE FROM buffered_items;`

	queryGetAll = `SELECT key,data
                   FROM buffered_items
                   ORDER BY updated_at DESC, key ASC;`
)

var _ storage.Storage[string, struct{}] = (*Storage[struct{}])(nil)

type (
	Option[T any] func(*Storage[T])

	Storage[T any] struct {
		db     *sql.DB
		codec  codec.Codec[T]
		logger *logpack.LogPack
		now    func() time.Time
	}
)

// New Подключение к базе данных и применение миграции
func New[T any](dsn string, opts ...Option[T]) (*Storage[T], error) {

	if len(dsn) < 1 {
		return nil, errs.ErrInvalidDSN
	}

	driver, errConnect := sql.Open("postgres", dsn)
	if errConnect != nil {
		return nil, errs.Wrap("connect", "", errs.ErrFailedConnection, errConnect)
	}

	store := &Storage[T]{
		db:     driver,
		codec:  codec.JSON[T]{},
		logger: logpack.NewLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(store)
	}

	if errMigrate := store.applyMigrations(); errMigrate != nil {
		if errClose := driver.Close(); errClose != nil {
			store.logger.Err.Printf("could not close database connection: %v\n", errClose)
		}
		return nil, errs.Wrap("migrate", "", errs.ErrConfiguration, errMigrate)
	}

	return store, nil
}

func WithCodec[T any](c codec.Codec[T]) Option[T] {
	return func(store *Storage[T]) {
		store.codec = c
	}
}

func WithLogger[T any](logger *logpack.LogPack) Option[T] {
	return func(store *Storage[T]) {
		store.logger = logger
	}
}

func (store *Storage[T]) Count() (int, error) {

	var count int
	if err := store.db.QueryRow(queryCount).Scan(&count); err != nil {
		return 0, errs.Wrap("count", "", errs.ErrIO, err)
	}

	return count, nil
}

func (store *Storage[T]) Item(key string) (T, bool, error) {

	var (
		item T
		data []byte
	)

	err := store.db.QueryRow(queryGet, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return item, false, nil
	}
	if err != nil {
		return item, false, errs.Wrap("item", key, errs.ErrIO, err)
	}

	item, err = store.codec.Decode(data)
	if err != nil {
		return item, false, errs.Ensure("item", key, errs.ErrDecoding, err)
	}

	return item, true, nil
}

func (store *Storage[T]) Set(item T, key string) error {

	data, err := store.codec.Encode(item)
	if err != nil {
		return errs.Ensure("set", key, errs.ErrEncoding, err)
	}

	if _, err := store.db.Exec(queryUpsert, key, data, store.now().UTC()); err != nil {
		return errs.Wrap("set", key, errs.ErrIO, err)
	}

	return nil
}

// GetAllItems Все элементы, последние записанные - первыми.
// Строки, которые не удалось декодировать, пропускаются.
func (store *Storage[T]) GetAllItems() ([]T, error) {

	rows, errQuery := store.db.Query(queryGetAll)
	if errQuery != nil {
		return nil, errs.Wrap("get all", "", errs.ErrIO, errQuery)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			store.logger.Err.Printf("could not close rows: %v\n", err)
		}
	}()

	items := make([]T, 0)

	for rows.Next() {

		var (
			key  string
			data []byte
		)

		if err := rows.Scan(&key, &data); err != nil {
			store.logger.Err.Printf("error scan: %v\n", err)
			continue
		}

		item, err := store.codec.Decode(data)
		if err != nil {
			store.logger.Err.Printf("skip item '%s': %v\n", key, err)
			continue
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap("get all", "", errs.ErrIO, err)
	}

	return items, nil
}

func (store *Storage[T]) Remove(key string) error {

	if _, err := store.db.Exec(queryDelete, key); err != nil {
		return errs.Wrap("remove", key, errs.ErrIO, err)
	}

	return nil
}

func (store *Storage[T]) RemoveAll() error {

	if _, err := store.db.Exec(queryClear); err != nil {
		return errs.Wrap("remove all", "", errs.ErrIO, err)
	}

	return nil
}

func (store *Storage[T]) Health() bool {

	if store.db == nil {
		store.logger.Err.Println("database driver is nil")
		return false
	}

	if err := store.db.Ping(); err != nil {
		store.logger.Err.Printf("ping driver returned error: %v\n", err)
		return false
	}

	return true
}

func (store *Storage[T]) Close() error {
	return store.db.Close()
}

func (store *Storage[T]) applyMigrations() error {

	if _, err := store.db.Exec(queryMigrate); err != nil {
		return fmt.Errorf("could not apply migration: %w", err)
	}

	return nil
}
