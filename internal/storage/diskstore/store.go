// Package diskstore - хранилище на диске: один файл на ключ в одном каталоге.
//
// Имя файла совпадает с ключом, содержимое - закодированный элемент,
// время изменения файла - время последней записи. По времени изменения
// GetAllItems упорядочивает элементы, поэтому порядок переживает перезапуск.
package diskstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"metrics-buffer/internal/storage"
	"metrics-buffer/internal/storage/codec"
	"metrics-buffer/pkg/errs"
	"metrics-buffer/pkg/logpack"
)

// Префикс временных файлов; ключи с таким префиксом запрещены
const tempPrefix = ".tmp-"

var _ storage.Storage[string, struct{}] = (*Store[struct{}])(nil)

type (
	Option[T any] func(*Store[T])

	Store[T any] struct {
		mu     sync.RWMutex
		dir    string
		perm   os.FileMode
		codec  codec.Codec[T]
		logger *logpack.LogPack
		now    func() time.Time
	}

	entry struct {
		name    string
		modTime time.Time
	}
)

// New Открытие хранилища в каталоге из cfg.
// Каталог создается при отсутствии; записанные ранее элементы доступны.
// По умолчанию элементы кодируются в JSON.
func New[T any](cfg Config, opts ...Option[T]) (*Store[T], error) {

	dir, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	if err := ensureDir(dir, cfg.perm()); err != nil {
		return nil, err
	}

	store := &Store[T]{
		dir:    dir,
		perm:   cfg.perm(),
		codec:  codec.JSON[T]{},
		logger: logpack.NewLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

func WithCodec[T any](c codec.Codec[T]) Option[T] {
	return func(store *Store[T]) {
		store.codec = c
	}
}

func WithLogger[T any](logger *logpack.LogPack) Option[T] {
	return func(store *Store[T]) {
		store.logger = logger
	}
}

// WithClock Источник времени записи элементов
func WithClock[T any](now func() time.Time) Option[T] {
	return func(store *Store[T]) {
		store.now = now
	}
}

// Dir Каталог хранилища
func (store *Store[T]) Dir() string {
	return store.dir
}

// FilePath Путь к файлу элемента с ключом key
func (store *Store[T]) FilePath(key string) string {
	return store.dir + string(filepath.Separator) + key
}

// ValidateKey Ключ должен быть допустимым именем файла внутри каталога
func ValidateKey(key string) error {

	switch {
	case key == "", key == ".", key == "..":
	case strings.ContainsAny(key, "/\\\x00"):
	case strings.HasPrefix(key, tempPrefix):
	default:
		return nil
	}

	return errs.ErrInvalidKey
}

func (store *Store[T]) path(op, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", errs.Wrap(op, key, errs.ErrInvalidKey, nil)
	}
	return store.FilePath(key), nil
}

// Count Количество элементов в каталоге, вычисляется при каждом вызове
func (store *Store[T]) Count() (int, error) {

	store.mu.RLock()
	defer store.mu.RUnlock()

	entries, err := store.entries()
	if err != nil {
		return 0, err
	}

	return len(entries), nil
}

// FileCount Синоним Count
func (store *Store[T]) FileCount() (int, error) {
	return store.Count()
}

// Item Получение элемента по ключу.
// Отсутствие файла - не ошибка, ошибка декодирования возвращается.
func (store *Store[T]) Item(key string) (T, bool, error) {

	var item T

	path, err := store.path("item", key)
	if err != nil {
		return item, false, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	// Подкаталоги и прочие нерегулярные файлы элементами не являются
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return item, false, nil
	}
	if err != nil {
		return item, false, errs.Wrap("item", key, errs.ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return item, false, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
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

// Set Запись элемента.
// Данные пишутся во временный файл, который затем атомарно заменяет файл ключа,
// поэтому при ошибке прежнее содержимое ключа не повреждается.
func (store *Store[T]) Set(item T, key string) error {

	path, err := store.path("set", key)
	if err != nil {
		return err
	}

	data, err := store.codec.Encode(item)
	if err != nil {
		return errs.Ensure("set", key, errs.ErrEncoding, err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	tmp, err := os.CreateTemp(store.dir, tempPrefix+"*")
	if err != nil {
		return errs.Wrap("set", key, errs.ErrIO, err)
	}

	tmpName := tmp.Name()
	committed := false

	defer func() {
		if committed {
			return
		}
		if errRemove := os.Remove(tmpName); errRemove != nil && !errors.Is(errRemove, fs.ErrNotExist) {
			store.logger.Err.Printf("could not remove temp file %s: %v\n", tmpName, errRemove)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errs.Wrap("set", key, errs.ErrIO, err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errs.Wrap("set", key, errs.ErrIO, err)
	}

	if err := tmp.Close(); err != nil {
		return errs.Wrap("set", key, errs.ErrIO, err)
	}

	if err := os.Chmod(tmpName, store.perm&0o666); err != nil {
		return errs.Wrap("set", key, errs.ErrIO, err)
	}

	now := store.now()
	if err := os.Chtimes(tmpName, now, now); err != nil {
		return errs.Wrap("set", key, errs.ErrIO, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errs.Wrap("set", key, errs.ErrIO, err)
	}

	committed = true
	return nil
}

// GetAllItems Все элементы, упорядоченные по времени записи: последние - первыми.
// При равном времени - по имени ключа. Файлы, которые не удалось прочитать
// или декодировать, пропускаются.
func (store *Store[T]) GetAllItems() ([]T, error) {

	store.mu.RLock()
	defer store.mu.RUnlock()

	entries, err := store.entries()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].modTime.Equal(entries[j].modTime) {
			return entries[i].modTime.After(entries[j].modTime)
		}
		return entries[i].name < entries[j].name
	})

	items := make([]T, 0, len(entries))

	for _, e := range entries {

		data, err := os.ReadFile(store.FilePath(e.name))
		if err != nil {
			store.logger.Err.Printf("skip item '%s': could not read file: %v\n", e.name, err)
			continue
		}

		item, err := store.codec.Decode(data)
		if err != nil {
			store.logger.Err.Printf("skip item '%s': %v\n", e.name, err)
			continue
		}

		items = append(items, item)
	}

	return items, nil
}

// Remove Удаление элемента. Отсутствующий ключ - не ошибка.
func (store *Store[T]) Remove(key string) error {

	path, err := store.path("remove", key)
	if err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap("remove", key, errs.ErrIO, err)
	}

	return nil
}

// RemoveAll Удаление всех файлов каталога; сам каталог остается
func (store *Store[T]) RemoveAll() error {

	store.mu.Lock()
	defer store.mu.Unlock()

	dirEntries, err := os.ReadDir(store.dir)
	if err != nil {
		return errs.Wrap("remove all", store.dir, errs.ErrIO, err)
	}

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		if err := os.Remove(store.FilePath(de.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap("remove all", de.Name(), errs.ErrIO, err)
		}
	}

	return nil
}

// DeleteAllFile Синоним RemoveAll
func (store *Store[T]) DeleteAllFile() error {
	return store.RemoveAll()
}

// String Состояние хранилища для логов
func (store *Store[T]) String() string {
	count, err := store.Count()
	if err != nil {
		return fmt.Sprintf("disk store %s: %v", store.dir, err)
	}
	return fmt.Sprintf("disk store %s: %d items", store.dir, count)
}

// entries Файлы элементов каталога вместе с временем изменения.
// Временные файлы и подкаталоги не считаются элементами.
func (store *Store[T]) entries() ([]entry, error) {

	dirEntries, err := os.ReadDir(store.dir)
	if err != nil {
		return nil, errs.Wrap("list", store.dir, errs.ErrIO, err)
	}

	entries := make([]entry, 0, len(dirEntries))

	for _, de := range dirEntries {
		if !de.Type().IsRegular() || strings.HasPrefix(de.Name(), tempPrefix) {
			continue
		}

		info, err := de.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errs.Wrap("list", de.Name(), errs.ErrIO, err)
		}

		entries = append(entries, entry{name: de.Name(), modTime: info.ModTime()})
	}

	return entries, nil
}
