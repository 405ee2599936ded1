package memstore

import (
	"fmt"
	"sort"
	"sync"

	"metrics-buffer/internal/storage"
)

var _ storage.Storage[string, struct{}] = (*Storage[struct{}])(nil)

type (
	record[T any] struct {
		item T
		seq  uint64
	}

	// Storage Хранилище в памяти процесса.
	// Порядок GetAllItems определяется порядком записи.
	Storage[T any] struct {
		mu      sync.RWMutex
		records map[string]record[T]
		seq     uint64
	}
)

func New[T any]() *Storage[T] {
	return &Storage[T]{
		records: make(map[string]record[T]),
	}
}

func (store *Storage[T]) Count() (int, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return len(store.records), nil
}

func (store *Storage[T]) Item(key string) (T, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	rec, ok := store.records[key]
	return rec.item, ok, nil
}

// Set Добавление элемента, или обновление, если ранее он существовал
func (store *Storage[T]) Set(item T, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.records == nil {
		store.records = make(map[string]record[T])
	}

	store.seq++
	store.records[key] = record[T]{item: item, seq: store.seq}

	return nil
}

// SetSlice Запись набора элементов, ключ вычисляется функцией key
func (store *Storage[T]) SetSlice(items []T, key func(T) string) error {
	for _, item := range items {
		if err := store.Set(item, key(item)); err != nil {
			return fmt.Errorf("can not set items: %w", err)
		}
	}

	return nil
}

// GetAllItems Все элементы, последние записанные - первыми
func (store *Storage[T]) GetAllItems() ([]T, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	records := make([]record[T], 0, len(store.records))
	for _, rec := range store.records {
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].seq > records[j].seq
	})

	items := make([]T, len(records))
	for i, rec := range records {
		items[i] = rec.item
	}

	return items, nil
}

func (store *Storage[T]) Remove(key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.records, key)
	return nil
}

func (store *Storage[T]) RemoveAll() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.records = make(map[string]record[T])
	return nil
}
