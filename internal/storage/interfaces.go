// Package storage описывает хранилище элементов, которые не удалось отправить сразу.
//
// Хранилище - это набор пар "ключ - элемент". Реализации:
//   - diskstore: один файл на ключ в каталоге, переживает перезапуск процесса
//   - memstore: в памяти процесса
//   - pgstore: таблица PostgreSQL
package storage

// Storage Хранилище элементов типа T по ключам типа K.
//
// Отсутствие ключа не является ошибкой: Item возвращает ok == false,
// Remove для отсутствующего ключа завершается успешно.
type Storage[K comparable, T any] interface {
	// Count Количество элементов в хранилище на текущий момент
	Count() (int, error)

	// Item Получение элемента по ключу
	Item(key K) (item T, ok bool, err error)

	// Set Запись (создание или перезапись) элемента
	Set(item T, key K) error

	// GetAllItems Все читаемые элементы, последние записанные - первыми.
	// Поврежденные элементы пропускаются.
	GetAllItems() ([]T, error)

	// Remove Удаление элемента по ключу
	Remove(key K) error

	// RemoveAll Удаление всех элементов
	RemoveAll() error
}
