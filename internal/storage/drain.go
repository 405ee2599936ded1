package storage

import (
	"errors"
	"fmt"
)

// ErrDiscard Возвращается из handle, если элемент нельзя обработать никогда:
// Drain удаляет его и продолжает обработку остальных.
var ErrDiscard = errors.New("item discarded")

// Drain Обработка всех элементов хранилища, последние записанные - первыми.
// Элемент удаляется из хранилища, если handle вернул nil или ErrDiscard.
// Обработка прерывается на первой другой ошибке handle, оставшиеся элементы сохраняются.
// Возвращается количество успешно обработанных элементов, отброшенные не учитываются.
func Drain[K comparable, T any](store Storage[K, T], key func(T) K, handle func(T) error) (int, error) {

	items, err := store.GetAllItems()
	if err != nil {
		return 0, fmt.Errorf("could not drain storage: %w", err)
	}

	handled := 0

	for _, item := range items {

		err := handle(item)
		if err != nil && !errors.Is(err, ErrDiscard) {
			return handled, err
		}

		if errRemove := store.Remove(key(item)); errRemove != nil {
			return handled, fmt.Errorf("could not remove drained item: %w", errRemove)
		}

		if err == nil {
			handled++
		}
	}

	return handled, nil
}
