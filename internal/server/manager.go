package server

import (
	"fmt"
	"sync"

	"metrics-buffer/internal/storage"
	"metrics-buffer/pkg/errs"
	"metrics-buffer/pkg/logpack"
	metricPkg "metrics-buffer/pkg/metric"
)

type (
	OptionsManager func(*MetricsManager)

	// Checker Хранилище, которое умеет проверять свое состояние
	Checker interface {
		Health() bool
	}

	// MetricsManager Правила обновления метрик поверх хранилища:
	// значения counter суммируются, значения gauge заменяются.
	MetricsManager struct {
		mu      sync.Mutex
		storage storage.Storage[string, metricPkg.Metric]
		logger  *logpack.LogPack
		signKey []byte
	}
)

func NewManager(storage storage.Storage[string, metricPkg.Metric], logger *logpack.LogPack, opts ...OptionsManager) *MetricsManager {

	manager := &MetricsManager{
		storage: storage,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

func WithSignKey(signKey []byte) OptionsManager {
	return func(manager *MetricsManager) {
		manager.signKey = signKey
	}
}

func (manager *MetricsManager) Upsert(metric metricPkg.Metric) error {

	if err := manager.validate(metric); err != nil {
		return fmt.Errorf("could not upsert metric: %w", err)
	}

	manager.mu.Lock()
	defer manager.mu.Unlock()

	return manager.upsert(metric)
}

// UpsertSlice Обновление набора метрик. Метрики проверяются до записи первой из них.
func (manager *MetricsManager) UpsertSlice(metrics []metricPkg.Metric) error {

	for _, m := range metrics {
		if err := manager.validate(m); err != nil {
			return fmt.Errorf("could not upsert metrics: %w", err)
		}
	}

	manager.mu.Lock()
	defer manager.mu.Unlock()

	for _, m := range metrics {
		if err := manager.upsert(m); err != nil {
			return err
		}
	}

	return nil
}

func (manager *MetricsManager) Get(metric metricPkg.Metric) (metricPkg.Metric, error) {

	found, ok, err := manager.storage.Item(metric.Key())
	if err != nil {
		return metricPkg.Metric{}, err
	}

	if !ok {
		return metricPkg.Metric{}, errs.ErrNotFound
	}

	sign, err := found.Sign(manager.signKey)
	if err != nil {
		return metricPkg.Metric{}, err
	}

	found.Hash = sign
	return found, nil
}

func (manager *MetricsManager) GetSlice() ([]metricPkg.Metric, error) {
	return manager.storage.GetAllItems()
}

func (manager *MetricsManager) CheckHealth() bool {
	if checker, ok := manager.storage.(Checker); ok {
		return checker.Health()
	}

	_, err := manager.storage.Count()
	return err == nil
}

func (manager *MetricsManager) validate(metric metricPkg.Metric) error {

	if err := metric.Validate(); err != nil {
		return err
	}

	return metric.Verify(manager.signKey)
}

func (manager *MetricsManager) upsert(metric metricPkg.Metric) error {

	metric.Hash = ""

	if metric.MType == metricPkg.CounterType {
		prev, ok, err := manager.storage.Item(metric.Key())
		if err != nil {
			manager.logger.Err.Printf("could not read previous value of %s: %v\n", metric.Key(), err)
		}

		if ok {
			metric = metric.Merge(prev)
		}
	}

	if err := manager.storage.Set(metric, metric.Key()); err != nil {
		return fmt.Errorf("could not upsert metric %s: %w", metric.ShotString(), err)
	}

	return nil
}
