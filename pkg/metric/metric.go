// Package metric описывает метрику агента: элемент буфера неотправленных метрик
// и единицу обмена между агентом и сервером.
package metric

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"metrics-buffer/pkg/errs"
)

const (
	GaugeType   string = "gauge"
	CounterType string = "counter"
)

type (
	OptionsMetric func(*Metric) error

	Metric struct {
		ID    string   `json:"id"`              // имя метрики
		MType string   `json:"type"`            // gauge или counter
		Delta *int64   `json:"delta,omitempty"` // значение counter
		Value *float64 `json:"value,omitempty"` // значение gauge
		Hash  string   `json:"hash,omitempty"`  // подпись метрики
	}
)

// CreateMetric Создание метрики типа typeMetric с именем id
func CreateMetric(typeMetric, id string, opts ...OptionsMetric) (Metric, error) {

	if len(id) < 1 {
		return Metric{}, errs.ErrInvalidID
	}

	if len(typeMetric) < 1 {
		return Metric{}, errs.ErrInvalidType
	}

	metric := Metric{
		ID:    id,
		MType: typeMetric,
	}

	for _, opt := range opts {
		if err := opt(&metric); err != nil {
			return Metric{}, err
		}
	}

	return metric, nil
}

// WithValue Значение метрики из строки: float для gauge, int для counter
func WithValue(data string) OptionsMetric {
	return func(metric *Metric) error {

		var err error

		switch metric.MType {
		case GaugeType:
			var val float64
			if val, err = strconv.ParseFloat(data, 64); err == nil {
				metric.setFloat(val)
			}

		case CounterType:
			var val int64
			if val, err = strconv.ParseInt(data, 10, 64); err == nil {
				metric.setInt(val)
			}

		default:
			return fmt.Errorf("could not create metric: %w", errs.ErrUnknownType)
		}

		if err != nil {
			return fmt.Errorf("could not create metric from '%s': %w", data, errs.ErrInvalidValue)
		}

		return nil
	}
}

// WithValueFloat Значение метрики; для counter дробная часть отбрасывается
func WithValueFloat(value float64) OptionsMetric {
	return func(metric *Metric) error {
		if !metric.known() {
			return fmt.Errorf("could not change data metric: %w", errs.ErrUnknownType)
		}

		metric.setFloat(value)
		return nil
	}
}

// WithValueInt Значение метрики; для gauge конвертируется в float64
func WithValueInt(value int64) OptionsMetric {
	return func(metric *Metric) error {
		if !metric.known() {
			return fmt.Errorf("could not change data metric: %w", errs.ErrUnknownType)
		}

		metric.setInt(value)
		return nil
	}
}

func (metric Metric) known() bool {
	return metric.MType == GaugeType || metric.MType == CounterType
}

func (metric *Metric) setFloat(value float64) {
	if metric.MType == CounterType {
		delta := int64(value)
		metric.Delta = &delta
		return
	}
	metric.Value = &value
}

func (metric *Metric) setInt(value int64) {
	if metric.MType == GaugeType {
		val := float64(value)
		metric.Value = &val
		return
	}
	metric.Delta = &value
}

// Key Ключ метрики в хранилище: <type>_<id>
func (metric Metric) Key() string {
	return metric.MType + "_" + metric.ID
}

// Validate Метрика должна иметь имя, известный тип и значение этого типа
func (metric Metric) Validate() error {

	if len(metric.ID) < 1 {
		return errs.ErrInvalidID
	}

	switch metric.MType {
	case GaugeType:
		if metric.Value == nil {
			return errs.ErrInvalidValue
		}
	case CounterType:
		if metric.Delta == nil {
			return errs.ErrInvalidValue
		}
	default:
		return errs.ErrUnknownType
	}

	return nil
}

// Merge Новое значение метрики с учетом ранее сохраненного prev:
// значения counter складываются, gauge заменяется. Подпись сбрасывается.
func (metric Metric) Merge(prev Metric) Metric {

	metric.Hash = ""

	if metric.MType != CounterType || metric.Delta == nil || prev.Delta == nil || prev.Key() != metric.Key() {
		return metric
	}

	sum := *prev.Delta + *metric.Delta
	metric.Delta = &sum
	return metric
}

// Sign Подпись метрики: HMAC-SHA256 ключом key от строки <id>:<type>:<value>.
// Пустой ключ - пустая подпись.
func (metric Metric) Sign(key []byte) (string, error) {

	if len(key) == 0 {
		return ``, nil
	}

	var src string

	switch metric.MType {
	case CounterType:
		if metric.Delta == nil {
			return ``, errs.ErrInvalidValue
		}
		src = fmt.Sprintf("%s:%s:%d", metric.ID, metric.MType, *metric.Delta)

	case GaugeType:
		if metric.Value == nil {
			return ``, errs.ErrInvalidValue
		}
		src = fmt.Sprintf("%s:%s:%f", metric.ID, metric.MType, *metric.Value)

	default:
		return ``, errs.ErrUnknownType
	}

	h := hmac.New(sha256.New, key)
	if _, err := h.Write([]byte(src)); err != nil {
		return ``, err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify Проверка подписи метрики ключом key
func (metric Metric) Verify(key []byte) error {

	if len(key) == 0 {
		return nil
	}

	sign, err := metric.Sign(key)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(sign), []byte(metric.Hash)) {
		return errs.ErrSignFailed
	}

	return nil
}

// Equal Сравнение метрик по значению, подпись не учитывается
func (metric Metric) Equal(other Metric) bool {

	if metric.ID != other.ID || metric.MType != other.MType {
		return false
	}

	if (metric.Delta == nil) != (other.Delta == nil) || (metric.Value == nil) != (other.Value == nil) {
		return false
	}

	if metric.Delta != nil && *metric.Delta != *other.Delta {
		return false
	}

	return metric.Value == nil || *metric.Value == *other.Value
}

// Map Параметры пути /update/{type}/{name}/{value}
func (metric Metric) Map() map[string]string {
	return map[string]string{
		"type":  metric.MType,
		"name":  metric.ID,
		"value": metric.StringValue(),
	}
}

// StringValue Значение метрики в виде строки; пустая строка, если значения нет
func (metric Metric) StringValue() string {

	if metric.MType == GaugeType && metric.Value != nil {
		return strconv.FormatFloat(*metric.Value, 'f', -1, 64)
	}

	if metric.MType == CounterType && metric.Delta != nil {
		return strconv.FormatInt(*metric.Delta, 10)
	}

	return ``
}

// ShotString <type> / <id> / <value>
func (metric Metric) ShotString() string {
	return strings.Join([]string{metric.MType, metric.ID, metric.StringValue()}, " / ")
}

func (metric Metric) String() string {
	value := metric.StringValue()
	if value == "" {
		value = "nil"
	}

	return fmt.Sprintf("{id: %s, type: %s, value: %s, hash: %q}", metric.ID, metric.MType, value, metric.Hash)
}
