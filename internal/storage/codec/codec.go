// Package codec преобразует элементы хранилища в байты и обратно.
package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"io"

	"metrics-buffer/pkg/errs"
)

var (
	errEmptyData = errors.New("empty data")
	errNullData  = errors.New("null value")
)

// Validator Элемент, который умеет проверять себя после декодирования
type Validator interface {
	Validate() error
}

// Codec Сериализация элемента типа T
type Codec[T any] interface {
	Encode(item T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// JSON Кодек в формате JSON
type JSON[T any] struct{}

func (JSON[T]) Encode(item T) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, errs.Wrap("encode json", "", errs.ErrEncoding, err)
	}

	return data, nil
}

// Decode Данные должны содержать ровно одно JSON значение
func (JSON[T]) Decode(data []byte) (T, error) {
	var item T

	if len(bytes.TrimSpace(data)) == 0 {
		return item, errs.Wrap("decode json", "", errs.ErrDecoding, errEmptyData)
	}

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return item, errs.Wrap("decode json", "", errs.ErrDecoding, errNullData)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&item); err != nil {
		return item, errs.Wrap("decode json", "", errs.ErrDecoding, err)
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return item, errs.Wrap("decode json", "", errs.ErrDecoding, errors.New("trailing data"))
	}

	if err := validate(&item); err != nil {
		return item, errs.Wrap("decode json", "", errs.ErrDecoding, err)
	}

	return item, nil
}

// Gob Двоичный самоописываемый кодек
type Gob[T any] struct{}

func (Gob[T]) Encode(item T) ([]byte, error) {
	var buf bytes.Buffer

	if err := gob.NewEncoder(&buf).Encode(item); err != nil {
		return nil, errs.Wrap("encode gob", "", errs.ErrEncoding, err)
	}

	return buf.Bytes(), nil
}

func (Gob[T]) Decode(data []byte) (T, error) {
	var item T

	if len(data) == 0 {
		return item, errs.Wrap("decode gob", "", errs.ErrDecoding, errEmptyData)
	}

	reader := bytes.NewReader(data)
	if err := gob.NewDecoder(reader).Decode(&item); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return item, errs.Wrap("decode gob", "", errs.ErrDecoding, err)
	}

	if reader.Len() != 0 {
		return item, errs.Wrap("decode gob", "", errs.ErrDecoding, errors.New("trailing data"))
	}

	if err := validate(&item); err != nil {
		return item, errs.Wrap("decode gob", "", errs.ErrDecoding, err)
	}

	return item, nil
}

// validate Проверка элемента, если его тип реализует Validator
func validate[T any](item *T) error {
	if v, ok := any(*item).(Validator); ok {
		return v.Validate()
	}
	if v, ok := any(item).(Validator); ok {
		return v.Validate()
	}
	return nil
}
