package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrStorage struct {
	Value string
}

func NewErr(s string) ErrStorage {
	return ErrStorage{Value: s}
}

func (es ErrStorage) Error() string {
	return es.Value
}

// Ошибки метрики
var (
	ErrNotFound     = NewErr("metric not found")
	ErrUnknownType  = NewErr("metric has unknown type")
	ErrInvalidID    = NewErr("metric has incorrect id")
	ErrInvalidType  = NewErr("metric has incorrect type")
	ErrInvalidValue = NewErr("metric has incorrect value")
	ErrInvalidJSON  = NewErr("can't convert data JSON to metric")
	ErrSignFailed   = NewErr("sign verification failed")
)

// Ошибки хранилища буфера
var (
	ErrConfiguration = NewErr("invalid storage configuration")
	ErrEncoding      = NewErr("could not encode item")
	ErrDecoding      = NewErr("could not decode item")
	ErrIO            = NewErr("storage input/output failure")
	ErrInvalidKey    = NewErr("invalid storage key")
)

// Ошибки внешнего хранилища
var (
	ErrInvalidDSN       = NewErr("invalid data source name")
	ErrFailedConnection = NewErr("can not create connection")
)

// OpError Ошибка операции над хранилищем.
// Kind - одна из ошибок ErrStorage, Err - исходная причина.
// errors.Is совпадает и с Kind, и с причиной.
type OpError struct {
	Op   string
	Key  string
	Kind ErrStorage
	Err  error
}

func (e *OpError) Error() string {
	builder := strings.Builder{}

	builder.WriteString(e.Op)
	if e.Key != "" {
		builder.WriteString(" '")
		builder.WriteString(e.Key)
		builder.WriteString("'")
	}

	builder.WriteString(": ")
	builder.WriteString(e.Kind.Error())

	if e.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Err.Error())
	}

	return builder.String()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func (e *OpError) Is(target error) bool {
	kind, ok := target.(ErrStorage)
	return ok && kind == e.Kind
}

// Wrap Создание ошибки операции op над ключом key
func Wrap(op, key string, kind ErrStorage, err error) error {
	return &OpError{
		Op:   op,
		Key:  key,
		Kind: kind,
		Err:  err,
	}
}

// Ensure Ошибка операции op вида kind.
// Если err уже относится к виду kind, добавляется только операция и ключ.
func Ensure(op, key string, kind ErrStorage, err error) error {
	if errors.Is(err, kind) {
		if key != "" {
			return fmt.Errorf("%s '%s': %w", op, key, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return Wrap(op, key, kind, err)
}

// ErrorHTTP - Преобразование ошибки Storage в HTTP код
func ErrorHTTP(err error) int {

	var storeErr ErrStorage
	var opErr *OpError

	switch {
	case errors.As(err, &opErr):
		storeErr = opErr.Kind
	case errors.As(err, &storeErr):
	default:
		return http.StatusInternalServerError
	}

	switch storeErr {
	case ErrNotFound:
		return http.StatusNotFound

	case ErrUnknownType:
		return http.StatusNotImplemented

	case
		ErrInvalidID,
		ErrInvalidType,
		ErrInvalidValue,
		ErrInvalidJSON,
		ErrInvalidKey,
		ErrSignFailed:

		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
