package domain

import (
	"github.com/juju/errors"
)

// Kind классифицирует ошибку по источнику.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalid
	KindNotFound
	KindStore
	KindChannel
	KindDashboard
	KindDelivery
	KindCredential
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	case KindChannel:
		return "channel"
	case KindDashboard:
		return "dashboard"
	case KindDelivery:
		return "delivery"
	case KindCredential:
		return "credential"
	default:
		return "unknown"
	}
}

// Error помечает ошибку коллаборатора (хранилище, Discord, секреты) её видом.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E оборачивает err в *Error. nil остаётся nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf возвращает вид первой помеченной ошибки в цепочке.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	switch {
	case errors.Is(err, errors.NotFound):
		return KindNotFound
	case errors.Is(err, errors.NotValid):
		return KindInvalid
	}
	return KindUnknown
}
