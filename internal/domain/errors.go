package domain

import "errors"

// Errores de dominio. Los adaptadores traducen las fallas de almacenamiento a estos; se comparan con errors.Is.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrDuplicate          = errors.New("duplicate product")
	ErrConflict           = errors.New("concurrent modification")
	ErrQueryFailure       = errors.New("query failed on every strategy")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrProductInUse       = errors.New("product has outbound entries")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Kind es el código estable, visible al cliente, de un error de dominio.
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidArgument    Kind = "INVALID_ARGUMENT"
	KindInsufficientStock  Kind = "INSUFFICIENT_STOCK"
	KindDuplicateProduct   Kind = "DUPLICATE_PRODUCT"
	KindConflict           Kind = "CONFLICT"
	KindQueryFailure       Kind = "QUERY_FAILURE"
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
	KindProductInUse       Kind = "PRODUCT_IN_USE"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindInternal           Kind = "INTERNAL"
)

var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrInvalidInput, KindInvalidArgument},
	{ErrInsufficientStock, KindInsufficientStock},
	{ErrDuplicate, KindDuplicateProduct},
	{ErrConflict, KindConflict},
	{ErrQueryFailure, KindQueryFailure},
	{ErrStorageUnavailable, KindStorageUnavailable},
	{ErrProductInUse, KindProductInUse},
	{ErrUnauthorized, KindUnauthorized},
}

// Error une un tipo centinela con un motivo público y una causa interna opcional.
// El motivo se puede mostrar al usuario; la causa es solo para logs.
type Error struct {
	kind   error
	reason string
	cause  error
}

// Reject construye un rechazo visible al usuario del tipo indicado.
func Reject(kind error, reason string) error {
	return &Error{kind: kind, reason: reason}
}

// Wrap construye un error del tipo indicado que deja la causa accesible con errors.Unwrap.
func Wrap(kind error, reason string, cause error) error {
	return &Error{kind: kind, reason: reason, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.reason + ": " + e.cause.Error()
	}
	return e.reason
}

// Is indica si target es el centinela con el que se construyó este error.
func (e *Error) Is(target error) bool { return target == e.kind }

func (e *Error) Unwrap() error { return e.cause }

// Reason devuelve el mensaje público.
func (e *Error) Reason() string { return e.reason }

// KindOf devuelve el código estable de err, o KindInternal si está fuera de la taxonomía.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindInternal
}

// PublicReason devuelve el mensaje que el cliente puede ver para err. El texto del almacén
// o del driver nunca se filtra: los errores fuera de la taxonomía dan un mensaje genérico.
func PublicReason(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.reason
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.sentinel.Error()
		}
	}
	return "internal error"
}

// Retryable indica si la operación que produjo err se puede reintentar tal cual.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
