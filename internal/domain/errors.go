package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// Errores de dominio.
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrDuplicate               = errors.New("recurso duplicado")
	ErrForbidden               = errors.New("acceso denegado")
	ErrConflict                = errors.New("conflicto con el estado actual")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrInvalidQuantity         = errors.New("cantidad inválida")
	ErrIllegalTransition       = errors.New("transición de estado no permitida")
	ErrConcurrencyConflict     = errors.New("conflicto de concurrencia")
	ErrBackdatedMovement       = errors.New("fecha de movimiento anterior al último movimiento registrado")
	ErrRejectionReasonRequired = errors.New("el motivo de rechazo es obligatorio")
)

// InsufficientStockError indica que una salida dejaría el saldo en negativo.
// Lleva el saldo disponible y la cantidad pedida para armar el mensaje al usuario.
type InsufficientStockError struct {
	Key       entity.StockKey
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %s, solicitado %s",
		e.Key, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidQuantityError cantidad cero, negativa o mal formada. Se rechaza antes de escribir.
type InvalidQuantityError struct {
	QuantityIn  decimal.Decimal
	QuantityOut decimal.Decimal
	Reason      string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("cantidad inválida (entrada %s, salida %s): %s",
		e.QuantityIn.String(), e.QuantityOut.String(), e.Reason)
}

func (e *InvalidQuantityError) Is(target error) bool { return target == ErrInvalidQuantity }

// IllegalTransitionError evento de workflow invocado desde un estado que no lo admite.
type IllegalTransitionError struct {
	Status entity.DocumentStatus
	Event  string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("no se puede aplicar %q a un documento en estado %q", e.Event, e.Status)
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// ConcurrencyConflictError conflicto de bloqueo o versión sobre el libro. Es transitorio: se puede reintentar.
type ConcurrencyConflictError struct {
	Resource string
	Err      error
}

func (e *ConcurrencyConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conflicto de concurrencia en %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("conflicto de concurrencia en %s", e.Resource)
}

func (e *ConcurrencyConflictError) Is(target error) bool { return target == ErrConcurrencyConflict }

func (e *ConcurrencyConflictError) Unwrap() error { return e.Err }

// LinePostingError identifica la línea (base 1) de un documento cuya contabilización falló.
type LinePostingError struct {
	DocumentID string
	Line       int
	Err        error
}

func (e *LinePostingError) Error() string {
	return fmt.Sprintf("documento %s, línea %d: %v", e.DocumentID, e.Line, e.Err)
}

func (e *LinePostingError) Unwrap() error { return e.Err }

// PartialPostingPreventedError aborta una contabilización que no cubrió todas las líneas.
// Siempre provoca rollback, por lo que nunca queda un documento a medio procesar.
type PartialPostingPreventedError struct {
	DocumentID string
	Expected   int
	Posted     int
}

func (e *PartialPostingPreventedError) Error() string {
	return fmt.Sprintf("contabilización parcial evitada en documento %s: %d de %d movimientos",
		e.DocumentID, e.Posted, e.Expected)
}

func (e *PartialPostingPreventedError) Is(target error) bool { return target == ErrConflict }

// IsRetryable indica si el error es transitorio y la operación puede repetirse.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
