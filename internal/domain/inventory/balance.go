package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// ValidateQuantities exige exactamente una cantidad positiva y coherente con el tipo.
func ValidateQuantities(t entity.MovementType, qtyIn, qtyOut decimal.Decimal) error {
	if qtyIn.IsNegative() || qtyOut.IsNegative() {
		return &domain.InvalidQuantityError{QuantityIn: qtyIn, QuantityOut: qtyOut, Reason: "cantidades negativas"}
	}
	if qtyIn.IsZero() == qtyOut.IsZero() {
		return &domain.InvalidQuantityError{QuantityIn: qtyIn, QuantityOut: qtyOut, Reason: "debe haber exactamente una cantidad distinta de cero"}
	}
	if !t.Valid() {
		return fmt.Errorf("tipo de movimiento %q: %w", t, domain.ErrInvalidInput)
	}
	if t.IsInbound() && qtyIn.IsZero() {
		return &domain.InvalidQuantityError{QuantityIn: qtyIn, QuantityOut: qtyOut, Reason: fmt.Sprintf("%s requiere cantidad de entrada", t)}
	}
	if t.IsOutbound() && qtyOut.IsZero() {
		return &domain.InvalidQuantityError{QuantityIn: qtyIn, QuantityOut: qtyOut, Reason: fmt.Sprintf("%s requiere cantidad de salida", t)}
	}
	return nil
}

// NextBalance calcula el saldo tras una fila: previo + entrada - salida.
// Una salida que deja el saldo en negativo devuelve InsufficientStockError.
func NextBalance(key entity.StockKey, previous, qtyIn, qtyOut decimal.Decimal) (decimal.Decimal, error) {
	next := previous.Add(qtyIn).Sub(qtyOut)
	if next.IsNegative() && qtyOut.IsPositive() {
		return decimal.Zero, &domain.InsufficientStockError{Key: key, Available: previous, Requested: qtyOut}
	}
	return next, nil
}

// VerifyChain comprueba el invariante del saldo corrido sobre la historia de una llave
// ordenada por (movementDate, id). Devuelve el índice de la primera fila inválida.
func VerifyChain(rows []entity.MovementRecord) (int, error) {
	prev := decimal.Zero
	for i, r := range rows {
		if i > 0 {
			p := rows[i-1]
			if r.MovementDate.Before(p.MovementDate) || (r.MovementDate.Equal(p.MovementDate) && r.ID <= p.ID) {
				return i, fmt.Errorf("fila %d fuera de orden", r.ID)
			}
		}
		want := prev.Add(r.QuantityIn).Sub(r.QuantityOut)
		if !r.BalanceQuantity.Equal(want) {
			return i, fmt.Errorf("fila %d: saldo %s, esperado %s", r.ID, r.BalanceQuantity, want)
		}
		if r.BalanceQuantity.IsNegative() {
			return i, fmt.Errorf("fila %d: saldo negativo %s", r.ID, r.BalanceQuantity)
		}
		prev = r.BalanceQuantity
	}
	return -1, nil
}
