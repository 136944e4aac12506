package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// Posting instrucción de contabilización derivada de una línea de documento.
type Posting struct {
	Line           int // línea origen (base 1)
	Key            entity.StockKey
	ExpirationDate *time.Time
	Type           entity.MovementType
	QuantityIn     decimal.Decimal
	QuantityOut    decimal.Decimal
	UnitCost       decimal.Decimal
}

// LineMapper traduce una línea de un tipo de documento a una o más instrucciones.
// Cada variante de documento aporta solo esto; el resto del workflow es común.
type LineMapper interface {
	ValidateLine(line entity.DocumentLine) error
	MapLine(line entity.DocumentLine) []Posting
}

// MapperFor devuelve el mapeo del tipo de documento.
func MapperFor(kind entity.DocumentKind) (LineMapper, error) {
	switch kind {
	case entity.DocumentKindPurchase:
		return inboundMapper{movementType: entity.MovementTypePurchase}, nil
	case entity.DocumentKindDonation:
		return inboundMapper{movementType: entity.MovementTypeDonation}, nil
	case entity.DocumentKindDispatch:
		return dispatchMapper{}, nil
	case entity.DocumentKindAdjustment:
		return adjustmentMapper{}, nil
	case entity.DocumentKindTransfer:
		return transferMapper{}, nil
	}
	return nil, fmt.Errorf("tipo de documento %q: %w", kind, domain.ErrInvalidInput)
}

// MapDocument valida y mapea todas las líneas en el orden declarado.
func MapDocument(doc *entity.Document) ([]Posting, error) {
	mapper, err := MapperFor(doc.Kind)
	if err != nil {
		return nil, err
	}
	var out []Posting
	for i, line := range doc.Lines {
		if err := mapper.ValidateLine(line); err != nil {
			return nil, &domain.LinePostingError{DocumentID: doc.ID, Line: i + 1, Err: err}
		}
		for _, p := range mapper.MapLine(line) {
			p.Line = i + 1
			out = append(out, p)
		}
	}
	return out, nil
}

func lineKey(line entity.DocumentLine, warehouseID string) entity.StockKey {
	return entity.StockKey{ProductID: line.ProductID, WarehouseID: warehouseID, LotNumber: line.LotNumber}
}

func baseLineCheck(line entity.DocumentLine) error {
	if line.ProductID == "" || line.WarehouseID == "" {
		return domain.ErrInvalidInput
	}
	if line.UnitCost.IsNegative() {
		return fmt.Errorf("costo unitario negativo: %w", domain.ErrInvalidInput)
	}
	return nil
}

func positiveQuantity(line entity.DocumentLine) error {
	if !line.Quantity.IsPositive() {
		return &domain.InvalidQuantityError{QuantityIn: line.Quantity, Reason: "la cantidad de la línea debe ser positiva"}
	}
	return nil
}

// inboundMapper compras y donaciones: entrada en la bodega de la línea.
type inboundMapper struct {
	movementType entity.MovementType
}

func (m inboundMapper) ValidateLine(line entity.DocumentLine) error {
	if err := baseLineCheck(line); err != nil {
		return err
	}
	return positiveQuantity(line)
}

func (m inboundMapper) MapLine(line entity.DocumentLine) []Posting {
	return []Posting{{
		Key:            lineKey(line, line.WarehouseID),
		ExpirationDate: line.ExpirationDate,
		Type:           m.movementType,
		QuantityIn:     line.Quantity,
		UnitCost:       line.UnitCost,
	}}
}

// dispatchMapper despachos: salida de la bodega de la línea.
type dispatchMapper struct{}

func (dispatchMapper) ValidateLine(line entity.DocumentLine) error {
	if err := baseLineCheck(line); err != nil {
		return err
	}
	return positiveQuantity(line)
}

func (dispatchMapper) MapLine(line entity.DocumentLine) []Posting {
	return []Posting{{
		Key:         lineKey(line, line.WarehouseID),
		Type:        entity.MovementTypeSale,
		QuantityOut: line.Quantity,
		UnitCost:    line.UnitCost,
	}}
}

// adjustmentMapper ajustes con signo: positivo entra, negativo sale.
type adjustmentMapper struct{}

func (adjustmentMapper) ValidateLine(line entity.DocumentLine) error {
	if err := baseLineCheck(line); err != nil {
		return err
	}
	if line.Quantity.IsZero() {
		return &domain.InvalidQuantityError{Reason: "el ajuste no puede ser cero"}
	}
	if line.Reason == entity.LineReasonExpiry && line.Quantity.IsPositive() {
		return &domain.InvalidQuantityError{QuantityIn: line.Quantity, Reason: "un ajuste por vencimiento debe ser negativo"}
	}
	if line.Reason == entity.LineReasonReturn && line.Quantity.IsNegative() {
		return &domain.InvalidQuantityError{QuantityOut: line.Quantity.Neg(), Reason: "una devolución debe ser positiva"}
	}
	return nil
}

func (adjustmentMapper) MapLine(line entity.DocumentLine) []Posting {
	p := Posting{Key: lineKey(line, line.WarehouseID), UnitCost: line.UnitCost}
	if line.Quantity.IsPositive() {
		p.Type = entity.MovementTypeAdjustmentIn
		if line.Reason == entity.LineReasonReturn {
			p.Type = entity.MovementTypeReturn
		}
		p.QuantityIn = line.Quantity
		p.ExpirationDate = line.ExpirationDate
		return []Posting{p}
	}
	p.Type = entity.MovementTypeAdjustmentOut
	if line.Reason == entity.LineReasonExpiry {
		p.Type = entity.MovementTypeExpiry
	}
	p.QuantityOut = line.Quantity.Neg()
	return []Posting{p}
}

// transferMapper traslados: transfer_out en origen y transfer_in en destino.
type transferMapper struct{}

func (transferMapper) ValidateLine(line entity.DocumentLine) error {
	if err := baseLineCheck(line); err != nil {
		return err
	}
	if line.DestinationWarehouseID == "" || line.DestinationWarehouseID == line.WarehouseID {
		return fmt.Errorf("bodega destino inválida: %w", domain.ErrInvalidInput)
	}
	return positiveQuantity(line)
}

func (transferMapper) MapLine(line entity.DocumentLine) []Posting {
	return []Posting{
		{
			Key:         lineKey(line, line.WarehouseID),
			Type:        entity.MovementTypeTransferOut,
			QuantityOut: line.Quantity,
			UnitCost:    line.UnitCost,
		},
		{
			Key:            lineKey(line, line.DestinationWarehouseID),
			ExpirationDate: line.ExpirationDate,
			Type:           entity.MovementTypeTransferIn,
			QuantityIn:     line.Quantity,
			UnitCost:       line.UnitCost,
		},
	}
}
