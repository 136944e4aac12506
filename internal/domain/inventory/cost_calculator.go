package inventory

import "github.com/shopspring/decimal"

// CostScale decimales con los que se guarda el costo unitario (NUMERIC(18,6)).
const CostScale = 6

// WeightedAverageCost recalcula el costo promedio ponderado de un producto tras una entrada.
//
//	nuevo = (saldo*costo + entrada*costoEntrada) / (saldo + entrada)
//
// Un saldo negativo se trata como cero. Si la entrada es cero y no hay saldo devuelve cero.
// El resultado se redondea a CostScale para que memoria y Postgres guarden el mismo valor.
func WeightedAverageCost(onHand, currentCost, qtyIn, unitCostIn decimal.Decimal) decimal.Decimal {
	if onHand.IsNegative() {
		onHand = decimal.Zero
	}
	total := onHand.Add(qtyIn)
	if !total.IsPositive() {
		return decimal.Zero
	}
	if onHand.IsZero() {
		return unitCostIn.Round(CostScale)
	}
	value := onHand.Mul(currentCost).Add(qtyIn.Mul(unitCostIn))
	return value.DivRound(total, CostScale)
}
