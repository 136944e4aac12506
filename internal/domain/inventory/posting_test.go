package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/inventory"
)

func line(q int64) entity.DocumentLine {
	return entity.DocumentLine{ProductID: "p1", WarehouseID: "w1", Quantity: d(q), UnitCost: d(10)}
}

func TestMapDocument_CompraYDonacion(t *testing.T) {
	for kind, want := range map[entity.DocumentKind]entity.MovementType{
		entity.DocumentKindPurchase: entity.MovementTypePurchase,
		entity.DocumentKindDonation: entity.MovementTypeDonation,
	} {
		doc := &entity.Document{ID: "d1", Kind: kind, Lines: []entity.DocumentLine{line(100)}}
		ps, err := inventory.MapDocument(doc)
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, want, ps[0].Type)
		assert.True(t, ps[0].QuantityIn.Equal(d(100)))
		assert.True(t, ps[0].QuantityOut.IsZero())
		assert.Equal(t, 1, ps[0].Line)
	}
}

func TestMapDocument_Despacho(t *testing.T) {
	doc := &entity.Document{ID: "d1", Kind: entity.DocumentKindDispatch, Lines: []entity.DocumentLine{line(30)}}
	ps, err := inventory.MapDocument(doc)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, entity.MovementTypeSale, ps[0].Type)
	assert.True(t, ps[0].QuantityOut.Equal(d(30)))
}

func TestMapDocument_AjusteConSigno(t *testing.T) {
	damage := line(-10)
	expiry := line(-2)
	expiry.Reason = entity.LineReasonExpiry
	ret := line(4)
	ret.Reason = entity.LineReasonReturn
	doc := &entity.Document{ID: "d1", Kind: entity.DocumentKindAdjustment, Lines: []entity.DocumentLine{line(5), damage, expiry, ret}}

	ps, err := inventory.MapDocument(doc)
	require.NoError(t, err)
	require.Len(t, ps, 4)
	assert.Equal(t, entity.MovementTypeAdjustmentIn, ps[0].Type)
	assert.Equal(t, entity.MovementTypeAdjustmentOut, ps[1].Type)
	assert.True(t, ps[1].QuantityOut.Equal(d(10)))
	assert.Equal(t, entity.MovementTypeExpiry, ps[2].Type)
	assert.Equal(t, entity.MovementTypeReturn, ps[3].Type)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{ps[0].Line, ps[1].Line, ps[2].Line, ps[3].Line})
}

func TestMapDocument_Traslado(t *testing.T) {
	l := line(8)
	l.DestinationWarehouseID = "w2"
	l.LotNumber = "L-01"
	doc := &entity.Document{ID: "d1", Kind: entity.DocumentKindTransfer, Lines: []entity.DocumentLine{l}}

	ps, err := inventory.MapDocument(doc)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, entity.MovementTypeTransferOut, ps[0].Type)
	assert.Equal(t, "w1", ps[0].Key.WarehouseID)
	assert.Equal(t, entity.MovementTypeTransferIn, ps[1].Type)
	assert.Equal(t, "w2", ps[1].Key.WarehouseID)
	assert.Equal(t, "L-01", ps[1].Key.LotNumber)
	assert.Equal(t, 1, ps[1].Line)
}

func TestMapDocument_LineasInvalidas(t *testing.T) {
	sameWh := line(3)
	sameWh.DestinationWarehouseID = "w1"
	badExpiry := line(3)
	badExpiry.Reason = entity.LineReasonExpiry

	cases := []struct {
		name string
		kind entity.DocumentKind
		l    entity.DocumentLine
		want error
	}{
		{"compra negativa", entity.DocumentKindPurchase, line(-1), domain.ErrInvalidQuantity},
		{"despacho cero", entity.DocumentKindDispatch, line(0), domain.ErrInvalidQuantity},
		{"ajuste cero", entity.DocumentKindAdjustment, line(0), domain.ErrInvalidQuantity},
		{"vencimiento positivo", entity.DocumentKindAdjustment, badExpiry, domain.ErrInvalidQuantity},
		{"traslado misma bodega", entity.DocumentKindTransfer, sameWh, domain.ErrInvalidInput},
		{"sin producto", entity.DocumentKindPurchase, entity.DocumentLine{WarehouseID: "w1", Quantity: d(1)}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := &entity.Document{ID: "d1", Kind: tc.kind, Lines: []entity.DocumentLine{line(1), tc.l}}
			_, err := inventory.MapDocument(doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			var lpe *domain.LinePostingError
			require.ErrorAs(t, err, &lpe)
			assert.Equal(t, 2, lpe.Line, "debe identificar la línea que falla")
		})
	}
}

func TestMapperFor_TipoDesconocido(t *testing.T) {
	_, err := inventory.MapperFor(entity.DocumentKind("factura"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
