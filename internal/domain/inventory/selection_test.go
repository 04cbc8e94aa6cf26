package inventory_test

import (
	"testing"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionSet_AddReemplazaConservandoOrden(t *testing.T) {
	s := inventory.NewSelectionSet()
	require.NoError(t, s.Add(entity.MovementItem{ProductID: "A", Quantity: 1}))
	require.NoError(t, s.Add(entity.MovementItem{ProductID: "B", Quantity: 2}))
	require.NoError(t, s.Add(entity.MovementItem{ProductID: "A", Quantity: 9}))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].ProductID)
	assert.Equal(t, int64(9), items[0].Quantity)
}

func TestSelectionSet_RechazaNegativos(t *testing.T) {
	s := inventory.NewSelectionSet()
	err := s.Add(entity.MovementItem{ProductID: "A", Quantity: -1})
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, s.Add(entity.MovementItem{ProductID: "A"}))
	err = s.SetQuantity("A", -3)
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.HasCode(domain.CodeNegativeQuantity))

	assert.ErrorIs(t, s.Add(entity.MovementItem{}), domain.ErrInvalidInput)
}

func TestSelectionSet_RemoveReindexa(t *testing.T) {
	s := inventory.NewSelectionSet()
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, s.Add(entity.MovementItem{ProductID: id}))
	}
	assert.True(t, s.Remove("A"))
	assert.False(t, s.Remove("A"))

	require.NoError(t, s.SetQuantity("C", 5))
	c, ok := s.Get("C")
	require.True(t, ok)
	assert.Equal(t, int64(5), c.Quantity)
	assert.Equal(t, 2, s.Len())

	assert.ErrorIs(t, s.SetQuantity("A", 1), domain.ErrNotFound)

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestSelectionSet_ValidateVacia(t *testing.T) {
	errs := inventory.NewSelectionSet().Validate(inventory.PositiveQuantity())
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeEmptySelection, errs[0].Code)
}

func TestSelectionSet_ValidateAcumulaTodas(t *testing.T) {
	s := inventory.NewSelectionSet()
	require.NoError(t, s.Add(entity.MovementItem{ProductID: "A", Quantity: 0}))
	require.NoError(t, s.Add(entity.MovementItem{ProductID: "B", Quantity: 2}))
	require.NoError(t, s.SetReason("B", "", ""))

	known := func(id string) bool { return id == "damaged" }
	errs := s.Validate(inventory.PositiveQuantity(), inventory.ReasonRequired(known))

	assert.Len(t, errs, 3)
	assert.True(t, errs.HasCode(domain.CodeZeroQuantity))
	assert.True(t, errs.HasCode(domain.CodeMissingReason))
	assert.ErrorIs(t, errs.OrNil(), domain.ErrValidation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reglas por ítem
// ──────────────────────────────────────────────────────────────────────────────

func TestRules_ReasonRequired(t *testing.T) {
	rule := inventory.ReasonRequired(func(id string) bool { return id == "damaged" })

	assert.Nil(t, rule(entity.MovementItem{ReasonID: "damaged"}))
	assert.Nil(t, rule(entity.MovementItem{CustomReason: "conteo de fin de mes"}))
	assert.Equal(t, domain.CodeUnknownReason, rule(entity.MovementItem{ReasonID: "x"}).Code)
	assert.Equal(t, domain.CodeMissingReason, rule(entity.MovementItem{}).Code)
}

func TestRules_NoOverReduction(t *testing.T) {
	rule := inventory.NoOverReduction()

	assert.Nil(t, rule(entity.MovementItem{Direction: entity.AdjustDecrease, Quantity: 12, PreviousQuantity: 12}))
	assert.Nil(t, rule(entity.MovementItem{Direction: entity.AdjustIncrease, Quantity: 50, PreviousQuantity: 1}))
	v := rule(entity.MovementItem{Direction: entity.AdjustDecrease, Quantity: 20, PreviousQuantity: 12})
	require.NotNil(t, v)
	assert.Equal(t, domain.CodeExceedsStock, v.Code)
}

func TestRules_WithinSource(t *testing.T) {
	rule := inventory.WithinSource()

	assert.Nil(t, rule(entity.MovementItem{Quantity: 1, SourceQuantity: 1}))
	assert.Equal(t, domain.CodeZeroQuantity, rule(entity.MovementItem{Quantity: 0, SourceQuantity: 5}).Code)
	assert.Equal(t, domain.CodeExceedsAvailable, rule(entity.MovementItem{Quantity: 6, SourceQuantity: 5}).Code)
}

func TestRules_LocationIn(t *testing.T) {
	rule := inventory.LocationIn("location_id", []string{"W", "T"}, func(i entity.MovementItem) string { return i.LocationID })

	assert.Nil(t, rule(entity.MovementItem{LocationID: "T"}))
	assert.Equal(t, domain.CodeItemLocation, rule(entity.MovementItem{LocationID: "S1"}).Code)
}
