package inventory_test

import (
	"testing"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// Red de prueba: bodega W con sub-ubicaciones S1 y S2, tienda T sin hijos y
// el cliente C.
// ──────────────────────────────────────────────────────────────────────────────

func newGraph(t *testing.T) *inventory.LocationGraph {
	t.Helper()
	g, err := inventory.NewLocationGraph(
		[]*entity.Location{
			{ID: "W", Name: "Bodega", Kind: entity.LocationKindWarehouse},
			{ID: "S1", Name: "Estante 1", Kind: entity.LocationKindWarehouse, ParentID: "W"},
			{ID: "S2", Name: "Estante 2", Kind: entity.LocationKindWarehouse, ParentID: "W"},
			{ID: "T", Name: "Tienda", Kind: entity.LocationKindStore},
		},
		[]*entity.Customer{{ID: "C", Name: "Cliente"}},
	)
	require.NoError(t, err)
	return g
}

func TestLocationGraph_ChildrenOf(t *testing.T) {
	g := newGraph(t)

	children, err := g.ChildrenOf("W")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, children)

	children, err = g.ChildrenOf("S1")
	require.NoError(t, err)
	assert.Empty(t, children)

	children, err = g.ChildrenOf("C")
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = g.ChildrenOf("X")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocationGraph_RechazaProfundidadTres(t *testing.T) {
	_, err := inventory.NewLocationGraph([]*entity.Location{
		{ID: "W", Kind: entity.LocationKindWarehouse},
		{ID: "S1", Kind: entity.LocationKindWarehouse, ParentID: "W"},
		{ID: "S1a", Kind: entity.LocationKindWarehouse, ParentID: "S1"},
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLocationGraph_RechazaPadreInexistente(t *testing.T) {
	_, err := inventory.NewLocationGraph([]*entity.Location{
		{ID: "S1", Kind: entity.LocationKindWarehouse, ParentID: "W"},
	}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocationGraph_ClienteNoCompartirID(t *testing.T) {
	_, err := inventory.NewLocationGraph(
		[]*entity.Location{{ID: "W", Kind: entity.LocationKindWarehouse}},
		[]*entity.Customer{{ID: "W", Name: "dup"}},
	)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLocationGraph_UbicacionTipoClienteInvalida(t *testing.T) {
	_, err := inventory.NewLocationGraph(
		[]*entity.Location{{ID: "X", Kind: entity.LocationKindCustomer}}, nil,
	)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLocationGraph_Normalize(t *testing.T) {
	g := newGraph(t)

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"duplicados", []string{"T", "T"}, []string{"T"}},
		{"sub con padre seleccionado", []string{"S1", "W"}, []string{"W"}},
		{"sub sin padre", []string{"S1", "T"}, []string{"S1", "T"}},
		{"cliente se conserva", []string{"C", "W", "S2"}, []string{"C", "W"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := g.Normalize([]string{"W", "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocationGraph_Expand(t *testing.T) {
	g := newGraph(t)

	got, err := g.Expand([]string{"W", "S1", "C", "T"})
	require.NoError(t, err)
	assert.Equal(t, []string{"W", "S1", "S2", "T"}, got, "sin repetir S1 y sin el cliente")
}

func TestLocationGraph_MainLocationsYCovers(t *testing.T) {
	g := newGraph(t)

	var ids []string
	for _, n := range g.MainLocations() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"W", "T"}, ids)

	assert.True(t, g.Covers([]string{"W"}, "S1"))
	assert.True(t, g.Covers([]string{"S1"}, "S1"))
	assert.False(t, g.Covers([]string{"T"}, "S1"))
	assert.False(t, g.Covers([]string{"W"}, "nope"))
}
