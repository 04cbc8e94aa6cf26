package stock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

// MovementEngine orquesta los flujos Receive, Adjust y Transfer sobre el libro de stock.
// Los borradores se editan en paralelo sin escribir el libro; la única escritura es Commit.
type MovementEngine struct {
	deps Deps
	opts options
	log  *logger.Logger

	mu     sync.Mutex
	drafts map[string]*draft
}

// NewMovementEngine construye el motor con los repositorios inyectados.
func NewMovementEngine(deps Deps, opts ...Option) *MovementEngine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MovementEngine{
		deps:   deps,
		opts:   o,
		log:    o.log.Named("stock"),
		drafts: make(map[string]*draft),
	}
}

// loadGraph arma una instantánea del grafo de ubicaciones y clientes.
func (e *MovementEngine) loadGraph(ctx context.Context) (*inventory.LocationGraph, error) {
	locations, err := e.deps.Locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	customers, err := e.deps.Customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return inventory.NewLocationGraph(locations, customers)
}

func (e *MovementEngine) getProduct(ctx context.Context, productID string) (*entity.Product, error) {
	p, err := e.deps.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	return p, nil
}

// EffectiveQuantity cantidad efectiva de un producto sobre un conjunto de ubicaciones.
// Una selección formada solo por clientes devuelve una cantidad no aplicable.
func (e *MovementEngine) EffectiveQuantity(ctx context.Context, productID string, locationIDs []string) (inventory.Quantity, error) {
	if len(locationIDs) == 0 {
		return inventory.Quantity{}, fmt.Errorf("%w: sin ubicaciones", domain.ErrInvalidInput)
	}
	if _, err := e.getProduct(ctx, productID); err != nil {
		return inventory.Quantity{}, err
	}
	graph, err := e.loadGraph(ctx)
	if err != nil {
		return inventory.Quantity{}, err
	}
	rows, err := e.deps.Ledger.ListByProduct(ctx, productID)
	if err != nil {
		return inventory.Quantity{}, fmt.Errorf("list ledger rows: %w", err)
	}
	return inventory.NewAggregator(graph, inventory.NewSnapshot(rows)).EffectiveQuantityOf(productID, locationIDs)
}

// ListAvailableProducts productos con su cantidad efectiva en las ubicaciones dadas.
// Sin IncludeOutOfStock se omiten los productos con cantidad aplicable <= 0.
func (e *MovementEngine) ListAvailableProducts(ctx context.Context, locationIDs []string, f dto.AvailabilityFilter) ([]dto.ProductAvailability, error) {
	if len(locationIDs) == 0 {
		return nil, fmt.Errorf("%w: sin ubicaciones", domain.ErrInvalidInput)
	}
	graph, err := e.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	expanded, err := graph.Expand(locationIDs)
	if err != nil {
		return nil, err
	}
	rows, err := e.deps.Ledger.ListByLocations(ctx, expanded)
	if err != nil {
		return nil, fmt.Errorf("list ledger rows: %w", err)
	}
	agg := inventory.NewAggregator(graph, inventory.NewSnapshot(rows))
	return e.collectAvailability(ctx, f, func(productID string) (inventory.Quantity, error) {
		return agg.EffectiveQuantityOf(productID, locationIDs)
	})
}

// collectAvailability recorre el catálogo aplicando filtros y la función de cantidad.
func (e *MovementEngine) collectAvailability(ctx context.Context, f dto.AvailabilityFilter, qty func(productID string) (inventory.Quantity, error)) ([]dto.ProductAvailability, error) {
	products, err := e.deps.Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	m := newMatcher(f)
	out := make([]dto.ProductAvailability, 0, len(products))
	for _, p := range products {
		if !m.match(p) {
			continue
		}
		q, err := qty(p.ID)
		if err != nil {
			return nil, err
		}
		if q.Applicable && q.Value <= 0 && !f.IncludeOutOfStock {
			continue
		}
		out = append(out, dto.ProductAvailability{
			ProductID:         p.ID,
			SKU:               p.SKU,
			Name:              p.Name,
			Category:          p.Category,
			Image:             p.Image,
			Price:             p.Price,
			Cost:              p.Cost,
			EffectiveQuantity: q.Value,
			Applicable:        q.Applicable,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListReasons catálogo de motivos de ajuste.
func (e *MovementEngine) ListReasons(ctx context.Context) ([]entity.AdjustmentReason, error) {
	reasons, err := e.deps.Reasons.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reasons: %w", err)
	}
	return reasons, nil
}

// ListMovementRecords historial de movimientos, del más reciente al más antiguo.
// Filtrar por una ubicación principal incluye los registros de sus sub-ubicaciones.
func (e *MovementEngine) ListMovementRecords(ctx context.Context, f dto.MovementFilter) ([]entity.MovementRecord, error) {
	f.Page.DefaultPage()
	filter := repository.MovementRecordFilter{
		Actor:  f.Actor,
		From:   f.From,
		To:     f.To,
		Status: f.Status,
		Type:   f.Type,
		Limit:  f.Page.Limit,
		Offset: f.Page.Offset,
	}
	if f.LocationID != "" {
		graph, err := e.loadGraph(ctx)
		if err != nil {
			return nil, err
		}
		n, err := graph.MustExist(f.LocationID)
		if err != nil {
			return nil, err
		}
		filter.LocationIDs = []string{n.ID}
		if n.IsMain() {
			children, _ := graph.ChildrenOf(n.ID)
			filter.LocationIDs = append(filter.LocationIDs, children...)
		}
	}
	records, err := e.deps.Records.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movement records: %w", err)
	}
	return records, nil
}

// Candidates productos elegibles para la selección del borrador: lo disponible en los destinos
// (Receive), en la ubicación objetivo (Adjust) o en las filas propias de los orígenes (Transfer).
func (e *MovementEngine) Candidates(ctx context.Context, draftID string, f dto.AvailabilityFilter) ([]dto.ProductAvailability, error) {
	d, err := e.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	rec := d.record.Clone()
	d.mu.Unlock()

	switch rec.Type {
	case entity.MovementTypeReceive:
		return e.ListAvailableProducts(ctx, rec.DestinationLocationIDs, f)
	case entity.MovementTypeAdjust:
		return e.ListAvailableProducts(ctx, []string{rec.TargetLocationID}, f)
	}

	graph, err := e.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	var owned []string
	customers := 0
	for _, id := range rec.SourceLocationIDs {
		n, err := graph.MustExist(id)
		if err != nil {
			return nil, err
		}
		if n.IsCustomer() {
			customers++
			continue
		}
		owned = append(owned, id)
	}
	rows, err := e.deps.Ledger.ListByLocations(ctx, owned)
	if err != nil {
		return nil, fmt.Errorf("list ledger rows: %w", err)
	}
	snap := inventory.NewSnapshot(rows)
	return e.collectAvailability(ctx, f, func(productID string) (inventory.Quantity, error) {
		total := int64(customers) * e.opts.customerAvailability
		for _, id := range owned {
			total += snap.Quantity(productID, id)
		}
		return inventory.Of(total), nil
	})
}
