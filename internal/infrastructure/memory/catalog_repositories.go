package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.LocationRepository = (*LocationRepository)(nil)
	_ repository.CustomerRepository = (*CustomerRepository)(nil)
	_ repository.ProductRepository  = (*ProductRepository)(nil)
	_ repository.ReasonRepository   = (*ReasonRepository)(nil)
)

// LocationRepository ubicaciones en memoria (conserva el orden de alta).
type LocationRepository struct {
	mu    sync.RWMutex
	byID  map[string]entity.Location
	order []string
}

// NewLocationRepository crea el repositorio vacío.
func NewLocationRepository() *LocationRepository {
	return &LocationRepository{byID: make(map[string]entity.Location)}
}

// Create persiste una ubicación nueva.
func (r *LocationRepository) Create(_ context.Context, location *entity.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[location.ID]; ok {
		return fmt.Errorf("%w: ubicación %s", domain.ErrDuplicate, location.ID)
	}
	r.byID[location.ID] = *location
	r.order = append(r.order, location.ID)
	return nil
}

// GetByID obtiene una ubicación; nil si no existe.
func (r *LocationRepository) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// List lista todas las ubicaciones.
func (r *LocationRepository) List(_ context.Context) ([]*entity.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Location, 0, len(r.order))
	for _, id := range r.order {
		l := r.byID[id]
		out = append(out, &l)
	}
	return out, nil
}

// CustomerRepository clientes en memoria.
type CustomerRepository struct {
	mu    sync.RWMutex
	byID  map[string]entity.Customer
	order []string
}

// NewCustomerRepository crea el repositorio vacío.
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{byID: make(map[string]entity.Customer)}
}

// Create persiste un cliente nuevo.
func (r *CustomerRepository) Create(_ context.Context, customer *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[customer.ID]; ok {
		return fmt.Errorf("%w: cliente %s", domain.ErrDuplicate, customer.ID)
	}
	r.byID[customer.ID] = *customer
	r.order = append(r.order, customer.ID)
	return nil
}

// GetByID obtiene un cliente; nil si no existe.
func (r *CustomerRepository) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// List lista todos los clientes.
func (r *CustomerRepository) List(_ context.Context) ([]*entity.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Customer, 0, len(r.order))
	for _, id := range r.order {
		c := r.byID[id]
		out = append(out, &c)
	}
	return out, nil
}

// ProductRepository catálogo de productos en memoria.
type ProductRepository struct {
	mu    sync.RWMutex
	byID  map[string]entity.Product
	order []string
}

// NewProductRepository crea el repositorio vacío.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{byID: make(map[string]entity.Product)}
}

// Create persiste un producto nuevo; el SKU es único.
func (r *ProductRepository) Create(_ context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[product.ID]; ok {
		return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, product.ID)
	}
	if product.SKU != "" {
		for _, p := range r.byID {
			if p.SKU == product.SKU {
				return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, product.SKU)
			}
		}
	}
	r.byID[product.ID] = *product
	r.order = append(r.order, product.ID)
	return nil
}

// GetByID obtiene un producto; nil si no existe.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetBySKU obtiene un producto por SKU; nil si no existe.
func (r *ProductRepository) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.byID {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, nil
}

// UpdateCost actualiza el costo promedio ponderado.
func (r *ProductRepository) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[productID]
	if !ok {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	p.Cost = cost
	p.UpdatedAt = time.Now()
	r.byID[productID] = p
	return nil
}

// List lista el catálogo en orden de alta.
func (r *ProductRepository) List(_ context.Context) ([]*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Product, 0, len(r.order))
	for _, id := range r.order {
		p := r.byID[id]
		out = append(out, &p)
	}
	return out, nil
}

// Delete elimina un producto del catálogo.
func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ReasonRepository catálogo de motivos de ajuste en memoria.
type ReasonRepository struct {
	mu    sync.RWMutex
	byID  map[string]entity.AdjustmentReason
	order []string
}

// NewReasonRepository crea el catálogo con los motivos por defecto.
func NewReasonRepository() *ReasonRepository {
	r := &ReasonRepository{byID: make(map[string]entity.AdjustmentReason)}
	for _, reason := range DefaultReasons() {
		_ = r.Create(context.Background(), &reason)
	}
	return r
}

// DefaultReasons motivos de ajuste precargados.
func DefaultReasons() []entity.AdjustmentReason {
	return []entity.AdjustmentReason{
		{ID: "damaged", Name: "Dañado", Description: "Producto dañado o en mal estado"},
		{ID: "lost", Name: "Perdido", Description: "Faltante no explicado"},
		{ID: "found", Name: "Encontrado", Description: "Sobrante encontrado en conteo"},
		{ID: "count", Name: "Conteo físico", Description: "Corrección por inventario físico"},
		{ID: "expired", Name: "Vencido", Description: "Producto vencido retirado"},
		{ID: "returned", Name: "Devolución", Description: "Devolución de cliente reingresada"},
	}
}

// Create agrega un motivo.
func (r *ReasonRepository) Create(_ context.Context, reason *entity.AdjustmentReason) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[reason.ID]; ok {
		return fmt.Errorf("%w: motivo %s", domain.ErrDuplicate, reason.ID)
	}
	r.byID[reason.ID] = *reason
	r.order = append(r.order, reason.ID)
	return nil
}

// GetByID obtiene un motivo; nil si no existe.
func (r *ReasonRepository) GetByID(_ context.Context, id string) (*entity.AdjustmentReason, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reason, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &reason, nil
}

// List lista los motivos en orden de alta.
func (r *ReasonRepository) List(_ context.Context) ([]entity.AdjustmentReason, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.AdjustmentReason, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}
