package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

// Deps repositorios que el motor recibe inyectados; el motor no guarda estado global.
type Deps struct {
	Locations repository.LocationRepository
	Customers repository.CustomerRepository
	Products  repository.ProductRepository
	Reasons   repository.ReasonRepository
	Ledger    repository.LedgerStore
	Records   repository.MovementRecordRepository
	Committer repository.MovementCommitter
}

// AdjustPolicy política ante un ajuste que resta más de lo disponible.
type AdjustPolicy string

const (
	AdjustPolicyClamp  AdjustPolicy = "clamp"  // el resultado queda en cero
	AdjustPolicyReject AdjustPolicy = "reject" // error de validación QUANTITY_EXCEEDS_STOCK
)

// ParseAdjustPolicy interpreta el valor de configuración; cualquier otro valor es clamp.
func ParseAdjustPolicy(s string) AdjustPolicy {
	if AdjustPolicy(s) == AdjustPolicyReject {
		return AdjustPolicyReject
	}
	return AdjustPolicyClamp
}

// DefaultCustomerAvailability disponibilidad fija de un cliente usado como origen de traslado.
const DefaultCustomerAvailability int64 = 100

type options struct {
	log                  *logger.Logger
	now                  func() time.Time
	newID                func() string
	adjustPolicy         AdjustPolicy
	customerAvailability int64
}

// Option configura el motor.
type Option func(*options)

// WithLogger inyecta el logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator reemplaza el generador de IDs de registro.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithAdjustPolicy fija la política de sobre-reducción de ajustes.
func WithAdjustPolicy(p AdjustPolicy) Option {
	return func(o *options) { o.adjustPolicy = p }
}

// WithCustomerAvailability fija la disponibilidad simulada de clientes como origen.
func WithCustomerAvailability(n int64) Option {
	return func(o *options) { o.customerAvailability = n }
}

func defaultOptions() options {
	return options{
		log:                  logger.NewNop(),
		now:                  time.Now,
		newID:                func() string { return uuid.New().String() },
		adjustPolicy:         AdjustPolicyClamp,
		customerAvailability: DefaultCustomerAvailability,
	}
}
