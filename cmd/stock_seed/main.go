package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/application/stock"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/fixtures"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-stock/pkg/config"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

// stock_seed carga fixtures en el almacén configurado y resume el stock por ubicación principal.
// Uso: stock_seed [ruta.json]  (por defecto STOCK_FIXTURES_PATH)
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Stock.Store).
		Str("adjust_policy", cfg.Stock.AdjustPolicy).
		Msg("iniciando carga de stock")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacén")
	}
	defer cleanup()

	engine := stock.NewMovementEngine(deps,
		stock.WithLogger(log),
		stock.WithAdjustPolicy(stock.ParseAdjustPolicy(cfg.Stock.AdjustPolicy)),
		stock.WithCustomerAvailability(cfg.Stock.CustomerAvailability),
	)

	path := cfg.Stock.FixturesPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path != "" {
		file, err := fixtures.ParseFile(path, cfg.Stock.FixturesCharset)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("leer fixtures")
		}
		res, err := fixtures.Apply(ctx, file, fixtures.Catalogs{
			Locations: deps.Locations,
			Customers: deps.Customers,
			Reasons:   deps.Reasons,
		}, engine, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("aplicar fixtures")
		}
		log.Info().
			Int("locations", res.Locations).
			Int("customers", res.Customers).
			Int("products", res.Products).
			Int("reasons", res.Reasons).
			Int("movements", res.Movements).
			Msg("fixtures cargados")
	} else {
		log.Warn().Msg("sin STOCK_FIXTURES_PATH: solo se resume el stock existente")
	}

	if err := summarize(ctx, deps, engine, log); err != nil {
		log.Fatal().Err(err).Msg("resumen de stock")
	}
}

func buildDeps(ctx context.Context, cfg *config.Config, log *logger.Logger) (stock.Deps, func(), error) {
	if cfg.Stock.Store != config.StorePostgres {
		ledger := memory.NewLedgerStore()
		records := memory.NewMovementRecordRepository()
		return stock.Deps{
			Locations: memory.NewLocationRepository(),
			Customers: memory.NewCustomerRepository(),
			Products:  memory.NewProductRepository(),
			Reasons:   memory.NewReasonRepository(),
			Ledger:    ledger,
			Records:   records,
			Committer: memory.NewMovementCommitter(ledger, records),
		}, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return stock.Deps{}, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return stock.Deps{}, nil, err
	}
	reasons := postgres.NewReasonRepository(pool)
	for _, r := range memory.DefaultReasons() {
		if err := reasons.Create(ctx, &r); err != nil && !errors.Is(err, domain.ErrDuplicate) {
			pool.Close()
			return stock.Deps{}, nil, err
		}
	}
	log.Info().Str("db", cfg.DB.DBName).Msg("conectado a PostgreSQL")
	return stock.Deps{
		Locations: postgres.NewLocationRepository(pool),
		Customers: postgres.NewCustomerRepository(pool),
		Products:  postgres.NewProductRepository(pool),
		Reasons:   reasons,
		Ledger:    postgres.NewLedgerStore(pool),
		Records:   postgres.NewMovementRecordRepository(pool),
		Committer: postgres.NewMovementCommitter(pool),
	}, pool.Close, nil
}

// summarize registra, por ubicación principal, cuántos productos tienen stock y el total de unidades.
func summarize(ctx context.Context, deps stock.Deps, engine *stock.MovementEngine, log *logger.Logger) error {
	locations, err := deps.Locations.List(ctx)
	if err != nil {
		return err
	}
	for _, l := range locations {
		if !l.IsMain() {
			continue
		}
		items, err := engine.ListAvailableProducts(ctx, []string{l.ID}, dto.AvailabilityFilter{})
		if err != nil {
			return err
		}
		var units int64
		for _, it := range items {
			units += it.EffectiveQuantity
		}
		log.Info().
			Str("location_id", l.ID).
			Str("location", l.Name).
			Str("kind", string(l.Kind)).
			Int("products", len(items)).
			Int64("units", units).
			Msg("stock efectivo")
	}
	return nil
}
