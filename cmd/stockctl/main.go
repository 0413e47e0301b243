// stockctl opera el motor de stock desde la línea de comandos: entradas y
// ajustes de almacén contra el libro, y recomputo de totales de una orden en
// curso guardada en el Order Session Cache.
//
// Uso:
//
//	stockctl entry     -business ID -product ID -area ID -qty N [-batch CODE] [-actor ID]
//	stockctl adjust    -business ID -product ID -area ID -qty N [-actor ID]
//	stockctl recompute -business ID -tx ID [-sales-area ID]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-core/internal/application/checkout"
	"github.com/jhoicas/pos-core/internal/application/ledger"
	"github.com/jhoicas/pos-core/internal/application/resolver"
	"github.com/jhoicas/pos-core/internal/application/settings"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-core/internal/infrastructure/rediscache"
	"github.com/jhoicas/pos-core/pkg/config"
	"github.com/jhoicas/pos-core/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	settingsSvc := settings.NewService(postgres.NewSettingsRepository(pool))
	movementRepo := postgres.NewStockMovementRepository(pool)
	led := ledger.NewLedger(postgres.NewTxRunner(pool), movementRepo, log)

	var exitErr error
	switch os.Args[1] {
	case "entry":
		exitErr = runMovement(ctx, led, settingsSvc, entity.MovementOperationEntry, os.Args[2:])
	case "adjust":
		exitErr = runMovement(ctx, led, settingsSvc, entity.MovementOperationAdjust, os.Args[2:])
	case "recompute":
		exitErr = runRecompute(ctx, cfg, pool, led, settingsSvc, log, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if exitErr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", exitErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "uso: stockctl <entry|adjust|recompute> [flags]")
}

// runMovement aplica una entrada o un ajuste de un solo producto contra el
// libro de stock. Las entradas son estrictas; los ajustes pueden dejar la
// cantidad en negativo (correcciones de conteo físico).
func runMovement(
	ctx context.Context,
	led *ledger.Ledger,
	settingsSvc *settings.Service,
	operation string,
	args []string,
) error {
	fs := flag.NewFlagSet(operation, flag.ExitOnError)
	business := fs.String("business", "", "id del negocio")
	product := fs.String("product", "", "id del producto")
	area := fs.String("area", "", "id del área de almacén")
	qtyStr := fs.String("qty", "", "cantidad firmada (negativa descuenta)")
	batchCode := fs.String("batch", "", "código de lote (opcional, solo entradas)")
	actor := fs.String("actor", "", "id del usuario que opera")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *business == "" || *product == "" || *area == "" || *qtyStr == "" {
		return fmt.Errorf("faltan flags: -business, -product, -area y -qty son obligatorios")
	}
	qty, err := decimal.NewFromString(*qtyStr)
	if err != nil {
		return fmt.Errorf("cantidad %q inválida: %w", *qtyStr, err)
	}

	cfg, err := settingsSvc.Load(ctx, *business)
	if err != nil {
		return err
	}

	delta := ledger.Delta{ProductID: *product, AreaID: *area, Quantity: qty}
	if *batchCode != "" && qty.IsPositive() {
		delta.BatchAllocations = []ledger.BatchAllocation{{Code: *batchCode, Quantity: qty}}
	}
	mode := ledger.ModeStrict
	if operation == entity.MovementOperationAdjust {
		mode = ledger.ModePermissive
	}

	if err := led.Apply(ctx, ledger.ApplyInput{
		BusinessID:  *business,
		Deltas:      []ledger.Delta{delta},
		Mode:        mode,
		BatchPolicy: cfg.BatchPolicy,
		Operation:   operation,
		Reference:   "stockctl",
		ActorID:     *actor,
	}); err != nil {
		return err
	}
	fmt.Printf("%s aplicado: producto %s, área %s, cantidad %s\n", operation, *product, *area, qty)
	return nil
}

// runRecompute carga la sesión de una transacción desde el cache, recalcula
// sus totales completos y los imprime.
func runRecompute(
	ctx context.Context,
	cfg *config.Config,
	pool postgres.Querier,
	led *ledger.Ledger,
	settingsSvc *settings.Service,
	log *logger.Logger,
	args []string,
) error {
	fs := flag.NewFlagSet("recompute", flag.ExitOnError)
	business := fs.String("business", "", "id del negocio")
	txID := fs.String("tx", "", "id de la transacción")
	salesArea := fs.String("sales-area", "", "id del área de venta (opcional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *business == "" || *txID == "" {
		return fmt.Errorf("faltan flags: -business y -tx son obligatorios")
	}

	client := rediscache.NewClient(cfg.Redis)
	defer client.Close()
	cache := rediscache.NewSessionCache(client, cfg.Session.TTL)

	uc := checkout.NewUseCase(
		resolver.NewResolver(postgres.NewProductRepository(pool), log),
		led,
		settingsSvc,
		postgres.NewCurrencyRepository(pool),
		postgres.NewAreaRepository(pool),
		cache,
		cfg.Session.TTL,
		log,
	)

	var session entity.OrderSession
	found, err := cache.Get(ctx, *business, *txID, checkout.CacheNameSession, &session)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no hay sesión en cache para la transacción %s", *txID)
	}

	totals, err := uc.RecomputeTotals(ctx, *txID, &session, *salesArea)
	if err != nil {
		return err
	}
	for _, a := range totals.TotalsToPay {
		fmt.Printf("a pagar: %s\n", a)
	}
	fmt.Printf("total en moneda principal: %s\n", totals.MainTotal)
	return nil
}
