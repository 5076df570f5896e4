package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

const tracerName = "github.com/jcmexdev/lvs-storefront/internal/storefront/pricing"

// Quote is a priced product for a given purchase context.
type Quote struct {
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	ListPrice  decimal.Decimal `json:"listPrice"`
	Featured   bool            `json:"featured"`
	PriorUnits int             `json:"priorUnits"`
	// Degraded is set when a collaborator failed and promotions were skipped.
	Degraded bool `json:"degraded"`
}

// Quoter resolves settings and purchase history for the Calculator and
// degrades to plain pricing when either collaborator is unavailable.
type Quoter struct {
	calc     Calculator
	settings ports.SettingsStore
	history  ports.OrderHistory
	logger   *slog.Logger
	tracer   trace.Tracer

	mu       sync.Mutex
	revision uint64
	prior    map[priorKey]int
}

type priorKey struct {
	identity string
	product  domain.ID
	revision uint64
}

func NewQuoter(calc Calculator, settings ports.SettingsStore, history ports.OrderHistory, logger *slog.Logger) *Quoter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Quoter{
		calc:     calc,
		settings: settings,
		history:  history,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		prior:    make(map[priorKey]int),
	}
}

// Settings fetches the current settings. On failure it returns the zero
// Settings, which disables every promotion, and degraded=true.
func (q *Quoter) Settings(ctx context.Context) (s domain.Settings, degraded bool) {
	s, err := q.settings.GetSettings(ctx)
	if err != nil {
		q.logger.WarnContext(ctx, "pricing without promotions",
			"error", fmt.Errorf("%w: %w", domain.ErrSettingsUnavailable, err))
		return domain.Settings{}, true
	}
	return s, false
}

// Quote prices quantity units of product for customer using fresh settings.
func (q *Quoter) Quote(ctx context.Context, product domain.Product, quantity int, customer domain.Customer) Quote {
	settings, degraded := q.Settings(ctx)
	quote := q.QuoteWith(ctx, settings, product, quantity, customer)
	quote.Degraded = quote.Degraded || degraded
	return quote
}

// QuoteWith prices against already-resolved settings, so a batch of lines can
// share one settings read.
func (q *Quoter) QuoteWith(
	ctx context.Context,
	settings domain.Settings,
	product domain.Product,
	quantity int,
	customer domain.Customer,
) Quote {
	ctx, span := q.tracer.Start(ctx, "pricing.Quote", trace.WithAttributes(
		attribute.String("product.id", product.ID.String()),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	quote := Quote{ListPrice: product.ListPrice}

	if settings.IsFeatured(product.ID) {
		prior, err := q.PriorUnits(ctx, customer, product.ID)
		if err != nil {
			q.logger.WarnContext(ctx, "featured promo disabled for quote",
				"product_id", product.ID, "error", err)
			settings.FeaturedPromoProductID = ""
			quote.Degraded = true
		} else {
			quote.Featured = true
			quote.PriorUnits = prior
		}
	}

	quote.UnitPrice = q.calc.UnitPrice(product, quantity, quote.PriorUnits, customer, settings)
	span.SetAttributes(
		attribute.Bool("pricing.featured", quote.Featured),
		attribute.Bool("pricing.degraded", quote.Degraded),
		attribute.String("pricing.unit_price", quote.UnitPrice.String()),
	)
	return quote
}

// PriorUnits returns how many units of productID the customer already bought.
// Results are memoised per identity, product and history revision.
func (q *Quoter) PriorUnits(ctx context.Context, customer domain.Customer, productID domain.ID) (int, error) {
	filter, ok := HistoryFilter(customer)
	if !ok {
		return 0, nil
	}

	q.mu.Lock()
	key := priorKey{identity: customer.IdentityKey(), product: productID, revision: q.revision}
	if n, hit := q.prior[key]; hit {
		q.mu.Unlock()
		return n, nil
	}
	q.mu.Unlock()

	orders, err := q.history.List(ctx, filter)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", domain.ErrHistoryUnavailable, err)
	}
	n := CountPriorUnits(customer, productID, orders)

	q.mu.Lock()
	if key.revision == q.revision {
		q.prior[key] = n
	}
	q.mu.Unlock()
	return n, nil
}

// InvalidateHistory drops memoised purchase counts. Call it whenever the order
// history changes.
func (q *Quoter) InvalidateHistory() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.revision++
	q.prior = make(map[priorKey]int)
}
