package main

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutcomeKind classifies how a purchase run ended.
type OutcomeKind int

const (
	// OutcomeCompleted means a payment was confirmed.
	OutcomeCompleted OutcomeKind = iota
	// OutcomeSkipped means the conditions called for no purchase.
	OutcomeSkipped
	// OutcomeFailed means a stage could not finish.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one purchase run. Stage and Reason are
// only set for skipped and failed runs.
type Outcome struct {
	Kind   OutcomeKind
	Stage  string
	Reason string
}

// flowSession is the slice of Session the purchase flow needs.
type flowSession interface {
	Page() Page
	Navigate(url string) error
	ScrollToBottom() error
	Capture(tag string) (string, error)
}

// runPurchaseFlow drives one complete purchase: read the temperature, route
// to a category, pick the cheapest product per ingredient, reconcile the
// cart, and pay. Every failure captures a screenshot tagged with the stage
// that broke.
func runPurchaseFlow(s flowSession, cfg *Config, log *zap.Logger) Outcome {
	log = log.With(zap.String("run_id", uuid.NewString()))

	fail := func(stage string, err error) Outcome {
		log.Error("purchase flow failed", zap.String("stage", stage), zap.Error(err))
		if path, cerr := s.Capture(stage); cerr != nil {
			log.Warn("failure screenshot not captured", zap.Error(cerr))
		} else {
			log.Info("failure screenshot captured", zap.String("path", path))
		}
		return Outcome{Kind: OutcomeFailed, Stage: stage, Reason: err.Error()}
	}

	if err := s.Navigate(cfg.BaseURL); err != nil {
		return fail("navigate", err)
	}

	home := newHomePage(s.Page(), cfg, log)
	temp, err := home.readTemperature()
	if err != nil {
		return fail("temperature", err)
	}
	cat := routeCategory(temp)
	log.Info("category routed", zap.Int("celsius", temp), zap.Stringer("category", cat))

	if cat == CategoryNone {
		reason := fmt.Sprintf("temperature %d°C is in the comfortable band, nothing to buy", temp)
		log.Info("purchase skipped", zap.String("reason", reason))
		return Outcome{Kind: OutcomeSkipped, Stage: "routing", Reason: reason}
	}

	if err := home.openCategory(cat); err != nil {
		return fail("open-category", err)
	}

	catalog := newCatalogPage(s.Page(), cfg, log)
	if err := s.ScrollToBottom(); err != nil {
		log.Warn("scroll to bottom failed, continuing with visible cards", zap.Error(err))
	}
	products, err := catalog.extractCatalog()
	if err != nil {
		return fail("catalog", err)
	}

	pair, err := selectForCategory(products, cat)
	if err != nil {
		return fail("selection", err)
	}
	for _, p := range pair {
		log.Info("product selected", zap.String("name", p.Name), zap.Int("price", p.Price))
		if err := catalog.addToCart(p); err != nil {
			return fail("add-to-cart", err)
		}
	}

	if err := catalog.openCart(); err != nil {
		return fail("open-cart", err)
	}

	cart := newCartPage(s.Page(), cfg, log)
	if err := cart.waitForCart(); err != nil {
		return fail("cart", err)
	}
	snap, err := cart.reconcile(len(pair), cfg.CartMaxAttempts, cfg.cartPollInterval())
	if err != nil {
		return fail("reconcile", err)
	}

	// Proceed to payment only when the cart holds exactly the selected pair
	// and both the parsed line sum and the pair sum agree with the page's
	// displayed total.
	pairSum := pair[0].Price + pair[1].Price
	lineSum := expectedTotal(snap)
	if len(snap.Lines) != len(pair) || !snap.TotalKnown ||
		lineSum != snap.DisplayedTotal || snap.DisplayedTotal != pairSum {
		return fail("reconcile", &ReconcileError{
			ExpectedCount:  len(pair),
			ObservedCount:  len(snap.Lines),
			ExpectedTotal:  lineSum,
			DisplayedTotal: snap.DisplayedTotal,
		})
	}
	log.Info("cart reconciled", zap.Int("lines", len(snap.Lines)), zap.Int("total", snap.DisplayedTotal))

	if err := cart.clickPay(); err != nil {
		return fail("pay-button", err)
	}

	payment := newPaymentForm(s.Page(), cfg, log)
	if err := payment.run(); err != nil {
		return fail("payment", err)
	}

	log.Info("purchase completed")
	return Outcome{Kind: OutcomeCompleted}
}
