package main

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CartLine is one parsed cart row.
type CartLine struct {
	Name  string
	Price int
}

// CartSnapshot is one immutable read of the cart page. Every poll attempt
// produces a new snapshot; nothing patches one in place.
type CartSnapshot struct {
	Lines          []CartLine
	DisplayedTotal int
	TotalKnown     bool
}

// expectedTotal sums the parsed line prices of a snapshot.
func expectedTotal(s CartSnapshot) int {
	sum := 0
	for _, line := range s.Lines {
		sum += line.Price
	}
	return sum
}

// cartPage reads and reconciles the cart.
type cartPage struct {
	page Page
	cfg  *Config
	log  *zap.Logger
}

func newCartPage(page Page, cfg *Config, log *zap.Logger) *cartPage {
	return &cartPage{page: page, cfg: cfg, log: log}
}

func (c *cartPage) tableSpec() LocatorSpec {
	return LocatorSpec{
		Name: "cart table",
		Alternatives: []Locator{
			{ByCSS, "table.table-striped"},
			{ByCSS, "table"},
		},
	}
}

func (c *cartPage) rowsSpec() LocatorSpec {
	return LocatorSpec{
		Name: "cart rows",
		Alternatives: []Locator{
			{ByCSS, c.cfg.Selectors.CartRows},
			{ByCSS, "table tbody tr"},
		},
	}
}

func (c *cartPage) totalSpec() LocatorSpec {
	return LocatorSpec{
		Name: "cart total",
		Alternatives: []Locator{
			{ByCSS, c.cfg.Selectors.CartTotal},
			{ByXPath, `//*[@id="total"]`},
		},
	}
}

func (c *cartPage) payButtonSpec() LocatorSpec {
	return LocatorSpec{
		Name: "pay button",
		Alternatives: []Locator{
			{ByCSS, c.cfg.Selectors.PayButton},
			{ByXPath, `//button[contains(text(), 'Pay')]`},
		},
	}
}

var cellLoc = Locator{ByCSS, "td"}

// waitForCart blocks until the cart table is rendered.
func (c *cartPage) waitForCart() error {
	_, err := resolve(c.page, c.tableSpec(), c.cfg.findTimeout(), c.cfg.pollInterval())
	return err
}

// snapshot reads every cart row once. Rows with fewer than two cells or with
// no digits in the price cell (headers, decoration) are discarded, never
// defaulted to zero. An unreadable displayed total is recorded as unknown and
// surfaces as zero, which the caller's total comparison then fails.
func (c *cartPage) snapshot() (CartSnapshot, error) {
	rows, err := resolveAll(c.page, c.rowsSpec())
	if err != nil {
		return CartSnapshot{}, err
	}

	lines := make([]CartLine, 0, len(rows))
	for i, row := range rows {
		cells, err := row.FindAll(cellLoc)
		if err != nil || len(cells) < 2 {
			c.log.Debug("cart row without cells skipped", zap.Int("row", i))
			continue
		}

		name, err := cells[0].Text()
		if err != nil {
			c.log.Debug("cart row name unreadable, skipped", zap.Int("row", i), zap.Error(err))
			continue
		}

		priceText, err := cells[1].Text()
		if err != nil {
			c.log.Debug("cart row price unreadable, skipped", zap.Int("row", i), zap.Error(err))
			continue
		}

		price, err := parsePrice("cart line price", priceText)
		if err != nil {
			c.log.Debug("cart row discarded, no digits in price",
				zap.Int("row", i), zap.String("price_text", priceText))
			continue
		}

		lines = append(lines, CartLine{Name: strings.TrimSpace(name), Price: price})
	}

	snap := CartSnapshot{Lines: lines}
	if total, known := c.readDisplayedTotal(); known {
		snap.DisplayedTotal = total
		snap.TotalKnown = true
	}
	return snap, nil
}

func (c *cartPage) readDisplayedTotal() (int, bool) {
	h, err := resolve(c.page, c.totalSpec(), 0, c.cfg.pollInterval())
	if err != nil {
		return 0, false
	}
	raw, err := h.Text()
	if err != nil {
		return 0, false
	}
	total, err := parsePrice("displayed total", raw)
	if err != nil {
		return 0, false
	}
	return total, true
}

// reconcile polls the cart until it holds at least expected lines or the
// attempt budget runs out. The cart list lags the add actions by client-side
// rendering, so a single read after navigation is not trustworthy. On
// exhaustion the last snapshot is returned without error so the caller can
// report the precise mismatch.
func (c *cartPage) reconcile(expected, maxAttempts int, interval time.Duration) (CartSnapshot, error) {
	var last CartSnapshot
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		snap, err := c.snapshot()
		if err != nil {
			return last, fmt.Errorf("cart read attempt %d: %w", attempt, err)
		}
		last = snap

		if len(snap.Lines) >= expected {
			c.log.Info("cart converged",
				zap.Int("attempt", attempt), zap.Int("lines", len(snap.Lines)))
			return snap, nil
		}

		c.log.Debug("cart not converged yet",
			zap.Int("attempt", attempt),
			zap.Int("lines", len(snap.Lines)),
			zap.Int("expected", expected))

		if attempt < maxAttempts {
			time.Sleep(interval)
		}
	}

	c.log.Warn("cart polling exhausted",
		zap.Int("attempts", maxAttempts),
		zap.Int("lines", len(last.Lines)),
		zap.Int("expected", expected))
	return last, nil
}

// clickPay opens the payment form.
func (c *cartPage) clickPay() error {
	h, err := resolve(c.page, c.payButtonSpec(), c.cfg.findTimeout(), c.cfg.pollInterval())
	if err != nil {
		return err
	}
	if err := h.Click(); err != nil {
		return fmt.Errorf("click pay button: %w", err)
	}
	c.log.Info("pay button clicked")
	return nil
}
