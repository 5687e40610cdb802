package main

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Product is one purchasable catalog entry. Handles inside it are only valid
// on the page that produced them; a catalog is re-extracted after every
// navigation, never cached across one.
type Product struct {
	Name  string
	Price int // minor currency units

	card Handle
	add  Handle
}

// catalogPage reads the rendered product listing and drives add-to-cart.
type catalogPage struct {
	page Page
	cfg  *Config
	log  *zap.Logger
}

func newCatalogPage(page Page, cfg *Config, log *zap.Logger) *catalogPage {
	return &catalogPage{page: page, cfg: cfg, log: log}
}

func (cp *catalogPage) cardSpec() LocatorSpec {
	return LocatorSpec{
		Name: "product cards",
		Alternatives: []Locator{
			{ByCSS, cp.cfg.Selectors.ProductCard},
			{ByCSS, ".product-card"},
		},
	}
}

var (
	paragraphLoc = Locator{ByCSS, "p"}
	addButtonLoc = Locator{ByCSS, "button"}
)

// extractCatalog waits for the listing to render at least one card, then
// reads every card fresh. Cards without a name label, without a price label,
// or with an unparsable price are skipped: catalogs contain decoration and a
// bad card must never default to price zero.
func (cp *catalogPage) extractCatalog() ([]Product, error) {
	if _, err := resolve(cp.page, cp.cardSpec(), cp.cfg.findTimeout(), cp.cfg.pollInterval()); err != nil {
		return nil, err
	}

	cards, err := resolveAll(cp.page, cp.cardSpec())
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(cards))
	for i, card := range cards {
		product, ok := cp.readCard(i, card)
		if !ok {
			continue
		}
		products = append(products, product)
	}

	cp.log.Info("catalog extracted",
		zap.Int("cards", len(cards)),
		zap.Int("products", len(products)))
	return products, nil
}

func (cp *catalogPage) readCard(idx int, card Handle) (Product, bool) {
	paras, err := card.FindAll(paragraphLoc)
	if err != nil || len(paras) == 0 {
		cp.log.Debug("card without labels skipped", zap.Int("card", idx))
		return Product{}, false
	}

	name, err := paras[0].Text()
	if err != nil {
		cp.log.Debug("card name unreadable, skipped", zap.Int("card", idx), zap.Error(err))
		return Product{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		cp.log.Debug("card with empty name skipped", zap.Int("card", idx))
		return Product{}, false
	}

	priceText, ok := cp.priceLabel(paras)
	if !ok {
		cp.log.Debug("card without price label skipped", zap.Int("card", idx), zap.String("name", name))
		return Product{}, false
	}

	price, err := parsePrice("product price", priceText)
	if err != nil {
		cp.log.Warn("card with unparsable price skipped",
			zap.String("name", name), zap.String("price_text", priceText))
		return Product{}, false
	}

	add, err := card.FindOne(addButtonLoc)
	if err != nil {
		cp.log.Debug("card without add control skipped", zap.String("name", name))
		return Product{}, false
	}

	return Product{Name: name, Price: price, card: card, add: add}, true
}

// priceLabel returns the first paragraph that announces itself as the price.
func (cp *catalogPage) priceLabel(paras []Handle) (string, bool) {
	for _, p := range paras {
		text, err := p.Text()
		if err != nil {
			continue
		}
		if strings.Contains(text, "Price") {
			return text, true
		}
	}
	return "", false
}

var spfTag = regexp.MustCompile(`^SPF-(\d+)$`)

// filterByIngredient returns the products whose name matches tag. SPF tags
// match the literal rating with either separator, and the rating must end
// there: SPF-30 never matches SPF-300. Anything else is a case-insensitive
// substring match.
func filterByIngredient(products []Product, tag string) []Product {
	var matches func(name string) bool

	if m := spfTag.FindStringSubmatch(tag); m != nil {
		re := regexp.MustCompile(`SPF[- ]` + m[1] + `(?:\D|$)`)
		matches = re.MatchString
	} else {
		needle := strings.ToLower(tag)
		matches = func(name string) bool {
			return strings.Contains(strings.ToLower(name), needle)
		}
	}

	var filtered []Product
	for _, p := range products {
		if matches(p.Name) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// cheapest returns the minimum-price product. Ties go to the earliest
// catalog entry so selection is stable. ok is false for an empty input,
// which callers must treat as a selection failure, not zero cost.
func cheapest(products []Product) (Product, bool) {
	if len(products) == 0 {
		return Product{}, false
	}

	best := products[0]
	for _, p := range products[1:] {
		if p.Price < best.Price {
			best = p
		}
	}
	return best, true
}

// categoryTags lists the two ingredient tags a category's cart must contain.
func categoryTags(cat Category) [2]string {
	if cat == CategorySunscreens {
		return [2]string{"SPF-30", "SPF-50"}
	}
	return [2]string{"Aloe", "Almond"}
}

// selectForCategory picks the cheapest match per required tag. Both sides of
// the pair are mandatory; a missing side fails the whole selection so a
// partial cart never reaches checkout.
func selectForCategory(products []Product, cat Category) ([2]Product, error) {
	tags := categoryTags(cat)

	var pair [2]Product
	var missing []string
	for i, tag := range tags {
		p, ok := cheapest(filterByIngredient(products, tag))
		if !ok {
			missing = append(missing, tag)
			continue
		}
		pair[i] = p
	}

	if len(missing) > 0 {
		return [2]Product{}, &SelectionError{Category: cat, Missing: missing}
	}
	return pair, nil
}

func (cp *catalogPage) cartIndicatorSpec() LocatorSpec {
	return LocatorSpec{
		Name: "cart indicator",
		Alternatives: []Locator{
			{ByCSS, cp.cfg.Selectors.CartIndicator},
			{ByXPath, `//button[contains(text(), 'Cart')]`},
		},
	}
}

// addToCart triggers the product's add control, then waits a bounded time
// for the cart indicator to move off its prior value. The indicator is an
// optimistic signal only: a missed change is a warning, and the reconciler
// remains the authority on whether the add landed.
func (cp *catalogPage) addToCart(p Product) error {
	prior := cp.indicatorText()

	if err := p.card.ScrollIntoView(); err != nil {
		cp.log.Debug("scroll to card failed", zap.String("product", p.Name), zap.Error(err))
	}

	if _, disabled, err := p.add.Attribute("disabled"); err == nil && disabled {
		return fmt.Errorf("add control for %q is disabled", p.Name)
	}

	if err := p.add.Click(); err != nil {
		return fmt.Errorf("add %q to cart: %w", p.Name, err)
	}
	cp.log.Info("product added", zap.String("product", p.Name), zap.Int("price", p.Price))

	err := pollUntil(cp.cfg.addIndicatorTimeout(), cp.cfg.pollInterval(), func() (bool, error) {
		current := cp.indicatorText()
		return current != "" && current != prior, nil
	})
	if errors.Is(err, errWaitTimeout) {
		cp.log.Warn("cart indicator did not change after add; reconciliation will verify",
			zap.String("product", p.Name), zap.String("prior", prior))
		return nil
	}
	return err
}

func (cp *catalogPage) indicatorText() string {
	h, err := resolve(cp.page, cp.cartIndicatorSpec(), 0, cp.cfg.pollInterval())
	if err != nil {
		return ""
	}
	text, err := h.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// openCart clicks the cart indicator to reach the cart page.
func (cp *catalogPage) openCart() error {
	h, err := resolve(cp.page, cp.cartIndicatorSpec(), cp.cfg.findTimeout(), cp.cfg.pollInterval())
	if err != nil {
		return err
	}
	if err := h.Click(); err != nil {
		return fmt.Errorf("open cart: %w", err)
	}
	return nil
}
