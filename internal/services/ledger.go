package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/repository"
)

// Outcome reports what a ledger mutation did.
type Outcome string

const (
	OutcomeAdded          Outcome = "added"
	OutcomeUpdated        Outcome = "updated"
	OutcomeRemoved        Outcome = "removed"
	OutcomeUnchanged      Outcome = "unchanged"
	OutcomeAlreadyPresent Outcome = "already_present"
	OutcomeCleared        Outcome = "cleared"
)

// CartView is a session cart with its derived totals. Discount and
// GrandTotal reflect the active promo, if any.
type CartView struct {
	Items      []models.CartItem `json:"items"`
	ItemCount  int               `json:"item_count"`
	Total      float64           `json:"total"`
	PromoCode  string            `json:"promo_code,omitempty"`
	Discount   float64           `json:"discount"`
	GrandTotal float64           `json:"grand_total"`
}

// Ledger keeps per-session carts, wishlists, the active promo code and the
// last customer email. State is serialized as JSON into a KV store.
type Ledger struct {
	kv repository.KV
}

func NewLedger(kv repository.KV) *Ledger {
	return &Ledger{kv: kv}
}

func cartKey(session string) string     { return "cart:" + session }
func wishlistKey(session string) string { return "wishlist:" + session }
func promoKey(session string) string    { return "promo:" + session }
func emailKey(session string) string    { return "customer_email:" + session }

// AddToCart inserts item or, when the product is already in the cart, adds
// quantity to the existing entry. The existing entry keeps its price snapshot.
func (l *Ledger) AddToCart(ctx context.Context, session string, item models.CartItem, quantity int) (Outcome, error) {
	const op = "ledger.AddToCart"
	if err := requireSession(op, session); err != nil {
		return "", err
	}
	if strings.TrimSpace(item.ID) == "" {
		return "", validationError(op, "id", "is required")
	}
	if item.Price < 0 {
		return "", validationError(op, "price", "must not be negative")
	}
	if quantity < 1 {
		quantity = 1
	}

	items, err := l.cartItems(ctx, op, session)
	if err != nil {
		return "", err
	}

	outcome := OutcomeAdded
	if i := indexOfCartItem(items, item.ID); i >= 0 {
		items[i].Quantity += quantity
		outcome = OutcomeUpdated
	} else {
		item.Quantity = quantity
		items = append(items, item)
	}

	if err := l.save(ctx, op, cartKey(session), items); err != nil {
		return "", err
	}
	return outcome, nil
}

// RemoveFromCart drops the product from the cart. Removing an absent product
// is not an error.
func (l *Ledger) RemoveFromCart(ctx context.Context, session, id string) (Outcome, error) {
	const op = "ledger.RemoveFromCart"
	if err := requireSession(op, session); err != nil {
		return "", err
	}

	items, err := l.cartItems(ctx, op, session)
	if err != nil {
		return "", err
	}

	i := indexOfCartItem(items, id)
	if i < 0 {
		return OutcomeUnchanged, nil
	}
	items = append(items[:i], items[i+1:]...)

	if err := l.save(ctx, op, cartKey(session), items); err != nil {
		return "", err
	}
	return OutcomeRemoved, nil
}

// UpdateQuantity sets the quantity of a cart entry. A quantity below one
// removes the entry.
func (l *Ledger) UpdateQuantity(ctx context.Context, session, id string, quantity int) (Outcome, error) {
	const op = "ledger.UpdateQuantity"
	if quantity < 1 {
		return l.RemoveFromCart(ctx, session, id)
	}
	if err := requireSession(op, session); err != nil {
		return "", err
	}

	items, err := l.cartItems(ctx, op, session)
	if err != nil {
		return "", err
	}

	i := indexOfCartItem(items, id)
	if i < 0 {
		return OutcomeUnchanged, nil
	}
	items[i].Quantity = quantity

	if err := l.save(ctx, op, cartKey(session), items); err != nil {
		return "", err
	}
	return OutcomeUpdated, nil
}

func (l *Ledger) ClearCart(ctx context.Context, session string) (Outcome, error) {
	const op = "ledger.ClearCart"
	if err := requireSession(op, session); err != nil {
		return "", err
	}
	if err := l.kv.Delete(ctx, cartKey(session)); err != nil {
		return "", persistenceError(op, session, err)
	}
	return OutcomeCleared, nil
}

// Cart returns the session cart in insertion order with its totals.
func (l *Ledger) Cart(ctx context.Context, session string) (*CartView, error) {
	const op = "ledger.Cart"
	if err := requireSession(op, session); err != nil {
		return nil, err
	}

	items, err := l.cartItems(ctx, op, session)
	if err != nil {
		return nil, err
	}
	promo, err := l.ActivePromo(ctx, session)
	if err != nil {
		return nil, err
	}

	totals := ApplyPromo(cartSubtotal(items), promo)
	view := &CartView{
		Items:      items,
		ItemCount:  cartItemCount(items),
		Total:      totals.Subtotal.InexactFloat64(),
		Discount:   totals.Discount.InexactFloat64(),
		GrandTotal: totals.Total.InexactFloat64(),
	}
	if promo != nil {
		view.PromoCode = promo.Code
	}
	return view, nil
}

// AddToWishlist stores item unless the product is already wishlisted.
func (l *Ledger) AddToWishlist(ctx context.Context, session string, item models.WishlistItem) (Outcome, error) {
	const op = "ledger.AddToWishlist"
	if err := requireSession(op, session); err != nil {
		return "", err
	}
	if strings.TrimSpace(item.ID) == "" {
		return "", validationError(op, "id", "is required")
	}

	items, err := l.wishlistItems(ctx, op, session)
	if err != nil {
		return "", err
	}
	if indexOfWishlistItem(items, item.ID) >= 0 {
		return OutcomeAlreadyPresent, nil
	}

	items = append(items, item)
	if err := l.save(ctx, op, wishlistKey(session), items); err != nil {
		return "", err
	}
	return OutcomeAdded, nil
}

func (l *Ledger) RemoveFromWishlist(ctx context.Context, session, id string) (Outcome, error) {
	const op = "ledger.RemoveFromWishlist"
	if err := requireSession(op, session); err != nil {
		return "", err
	}

	items, err := l.wishlistItems(ctx, op, session)
	if err != nil {
		return "", err
	}

	i := indexOfWishlistItem(items, id)
	if i < 0 {
		return OutcomeUnchanged, nil
	}
	items = append(items[:i], items[i+1:]...)

	if err := l.save(ctx, op, wishlistKey(session), items); err != nil {
		return "", err
	}
	return OutcomeRemoved, nil
}

func (l *Ledger) IsInWishlist(ctx context.Context, session, id string) (bool, error) {
	const op = "ledger.IsInWishlist"
	if err := requireSession(op, session); err != nil {
		return false, err
	}

	items, err := l.wishlistItems(ctx, op, session)
	if err != nil {
		return false, err
	}
	return indexOfWishlistItem(items, id) >= 0, nil
}

func (l *Ledger) ClearWishlist(ctx context.Context, session string) (Outcome, error) {
	const op = "ledger.ClearWishlist"
	if err := requireSession(op, session); err != nil {
		return "", err
	}
	if err := l.kv.Delete(ctx, wishlistKey(session)); err != nil {
		return "", persistenceError(op, session, err)
	}
	return OutcomeCleared, nil
}

func (l *Ledger) Wishlist(ctx context.Context, session string) ([]models.WishlistItem, error) {
	const op = "ledger.Wishlist"
	if err := requireSession(op, session); err != nil {
		return nil, err
	}
	return l.wishlistItems(ctx, op, session)
}

// ApplyPromo makes code the session's only active promo. An unknown code is
// rejected and the current promo stays active.
func (l *Ledger) ApplyPromo(ctx context.Context, session, code string) (*Promo, error) {
	const op = "ledger.ApplyPromo"
	if err := requireSession(op, session); err != nil {
		return nil, err
	}

	promo, err := LookupPromo(code)
	if err != nil {
		return nil, err
	}
	if err := l.kv.Set(ctx, promoKey(session), []byte(promo.Code)); err != nil {
		return nil, persistenceError(op, session, err)
	}
	return &promo, nil
}

func (l *Ledger) RemovePromo(ctx context.Context, session string) (Outcome, error) {
	const op = "ledger.RemovePromo"
	if err := requireSession(op, session); err != nil {
		return "", err
	}
	if err := l.kv.Delete(ctx, promoKey(session)); err != nil {
		return "", persistenceError(op, session, err)
	}
	return OutcomeRemoved, nil
}

// ActivePromo returns the session's promo, or nil when none is active.
func (l *Ledger) ActivePromo(ctx context.Context, session string) (*Promo, error) {
	const op = "ledger.ActivePromo"
	raw, ok, err := l.kv.Get(ctx, promoKey(session))
	if err != nil {
		return nil, persistenceError(op, session, err)
	}
	if !ok {
		return nil, nil
	}

	promo, err := LookupPromo(string(raw))
	if err != nil {
		// The catalogue no longer knows this code.
		slog.WarnContext(ctx, "dropping stale promo code", "session_id", session, "code", string(raw))
		return nil, nil
	}
	return &promo, nil
}

// RememberCustomerEmail records the email used at checkout so the session can
// look up its orders later.
func (l *Ledger) RememberCustomerEmail(ctx context.Context, session, email string) error {
	const op = "ledger.RememberCustomerEmail"
	if err := requireSession(op, session); err != nil {
		return err
	}
	if err := l.kv.Set(ctx, emailKey(session), []byte(strings.TrimSpace(email))); err != nil {
		return persistenceError(op, session, err)
	}
	return nil
}

// CustomerEmail returns the remembered email, or "" when there is none.
func (l *Ledger) CustomerEmail(ctx context.Context, session string) (string, error) {
	const op = "ledger.CustomerEmail"
	if err := requireSession(op, session); err != nil {
		return "", err
	}
	raw, ok, err := l.kv.Get(ctx, emailKey(session))
	if err != nil {
		return "", persistenceError(op, session, err)
	}
	if !ok {
		return "", nil
	}
	return string(raw), nil
}

func (l *Ledger) cartItems(ctx context.Context, op, session string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := l.load(ctx, op, cartKey(session), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

func (l *Ledger) wishlistItems(ctx context.Context, op, session string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := l.load(ctx, op, wishlistKey(session), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.WishlistItem{}
	}
	return items, nil
}

func (l *Ledger) load(ctx context.Context, op, key string, dst any) error {
	raw, ok, err := l.kv.Get(ctx, key)
	if err != nil {
		return persistenceError(op, key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return persistenceError(op, key, err)
	}
	return nil
}

func (l *Ledger) save(ctx context.Context, op, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return persistenceError(op, key, err)
	}
	if err := l.kv.Set(ctx, key, raw); err != nil {
		return persistenceError(op, key, err)
	}
	return nil
}

func requireSession(op, session string) error {
	if strings.TrimSpace(session) == "" {
		return validationError(op, "session_id", "is required")
	}
	return nil
}

func indexOfCartItem(items []models.CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfWishlistItem(items []models.WishlistItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func cartSubtotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(lineSubtotal(item.Price, item.Quantity))
	}
	return total
}

func cartItemCount(items []models.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
