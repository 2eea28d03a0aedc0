package aggregates

import (
	"sync"
	"time"

	"eternals-backend/domain/core/entities"
	"eternals-backend/domain/core/valueobjects"
)

// CartLine is one product's quantity entry in a cart
type CartLine struct {
	ProductID string                   `json:"product_id"`
	UnitPrice valueobjects.Money       `json:"unit_price"`
	Quantity  int                      `json:"quantity"`
	Product   entities.ProductSnapshot `json:"product"`
}

// Subtotal returns unit price times quantity, unrounded
func (l CartLine) Subtotal() valueobjects.Money {
	return l.UnitPrice.Times(l.Quantity)
}

// Cart is the aggregate root for a shopping session.
//
// Lines are kept in insertion order and indexed by product id. There is at
// most one line per product and never a line with quantity zero. All methods
// are safe for concurrent use; every mutation is a single critical section
// so read-modify-write on a quantity cannot interleave.
type Cart struct {
	mu        sync.RWMutex
	id        string
	lines     []CartLine
	index     map[string]int
	updatedAt time.Time
}

// NewCart creates an empty cart
func NewCart(id string) *Cart {
	return &Cart{
		id:        id,
		index:     make(map[string]int),
		updatedAt: time.Now(),
	}
}

// ID returns the cart's session identifier
func (c *Cart) ID() string {
	return c.id
}

// UpdatedAt returns the time of the last mutation
func (c *Cart) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// AddToCart increments the line for product by one, or appends a new line
// with quantity one. An existing line keeps the snapshot it was created with.
func (c *Cart) AddToCart(product entities.ProductSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[product.ID]; ok {
		c.lines[i].Quantity++
	} else {
		c.index[product.ID] = len(c.lines)
		c.lines = append(c.lines, CartLine{
			ProductID: product.ID,
			UnitPrice: product.Price,
			Quantity:  1,
			Product:   product.Clone(),
		})
	}
	c.touch()
}

// RemoveFromCart deletes the line for productID. Unknown ids are ignored.
func (c *Cart) RemoveFromCart(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.removeLocked(productID) {
		c.touch()
	}
}

// UpdateQuantity sets the quantity of an existing line. Zero removes the
// line; unknown ids are ignored and never create a line. Negative values are
// expected to be rejected by the caller and are ignored here.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity < 0 {
		return
	}
	if quantity == 0 {
		if c.removeLocked(productID) {
			c.touch()
		}
		return
	}

	i, ok := c.index[productID]
	if !ok {
		return
	}
	c.lines[i].Quantity = quantity
	c.touch()
}

// ClearCart removes every line
func (c *Cart) ClearCart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.index = make(map[string]int)
	c.touch()
}

// TotalPrice returns the sum of unit price times quantity, rounded half-up
// to cents. An empty cart totals 0.00.
func (c *Cart) TotalPrice() valueobjects.Money {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := valueobjects.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total.Rounded()
}

// ItemCount returns the sum of all line quantities
func (c *Cart) ItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Lines returns a copy of the lines in insertion order
func (c *Cart) Lines() []CartLine {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]CartLine, len(c.lines))
	for i, line := range c.lines {
		line.Product = line.Product.Clone()
		out[i] = line
	}
	return out
}

// Line returns the line for productID, if any
func (c *Cart) Line(productID string) (CartLine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[productID]
	if !ok {
		return CartLine{}, false
	}
	return c.lines[i], true
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines) == 0
}

func (c *Cart) removeLocked(productID string) bool {
	i, ok := c.index[productID]
	if !ok {
		return false
	}

	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
	return true
}

func (c *Cart) touch() {
	c.updatedAt = time.Now()
}
