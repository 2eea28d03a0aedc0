package aggregates_test

import (
	"sync"
	"testing"

	"eternals-backend/domain/core/aggregates"
	"eternals-backend/domain/core/entities"
	"eternals-backend/domain/core/valueobjects"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var moneyComparer = cmp.Comparer(func(a, b valueobjects.Money) bool { return a.Equals(b) })

func product(id, price string) entities.ProductSnapshot {
	return entities.ProductSnapshot{
		ID:    id,
		Title: "Product " + id,
		Tags:  []string{"design"},
		Price: valueobjects.MustParsePrice(price),
	}
}

func TestCart_ConcreteScenario(t *testing.T) {
	cart := aggregates.NewCart("session-1")

	cart.AddToCart(product("A", "4.99"))
	cart.AddToCart(product("B", "19.99"))
	cart.AddToCart(product("B", "19.99"))

	lines := cart.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].ProductID)
	assert.Equal(t, "B", lines[1].ProductID)
	assert.Equal(t, 3, cart.ItemCount())
	assert.Equal(t, "44.97", cart.TotalPrice().String())
}

func TestCart_RepeatedAddMergesQuantity(t *testing.T) {
	cart := aggregates.NewCart("session-1")

	for i := 1; i <= 7; i++ {
		cart.AddToCart(product("A", "1.00"))

		lines := cart.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, i, lines[0].Quantity)
	}
}

func TestCart_AddKeepsOriginalSnapshot(t *testing.T) {
	cart := aggregates.NewCart("session-1")

	first := product("A", "4.99")
	cart.AddToCart(first)

	changed := product("A", "9.99")
	changed.Title = "Renamed"
	cart.AddToCart(changed)

	line, ok := cart.Line("A")
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "4.99", line.UnitPrice.String())
	assert.Equal(t, "Product A", line.Product.Title)
}

func TestCart_InsertionOrder(t *testing.T) {
	cart := aggregates.NewCart("session-1")
	cart.AddToCart(product("A", "1"))
	cart.AddToCart(product("B", "1"))
	cart.AddToCart(product("C", "1"))
	cart.AddToCart(product("A", "1"))

	assert.Equal(t, []string{"A", "B", "C"}, ids(cart))

	cart.RemoveFromCart("A")
	cart.AddToCart(product("A", "1"))
	assert.Equal(t, []string{"B", "C", "A"}, ids(cart))
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int
		wantIDs   []string
		wantCount int
	}{
		{name: "sets quantity", productID: "A", quantity: 5, wantIDs: []string{"A", "B"}, wantCount: 7},
		{name: "zero removes", productID: "A", quantity: 0, wantIDs: []string{"B"}, wantCount: 2},
		{name: "unknown id is a no-op", productID: "Z", quantity: 3, wantIDs: []string{"A", "B"}, wantCount: 3},
		{name: "negative is ignored", productID: "A", quantity: -2, wantIDs: []string{"A", "B"}, wantCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := aggregates.NewCart("session-1")
			cart.AddToCart(product("A", "1"))
			cart.AddToCart(product("B", "1"))
			cart.AddToCart(product("B", "1"))

			cart.UpdateQuantity(tt.productID, tt.quantity)

			assert.Equal(t, tt.wantIDs, ids(cart))
			assert.Equal(t, tt.wantCount, cart.ItemCount())
		})
	}
}

func TestCart_UpdateToZeroEqualsRemove(t *testing.T) {
	build := func() *aggregates.Cart {
		cart := aggregates.NewCart("session-1")
		cart.AddToCart(product("A", "4.99"))
		cart.AddToCart(product("B", "19.99"))
		cart.AddToCart(product("C", "0.50"))
		cart.AddToCart(product("B", "19.99"))
		return cart
	}

	updated := build()
	updated.UpdateQuantity("B", 0)

	removed := build()
	removed.RemoveFromCart("B")

	if diff := cmp.Diff(removed.Lines(), updated.Lines(), moneyComparer); diff != "" {
		t.Errorf("lines differ (-remove +update):\n%s", diff)
	}
	assert.Equal(t, removed.TotalPrice().String(), updated.TotalPrice().String())
}

func TestCart_RemoveIsIdempotent(t *testing.T) {
	once := aggregates.NewCart("session-1")
	once.AddToCart(product("A", "1"))
	once.AddToCart(product("B", "2"))
	once.RemoveFromCart("A")

	twice := aggregates.NewCart("session-1")
	twice.AddToCart(product("A", "1"))
	twice.AddToCart(product("B", "2"))
	twice.RemoveFromCart("A")
	twice.RemoveFromCart("A")

	if diff := cmp.Diff(once.Lines(), twice.Lines(), moneyComparer); diff != "" {
		t.Errorf("lines differ (-once +twice):\n%s", diff)
	}
}

func TestCart_ClearCart(t *testing.T) {
	cart := aggregates.NewCart("session-1")
	cart.AddToCart(product("A", "4.99"))
	cart.AddToCart(product("B", "19.99"))

	cart.ClearCart()

	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.ItemCount())
	assert.Equal(t, "0.00", cart.TotalPrice().String())

	cart.AddToCart(product("A", "4.99"))
	assert.Equal(t, []string{"A"}, ids(cart))
}

func TestCart_EmptyTotals(t *testing.T) {
	cart := aggregates.NewCart("session-1")
	assert.Equal(t, 0, cart.ItemCount())
	assert.Equal(t, "0.00", cart.TotalPrice().String())
}

func TestCart_TotalsMatchLines(t *testing.T) {
	cart := aggregates.NewCart("session-1")
	cart.AddToCart(product("A", "0.333"))
	cart.AddToCart(product("B", "12.10"))
	cart.UpdateQuantity("A", 3)
	cart.UpdateQuantity("B", 4)

	count := 0
	sum := valueobjects.Zero
	for _, line := range cart.Lines() {
		count += line.Quantity
		sum = sum.Add(line.Subtotal())
	}

	assert.Equal(t, count, cart.ItemCount())
	assert.Equal(t, sum.Rounded().String(), cart.TotalPrice().String())
	assert.Equal(t, "49.40", cart.TotalPrice().String())
}

func TestCart_LinesAreCopies(t *testing.T) {
	cart := aggregates.NewCart("session-1")
	cart.AddToCart(product("A", "1"))

	lines := cart.Lines()
	lines[0].Quantity = 99
	lines[0].Product.Tags[0] = "mutated"

	line, _ := cart.Line("A")
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, "design", line.Product.Tags[0])
}

func TestCart_ConcurrentAdds(t *testing.T) {
	cart := aggregates.NewCart("session-1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cart.AddToCart(product("A", "2.00"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, cart.ItemCount())
	assert.Equal(t, "100.00", cart.TotalPrice().String())
}

func ids(cart *aggregates.Cart) []string {
	var out []string
	for _, line := range cart.Lines() {
		out = append(out, line.ProductID)
	}
	return out
}
