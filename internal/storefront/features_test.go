package storefront

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	"github.com/vastra/storefront/internal/apiclient"
)

type cartFeatureContext struct {
	backend  *fakeBackend
	cart     *Cart
	wishlist *Wishlist
	err      error
	calls    int
}

func (c *cartFeatureContext) reset() {
	c.backend = newFakeBackend()
	c.cart = NewCart(c.backend)
	c.wishlist = NewWishlist(c.backend)
	c.err = nil
	c.calls = 0
}

func (c *cartFeatureContext) anEmptyCart() error {
	return c.cart.Fetch(context.Background())
}

func (c *cartFeatureContext) anEmptyWishlist() error {
	return c.wishlist.Fetch(context.Background())
}

func (c *cartFeatureContext) theCatalogHasProductPriced(id string, price int) error {
	c.backend.addProduct(id, "Saree "+id, int64(price))
	return nil
}

func (c *cartFeatureContext) theCartHoldsOfProductPriced(quantity int, id string, price int) error {
	c.backend.addProduct(id, "Saree "+id, int64(price))
	c.backend.seedCart(apiclient.CartLine{ProductID: id, Quantity: quantity, Name: "Saree " + id, Price: decimal.NewFromInt(int64(price))})
	return c.cart.Fetch(context.Background())
}

func (c *cartFeatureContext) theServerRejectsWith(op, detail string) error {
	c.backend.failOn(op, detail)
	return nil
}

func (c *cartFeatureContext) productInfo(id string) ProductInfo {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	return ProductInfoFrom(c.backend.products[id])
}

func (c *cartFeatureContext) iAddProductToTheCart(id string) error {
	c.calls = c.backend.totalCalls()
	c.err = c.cart.Add(context.Background(), c.productInfo(id))
	return nil
}

func (c *cartFeatureContext) iSetTheQuantityOfTo(id string, quantity int) error {
	c.calls = c.backend.totalCalls()
	c.err = c.cart.UpdateQuantity(context.Background(), id, quantity)
	return nil
}

func (c *cartFeatureContext) iRemoveProductFromTheCart(id string) error {
	c.calls = c.backend.totalCalls()
	c.err = c.cart.Remove(context.Background(), id)
	return nil
}

func (c *cartFeatureContext) iSaveProductToTheWishlist(id string) error {
	c.err = c.wishlist.Add(context.Background(), c.productInfo(id))
	return c.err
}

func (c *cartFeatureContext) theCartHasOf(quantity int, id string) error {
	item, ok := c.cart.Snapshot().Find(id)
	if !ok {
		return fmt.Errorf("expected %s in the cart", id)
	}
	if item.Quantity != quantity {
		return fmt.Errorf("expected quantity %d, got %d", quantity, item.Quantity)
	}
	return nil
}

func (c *cartFeatureContext) theCartTotalIs(total int) error {
	got := c.cart.Total()
	if !got.Equal(decimal.NewFromInt(int64(total))) {
		return fmt.Errorf("expected total %d, got %s", total, got)
	}
	return nil
}

func (c *cartFeatureContext) theCartIsEmpty() error {
	if n := c.cart.Len(); n != 0 {
		return fmt.Errorf("expected an empty cart, got %d entries", n)
	}
	return nil
}

func (c *cartFeatureContext) theCartStatusIs(status string) error {
	if got := c.cart.Status(); got != Status(status) {
		return fmt.Errorf("expected status %q, got %q", status, got)
	}
	return nil
}

func (c *cartFeatureContext) theCartErrorIs(message string) error {
	if got := c.cart.Err(); got != message {
		return fmt.Errorf("expected error %q, got %q", message, got)
	}
	return nil
}

func (c *cartFeatureContext) theRequestIsRefusedBecauseTheItemIsNotInTheCart() error {
	if !errors.Is(c.err, ErrItemNotFound) {
		return fmt.Errorf("expected ErrItemNotFound, got %v", c.err)
	}
	return nil
}

func (c *cartFeatureContext) noFurtherRequestReachedTheServer() error {
	if got := c.backend.totalCalls(); got != c.calls {
		return fmt.Errorf("expected %d requests, got %d", c.calls, got)
	}
	return nil
}

func (c *cartFeatureContext) theWishlistHasEntry(n int) error {
	if got := c.wishlist.Len(); got != n {
		return fmt.Errorf("expected %d wishlist entries, got %d", n, got)
	}
	return nil
}

func (c *cartFeatureContext) theServerReceivedRequest(n int, op string) error {
	if got := c.backend.callCount(op); got != n {
		return fmt.Errorf("expected %d %s requests, got %d", n, op, got)
	}
	return nil
}

func initializeCartScenario(ctx *godog.ScenarioContext) {
	tc := &cartFeatureContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^an empty wishlist$`, tc.anEmptyWishlist)
	ctx.Step(`^the catalog has product "([^"]*)" priced (\d+)$`, tc.theCatalogHasProductPriced)
	ctx.Step(`^the cart holds (\d+) of product "([^"]*)" priced (\d+)$`, tc.theCartHoldsOfProductPriced)
	ctx.Step(`^the server rejects "([^"]*)" with "([^"]*)"$`, tc.theServerRejectsWith)

	// When steps
	ctx.Step(`^I add product "([^"]*)" to the cart$`, tc.iAddProductToTheCart)
	ctx.Step(`^I set the quantity of "([^"]*)" to (\d+)$`, tc.iSetTheQuantityOfTo)
	ctx.Step(`^I remove product "([^"]*)" from the cart$`, tc.iRemoveProductFromTheCart)
	ctx.Step(`^I save product "([^"]*)" to the wishlist$`, tc.iSaveProductToTheWishlist)

	// Then steps
	ctx.Step(`^the cart has (\d+) of "([^"]*)"$`, tc.theCartHasOf)
	ctx.Step(`^the cart total is (\d+)$`, tc.theCartTotalIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the cart status is "([^"]*)"$`, tc.theCartStatusIs)
	ctx.Step(`^the cart error is "([^"]*)"$`, tc.theCartErrorIs)
	ctx.Step(`^the request is refused because the item is not in the cart$`, tc.theRequestIsRefusedBecauseTheItemIsNotInTheCart)
	ctx.Step(`^no further request reached the server$`, tc.noFurtherRequestReachedTheServer)
	ctx.Step(`^the wishlist has (\d+) entry$`, tc.theWishlistHasEntry)
	ctx.Step(`^the server received (\d+) "([^"]*)" request$`, tc.theServerReceivedRequest)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeCartScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
