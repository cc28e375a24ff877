//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestPlaceOrderNoAuth(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "ceramic-mug", Quantity: 1}},
	}
	resp := doPost(t, "/api/orders", req, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrderEmptyItems(t *testing.T) {
	token := registerAndLogin(t, "Empty Items", "empty-items@example.com", "long enough password")

	resp := doPost(t, "/api/orders", orderRequest{Items: []orderItemRequest{}}, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	token := registerAndLogin(t, "Unknown Product", "unknown-product@example.com", "long enough password")

	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "no-such-product", Quantity: 1}},
	}
	resp := doPost(t, "/api/orders", req, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	token := registerAndLogin(t, "Greedy", "greedy@example.com", "long enough password")

	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "ceramic-mug", Quantity: 100000}},
	}
	resp := doPost(t, "/api/orders", req, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestPlaceOrderDecrementsStock(t *testing.T) {
	token := registerAndLogin(t, "Buyer", "buyer@example.com", "long enough password")

	before := getProduct(t, "espresso-beans-1kg")

	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "espresso-beans-1kg", Quantity: 2}},
	}
	resp := doPost(t, "/api/orders", req, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a UUID", order.ID)
	}
	// 2 x 14.90
	if order.Total != 29.8 {
		t.Errorf("total: got %v, want 29.8", order.Total)
	}
	if len(order.Lines) != 1 || order.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected lines: %+v", order.Lines)
	}

	after := getProduct(t, "espresso-beans-1kg")
	if after.Stock != before.Stock-2 {
		t.Errorf("stock: got %d, want %d", after.Stock, before.Stock-2)
	}
}

func TestPlaceOrderConcurrentStock(t *testing.T) {
	const attempts = 8 // limited-print has stock 3

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = make(map[int]int)
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			token := registerAndLogin(t, "Racer", fmt.Sprintf("racer-%d@example.com", i), "long enough password")
			resp := doPost(t, "/api/orders", orderRequest{
				Items: []orderItemRequest{{ProductID: "limited-print", Quantity: 1}},
			}, token)
			resp.Body.Close()

			mu.Lock()
			statuses[resp.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if statuses[http.StatusCreated] != 3 {
		t.Errorf("successful placements: got %d, want 3 (statuses: %v)", statuses[http.StatusCreated], statuses)
	}
	if statuses[http.StatusCreated]+statuses[http.StatusConflict] != attempts {
		t.Errorf("unexpected statuses: %v", statuses)
	}

	if p := getProduct(t, "limited-print"); p.Stock != 0 {
		t.Errorf("final stock: got %d, want 0", p.Stock)
	}
}

func TestOrderPriceSnapshotSurvivesRepricing(t *testing.T) {
	token := registerAndLogin(t, "Snapshot", "snapshot@example.com", "long enough password")

	resp := doPost(t, "/api/orders", orderRequest{
		Items: []orderItemRequest{{ProductID: "hand-grinder", Quantity: 1}},
	}, token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}
	placed := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()
	if placed.Total != 32.0 {
		t.Fatalf("total: got %v, want 32.0", placed.Total)
	}

	// Reprice the product behind the API's back.
	execSQL(t, "UPDATE products SET price = 40.00 WHERE id = 'hand-grinder'")

	if p := getProduct(t, "hand-grinder"); p.Price != 40.0 {
		t.Fatalf("catalog price: got %v, want 40.0", p.Price)
	}

	// The stored order still carries the purchase-time price.
	resp = doGet(t, "/api/orders/"+placed.ID, token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", resp.StatusCode)
	}
	got := decodeJSON[orderResponse](t, resp)
	if len(got.Lines) != 1 {
		t.Fatalf("unexpected lines: %+v", got.Lines)
	}
	if got.Lines[0].UnitPrice != 32.0 {
		t.Errorf("unit price drifted: got %v, want 32.0", got.Lines[0].UnitPrice)
	}
	if got.Total != 32.0 {
		t.Errorf("total drifted: got %v, want 32.0", got.Total)
	}
}

func TestOrderOwnership(t *testing.T) {
	ownerToken := registerAndLogin(t, "Owner", "owner@example.com", "long enough password")
	otherToken := registerAndLogin(t, "Other", "other@example.com", "long enough password")
	adminToken := login(t, adminEmail, adminPassword)

	resp := doPost(t, "/api/orders", orderRequest{
		Items: []orderItemRequest{{ProductID: "filter-blend-500g", Quantity: 1}},
	}, ownerToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}
	placed := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	// The owner sees it.
	resp = doGet(t, "/api/orders/"+placed.ID, ownerToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", resp.StatusCode)
	}

	// Another user does not.
	resp = doGet(t, "/api/orders/"+placed.ID, otherToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("other get: expected 403, got %d", resp.StatusCode)
	}

	// Admins see everything.
	resp = doGet(t, "/api/orders/"+placed.ID, adminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin get: expected 200, got %d", resp.StatusCode)
	}

	// Listing is scoped: the other user's list must not contain the order.
	resp = doGet(t, "/api/orders", otherToken)
	otherOrders := decodeJSON[[]orderResponse](t, resp)
	resp.Body.Close()
	for _, o := range otherOrders {
		if o.ID == placed.ID {
			t.Errorf("order %s leaked into another user's list", placed.ID)
		}
	}

	resp = doGet(t, "/api/orders", ownerToken)
	ownerOrders := decodeJSON[[]orderResponse](t, resp)
	resp.Body.Close()
	found := false
	for _, o := range ownerOrders {
		found = found || o.ID == placed.ID
	}
	if !found {
		t.Errorf("order %s missing from the owner's list", placed.ID)
	}
}

func getProduct(t *testing.T, id string) productResponse {
	t.Helper()

	resp := doGet(t, "/api/products/"+id, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get product %s: expected 200, got %d", id, resp.StatusCode)
	}
	return decodeJSON[productResponse](t, resp)
}
