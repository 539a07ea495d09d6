package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	kafkax "github.com/vklymiuk/tg-star-shop/internal/kafka"
	"github.com/vklymiuk/tg-star-shop/internal/orders"
	"github.com/vklymiuk/tg-star-shop/internal/pricing"
)

// memStore implements orders.Store with the same contract as the pgx
// repo: a placement either applies all its decrements or none of them,
// and placements are serialized like row locks would serialize them.
type memProduct struct {
	Name     string
	PriceUAH float64
	Quantity int
	Active   bool
}

type memStore struct {
	mu       sync.Mutex
	products map[int]*memProduct
	orders   map[int]*orders.Order
	nextID   int
}

func newMemStore(products map[int]*memProduct) *memStore {
	return &memStore{products: products, orders: map[int]*orders.Order{}}
}

func (s *memStore) PlaceOrder(ctx context.Context, in orders.CheckoutInput, convert orders.ConvertFunc) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// validate every line before touching anything
	staged := map[int]int{}
	for _, line := range in.Items {
		p, ok := s.products[line.ProductID]
		if !ok {
			return orders.Order{}, &orders.NotFoundError{ProductID: line.ProductID}
		}
		if p.Quantity-staged[line.ProductID] < line.Quantity {
			return orders.Order{}, &orders.InsufficientStockError{
				ProductID: line.ProductID,
				Name:      p.Name,
				Requested: line.Quantity,
				Available: p.Quantity - staged[line.ProductID],
			}
		}
		staged[line.ProductID] += line.Quantity
	}
	for id, qty := range staged {
		s.products[id].Quantity -= qty
	}

	s.nextID++
	o := orders.Order{
		ID:             s.nextID,
		TelegramUserID: in.TelegramUserID,
		Platform:       in.Platform,
		PaymentMethod:  in.PaymentMethod,
		Status:         orders.StatusPending,
		CreatedAt:      time.Now(),
	}
	for _, line := range in.Items {
		p := s.products[line.ProductID]
		o.TotalUAH += p.PriceUAH * float64(line.Quantity)
		o.Items = append(o.Items, orders.OrderItem{
			OrderID:     o.ID,
			ProductID:   line.ProductID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			PriceUAH:    p.PriceUAH,
		})
	}
	o.TotalStars, o.TotalTON = convert(o.TotalUAH)
	s.orders[o.ID] = &o
	return o, nil
}

func (s *memStore) Order(ctx context.Context, id int) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return *o, nil
}

func (s *memStore) Orders(ctx context.Context) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *memStore) OrdersByUser(ctx context.Context, userID int64) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.Order
	for _, o := range s.orders {
		if o.TelegramUserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memStore) UpdateOrder(ctx context.Context, id int, status orders.Status, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	o.Status = status
	if txHash != "" {
		o.TransactionHash = txHash
	}
	return nil
}

func (s *memStore) MarkPaid(ctx context.Context, id int, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	o.Status = orders.StatusPaid
	o.PaymentID = paymentID
	return nil
}

func passThrough(next http.Handler) http.Handler { return next }

func newTestServer(t *testing.T, store *memStore) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	h := &OrdersHandler{
		Store:    store,
		Policy:   pricing.CeilPolicy{MobileRate: 1.0, DesktopRate: 1.2},
		Producer: kafkax.NewProducer([]string{"localhost:9092"}, "test.order.created", 256),
		Service:  "test-api",
	}
	h.Register(r, passThrough)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func checkout(t *testing.T, srv *httptest.Server, body any) (*http.Response, CheckoutResp) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(srv.URL+"/api/orders", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out CheckoutResp
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func cart(lines ...orders.CartLine) orders.CheckoutInput {
	return orders.CheckoutInput{
		TelegramUserID: 42,
		Items:          lines,
		Platform:       "android",
		PaymentMethod:  orders.PayStars,
	}
}

func TestCheckoutSuccess(t *testing.T) {
	store := newMemStore(map[int]*memProduct{
		1: {Name: "Кружка", PriceUAH: 100, Quantity: 3, Active: true},
		2: {Name: "Футболка", PriceUAH: 250, Quantity: 5, Active: true},
	})
	srv := newTestServer(t, store)

	resp, out := checkout(t, srv, cart(
		orders.CartLine{ProductID: 1, Quantity: 2},
		orders.CartLine{ProductID: 2, Quantity: 1},
	))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !out.Success || out.OrderID == 0 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if out.TotalUAH != 450 {
		t.Errorf("total_uah = %v, want 450", out.TotalUAH)
	}
	if out.TotalStars != 450 { // mobile rate 1.0
		t.Errorf("total_stars = %d, want 450", out.TotalStars)
	}
	if out.TotalTON != 0.45 {
		t.Errorf("total_ton = %v, want 0.45", out.TotalTON)
	}

	if got := store.products[1].Quantity; got != 1 {
		t.Errorf("product 1 stock = %d, want 1", got)
	}
	if got := store.products[2].Quantity; got != 4 {
		t.Errorf("product 2 stock = %d, want 4", got)
	}

	// stored items must sum to the stored total
	o, err := store.Order(context.Background(), out.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, it := range o.Items {
		sum += it.PriceUAH * float64(it.Quantity)
	}
	if sum != o.TotalUAH {
		t.Errorf("items sum %v != order total %v", sum, o.TotalUAH)
	}
}

func TestCheckoutInsufficientStockTouchesNothing(t *testing.T) {
	store := newMemStore(map[int]*memProduct{
		1: {Name: "Кружка", PriceUAH: 100, Quantity: 10, Active: true},
		2: {Name: "Футболка", PriceUAH: 250, Quantity: 1, Active: true},
	})
	srv := newTestServer(t, store)

	resp, _ := checkout(t, srv, cart(
		orders.CartLine{ProductID: 1, Quantity: 2}, // would succeed alone
		orders.CartLine{ProductID: 2, Quantity: 5}, // overshoots
	))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if store.products[1].Quantity != 10 || store.products[2].Quantity != 1 {
		t.Errorf("stock mutated on failed placement: %d/%d",
			store.products[1].Quantity, store.products[2].Quantity)
	}
	if len(store.orders) != 0 {
		t.Errorf("order persisted despite failure")
	}
}

func TestCheckoutUnknownProduct(t *testing.T) {
	store := newMemStore(map[int]*memProduct{})
	srv := newTestServer(t, store)

	resp, _ := checkout(t, srv, cart(orders.CartLine{ProductID: 99, Quantity: 1}))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCheckoutValidation(t *testing.T) {
	srv := newTestServer(t, newMemStore(nil))

	in := cart() // empty cart
	resp, _ := checkout(t, srv, in)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCheckoutOversellSequence(t *testing.T) {
	// product A: stock 3, price 100. First cart of 2 wins, second fails.
	store := newMemStore(map[int]*memProduct{
		1: {Name: "A", PriceUAH: 100, Quantity: 3, Active: true},
	})
	srv := newTestServer(t, store)

	resp, out := checkout(t, srv, cart(orders.CartLine{ProductID: 1, Quantity: 2}))
	if resp.StatusCode != http.StatusCreated || out.TotalUAH != 200 {
		t.Fatalf("first cart: status %d total %v", resp.StatusCode, out.TotalUAH)
	}
	if store.products[1].Quantity != 1 {
		t.Fatalf("stock after first cart = %d, want 1", store.products[1].Quantity)
	}

	resp, _ = checkout(t, srv, cart(orders.CartLine{ProductID: 1, Quantity: 2}))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second cart: status %d, want 409", resp.StatusCode)
	}
	if store.products[1].Quantity != 1 {
		t.Fatalf("stock after failed cart = %d, want 1", store.products[1].Quantity)
	}
}

func TestCheckoutConcurrentNeverOversells(t *testing.T) {
	const initial = 5
	store := newMemStore(map[int]*memProduct{
		1: {Name: "A", PriceUAH: 100, Quantity: initial, Active: true},
	})
	srv := newTestServer(t, store)

	body, err := json.Marshal(cart(orders.CartLine{ProductID: 1, Quantity: 1}))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	codes := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/api/orders", "application/json", bytes.NewReader(body))
			if err != nil {
				codes <- 0
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	var won int
	for code := range codes {
		if code == http.StatusCreated {
			won++
		}
	}
	if won != initial {
		t.Errorf("%d placements won, want %d", won, initial)
	}
	if store.products[1].Quantity != 0 {
		t.Errorf("final stock = %d, want 0", store.products[1].Quantity)
	}
}

func TestOrderItemsSurviveProductChanges(t *testing.T) {
	store := newMemStore(map[int]*memProduct{
		1: {Name: "Кружка", PriceUAH: 100, Quantity: 3, Active: true},
	})
	srv := newTestServer(t, store)

	_, out := checkout(t, srv, cart(orders.CartLine{ProductID: 1, Quantity: 1}))

	// soft delete + reprice the product afterwards
	store.mu.Lock()
	store.products[1].Active = false
	store.products[1].Name = "-"
	store.products[1].PriceUAH = 999
	store.mu.Unlock()

	o, err := store.Order(context.Background(), out.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if o.Items[0].ProductName != "Кружка" || o.Items[0].PriceUAH != 100 {
		t.Errorf("snapshot rewritten: %+v", o.Items[0])
	}
}

func TestUpdateOrderPermissiveStatus(t *testing.T) {
	store := newMemStore(map[int]*memProduct{
		1: {Name: "A", PriceUAH: 100, Quantity: 3, Active: true},
	})
	srv := newTestServer(t, store)

	_, out := checkout(t, srv, cart(orders.CartLine{ProductID: 1, Quantity: 1}))

	for _, status := range []string{"shipped", "totally-custom-status"} {
		body, _ := json.Marshal(map[string]string{"status": status, "transaction_hash": "abc123"})
		req, _ := http.NewRequest(http.MethodPatch,
			fmt.Sprintf("%s/api/orders/%d", srv.URL, out.OrderID), bytes.NewReader(body))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("patch status %q: %d", status, resp.StatusCode)
		}
		o, _ := store.Order(context.Background(), out.OrderID)
		if string(o.Status) != status {
			t.Errorf("status = %s, want %s", o.Status, status)
		}
		if o.TransactionHash != "abc123" {
			t.Errorf("transaction hash not persisted")
		}
	}
}
