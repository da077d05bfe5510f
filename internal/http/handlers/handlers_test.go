package handlers

import (
	"bufio"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/tbourn/go-giftdrive-backend/internal/catalog"
	"github.com/tbourn/go-giftdrive-backend/internal/domain"
	"github.com/tbourn/go-giftdrive-backend/internal/realtime"
	"github.com/tbourn/go-giftdrive-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

const testSecret = "whsec_handler_test"

// ----- Fakes -----

type fakeSessions struct {
	url string
	err error
}

func (f *fakeSessions) New(_ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{URL: f.url}, nil
}

type failingStore struct{}

func (failingStore) List(context.Context) ([]domain.GiftRecipient, error) {
	return nil, errors.New("boom")
}
func (failingStore) Get(context.Context, string) (*domain.GiftRecipient, error) {
	return nil, errors.New("boom")
}
func (failingStore) MarkPurchased(context.Context, string, domain.PurchaseDetails) (bool, error) {
	return false, errors.New("boom")
}
func (failingStore) Subscribe() (<-chan domain.GiftUpdate, func()) { return nil, func() {} }

// ----- Helpers -----

func signPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func completedEvent(eventID, sessionID, giftID string, amountTotal int64) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"api_version": "2025-06-30",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": %q,
				"object": "checkout.session",
				"amount_total": %d,
				"metadata": {"gift_id": %q, "donor_email": "", "fee_covered": "false", "base_price": "29"}
			}
		}
	}`, eventID, sessionID, amountTotal, giftID))
}

func perform(r *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error envelope: %v (body %q)", err, w.Body.String())
	}
	return resp
}

// ----- Gift handler -----

func TestGiftList(t *testing.T) {
	h := NewGiftHandler(catalog.NewStaticStore())
	r := gin.New()
	r.GET("/gifts", h.List)

	w := perform(r, http.MethodGet, "/gifts", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var gifts []domain.GiftRecipient
	if err := json.Unmarshal(w.Body.Bytes(), &gifts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(gifts) != 4 {
		t.Fatalf("len = %d, want 4", len(gifts))
	}
	if gifts[0].ID != "1" {
		t.Fatalf("first gift id = %q, want ordered by id", gifts[0].ID)
	}
}

func TestGiftGet(t *testing.T) {
	h := NewGiftHandler(catalog.NewStaticStore())
	r := gin.New()
	r.GET("/gifts/:id", h.Get)

	w := perform(r, http.MethodGet, "/gifts/2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var g domain.GiftRecipient
	if err := json.Unmarshal(w.Body.Bytes(), &g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g.ID != "2" || g.Purchased {
		t.Fatalf("unexpected gift %+v", g)
	}
}

func TestGiftGet_NotFound(t *testing.T) {
	h := NewGiftHandler(catalog.NewStaticStore())
	r := gin.New()
	r.GET("/gifts/:id", h.Get)

	w := perform(r, http.MethodGet, "/gifts/999", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodeNotFound {
		t.Fatalf("code = %q, want %q", resp.Code, CodeNotFound)
	}
}

func TestGiftList_StoreError(t *testing.T) {
	h := NewGiftHandler(failingStore{})
	r := gin.New()
	r.GET("/gifts", h.List)

	w := perform(r, http.MethodGet, "/gifts", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodeInternalError {
		t.Fatalf("code = %q, want %q", resp.Code, CodeInternalError)
	}
}

func TestGiftStream_StaticStoreHasNoStream(t *testing.T) {
	h := NewGiftHandler(catalog.NewStaticStore())
	r := gin.New()
	r.GET("/gifts/stream", h.Stream)

	w := perform(r, http.MethodGet, "/gifts/stream", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 for a store without live updates", w.Code)
	}
}

// streamingStore is the static catalog plus a live update feed, enough to
// exercise the stream handler without a database.
type streamingStore struct {
	*catalog.StaticStore
	hub *realtime.Hub
}

func (s *streamingStore) Subscribe() (<-chan domain.GiftUpdate, func()) { return s.hub.Subscribe() }

// A subscription must stay open across the server's write timeout; the
// handler extends the write deadline ahead of each event, so a stream served
// under a 200ms WriteTimeout still delivers updates half a second in.
func TestGiftStream_OutlivesServerWriteTimeout(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()
	store := &streamingStore{StaticStore: catalog.NewStaticStore(), hub: hub}

	r := gin.New()
	r.GET("/gifts/stream", NewGiftHandler(store).Stream)

	srv := httptest.NewUnstartedServer(r)
	srv.Config.WriteTimeout = 200 * time.Millisecond
	srv.Start()
	defer srv.Close()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		tick := time.NewTicker(100 * time.Millisecond)
		defer tick.Stop()
		for i := 0; i < 15; i++ {
			select {
			case <-tick.C:
				hub.Publish(domain.GiftUpdate{ID: "1", Purchased: true})
			case <-stop:
				return
			}
		}
	}()
	defer func() { close(stop); <-done }()

	resp, err := http.Get(srv.URL + "/gifts/stream")
	if err != nil {
		t.Fatalf("get stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	start := time.Now()
	reader := bufio.NewReader(resp.Body)
	events := 0
	for events < 5 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("stream severed after %v and %d events: %v", time.Since(start), events, err)
		}
		if strings.HasPrefix(line, "event:") {
			events++
		}
	}
	if elapsed := time.Since(start); elapsed <= srv.Config.WriteTimeout {
		t.Fatalf("stream finished in %v, never crossed the %v write timeout", elapsed, srv.Config.WriteTimeout)
	}
}

// ----- Checkout handler -----

func newCheckoutRouter(store catalog.Store, sessions services.SessionCreator) *gin.Engine {
	svc := &services.CheckoutService{Store: store, Sessions: sessions, BaseURL: "http://localhost:3000"}
	r := gin.New()
	r.POST("/checkout", NewCheckoutHandler(svc).Create)
	return r
}

func TestCheckout_Success(t *testing.T) {
	r := newCheckoutRouter(catalog.NewStaticStore(), &fakeSessions{url: "https://checkout.example/cs_test_1"})

	body := []byte(`{"giftId": "1", "coverFee": true, "donorEmail": "donor@example.com"}`)
	w := perform(r, http.MethodPost, "/checkout", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp CheckoutResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.URL != "https://checkout.example/cs_test_1" {
		t.Fatalf("url = %q", resp.URL)
	}
}

func TestCheckout_BindErrors(t *testing.T) {
	r := newCheckoutRouter(catalog.NewStaticStore(), &fakeSessions{url: "https://checkout.example/cs"})

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"not json", `not-json`},
		{"missing gift id", `{"coverFee": true}`},
		{"bad email", `{"giftId": "1", "donorEmail": "nope"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/checkout", []byte(tc.body), nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if resp := decodeError(t, w); resp.Code != CodeBadRequest {
				t.Fatalf("code = %q, want %q", resp.Code, CodeBadRequest)
			}
		})
	}
}

func TestCheckout_UnknownGift(t *testing.T) {
	r := newCheckoutRouter(catalog.NewStaticStore(), &fakeSessions{url: "https://checkout.example/cs"})

	w := perform(r, http.MethodPost, "/checkout", []byte(`{"giftId": "999"}`), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodeNotFound {
		t.Fatalf("code = %q, want %q", resp.Code, CodeNotFound)
	}
}

func TestCheckout_AlreadyPurchased(t *testing.T) {
	store := catalog.NewStaticStore()
	if _, err := store.MarkPurchased(context.Background(), "1", domain.PurchaseDetails{SessionID: "cs_prev"}); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	r := newCheckoutRouter(store, &fakeSessions{url: "https://checkout.example/cs"})

	w := perform(r, http.MethodPost, "/checkout", []byte(`{"giftId": "1"}`), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodeConflict {
		t.Fatalf("code = %q, want %q", resp.Code, CodeConflict)
	}
}

func TestCheckout_ProviderError(t *testing.T) {
	r := newCheckoutRouter(catalog.NewStaticStore(), &fakeSessions{err: errors.New("stripe down")})

	w := perform(r, http.MethodPost, "/checkout", []byte(`{"giftId": "1"}`), nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodePaymentProviderError {
		t.Fatalf("code = %q, want %q", resp.Code, CodePaymentProviderError)
	}
}

// A catalog outage is our failure, not Stripe's; the machine-readable code
// must not point clients at the provider.
func TestCheckout_StoreOutage(t *testing.T) {
	r := newCheckoutRouter(failingStore{}, &fakeSessions{url: "https://checkout.example/cs"})

	w := perform(r, http.MethodPost, "/checkout", []byte(`{"giftId": "1"}`), nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodeInternalError {
		t.Fatalf("code = %q, want %q", resp.Code, CodeInternalError)
	}
}

// ----- Webhook handler -----

func newWebhookRouter(store catalog.Store) *gin.Engine {
	svc := &services.WebhookService{Store: store, Secret: testSecret}
	r := gin.New()
	r.POST("/webhook/payment", NewWebhookHandler(svc).Receive)
	return r
}

func TestWebhook_MissingSignature(t *testing.T) {
	r := newWebhookRouter(catalog.NewStaticStore())

	w := perform(r, http.MethodPost, "/webhook/payment", completedEvent("evt_1", "cs_1", "1", 2900), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodeInvalidSignature {
		t.Fatalf("code = %q, want %q", resp.Code, CodeInvalidSignature)
	}
}

func TestWebhook_InvalidSignature(t *testing.T) {
	r := newWebhookRouter(catalog.NewStaticStore())

	payload := completedEvent("evt_1", "cs_1", "1", 2900)
	headers := map[string]string{"Stripe-Signature": signPayload(payload, "whsec_wrong", time.Now())}
	w := perform(r, http.MethodPost, "/webhook/payment", payload, headers)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestWebhook_CompletedCheckout(t *testing.T) {
	store := catalog.NewStaticStore()
	r := newWebhookRouter(store)

	payload := completedEvent("evt_1", "cs_1", "1", 2900)
	headers := map[string]string{"Stripe-Signature": signPayload(payload, testSecret, time.Now())}
	w := perform(r, http.MethodPost, "/webhook/payment", payload, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"received":true`) {
		t.Fatalf("body = %s", w.Body.String())
	}

	g, err := store.Get(context.Background(), "1")
	if err != nil || g == nil || !g.Purchased {
		t.Fatalf("gift not fulfilled: g=%+v err=%v", g, err)
	}
}

func TestWebhook_MissingGiftID(t *testing.T) {
	r := newWebhookRouter(catalog.NewStaticStore())

	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "2025-06-30",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "amount_total": 2900, "metadata": {}}}
	}`)
	headers := map[string]string{"Stripe-Signature": signPayload(payload, testSecret, time.Now())}
	w := perform(r, http.MethodPost, "/webhook/payment", payload, headers)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodeBadRequest {
		t.Fatalf("code = %q, want %q", resp.Code, CodeBadRequest)
	}
}

func TestWebhook_UndecodablePayloadIsMalformed(t *testing.T) {
	store := catalog.NewStaticStore()
	r := newWebhookRouter(store)

	// Verifies, but data.object is not a checkout session.
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "2025-06-30",
		"type": "checkout.session.completed",
		"data": {"object": "not-a-session"}
	}`)
	headers := map[string]string{"Stripe-Signature": signPayload(payload, testSecret, time.Now())}
	w := perform(r, http.MethodPost, "/webhook/payment", payload, headers)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodeBadRequest {
		t.Fatalf("code = %q, want %q", resp.Code, CodeBadRequest)
	}

	g, _ := store.Get(context.Background(), "1")
	if g == nil || g.Purchased {
		t.Fatalf("undecodable payload mutated catalog: %+v", g)
	}
}

func TestWebhook_StoreOutageStillAcks(t *testing.T) {
	r := newWebhookRouter(failingStore{})

	payload := completedEvent("evt_1", "cs_1", "1", 2900)
	headers := map[string]string{"Stripe-Signature": signPayload(payload, testSecret, time.Now())}
	w := perform(r, http.MethodPost, "/webhook/payment", payload, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so the provider stops retrying", w.Code)
	}
}
