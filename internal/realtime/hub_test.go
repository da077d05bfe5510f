package realtime

import (
	"testing"
	"time"

	"github.com/tbourn/go-giftdrive-backend/internal/domain"
)

func recv(t *testing.T, ch <-chan domain.GiftUpdate) domain.GiftUpdate {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
	return domain.GiftUpdate{}
}

func TestHub_FanOut(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelA()
	defer cancelB()

	h.Publish(domain.GiftUpdate{ID: "1", Purchased: true})

	if u := recv(t, a); u.ID != "1" || !u.Purchased {
		t.Fatalf("subscriber a got %+v", u)
	}
	if u := recv(t, b); u.ID != "1" {
		t.Fatalf("subscriber b got %+v", u)
	}
}

func TestHub_ExactlyOneNotificationPerPublish(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(domain.GiftUpdate{ID: "2", Purchased: true})
	recv(t, ch)

	select {
	case u := <-ch:
		t.Fatalf("unexpected extra update %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()
	cancel() // idempotent

	if h.Len() != 0 {
		t.Fatalf("subscriber still registered after cancel: %d", h.Len())
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}

	// Publishing after cancel must not panic.
	h.Publish(domain.GiftUpdate{ID: "1"})
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish(domain.GiftUpdate{ID: "1", Purchased: true})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHub_Close(t *testing.T) {
	h := NewHub()
	ch, _ := h.Subscribe()
	h.Close()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after hub close")
	}

	late, cancel := h.Subscribe()
	defer cancel()
	if _, ok := <-late; ok {
		t.Fatal("subscribe after close must return a closed channel")
	}
}
