package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-giftdrive-backend/internal/catalog"
	"github.com/tbourn/go-giftdrive-backend/internal/http/middleware"
)

// streamHeartbeat is the interval between SSE keep-alive comments. It keeps
// intermediaries from timing out idle connections while no gifts are sold.
const streamHeartbeat = 25 * time.Second

// streamWriteWindow is how far the connection's write deadline is pushed
// ahead of each stream write. It must exceed streamHeartbeat so the next
// keep-alive always lands before the deadline; a client that stops reading
// is torn down within this window.
const streamWriteWindow = 2 * streamHeartbeat

// GiftHandler serves the public gift catalog: list, detail and the realtime
// update stream.
type GiftHandler struct {
	Store catalog.Store
}

// NewGiftHandler constructs a GiftHandler backed by store.
func NewGiftHandler(store catalog.Store) *GiftHandler {
	return &GiftHandler{Store: store}
}

// List returns the full gift catalog ordered by id.
func (h *GiftHandler) List(c *gin.Context) {
	gifts, err := h.Store.List(c.Request.Context())
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("list gifts failed")
		fail(c, http.StatusInternalServerError, CodeInternalError, "Could not load gifts")
		return
	}
	ok(c, http.StatusOK, gifts)
}

// Get returns a single gift by id.
func (h *GiftHandler) Get(c *gin.Context) {
	id := c.Param("id")
	gift, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("gift_id", id).Msg("get gift failed")
		fail(c, http.StatusInternalServerError, CodeInternalError, "Could not load gift")
		return
	}
	if gift == nil {
		fail(c, http.StatusNotFound, CodeNotFound, "Gift not found")
		return
	}
	ok(c, http.StatusOK, gift)
}

// Stream pushes purchase updates to the client as server-sent events. Each
// fulfilled purchase arrives as one `update` event carrying the gift id and
// its new state; periodic comment lines keep the connection alive.
//
// When the catalog has no live data source (static mode) the endpoint
// responds 204 so clients know not to retry.
func (h *GiftHandler) Stream(c *gin.Context) {
	updates, cancel := h.Store.Subscribe()
	if updates == nil {
		c.Status(http.StatusNoContent)
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	// The server arms its write deadline once per request, which would sever
	// a long-lived stream at the first WriteTimeout. Push the deadline ahead
	// of every write instead; SetWriteDeadline is a no-op error on writers
	// that do not support it (httptest recorders).
	rc := http.NewResponseController(c.Writer)
	_ = rc.SetWriteDeadline(time.Now().Add(streamWriteWindow))

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case u, open := <-updates:
			if !open {
				return false
			}
			_ = rc.SetWriteDeadline(time.Now().Add(streamWriteWindow))
			c.SSEvent("update", u)
			return true
		case <-heartbeat.C:
			_ = rc.SetWriteDeadline(time.Now().Add(streamWriteWindow))
			// Comment line per the SSE spec; ignored by EventSource clients.
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return false
			}
			return true
		case <-ctx.Done():
			return false
		}
	})
}
