package job

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/slidev/export-pipeline/internal/slide"
)

// upgrader accepts every Origin, grounded on the teacher's
// HandleInteractive WebSocket upgrader.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The live-preview stream is gated by a one-time ticket, not by
		// Origin; the ticket exchange is the authentication boundary.
		return true
	},
}

// GenerateStreamTicket issues a one-time ticket for the live-preview
// WebSocket, scoped to a single job id.
func (h *Handler) GenerateStreamTicket(c echo.Context) error {
	jobID := c.Param("id")
	if _, ok := h.registry.Get(jobID); !ok {
		return c.JSON(http.StatusNotFound, errBody("Export job not found"))
	}
	t, err := h.tickets.Generate(jobID, 30*time.Second)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errBody("failed to issue ticket"))
	}
	return c.JSON(http.StatusOK, map[string]string{"ticket": t.TicketID})
}

// StreamVideoJob implements the supplemented `GET /export/video/:id/stream`:
// after a ticket exchange, pushes the frame most recently cached by
// SetLatestFrame as a binary WebSocket message every 200ms while the job
// runs. Nothing in this module calls SetLatestFrame, and RegisterRoutes does
// not route GenerateStreamTicket, so frames and tickets come only from code
// outside the package. The polling surface remains `GET /export/video/:id`.
func (h *Handler) StreamVideoJob(c echo.Context) error {
	jobID := c.Param("id")
	ticketID := c.QueryParam("ticket")

	ticket, err := h.tickets.Exchange(ticketID)
	if err != nil || ticket.JobID != jobID {
		return c.JSON(http.StatusUnauthorized, errBody("invalid or expired ticket"))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-ticker.C:
			j, ok := h.registry.Get(jobID)
			if !ok {
				return nil
			}
			frame := h.latestFrame(jobID)
			if frame != nil {
				if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
					return nil
				}
			}
			if j.Status != slide.JobRunning {
				return nil
			}
		}
	}
}

// SetLatestFrame caches the most recent captured frame for jobID, read by
// StreamVideoJob. Grounded on the teacher's Worker.latestFrames map.
func (h *Handler) SetLatestFrame(jobID string, frame []byte) {
	h.framesMu.Lock()
	defer h.framesMu.Unlock()
	h.frames[jobID] = frame
}

func (h *Handler) latestFrame(jobID string) []byte {
	h.framesMu.RLock()
	defer h.framesMu.RUnlock()
	return h.frames[jobID]
}
