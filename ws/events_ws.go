package ws

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/utils"
)

// EventHub fans lifecycle events out to connected agent dashboards. Each
// client is keyed by the commune it watches; coordinators and admins
// subscribe to every commune with an empty key.
type EventHub struct {
	clients    map[*websocket.Conn]subscription
	broadcast  chan ReportEvent
	register   chan registration
	unregister chan *websocket.Conn
	mu         sync.Mutex
	log        *zap.Logger
}

type subscription struct {
	UserID  uint
	Commune string // "" watches all communes
}

type registration struct {
	Conn *websocket.Conn
	Sub  subscription
}

// ReportEvent is the wire format pushed to dashboards.
type ReportEvent struct {
	Event    string              `json:"event"`
	ReportID uint                `json:"reportId"`
	Status   entity.ReportStatus `json:"status"`
	Commune  string              `json:"commune"`
	At       time.Time           `json:"at"`
}

func NewEventHub(logger *zap.Logger) *EventHub {
	return &EventHub{
		clients:    make(map[*websocket.Conn]subscription),
		broadcast:  make(chan ReportEvent, 64),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		log:        logger,
	}
}

func (h *EventHub) Run() {
	for {
		select {
		case reg := <-h.register:
			h.mu.Lock()
			h.clients[reg.Conn] = reg.Sub
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.Lock()
			for conn, sub := range h.clients {
				if sub.Commune != "" && !strings.EqualFold(sub.Commune, ev.Commune) {
					continue
				}
				if err := conn.WriteJSON(ev); err != nil {
					h.log.Warn("ws write failed", zap.Error(err))
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// NotifyReport implements services.ReportNotifier. Drops the event when the
// broadcast buffer is full rather than blocking a request.
func (h *EventHub) NotifyReport(event string, report *entity.Report) {
	ev := ReportEvent{
		Event:    event,
		ReportID: report.ID,
		Status:   report.Status,
		Commune:  report.User.Commune,
		At:       time.Now().UTC(),
	}
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("ws broadcast buffer full, event dropped",
			zap.String("event", event), zap.Uint("reportId", report.ID))
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WS route: /ws/events. Agents only; the auth middleware has already put
// the identity on the context.
func (h *EventHub) HandleWebSocket(c *gin.Context) {
	userID := utils.CurrentUserID(c)
	role := entity.ParseRole(utils.CurrentRole(c))
	if userID == 0 || !role.IsAgent() {
		c.JSON(http.StatusForbidden, gin.H{"error": "agents only"})
		return
	}

	commune := ""
	if !role.BypassesGeography() {
		commune = utils.CurrentCommune(c)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	h.register <- registration{Conn: conn, Sub: subscription{UserID: userID, Commune: commune}}

	// Reads are only used to detect the client going away.
	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
