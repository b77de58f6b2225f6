package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	engine "github.com/bobmcallan/vire-chart/internal/chart"
	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
	chartsvc "github.com/bobmcallan/vire-chart/internal/services/chart"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message types on the chart session socket.
const (
	msgShow    = "show"
	msgChart   = "chart"
	msgWarning = "warning"
	msgError   = "error"
	msgFocus   = "focus"
)

// sessionRequest is a client message: a pointer event ("enter", "move",
// "leave") or a request to show another symbol or year.
type sessionRequest struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Symbol string  `json:"symbol,omitempty"`
	Year   int     `json:"year,omitempty"`
}

// chartMessage announces a mounted chart, a warning shown in its place, or an error.
type chartMessage struct {
	Type    string `json:"type"`
	Symbol  string `json:"symbol,omitempty"`
	Year    int    `json:"year,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Bars    int    `json:"bars,omitempty"`
	SVG     string `json:"svg,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// focusMessage answers a pointer event with the focus state and the
// re-rendered focus group and tooltip.
type focusMessage struct {
	Type string `json:"type"`
	models.FocusState
	Overlay string `json:"overlay"`
}

// chartSession is one websocket client with its own Viewer.
type chartSession struct {
	id       string
	conn     *websocket.Conn
	viewer   *chartsvc.Viewer
	registry *sessionRegistry
	logger   *common.Logger
	send     chan []byte
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

// sessionRegistry tracks open chart sessions so shutdown can close them.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*chartSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*chartSession)}
}

func (r *sessionRegistry) add(s *chartSession) {
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
}

func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *sessionRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *sessionRegistry) closeAll() int {
	r.mu.Lock()
	open := make([]*chartSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		open = append(open, s)
	}
	r.mu.Unlock()

	for _, s := range open {
		s.close()
	}
	return len(open)
}

// handleChartSession handles GET /api/charts/ws?symbol=&year=&mode=.
// Symbol and year default to the configured chart.
func (s *Server) handleChartSession(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	symbol := strings.ToUpper(q.Get("symbol"))
	if symbol == "" {
		symbol = s.app.Config.Chart.Symbol
	}
	year := s.app.Config.Chart.Year
	if raw := q.Get("year"); raw != "" {
		y, err := parseYear(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		year = y
	}
	mode, err := s.sessionMode(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &chartSession{
		id:       uuid.New().String(),
		conn:     conn,
		viewer:   s.app.ChartService.NewViewer(mode),
		registry: s.sessions,
		logger:   s.logger,
		send:     make(chan []byte, sendBuffer),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.sessions.add(session)

	s.logger.Debug().
		Str("session", session.id).
		Str("symbol", symbol).
		Int("year", year).
		Str("mode", mode.String()).
		Msg("Chart session opened")

	go session.writePump()
	go session.show(symbol, year)
	go session.readPump()
}

// show mounts symbol and year on the session's viewer and reports the
// outcome. A show superseded by a later one reports nothing.
func (c *chartSession) show(symbol string, year int) {
	err := c.viewer.Show(c.ctx, symbol, year)
	switch {
	case err == nil:
		c.write(chartMessage{
			Type:   msgChart,
			Symbol: symbol,
			Year:   year,
			Mode:   c.viewer.Mode().String(),
			Bars:   len(c.viewer.Bars()),
			SVG:    c.viewer.SVG(),
		})
	case errors.Is(err, common.ErrRetrievalAborted):
		c.logger.Debug().Str("session", c.id).Str("symbol", symbol).Int("year", year).Msg("Chart show superseded")
	default:
		if msg, ok := common.WarningMessage(err); ok {
			c.write(chartMessage{Type: msgWarning, Symbol: symbol, Year: year, Message: msg})
			return
		}
		code := codeRetrievalFailed
		if errors.Is(err, common.ErrUnsortedBars) {
			code = codeInvalidData
		}
		c.write(chartMessage{Type: msgError, Symbol: symbol, Year: year, Message: err.Error(), Code: code})
	}
}

// handle applies one client message.
func (c *chartSession) handle(req sessionRequest) {
	switch req.Type {
	case msgShow:
		symbol, year := c.viewer.Current()
		if req.Symbol != "" {
			symbol = strings.ToUpper(req.Symbol)
		}
		if req.Year != 0 {
			year = req.Year
		}
		go c.show(symbol, year)
	case string(engine.PointerEnter), string(engine.PointerMove), string(engine.PointerLeave):
		focus, overlay, ok := c.viewer.Pointer(engine.PointerEvent{Type: engine.EventType(req.Type), X: req.X, Y: req.Y})
		if !ok {
			return
		}
		c.write(focusMessage{Type: msgFocus, FocusState: focus, Overlay: overlay})
	default:
		c.write(chartMessage{Type: msgError, Message: "unknown message type " + req.Type, Code: "bad_request"})
	}
}

// write queues a message for the write pump, dropping it if the client is too slow.
func (c *chartSession) write(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn().Err(err).Str("session", c.id).Msg("Failed to marshal chart message")
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn().Str("session", c.id).Msg("Chart session send buffer full, dropping message")
	}
}

// close tears the session down once: it cancels any pending show and
// unmounts the viewer.
func (c *chartSession) close() {
	c.once.Do(func() {
		c.cancel()
		close(c.done)
		c.viewer.Close()
		c.conn.Close()
		c.registry.remove(c.id)
		c.logger.Debug().Str("session", c.id).Msg("Chart session closed")
	})
}

// writePump sends queued messages and keepalive pings.
func (c *chartSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes client messages until the socket closes.
func (c *chartSession) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Str("session", c.id).Msg("Chart session read failed")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var req sessionRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.write(chartMessage{Type: msgError, Message: "invalid JSON: " + err.Error(), Code: "bad_request"})
			continue
		}
		c.handle(req)
	}
}
