package stream

import (
	"context"
	"net/http"
	"sync/atomic"

	"geoconsole/config"
	"geoconsole/metrics"
	"geoconsole/models"
	"geoconsole/origin"

	"github.com/gorilla/websocket"
	"github.com/lancer-kit/uwe/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type EventKind int

const (
	EKNewConn EventKind = iota
	EKUnregister
	EKHandshake
	EKPublish
	EKCloseSession
)

type Event struct {
	Kind    EventKind
	ConnID  int64
	SID     string
	Conn    *Conn
	Message *models.Message
}

// SnapshotFunc returns the current state of a console session.
type SnapshotFunc func(sid string) (interface{}, bool)

// Hub fans store changes out to the websocket connections of each console session.
type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger

	events   chan *Event
	conns    *connDB
	snapshot SnapshotFunc
	origins  []string
	lastID   int64
}

func NewHub(logger zerolog.Logger, cfg config.StreamCfg, snapshot SnapshotFunc) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		ctx:      ctx,
		cancel:   cancel,
		log:      logger.With().Str("sub_service", "stream-hub").Logger(),
		events:   make(chan *Event, cfg.BufferSize()),
		conns:    newConnStorage(),
		snapshot: snapshot,
		origins:  cfg.AllowedOrigins,
	}
}

func (h *Hub) Init() error { return nil }

func (h *Hub) Run(wCtx uwe.Context) error {
	return h.loop(wCtx)
}

func (h *Hub) loop(ctx context.Context) error {
	for {
		select {
		case event := <-h.events:
			h.handle(event)

		case <-ctx.Done():
			h.cancel()
			h.conns.RemoveAll(func(conn *Conn) {
				if err := conn.Close(); err != nil {
					h.log.Debug().Err(err).Int64("conn_id", conn.id).Msg("failed to close connection")
				}
			})
			metrics.Set(config.StreamConnections, 0)
			h.log.Info().Msg("stream hub stopped")
			return nil
		}
	}
}

func (h *Hub) handle(event *Event) {
	switch event.Kind {
	case EKNewConn:
		h.conns.Add(event.Conn)
		event.Conn.start()
		metrics.Inc(config.StreamConnections)
		h.sendSnapshot(event.Conn)

	case EKHandshake:
		conn := h.conns.Get(event.ConnID)
		if conn == nil {
			return
		}
		conn.enqueue(&models.Message{Channel: ChannelStatus, Event: EvHandshake})
		h.sendSnapshot(conn)

	case EKPublish:
		h.conns.ForSession(event.SID, func(conn *Conn) {
			conn.enqueue(event.Message)
		})

	case EKUnregister:
		conn := h.conns.Remove(event.ConnID)
		if conn == nil {
			return
		}
		h.closeConn(conn)

	case EKCloseSession:
		for _, conn := range h.conns.RemoveSession(event.SID) {
			h.closeConn(conn)
		}
	}
}

func (h *Hub) closeConn(conn *Conn) {
	// Close waits for the pumps, which may be blocked on the event bus.
	go func() {
		if err := conn.Close(); err != nil {
			h.log.Debug().Err(err).Int64("conn_id", conn.id).Msg("failed to close connection")
		}
	}()
	metrics.Dec(config.StreamConnections)
}

func (h *Hub) sendSnapshot(conn *Conn) {
	if h.snapshot == nil {
		return
	}
	state, ok := h.snapshot(conn.sid)
	if !ok {
		return
	}
	conn.enqueue(&models.Message{Channel: ChannelState, Event: EvSnapshot, Data: state})
}

// Publish queues message for every connection of sid without blocking.
func (h *Hub) Publish(sid string, message *models.Message) bool {
	select {
	case h.events <- &Event{Kind: EKPublish, SID: sid, Message: message}:
		return true
	default:
		metrics.Inc(config.DroppedStreamFrames)
		return false
	}
}

// CloseSession disconnects every connection of sid.
func (h *Hub) CloseSession(sid string) {
	select {
	case h.events <- &Event{Kind: EKCloseSession, SID: sid}:
	case <-h.ctx.Done():
	default:
		h.log.Warn().Str("session", sid).Msg("event bus is full, session connections left open")
	}
}

func (h *Hub) Connections() int {
	return h.conns.Count()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 {
		return true
	}
	return origin.Allowed(h.origins, r.Header.Get("Origin"))
}

// Serve upgrades the request and attaches the connection to console session sid.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sid string) error {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     h.checkOrigin,
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "unable to upgrade http protocol")
	}

	id := atomic.AddInt64(&h.lastID, 1)
	conn := newConn(h.ctx, h.log.With().Str("session", sid).Logger(), h.events, ws, id, sid)

	select {
	case h.events <- &Event{Kind: EKNewConn, Conn: conn}:
		h.log.Debug().Int64("conn_id", id).Msg("open new client connection")
		return nil
	case <-h.ctx.Done():
		_ = ws.Close()
		return errors.New("stream hub is stopped")
	}
}
