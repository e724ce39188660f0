package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"geoconsole/config"
	"geoconsole/metrics"
	"geoconsole/models"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	maxChanLen = 128
)

const (
	ChannelStatus = "stream_status"
	ChannelState  = "state"
	ChannelEditor = "editor"
	ChannelGate   = "gate"

	EvHandshake   = "handshake"
	EvSnapshot    = "snapshot"
	EvSubscribe   = "subscribe"
	EvUnsubscribe = "unsubscribe"
	EvMute        = "mute"
	EvUnmute      = "unmute"
	EvPong        = "pong"
)

// Conn is a middleman between one websocket connection and the hub.
type Conn struct {
	id   int64
	sid  string
	conn *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	bus  chan<- *Event
	send chan *models.Message
	log  zerolog.Logger
	subs *Subscriptions
}

func newConn(pCtx context.Context, logger zerolog.Logger, bus chan<- *Event,
	ws *websocket.Conn, id int64, sid string) *Conn {
	ctx, cancel := context.WithCancel(pCtx)

	return &Conn{
		id:     id,
		sid:    sid,
		conn:   ws,
		ctx:    ctx,
		cancel: cancel,
		bus:    bus,
		send:   make(chan *models.Message, maxChanLen),
		log:    logger.With().Int64("conn_id", id).Logger(),
		subs:   NewSubscriptions(),
	}
}

func (c *Conn) start() {
	c.wg.Add(2)
	go c.writeToStream()
	go c.readStream()
}

// Close stops both pumps and closes the socket. Safe to call twice.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		err = c.conn.Close()
		c.wg.Wait()
	})
	return err
}

// enqueue never blocks the hub; a full buffer drops the frame.
func (c *Conn) enqueue(message *models.Message) bool {
	select {
	case c.send <- message:
		return true
	default:
		metrics.Inc(config.DroppedStreamFrames)
		c.log.Debug().Str("event", message.Event).Msg("send buffer full, frame dropped")
		return false
	}
}

func (c *Conn) unregister() {
	select {
	case c.bus <- &Event{Kind: EKUnregister, ConnID: c.id}:
	case <-c.ctx.Done():
	}
}

// readStream pumps control frames from the websocket connection to the hub.
// It is the only reader of the connection.
func (c *Conn) readStream() {
	defer func() {
		c.unregister()
		c.wg.Done()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("socket closed")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := c.processIncomingMessage(raw); err != nil {
			c.log.Debug().Err(err).Msg("failed to process incoming message")
		}
	}
}

// writeToStream pumps frames from the hub to the websocket connection.
// It is the only writer of the connection.
func (c *Conn) writeToStream() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.unregister()
		c.wg.Done()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case message := <-c.send:
			if message == nil {
				continue
			}
			if !c.subs.IsSubscribed(message.Channel, message.Event) {
				continue
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.log.Debug().Err(err).Msg("error when writing to client")
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Debug().Err(err).Msg("failed to ping socket")
				return
			}
		}
	}
}

func (c *Conn) processIncomingMessage(raw []byte) error {
	msg := new(models.Message)
	if err := json.Unmarshal(raw, msg); err != nil {
		return errors.Wrap(err, "unable to unmarshal json")
	}

	if msg.Channel != ChannelStatus {
		return errors.New("invalid channel")
	}

	switch msg.Event {
	case EvHandshake:
		select {
		case c.bus <- &Event{Kind: EKHandshake, ConnID: c.id}:
		case <-c.ctx.Done():
		}
	case EvSubscribe:
		c.subs.AddSubscription(msg.Command["channel"], msg.Command["event"])
	case EvUnsubscribe:
		c.subs.RmSubscription(msg.Command["channel"])
	case EvMute:
		c.subs.MuteEvent(msg.Command["event"])
	case EvUnmute:
		c.subs.UnmuteEvent(msg.Command["event"])
	case EvPong:
	default:
		return errors.New("unknown event " + msg.Event)
	}
	return nil
}
