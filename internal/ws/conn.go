package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be < pongWait
	maxMessageSize = 64 * 1024
	sendQueueSize  = 32
)

var (
	errSendQueueFull = errors.New("send queue full")
	errConnClosed    = errors.New("connection closed")
)

// Conn is one participant's websocket. Writes go through a buffered queue
// drained by writePump, so delivering to a slow or dead peer never blocks
// the caller. A Conn is never reused: a reconnecting client gets a new id.
//
// out is never closed: broadcasters may still hold the pointer after a
// concurrent teardown, and a send racing a close must fail as a delivery
// error, not a panic. Close signals via done instead.
type Conn struct {
	id   string
	sock *websocket.Conn

	out  chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newConn(id string, sock *websocket.Conn) *Conn {
	return &Conn{
		id:   id,
		sock: sock,
		out:  make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues one outbound event frame. A closed connection or a full
// queue drops the frame and reports it; callers treat any send failure as
// non-fatal.
func (c *Conn) Send(event string, body any) error {
	frame, err := json.Marshal(outbound{Event: event, Body: body})
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.out <- frame:
		return nil
	case <-c.done:
		return errConnClosed
	default:
		return errSendQueueFull
	}
}

// Close is idempotent and safe to race with Send.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.sock != nil {
			err = c.sock.Close()
		}
	})
	return err
}

// writePump owns all writes to the underlying socket, including pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.out:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				zap.L().Debug("ws.write", zap.String("socket_id", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// peerTable maps connection ids to live connections, process-wide.
// Removal is the single gate into disconnect cleanup: the first caller to
// remove an id wins, so duplicate transport-level disconnect notifications
// coalesce into one cleanup pass.
type peerTable struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func newPeerTable() *peerTable {
	return &peerTable{conns: make(map[string]*Conn)}
}

func (p *peerTable) add(c *Conn) {
	p.mu.Lock()
	p.conns[c.id] = c
	p.mu.Unlock()
}

func (p *peerTable) get(id string) *Conn {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conns[id]
}

// remove reports whether id was still registered.
func (p *peerTable) remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.conns[id]; !ok {
		return false
	}
	delete(p.conns, id)
	return true
}
