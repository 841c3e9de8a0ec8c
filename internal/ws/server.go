package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const dispatchTimeout = 2 * time.Second

// WsServer is the outward-facing relay: it accepts websocket connections,
// dispatches inbound events to the presence coordinator and signal router,
// and drives cleanup on disconnect. Each server owns its own registry, so
// independent instances never share room state.
type WsServer struct {
	reg         *Registry
	peers       *peerTable
	coordinator *PresenceCoordinator
	signals     *SignalRouter
	router      *Router
	upgrader    websocket.Upgrader
}

func NewWsServer(listener PresenceListener) *WsServer {
	reg := NewRegistry()
	peers := newPeerTable()
	srv := &WsServer{
		reg:         reg,
		peers:       peers,
		coordinator: NewPresenceCoordinator(reg, peers, listener),
		signals:     NewSignalRouter(reg, peers),
		router:      NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The browser client connects from a separate origin; identity
			// rides in the presence payload, not the handshake.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	srv.registerHandlers() // ← all WS events configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	sock, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}

	conn := newConn(uuid.NewString(), sock)
	s.peers.add(conn)
	_ = conn.Send(evtConnected, connectedBody{SocketID: conn.ID()})
	zap.L().Info("ws.connected", zap.String("socket_id", conn.ID()))

	go conn.writePump()
	go s.reader(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, evtJoinRoom,
		func(_ context.Context, c *Conn, req JoinRoomRequest) error {
			if req.RoomID == "" {
				return errors.New("missing roomId")
			}
			s.coordinator.HandleJoin(c, req.RoomID, req.User)
			return nil
		})

	Register(s.router, evtSignal,
		func(_ context.Context, c *Conn, req SignalRequest) error {
			s.signals.RelayDirect(req.CallerID, req.Target, req.Signal)
			return nil
		})

	Register(s.router, evtToggleVideo,
		func(_ context.Context, c *Conn, req ToggleVideoRequest) error {
			s.signals.RelayToRoom(c.ID(), req.RoomID, evtUserToggledVideo,
				toggledVideoBody{SocketID: c.ID(), VideoEnabled: req.VideoEnabled})
			return nil
		})

	Register(s.router, evtToggleAudio,
		func(_ context.Context, c *Conn, req ToggleAudioRequest) error {
			s.signals.RelayToRoom(c.ID(), req.RoomID, evtUserToggledAudio,
				toggledAudioBody{SocketID: c.ID(), AudioEnabled: req.AudioEnabled})
			return nil
		})

	Register(s.router, evtShareScreen,
		func(_ context.Context, c *Conn, req ShareScreenRequest) error {
			s.signals.RelayToRoom(c.ID(), req.RoomID, evtUserSharingScreen,
				sharingScreenBody{SocketID: c.ID(), IsSharing: req.IsSharing})
			return nil
		})

	Register(s.router, evtSendMessage,
		func(_ context.Context, c *Conn, req SendMessageRequest) error {
			s.signals.RelayChat(c.ID(), req.RoomID, req.User, req.Message)
			return nil
		})
}

func (s *WsServer) reader(conn *Conn) {
	defer s.dropConn(conn)

	conn.sock.SetReadLimit(maxMessageSize)
	_ = conn.sock.SetReadDeadline(time.Now().Add(pongWait))
	conn.sock.SetPongHandler(func(string) error {
		return conn.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.sock.ReadMessage()
		if err != nil {
			return // client closed or errored
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			zap.L().Debug("ws.decode", zap.String("socket_id", conn.ID()), zap.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		err = s.router.dispatch(ctx, conn, env)
		cancel()

		// No event in this protocol is fatal to the connection: malformed
		// and unknown frames are logged and dropped.
		if err != nil {
			zap.L().Debug("ws.dispatch",
				zap.String("socket_id", conn.ID()),
				zap.String("event", env.Event),
				zap.Error(err),
			)
		}
	}
}

// dropConn tears a connection down exactly once, no matter how many times
// the transport reports the disconnect.
func (s *WsServer) dropConn(conn *Conn) {
	if !s.peers.remove(conn.ID()) {
		return
	}
	s.coordinator.HandleDisconnect(conn.ID())
	_ = conn.Close()
	zap.L().Info("ws.disconnected", zap.String("socket_id", conn.ID()))
}
