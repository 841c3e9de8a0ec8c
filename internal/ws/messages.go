package ws

import "encoding/json"

// Inbound event names, wire-compatible with the browser client.
const (
	evtJoinRoom    = "join-room"
	evtSignal      = "signal"
	evtToggleVideo = "toggle-video"
	evtToggleAudio = "toggle-audio"
	evtShareScreen = "share-screen"
	evtSendMessage = "send-message"
)

// Outbound event names. connected is sent once at accept time so the
// client learns the id peers will use to address it.
const (
	evtConnected         = "connected"
	evtRoomUsers         = "room-users"
	evtUserJoined        = "user-joined"
	evtUserLeft          = "user-left"
	evtUserToggledVideo  = "user-toggled-video"
	evtUserToggledAudio  = "user-toggled-audio"
	evtUserSharingScreen = "user-sharing-screen"
	evtReceiveMessage    = "receive-message"
)

// Envelope wraps every inbound WS frame.
type Envelope struct {
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// outbound mirrors Envelope for server-to-client frames.
type outbound struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// ──────────────────────────── Request DTOs ──────────────────────────────────

type JoinRoomRequest struct {
	RoomID string          `json:"roomId"`
	User   json.RawMessage `json:"user"`
}

type SignalRequest struct {
	Target   string          `json:"target"`
	Signal   json.RawMessage `json:"signal"`
	CallerID string          `json:"callerId"`
}

type ToggleVideoRequest struct {
	RoomID       string `json:"roomId"`
	VideoEnabled bool   `json:"videoEnabled"`
}

type ToggleAudioRequest struct {
	RoomID       string `json:"roomId"`
	AudioEnabled bool   `json:"audioEnabled"`
}

type ShareScreenRequest struct {
	RoomID    string `json:"roomId"`
	IsSharing bool   `json:"isSharing"`
}

type SendMessageRequest struct {
	RoomID  string          `json:"roomId"`
	User    json.RawMessage `json:"user"`
	Message string          `json:"message"`
}

// ──────────────────────────── Event bodies ──────────────────────────────────

type connectedBody struct {
	SocketID string `json:"socketId"`
}

type userJoinedBody struct {
	SocketID string          `json:"socketId"`
	User     json.RawMessage `json:"user"`
}

type userLeftBody struct {
	SocketID string          `json:"socketId"`
	User     json.RawMessage `json:"user"`
}

type signalBody struct {
	Signal   json.RawMessage `json:"signal"`
	CallerID string          `json:"callerId"`
}

type toggledVideoBody struct {
	SocketID     string `json:"socketId"`
	VideoEnabled bool   `json:"videoEnabled"`
}

type toggledAudioBody struct {
	SocketID     string `json:"socketId"`
	AudioEnabled bool   `json:"audioEnabled"`
}

type sharingScreenBody struct {
	SocketID  string `json:"socketId"`
	IsSharing bool   `json:"isSharing"`
}

type receiveMessageBody struct {
	User      json.RawMessage `json:"user"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
}

// presenceName digs the display name out of an opaque presence payload,
// for logs only.
func presenceName(user json.RawMessage) string {
	var v struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(user, &v); err != nil {
		return ""
	}
	return v.Name
}
