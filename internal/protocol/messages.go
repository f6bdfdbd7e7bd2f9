package protocol

import "time"

// Request is a single control-channel message from a client. One JSON object
// per line; fields beyond Type are populated per message type.
type Request struct {
	Type string `json:"type"`

	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	NewName string `json:"new_name,omitempty"`

	Cols int `json:"cols,omitempty"`
	Rows int `json:"rows,omitempty"`

	// Path names a plugin to load. The daemon forwards it to the plugin
	// host unmodified and never interprets it.
	Path string `json:"path,omitempty"`

	// Data carries terminal input bytes, base64-encoded by encoding/json.
	Data []byte `json:"data,omitempty"`
}

// Request types accepted by the daemon.
const (
	MsgCreate     = "create"
	MsgDelete     = "delete"
	MsgList       = "list"
	MsgAttach     = "attach"
	MsgDetach     = "detach"
	MsgRename     = "rename"
	MsgInput      = "input"
	MsgResize     = "resize"
	MsgLoadPlugin = "load_plugin"
	MsgPing       = "ping"
)

// Response is the daemon's reply to a Request, one JSON object per line.
type Response struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`

	ID       string        `json:"id,omitempty"`
	Sessions []SessionInfo `json:"sessions,omitempty"`
}

// Response types produced by the daemon.
const (
	RespOK       = "ok"
	RespError    = "error"
	RespCreated  = "created"
	RespDeleted  = "deleted"
	RespList     = "list"
	RespAttached = "attached"
	RespDetached = "detached"
	RespRenamed  = "renamed"
	RespPong     = "pong"
)

// SessionInfo describes one session in a list response.
type SessionInfo struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"created_at"`
	LastAttached    time.Time `json:"last_attached,omitempty"`
	AttachedClients int       `json:"attached_clients"`
	Cols            int       `json:"cols"`
	Rows            int       `json:"rows"`
	ErrorMode       bool      `json:"error_mode,omitempty"`
}
