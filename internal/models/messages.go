package models

import "encoding/json"

// WSMessage is the envelope for all WebSocket communication.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Operator commands sent by the client.
const (
	CmdToggleProtocol = "toggle_protocol"
	CmdClearProtocols = "clear_protocols"
	CmdSetPredicate   = "set_predicate"
	CmdSort           = "sort"
	CmdClearSort      = "clear_sort"
	CmdSelect         = "select"
	CmdResetSelection = "reset_selection"
	CmdStartCapture   = "start_capture"
	CmdStopCapture    = "stop_capture"
)

// Messages sent by the server.
const (
	MsgView          = "view"
	MsgCaptureStatus = "capture_status"
	MsgError         = "error"
)

// ToggleProtocolRequest flips a protocol in the membership filter. When
// Enabled is set the protocol is forced on or off instead.
type ToggleProtocolRequest struct {
	Protocol string `json:"protocol"`
	Enabled  *bool  `json:"enabled,omitempty"`
}

// SetPredicateRequest replaces the predicate expression. Empty clears it.
type SetPredicateRequest struct {
	Expression string `json:"expression"`
}

// SortRequest selects a sort column.
type SortRequest struct {
	Column string `json:"column"`
}

// SelectRequest activates the row with the given packet number.
type SelectRequest struct {
	Number int `json:"number"`
}

// CaptureStatus reports the backend's answer to a start/stop request.
type CaptureStatus struct {
	Capturing bool   `json:"capturing"`
	Status    string `json:"status"`
}

// ErrorPayload describes an error sent to the client.
type ErrorPayload struct {
	Message string `json:"message"`
}
