package ipc

// Commands accepted by an owner session.
const (
	CommandStatus = "status"
	CommandToggle = "toggle"
	CommandStop   = "stop"
	CommandCancel = "cancel"
	CommandFlip   = "flip"
)

// Request is one JSON line sent to the owner. ID is filled by Send when empty
// and echoed back on the response.
type Request struct {
	ID      string `json:"id,omitempty"`
	Command string `json:"command"`
}

type Response struct {
	ID      string `json:"id,omitempty"`
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Facing  string `json:"facing,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
