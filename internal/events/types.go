package events

// Event type constants for kelindar/event.
const (
	TypeSessionStarted uint32 = iota + 1
	TypeSessionStopped
	TypeSessionError
	TypeDeviceDiscovery
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionStartedEvent fires when a capture session finished setup and its
// loop began running.
type SessionStartedEvent struct {
	SessionID  string `json:"session_id" example:"0d9f1a3e" doc:"Session identifier"`
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Capture device node"`
	StreamID   string `json:"stream_id" example:"stream-1" doc:"Published stream identifier"`
	Codec      string `json:"codec" example:"yuyv" doc:"Output encoding"`
	Timestamp  string `json:"timestamp" example:"2026-08-30T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStartedEvent.
func (e SessionStartedEvent) Type() uint32 { return TypeSessionStarted }

// SessionStoppedEvent fires when a session was torn down.
type SessionStoppedEvent struct {
	SessionID  string `json:"session_id" example:"0d9f1a3e" doc:"Session identifier"`
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Capture device node"`
	Timestamp  string `json:"timestamp" example:"2026-08-30T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStoppedEvent.
func (e SessionStoppedEvent) Type() uint32 { return TypeSessionStopped }

// SessionErrorEvent fires when a session's capture loop hit a fatal error
// and ended.
type SessionErrorEvent struct {
	SessionID  string `json:"session_id" example:"0d9f1a3e" doc:"Session identifier"`
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Capture device node"`
	Error      string `json:"error" example:"poll error: bad file descriptor" doc:"Fatal error description"`
	Timestamp  string `json:"timestamp" example:"2026-08-30T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionErrorEvent.
func (e SessionErrorEvent) Type() uint32 { return TypeSessionError }

// DeviceDiscoveryEvent fires when a capture device node appears or
// disappears.
type DeviceDiscoveryEvent struct {
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Capture device node"`
	Action     string `json:"action" example:"added" doc:"Action type: added, removed"`
	Timestamp  string `json:"timestamp" example:"2026-08-30T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceDiscoveryEvent.
func (e DeviceDiscoveryEvent) Type() uint32 { return TypeDeviceDiscovery }
