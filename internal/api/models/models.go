// Package models holds the request and response types of the HTTP API.
package models

import (
	"time"

	"github.com/maxaltenhuber/framegrab/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionResponse struct {
	Body version.Info
}

// Device models
type DeviceInfo struct {
	Path      string `json:"path" example:"/dev/video0" doc:"Device node path"`
	Name      string `json:"name" example:"HD Pro Webcam C920" doc:"Device name reported by the driver"`
	Driver    string `json:"driver" example:"uvcvideo" doc:"Kernel driver name"`
	Bus       string `json:"bus" example:"usb-0000:00:14.0-1" doc:"Bus location"`
	Capture   bool   `json:"capture" doc:"Device supports video capture"`
	Streaming bool   `json:"streaming" doc:"Device supports memory-mapped streaming I/O"`
	ReadWrite bool   `json:"read_write" doc:"Device supports read() I/O"`
}

type DeviceListData struct {
	Devices []DeviceInfo `json:"devices" doc:"Discovered capture devices"`
	Count   int          `json:"count" example:"2" doc:"Number of devices"`
}

type DeviceListResponse struct {
	Body DeviceListData
}

type FormatInfo struct {
	FourCC      string `json:"fourcc" example:"YUYV" doc:"Pixel format four character code"`
	Description string `json:"description" example:"YUYV 4:2:2" doc:"Driver description"`
	Emulated    bool   `json:"emulated" doc:"Format is software-converted by the driver"`
	Compressed  bool   `json:"compressed" doc:"Format is compressed"`
}

type FormatListData struct {
	Device  string       `json:"device" example:"/dev/video0" doc:"Device node path"`
	Formats []FormatInfo `json:"formats" doc:"Formats the device offers"`
	Count   int          `json:"count" example:"4" doc:"Number of formats"`
}

type FormatListResponse struct {
	Body FormatListData
}

// Session models
type SessionData struct {
	ID         string    `json:"id" example:"0d9f1a3e-8b2c-4f10-a57d-2c3cf6f3de61" doc:"Session identifier"`
	DevicePath string    `json:"device_path" example:"/dev/video0" doc:"Capture device node"`
	StreamID   string    `json:"stream_id" example:"stream-1" doc:"Published stream identifier"`
	Codec      string    `json:"codec" example:"yuyv" doc:"Negotiated output encoding"`
	Width      uint32    `json:"width" example:"1280" doc:"Frame width in pixels"`
	Height     uint32    `json:"height" example:"720" doc:"Frame height in pixels"`
	Strategy   string    `json:"strategy" example:"mmap" doc:"I/O strategy in use"`
	State      string    `json:"state" example:"frame_ready" doc:"Capture loop state"`
	Started    time.Time `json:"started" doc:"When the session started"`
	Error      string    `json:"error,omitempty" doc:"Fatal error if the session died"`
}

type SessionListData struct {
	Sessions []SessionData `json:"sessions" doc:"Managed capture sessions"`
	Count    int           `json:"count" example:"1" doc:"Number of sessions"`
}

type SessionListResponse struct {
	Body SessionListData
}

type SessionResponse struct {
	Body SessionData
}

type SessionRequestData struct {
	Device    string `json:"device" minLength:"1" example:"/dev/video0" doc:"Device node path or stable device identifier"`
	Encoding  string `json:"encoding,omitempty" example:"mjpg" doc:"Requested output encoding tag; empty negotiates automatically"`
	Aspect    string `json:"aspect,omitempty" example:"4:3" pattern:"^[0-9]+:[0-9]+$" doc:"Display aspect ratio"`
	Input     int    `json:"input,omitempty" example:"0" doc:"Video input index"`
	FrameRate int    `json:"frame_rate,omitempty" minimum:"0" example:"30" doc:"Requested frame rate in frames per second"`
	CachingMs int    `json:"caching_ms,omitempty" minimum:"0" example:"300" doc:"Scheduling delay in milliseconds"`
}

type SessionRequest struct {
	Body SessionRequestData
}

type SessionDeleteData struct {
	Status  string `json:"status" example:"stopped" doc:"Result status"`
	Message string `json:"message" example:"session stopped" doc:"Result message"`
}

type SessionDeleteResponse struct {
	Body SessionDeleteData
}

// Control models
type ControlInfo struct {
	ID      uint32 `json:"id" example:"9963776" doc:"V4L2 control identifier"`
	Name    string `json:"name" example:"Brightness" doc:"Control name"`
	Min     int32  `json:"min" example:"0" doc:"Minimum value"`
	Max     int32  `json:"max" example:"255" doc:"Maximum value"`
	Step    int32  `json:"step" example:"1" doc:"Value step"`
	Default int32  `json:"default" example:"128" doc:"Driver default value"`
	Value   int32  `json:"value" example:"130" doc:"Current value"`
}

type ControlListData struct {
	SessionID string        `json:"session_id" doc:"Session identifier"`
	Controls  []ControlInfo `json:"controls" doc:"Device controls"`
	Count     int           `json:"count" example:"8" doc:"Number of controls"`
}

type ControlListResponse struct {
	Body ControlListData
}

type ControlSetData struct {
	Value int32 `json:"value" example:"200" doc:"New control value"`
}

type ControlSetResponse struct {
	Body ControlInfo
}

// Capture definition models
type CaptureData struct {
	ID        string    `json:"id" example:"front-door" doc:"Capture identifier"`
	Name      string    `json:"name" example:"Front door camera" doc:"Display name"`
	Device    string    `json:"device" example:"/dev/video0" doc:"Device node path or stable device identifier"`
	Enabled   bool      `json:"enabled" doc:"Start this capture when the daemon starts"`
	Encoding  string    `json:"encoding,omitempty" example:"mjpg" doc:"Requested output encoding tag"`
	Aspect    string    `json:"aspect,omitempty" example:"4:3" doc:"Display aspect ratio"`
	Input     int       `json:"input,omitempty" example:"0" doc:"Video input index"`
	FrameRate int       `json:"frame_rate,omitempty" example:"30" doc:"Requested frame rate in frames per second"`
	CachingMs int       `json:"caching_ms,omitempty" example:"300" doc:"Scheduling delay in milliseconds"`
	CreatedAt time.Time `json:"created_at" doc:"When the definition was created"`
	UpdatedAt time.Time `json:"updated_at" doc:"When the definition last changed"`
}

type CaptureListData struct {
	Captures []CaptureData `json:"captures" doc:"Persisted capture definitions"`
	Count    int           `json:"count" example:"1" doc:"Number of definitions"`
}

type CaptureListResponse struct {
	Body CaptureListData
}

type CaptureResponse struct {
	Body CaptureData
}

type CaptureRequestData struct {
	ID        string `json:"id" minLength:"1" pattern:"^[a-zA-Z0-9_-]+$" example:"front-door" doc:"Capture identifier"`
	Name      string `json:"name,omitempty" example:"Front door camera" doc:"Display name; defaults to the identifier"`
	Device    string `json:"device" minLength:"1" example:"/dev/video0" doc:"Device node path or stable device identifier"`
	Enabled   bool   `json:"enabled,omitempty" doc:"Start this capture when the daemon starts"`
	Encoding  string `json:"encoding,omitempty" example:"mjpg" doc:"Requested output encoding tag"`
	Aspect    string `json:"aspect,omitempty" pattern:"^[0-9]+:[0-9]+$" example:"4:3" doc:"Display aspect ratio"`
	Input     int    `json:"input,omitempty" minimum:"0" example:"0" doc:"Video input index"`
	FrameRate int    `json:"frame_rate,omitempty" minimum:"0" example:"30" doc:"Requested frame rate in frames per second"`
	CachingMs int    `json:"caching_ms,omitempty" minimum:"0" example:"300" doc:"Scheduling delay in milliseconds"`
}

type CaptureRequest struct {
	Body CaptureRequestData
}

type CaptureDeleteData struct {
	Status  string `json:"status" example:"removed" doc:"Result status"`
	Message string `json:"message" example:"capture definition removed" doc:"Result message"`
}

type CaptureDeleteResponse struct {
	Body CaptureDeleteData
}

// Logging models
type LogLevelData struct {
	Module string `json:"module" example:"v4l2" doc:"Module logger name, or 'default' for all"`
	Level  string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New log level"`
}

type LogLevelRequest struct {
	Body LogLevelData
}

type LogLevelResponse struct {
	Body LogLevelData
}
