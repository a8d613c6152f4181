package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/maxaltenhuber/framegrab/internal/api/models"
	"github.com/maxaltenhuber/framegrab/internal/capture"
	"github.com/maxaltenhuber/framegrab/internal/devices"
)

// SessionIDInput carries the session identifier path parameter.
type SessionIDInput struct {
	SessionID string `path:"session_id" example:"0d9f1a3e-8b2c-4f10-a57d-2c3cf6f3de61" doc:"Session identifier"`
}

// ControlIDInput addresses one control of a session.
type ControlIDInput struct {
	SessionIDInput
	ControlID uint32 `path:"control_id" example:"9963776" doc:"V4L2 control identifier"`
}

// ControlSetInput combines the control address and the new value.
type ControlSetInput struct {
	ControlIDInput
	Body models.ControlSetData
}

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/api/sessions",
		Summary:     "List sessions",
		Description: "List managed capture sessions",
		Tags:        []string{"sessions"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.SessionListResponse, error) {
		statuses := s.sessions.List()

		out := make([]models.SessionData, len(statuses))
		for i, st := range statuses {
			out[i] = sessionData(st)
		}
		return &models.SessionListResponse{
			Body: models.SessionListData{Sessions: out, Count: len(out)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-session",
		Method:        http.MethodPost,
		Path:          "/api/sessions",
		Summary:       "Create session",
		Description:   "Open a capture device and start its capture loop",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusCreated,
		Security:      withAuth(),
	}, func(ctx context.Context, input *models.SessionRequest) (*models.SessionResponse, error) {
		path, err := devices.ResolveDevicePath(input.Body.Device)
		if err != nil {
			return nil, huma.Error404NotFound("device not found", err)
		}

		cfg := capture.Config{
			DevicePath:     path,
			OutputEncoding: input.Body.Encoding,
			AspectRatio:    input.Body.Aspect,
			Input:          input.Body.Input,
			FrameRate:      input.Body.FrameRate,
			Caching:        time.Duration(input.Body.CachingMs) * time.Millisecond,
		}

		id, err := s.sessions.Start(cfg)
		if err != nil {
			if capture.IsFatal(err) {
				return nil, huma.Error502BadGateway("device setup failed", err)
			}
			return nil, huma.Error422UnprocessableEntity("cannot start session", err)
		}

		st, ok := s.sessions.Get(id)
		if !ok {
			return nil, huma.Error500InternalServerError("session vanished after start")
		}
		return &models.SessionResponse{Body: sessionData(st)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}",
		Summary:     "Get session",
		Description: "Report one session's status",
		Tags:        []string{"sessions"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *SessionIDInput) (*models.SessionResponse, error) {
		st, ok := s.sessions.Get(input.SessionID)
		if !ok {
			return nil, huma.Error404NotFound("session not found")
		}
		return &models.SessionResponse{Body: sessionData(st)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-session",
		Method:      http.MethodDelete,
		Path:        "/api/sessions/{session_id}",
		Summary:     "Stop session",
		Description: "Stop a capture session and release its device",
		Tags:        []string{"sessions"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *SessionIDInput) (*models.SessionDeleteResponse, error) {
		if err := s.sessions.Stop(input.SessionID); err != nil {
			return nil, huma.Error404NotFound("session not found", err)
		}
		return &models.SessionDeleteResponse{
			Body: models.SessionDeleteData{Status: "stopped", Message: "session stopped"},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-session-controls",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}/controls",
		Summary:     "List controls",
		Description: "List the device controls of a running session with current values",
		Tags:        []string{"controls"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *SessionIDInput) (*models.ControlListResponse, error) {
		controls, ok := s.sessions.Controls(input.SessionID)
		if !ok {
			return nil, huma.Error404NotFound("session not found or not running")
		}

		list := controls.List()
		out := make([]models.ControlInfo, 0, len(list))
		for _, info := range list {
			value := info.Default
			if v, err := controls.Get(info.ID); err == nil {
				value = v
			}
			out = append(out, models.ControlInfo{
				ID:      info.ID,
				Name:    info.Name,
				Min:     info.Min,
				Max:     info.Max,
				Step:    info.Step,
				Default: info.Default,
				Value:   value,
			})
		}
		return &models.ControlListResponse{
			Body: models.ControlListData{
				SessionID: input.SessionID,
				Controls:  out,
				Count:     len(out),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-session-control",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{session_id}/controls/{control_id}",
		Summary:     "Set control",
		Description: "Set a device control value on a running session",
		Tags:        []string{"controls"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *ControlSetInput) (*models.ControlSetResponse, error) {
		controls, ok := s.sessions.Controls(input.SessionID)
		if !ok {
			return nil, huma.Error404NotFound("session not found or not running")
		}

		if err := controls.Set(input.ControlID, input.Body.Value); err != nil {
			return nil, huma.Error422UnprocessableEntity("cannot set control", err)
		}

		for _, info := range controls.List() {
			if info.ID != input.ControlID {
				continue
			}
			value := input.Body.Value
			if v, err := controls.Get(info.ID); err == nil {
				value = v
			}
			return &models.ControlSetResponse{Body: models.ControlInfo{
				ID:      info.ID,
				Name:    info.Name,
				Min:     info.Min,
				Max:     info.Max,
				Step:    info.Step,
				Default: info.Default,
				Value:   value,
			}}, nil
		}
		return nil, huma.Error404NotFound("unknown control")
	})
}

func sessionData(st capture.SessionStatus) models.SessionData {
	return models.SessionData{
		ID:         st.ID,
		DevicePath: st.DevicePath,
		StreamID:   st.StreamID,
		Codec:      st.Codec,
		Width:      st.Width,
		Height:     st.Height,
		Strategy:   st.Strategy,
		State:      st.State,
		Started:    st.Started,
		Error:      st.Error,
	}
}
