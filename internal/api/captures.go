package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/maxaltenhuber/framegrab/internal/api/models"
	"github.com/maxaltenhuber/framegrab/internal/config"
)

// CaptureIDInput carries the capture definition identifier path parameter.
type CaptureIDInput struct {
	CaptureID string `path:"capture_id" example:"front-door" doc:"Capture identifier"`
}

// CaptureUpdateInput combines the identifier and the replacement definition.
type CaptureUpdateInput struct {
	CaptureIDInput
	Body models.CaptureRequestData
}

func (s *Server) registerCaptureRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-captures",
		Method:      http.MethodGet,
		Path:        "/api/captures",
		Summary:     "List captures",
		Description: "List persisted capture definitions",
		Tags:        []string{"captures"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.CaptureListResponse, error) {
		all := s.captures.All()

		out := make([]models.CaptureData, 0, len(all))
		for _, cc := range all {
			out = append(out, captureData(cc))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

		return &models.CaptureListResponse{
			Body: models.CaptureListData{Captures: out, Count: len(out)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-capture",
		Method:        http.MethodPost,
		Path:          "/api/captures",
		Summary:       "Create capture",
		Description:   "Persist a capture definition; enabled definitions start at the next daemon start",
		Tags:          []string{"captures"},
		DefaultStatus: http.StatusCreated,
		Security:      withAuth(),
	}, func(ctx context.Context, input *models.CaptureRequest) (*models.CaptureResponse, error) {
		if _, exists := s.captures.Get(input.Body.ID); exists {
			return nil, huma.Error409Conflict("capture already exists")
		}

		if err := s.captures.Add(captureConfig(input.Body)); err != nil {
			return nil, huma.Error422UnprocessableEntity("cannot add capture", err)
		}

		cc, ok := s.captures.Get(input.Body.ID)
		if !ok {
			return nil, huma.Error500InternalServerError("capture vanished after add")
		}
		return &models.CaptureResponse{Body: captureData(cc)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-capture",
		Method:      http.MethodGet,
		Path:        "/api/captures/{capture_id}",
		Summary:     "Get capture",
		Description: "Report one persisted capture definition",
		Tags:        []string{"captures"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *CaptureIDInput) (*models.CaptureResponse, error) {
		cc, ok := s.captures.Get(input.CaptureID)
		if !ok {
			return nil, huma.Error404NotFound("capture not found")
		}
		return &models.CaptureResponse{Body: captureData(cc)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-capture",
		Method:      http.MethodPut,
		Path:        "/api/captures/{capture_id}",
		Summary:     "Update capture",
		Description: "Replace a persisted capture definition",
		Tags:        []string{"captures"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *CaptureUpdateInput) (*models.CaptureResponse, error) {
		if err := s.captures.Update(input.CaptureID, captureConfig(input.Body)); err != nil {
			return nil, huma.Error404NotFound("capture not found", err)
		}

		cc, ok := s.captures.Get(input.CaptureID)
		if !ok {
			return nil, huma.Error500InternalServerError("capture vanished after update")
		}
		return &models.CaptureResponse{Body: captureData(cc)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-capture",
		Method:      http.MethodDelete,
		Path:        "/api/captures/{capture_id}",
		Summary:     "Delete capture",
		Description: "Remove a persisted capture definition",
		Tags:        []string{"captures"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *CaptureIDInput) (*models.CaptureDeleteResponse, error) {
		if err := s.captures.Remove(input.CaptureID); err != nil {
			return nil, huma.Error404NotFound("capture not found", err)
		}
		return &models.CaptureDeleteResponse{
			Body: models.CaptureDeleteData{Status: "removed", Message: "capture definition removed"},
		}, nil
	})
}

func captureData(cc config.CaptureConfig) models.CaptureData {
	return models.CaptureData{
		ID:        cc.ID,
		Name:      cc.Name,
		Device:    cc.Device,
		Enabled:   cc.Enabled,
		Encoding:  cc.Encoding,
		Aspect:    cc.Aspect,
		Input:     cc.Input,
		FrameRate: cc.FrameRate,
		CachingMs: cc.CachingMs,
		CreatedAt: cc.CreatedAt,
		UpdatedAt: cc.UpdatedAt,
	}
}

func captureConfig(body models.CaptureRequestData) config.CaptureConfig {
	return config.CaptureConfig{
		ID:        body.ID,
		Name:      body.Name,
		Device:    body.Device,
		Enabled:   body.Enabled,
		Encoding:  body.Encoding,
		Aspect:    body.Aspect,
		Input:     body.Input,
		FrameRate: body.FrameRate,
		CachingMs: body.CachingMs,
	}
}
