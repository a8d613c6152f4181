package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/maxaltenhuber/framegrab/internal/api/models"
	"github.com/maxaltenhuber/framegrab/internal/logging"
)

func (s *Server) registerLoggingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "set-log-level",
		Method:      http.MethodPut,
		Path:        "/api/logging/level",
		Summary:     "Set log level",
		Description: "Adjust a module's log level at runtime",
		Tags:        []string{"system"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.LogLevelRequest) (*models.LogLevelResponse, error) {
		level := logging.ParseLevel(input.Body.Level)

		module := input.Body.Module
		if module == "" || module == "default" {
			logging.SetLevel(level)
			module = "default"
		} else {
			logging.SetModuleLevel(module, level)
		}

		s.logger.Info("Log level changed", "target", module, "level", level.String())
		return &models.LogLevelResponse{
			Body: models.LogLevelData{Module: module, Level: input.Body.Level},
		}, nil
	})
}
