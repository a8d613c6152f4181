package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/maxaltenhuber/framegrab/internal/api/models"
	"github.com/maxaltenhuber/framegrab/internal/devices"
)

// DevicePathInput carries the device identifier path parameter. Stable
// identifiers (usb-..., platform-...) are accepted alongside plain node
// names; slashes cannot appear in a path segment, so /dev/video0 is
// addressed as video0.
type DevicePathInput struct {
	DeviceID string `path:"device_id" example:"video0" doc:"Device node name or stable device identifier"`
}

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List devices",
		Description: "List discovered V4L2 capture devices",
		Tags:        []string{"devices"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.DeviceListResponse, error) {
		devs := s.devices.Devices()

		out := make([]models.DeviceInfo, len(devs))
		for i, d := range devs {
			out[i] = models.DeviceInfo{
				Path:      d.Path,
				Name:      d.Name,
				Driver:    d.Driver,
				Bus:       d.Bus,
				Capture:   d.Capture,
				Streaming: d.Streaming,
				ReadWrite: d.ReadWrite,
			}
		}
		return &models.DeviceListResponse{
			Body: models.DeviceListData{Devices: out, Count: len(out)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-device-formats",
		Method:      http.MethodGet,
		Path:        "/api/devices/{device_id}/formats",
		Summary:     "List device formats",
		Description: "Enumerate the pixel formats a device offers",
		Tags:        []string{"devices"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *DevicePathInput) (*models.FormatListResponse, error) {
		path, err := resolveDeviceID(input.DeviceID)
		if err != nil {
			return nil, huma.Error404NotFound("device not found", err)
		}

		formats, err := s.devices.Formats(path)
		if err != nil {
			return nil, huma.Error502BadGateway("cannot query device", err)
		}

		out := make([]models.FormatInfo, len(formats))
		for i, f := range formats {
			out[i] = models.FormatInfo{
				FourCC:      f.FourCC,
				Description: f.Description,
				Emulated:    f.Emulated,
				Compressed:  f.Compressed,
			}
		}
		return &models.FormatListResponse{
			Body: models.FormatListData{Device: path, Formats: out, Count: len(out)},
		}, nil
	})
}

// resolveDeviceID turns a path parameter into a device node path. Bare
// videoN names map into /dev.
func resolveDeviceID(id string) (string, error) {
	if len(id) > 5 && id[:5] == "video" {
		return devices.ResolveDevicePath("/dev/" + id)
	}
	return devices.ResolveDevicePath(id)
}
