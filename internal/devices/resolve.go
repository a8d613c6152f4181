package devices

import (
	"fmt"
	"os"
	"strings"
)

// ResolveDevicePath converts a stable device identifier to a usable device
// node path. Plain /dev paths pass through unchanged; usb- and platform-
// prefixed identifiers are resolved through the kernel's stable symlinks.
func ResolveDevicePath(deviceID string) (string, error) {
	if strings.HasPrefix(deviceID, "/dev/") {
		return deviceID, nil
	}

	// by-id covers USB devices
	if strings.HasPrefix(deviceID, "usb-") {
		devicePath := "/dev/v4l/by-id/" + deviceID
		if _, err := os.Stat(devicePath); err == nil {
			return devicePath, nil
		}
	}

	// by-path covers platform devices and USB devices without by-id entries
	if strings.HasPrefix(deviceID, "platform-") || strings.HasPrefix(deviceID, "usb-") {
		devicePath := "/dev/v4l/by-path/" + deviceID
		if _, err := os.Stat(devicePath); err == nil {
			return devicePath, nil
		}
	}

	return "", fmt.Errorf("no stable symlink found for device ID: %s", deviceID)
}
