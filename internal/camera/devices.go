package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	devGlob  = "/dev/video*"
	sysClass = "/sys/class/video4linux"
)

// Device is one v4l2 node with its driver-reported name.
type Device struct {
	Path string
	Name string
}

// ListDevices enumerates /dev/video* nodes in numeric order.
func ListDevices() ([]Device, error) {
	paths, err := filepath.Glob(devGlob)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", devGlob, err)
	}
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) < len(paths[j])
		}
		return paths[i] < paths[j]
	})

	devices := make([]Device, 0, len(paths))
	for _, path := range paths {
		devices = append(devices, Device{Path: path, Name: deviceName(path)})
	}
	return devices, nil
}

func deviceName(path string) string {
	raw, err := os.ReadFile(filepath.Join(sysClass, filepath.Base(path), "name"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
