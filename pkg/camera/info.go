package camera

import (
	"fmt"

	"github.com/pedrosland/rascam/pkg/mmal"
)

// CameraInfo describes one attached camera module.
type CameraInfo struct {
	Num       int32
	Name      string
	MaxWidth  uint32
	MaxHeight uint32
	Lens      bool
}

func (i CameraInfo) String() string {
	return fmt.Sprintf("%s (%dx%d)", i.Name, i.MaxWidth, i.MaxHeight)
}

// Cameras enumerates the attached camera modules. The query needs its own
// short-lived native component, created and destroyed inside the call.
func Cameras(drv mmal.Driver) ([]CameraInfo, error) {
	comp, err := drv.ComponentCreate(mmal.ComponentCameraInfo)
	if err != nil {
		return nil, fmt.Errorf("camera: unable to create camera info component: %w", err)
	}
	defer comp.Destroy()

	details, err := comp.Control().CameraInfo()
	if err != nil {
		return nil, fmt.Errorf("camera: unable to query camera info: %w", err)
	}

	infos := make([]CameraInfo, len(details))
	for i, d := range details {
		infos[i] = CameraInfo{
			Num:       int32(i),
			Name:      d.Name,
			MaxWidth:  d.MaxWidth,
			MaxHeight: d.MaxHeight,
			Lens:      d.Lens,
		}
	}
	return infos, nil
}
