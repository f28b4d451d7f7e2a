//go:build !linux || !cgo

package vc

import (
	"errors"

	"github.com/pedrosland/rascam/pkg/mmal"
)

// Init is a no-op without VideoCore support.
func Init() {}

// Driver reports that VideoCore MMAL needs linux and cgo.
func Driver() (mmal.Driver, error) {
	return nil, errors.New("vc: VideoCore MMAL requires linux and cgo")
}
