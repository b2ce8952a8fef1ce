//go:build !windows

package endpoint

import "github.com/zoobzio/levelsync"

type unsupportedDevice struct{}

func newSystemDevice() Device { return unsupportedDevice{} }

func (unsupportedDevice) Open() error              { return levelsync.ErrUnsupported }
func (unsupportedDevice) Close()                   {}
func (unsupportedDevice) Scalar() (float32, error) { return 0, levelsync.ErrUnsupported }
func (unsupportedDevice) SetScalar(float32) error  { return levelsync.ErrUnsupported }
