//go:build windows

package endpoint

import (
	"errors"
	"fmt"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

// sFalse is returned by CoInitializeEx when COM is already initialised on
// the thread.
const sFalse = 1

// wasapi is the default render endpoint reached through the Core Audio API.
type wasapi struct {
	comInit bool
	volume  *wca.IAudioEndpointVolume
}

func newSystemDevice() Device { return &wasapi{} }

func (d *wasapi) Open() error {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return fmt.Errorf("initialise COM: %w", err)
		}
	}
	d.comInit = true

	var enum *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &enum); err != nil {
		d.Close()
		return fmt.Errorf("create device enumerator: %w", err)
	}
	defer enum.Release()

	var dev *wca.IMMDevice
	if err := enum.GetDefaultAudioEndpoint(wca.ERender, wca.EConsole, &dev); err != nil {
		d.Close()
		return fmt.Errorf("no default output device: %w", err)
	}
	defer dev.Release()

	if err := dev.Activate(wca.IID_IAudioEndpointVolume, wca.CLSCTX_ALL, nil, &d.volume); err != nil {
		d.Close()
		return fmt.Errorf("activate endpoint volume: %w", err)
	}
	return nil
}

func (d *wasapi) Close() {
	if d.volume != nil {
		d.volume.Release()
		d.volume = nil
	}
	if d.comInit {
		ole.CoUninitialize()
		d.comInit = false
	}
}

func (d *wasapi) Scalar() (float32, error) {
	var v float32
	if err := d.volume.GetMasterVolumeLevelScalar(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (d *wasapi) SetScalar(v float32) error {
	return d.volume.SetMasterVolumeLevelScalar(v, nil)
}
