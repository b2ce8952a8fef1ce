//go:build windows

package voicemeeter

import (
	"fmt"
	"math"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// DLL calls VoicemeeterRemote64.dll. The library is loaded on the first
// Login so a missing installation is reported as a retryable login failure.
type DLL struct {
	path string

	once    sync.Once
	loadErr error

	login, logout, dirty, get, set *windows.LazyProc
}

// Open returns a Remote backed by the DLL at path.
func Open(path string) Remote {
	return &DLL{path: path}
}

func (d *DLL) load() error {
	d.once.Do(func() {
		dll := windows.NewLazyDLL(d.path)
		if err := dll.Load(); err != nil {
			d.loadErr = fmt.Errorf("load %s: %w: %w", d.path, ErrUnavailable, err)
			return
		}
		d.login = dll.NewProc("VBVMR_Login")
		d.logout = dll.NewProc("VBVMR_Logout")
		d.dirty = dll.NewProc("VBVMR_IsParametersDirty")
		d.get = dll.NewProc("VBVMR_GetParameterFloat")
		d.set = dll.NewProc("VBVMR_SetParameterFloat")
		for _, p := range []*windows.LazyProc{d.login, d.logout, d.dirty, d.get, d.set} {
			if err := p.Find(); err != nil {
				d.loadErr = fmt.Errorf("%s: %w: %w", d.path, ErrUnavailable, err)
				return
			}
		}
	})
	return d.loadErr
}

// Login implements Remote.
func (d *DLL) Login() error {
	if err := d.load(); err != nil {
		return err
	}
	r, _, _ := d.login.Call()
	return check("VBVMR_Login", int32(r))
}

// Logout implements Remote.
func (d *DLL) Logout() error {
	if err := d.load(); err != nil {
		return err
	}
	r, _, _ := d.logout.Call()
	return check("VBVMR_Logout", int32(r))
}

// IsParametersDirty implements Remote.
func (d *DLL) IsParametersDirty() (bool, error) {
	if err := d.load(); err != nil {
		return false, err
	}
	r, _, _ := d.dirty.Call()
	code := int32(r)
	if code < 0 {
		return false, check("VBVMR_IsParametersDirty", code)
	}
	return code == 1, nil
}

// GetParameterFloat implements Remote.
func (d *DLL) GetParameterFloat(name string) (float32, error) {
	if err := d.load(); err != nil {
		return 0, err
	}
	p, err := windows.BytePtrFromString(name)
	if err != nil {
		return 0, err
	}
	var v float32
	r, _, _ := d.get.Call(uintptr(unsafe.Pointer(p)), uintptr(unsafe.Pointer(&v)))
	if err := check("VBVMR_GetParameterFloat", int32(r)); err != nil {
		return 0, err
	}
	return v, nil
}

// SetParameterFloat implements Remote. The float travels in the integer
// register; the runtime mirrors the first four arguments into XMM registers.
func (d *DLL) SetParameterFloat(name string, value float32) error {
	if err := d.load(); err != nil {
		return err
	}
	p, err := windows.BytePtrFromString(name)
	if err != nil {
		return err
	}
	r, _, _ := d.set.Call(uintptr(unsafe.Pointer(p)), uintptr(math.Float32bits(value)))
	return check("VBVMR_SetParameterFloat", int32(r))
}
