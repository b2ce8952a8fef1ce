// Package voicemeeter drives Voicemeeter bus gains through the Voicemeeter
// Remote API and exposes them as a levelsync.Source.
package voicemeeter

import (
	"errors"
	"fmt"

	"github.com/zoobzio/levelsync"
)

// Remote is the subset of the Voicemeeter Remote API used here. The Windows
// implementation calls VoicemeeterRemote64.dll; tests supply fakes.
type Remote interface {
	Login() error
	Logout() error
	IsParametersDirty() (bool, error)
	GetParameterFloat(name string) (float32, error)
	SetParameterFloat(name string, value float32) error
}

// Result codes returned by the Remote API.
const (
	CodeOK             = 0
	CodeNotLaunched    = 1
	CodeNotInstalled   = -1
	CodeNoServer       = -2
	CodeUnknownParam   = -3
	CodeStructMismatch = -4
	CodeConnectionLost = -5
	CodeSystemError    = -6
	CodeUnknown        = -7
)

var messages = map[int32]string{
	CodeNotLaunched:    "Voicemeeter not running",
	CodeNotInstalled:   "Voicemeeter not running or not installed",
	CodeNoServer:       "DLL not found or incompatible version",
	CodeUnknownParam:   "parameter error",
	CodeStructMismatch: "structure mismatch",
	CodeConnectionLost: "connection lost",
	CodeSystemError:    "system error",
	CodeUnknown:        "unknown error",
}

// ErrUnavailable is wrapped by every Error; the Remote API could not serve a call.
var ErrUnavailable = errors.New("voicemeeter unavailable")

// Error is a non-zero result code from the Remote API.
type Error struct {
	Op   string
	Code int32
}

func (e *Error) Error() string {
	msg, ok := messages[e.Code]
	if !ok {
		msg = fmt.Sprintf("unknown error code %d", e.Code)
	}
	return fmt.Sprintf("%s: %s (code %d)", e.Op, msg, e.Code)
}

// Unwrap returns ErrUnavailable.
func (e *Error) Unwrap() error { return ErrUnavailable }

// check turns a result code into an error.
func check(op string, code int32) error {
	if code == CodeOK {
		return nil
	}
	return &Error{Op: op, Code: code}
}

// GainParam is the parameter name of a bus gain.
func GainParam(bus int) string {
	return fmt.Sprintf("Bus[%d].Gain", bus)
}

// unsupported is the Remote used on platforms without the DLL.
type unsupported struct{}

func (unsupported) Login() error                              { return levelsync.ErrUnsupported }
func (unsupported) Logout() error                             { return nil }
func (unsupported) IsParametersDirty() (bool, error)          { return false, levelsync.ErrUnsupported }
func (unsupported) GetParameterFloat(string) (float32, error) { return 0, levelsync.ErrUnsupported }
func (unsupported) SetParameterFloat(string, float32) error   { return levelsync.ErrUnsupported }
