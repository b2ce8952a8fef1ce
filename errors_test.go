package levelsync

import (
	"errors"
	"strings"
	"testing"
)

func TestConnectError(t *testing.T) {
	cause := errors.New("voicemeeter not running")
	err := error(&ConnectError{Source: "voicemeeter", Attempts: 5, Err: cause})

	if !errors.Is(err, ErrConnect) {
		t.Error("expected ErrConnect")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the underlying cause")
	}
	if !strings.Contains(err.Error(), "after 5 attempt(s)") {
		t.Errorf("unexpected message %q", err.Error())
	}

	var ce *ConnectError
	if !errors.As(err, &ce) || ce.Source != "voicemeeter" {
		t.Errorf("expected *ConnectError for voicemeeter, got %v", ce)
	}
}

func TestConfigError(t *testing.T) {
	err := error(&ConfigError{Field: "settings.damping", Value: 2.0, Rule: "lte=1"})
	if !errors.Is(err, ErrConfig) {
		t.Error("expected ErrConfig")
	}
	want := `config settings.damping=2 violates "lte=1", using default`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
