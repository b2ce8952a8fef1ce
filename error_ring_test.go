package levelsync

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func incident(i int) Incident {
	return Incident{At: time.Unix(int64(i), 0), Op: "connect", Err: fmt.Errorf("error %d", i)}
}

func TestErrorRing_Disabled(t *testing.T) {
	r := newErrorRing(0)
	if r != nil {
		t.Fatal("expected nil ring for size 0")
	}
	r.push(incident(1))
	r.clear()
	if got := r.all(); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestErrorRing_OldestFirst(t *testing.T) {
	r := newErrorRing(5)
	for i := 1; i <= 3; i++ {
		r.push(incident(i))
	}

	got := r.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(got))
	}
	for i, in := range got {
		if want := fmt.Sprintf("error %d", i+1); in.Err.Error() != want {
			t.Errorf("incident %d: expected %q, got %q", i, want, in.Err)
		}
	}
}

func TestErrorRing_Wraps(t *testing.T) {
	r := newErrorRing(3)
	for i := 1; i <= 7; i++ {
		r.push(incident(i))
	}

	got := r.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(got))
	}
	for i, in := range got {
		if want := fmt.Sprintf("error %d", i+5); in.Err.Error() != want {
			t.Errorf("incident %d: expected %q, got %q", i, want, in.Err)
		}
	}
}

func TestErrorRing_Clear(t *testing.T) {
	r := newErrorRing(2)
	r.push(incident(1))
	r.clear()
	if got := r.all(); got != nil {
		t.Errorf("expected nil after clear, got %v", got)
	}
	r.push(incident(2))
	if got := r.all(); len(got) != 1 {
		t.Errorf("expected 1 incident after clear, got %d", len(got))
	}
}

func TestIncident_Error(t *testing.T) {
	cause := errors.New("refused")
	in := Incident{At: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Op: "reload", Err: cause}

	if !errors.Is(in, cause) {
		t.Error("expected Incident to unwrap to its cause")
	}
	if got := in.Error(); !strings.HasPrefix(got, "2024-01-02T03:04:05Z reload: refused") {
		t.Errorf("unexpected message %q", got)
	}
}
