package levelsync

import "testing"

func TestConnState_String(t *testing.T) {
	tests := map[ConnState]string{
		Disconnected:  "disconnected",
		Connecting:    "connecting",
		Connected:     "connected",
		ConnState(42): "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("ConnState(%d).String() = %q, want %q", int32(s), got, want)
		}
	}
}

func TestDirection_String(t *testing.T) {
	tests := map[Direction]string{
		None:          "none",
		FromSource:    "from_source",
		FromTarget:    "from_target",
		Direction(42): "unknown",
	}
	for d, want := range tests {
		if got := d.String(); got != want {
			t.Errorf("Direction(%d).String() = %q, want %q", int32(d), got, want)
		}
	}
}

func TestFeedState_String(t *testing.T) {
	tests := map[FeedState]string{
		FeedLoading:   "loading",
		FeedHealthy:   "healthy",
		FeedDegraded:  "degraded",
		FeedEmpty:     "empty",
		FeedState(42): "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("FeedState(%d).String() = %q, want %q", int32(s), got, want)
		}
	}
}

func TestOutcome_String(t *testing.T) {
	seen := map[string]Outcome{}
	for o := OutcomeIdle; o <= OutcomeWriteFailed; o++ {
		name := o.String()
		if name == "unknown" {
			t.Errorf("Outcome(%d) has no name", int(o))
		}
		if prev, ok := seen[name]; ok {
			t.Errorf("Outcome(%d) and Outcome(%d) share name %q", int(prev), int(o), name)
		}
		seen[name] = o
	}
	if Outcome(99).String() != "unknown" {
		t.Error("expected unknown for out of range outcome")
	}
}
