package integration

import (
	"testing"

	"github.com/zoobzio/levelsync"
	"github.com/zoobzio/levelsync/pkg/memory"
	lstesting "github.com/zoobzio/levelsync/testing"
)

// newSession wires a session over two in-memory sources with fast timings.
func newSession(t *testing.T, cfg levelsync.Config) (*levelsync.Session, *memory.Source, *memory.Source) {
	t.Helper()
	system := memory.NewVolume("system", 50)
	mixer := memory.NewGain("voicemeeter", levelsync.NewMapper(cfg.Settings.CurvePower).ToGain(50))
	s := levelsync.NewSession(cfg, lstesting.MemoryFactory(system, mixer), levelsync.Runtime{}).
		Uptime(nil)
	return s, system, mixer
}
