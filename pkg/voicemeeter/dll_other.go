//go:build !windows

package voicemeeter

// Open returns a Remote whose calls fail with levelsync.ErrUnsupported.
func Open(string) Remote {
	return unsupported{}
}
