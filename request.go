package levelsync

// Request carries a decoded configuration through the reload pipeline.
type Request struct {
	// Previous is the configuration currently applied. On the initial load
	// it holds the defaults.
	Previous Config

	// Current is the newly decoded and sanitized configuration. Pipeline
	// stages may modify it before it is applied.
	Current Config

	// Initial is set for the first value a Reloader processes.
	Initial bool

	// Warnings lists the fields that were reset to their default.
	Warnings []error

	// Raw contains the bytes received from the watcher.
	Raw []byte
}

// Changed reports whether applying the request would alter anything. The
// initial request always counts as a change.
func (r *Request) Changed() bool {
	return r.Initial || r.Previous != r.Current
}
