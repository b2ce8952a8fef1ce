/*
Package levelsync keeps two audio levels in step: the system master volume
(a 0..100 percentage) and one or more Voicemeeter bus gains (-60..+12 dB).
A change on either side is mirrored onto the other, without the two writes
chasing each other.

# Basic Usage

Build a Session from a configuration and a factory that creates the two
sources, then start it:

	cfg, warnings, err := levelsync.LoadConfig("levelsync.yaml")

	session := levelsync.NewSession(cfg, func(cfg levelsync.Config) (levelsync.Source, levelsync.Source, error) {
	    remote := voicemeeter.Open(cfg.Voicemeeter.DLLPath)
	    return endpoint.New(), voicemeeter.New(remote, cfg.Settings.Channels()), nil
	}, levelsync.Runtime{Logger: logger})

	if err := session.Start(ctx); err != nil { ... }
	defer session.Stop(context.Background())

Start returns immediately. Connecting happens in the background through the
Supervisor, which waits for the system to settle after a boot launch and
retries failed connects.

# Sync Rules

Every tick the Engine reads both sides and issues at most one write:

  - A volume change of at least volume_threshold is written to the mixer.
  - A gain change of at least gain_threshold is written back to the volume,
    unless it falls inside the settle timeout or is the echo of our own write.
  - Large gain changes glide toward the target in damped steps.

Levels are mapped along a power curve (Mapper). A read failure skips the tick;
a write failure leaves the state untouched so the next tick retries.

# Configuration Reload

A Reloader watches a configuration source and hands each valid change to a
callback, typically Session.Apply:

	reloader := levelsync.NewReloader(
	    file.New("levelsync.yaml"),
	    func(ctx context.Context, _, curr levelsync.Config) error {
	        return session.Apply(ctx, curr)
	    },
	    levelsync.WithTimeout(10*time.Second),
	)

Invalid fields are reset to their default and reported; a document that fails
to decode leaves the running configuration in place.

# Observability

Lifecycle, connection, propagation and reload events are emitted as capitan
signals (see signals.go and fields.go). A MetricsProvider receives the same
events as callbacks; pkg/prometheus implements it.

The package is built on top of:
  - pipz: For the connect timeout and the reload pipeline
  - clockz: For deterministic timing in tests
  - capitan: For event signals
*/
package levelsync
