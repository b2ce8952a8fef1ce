package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/muesli/termenv"

	"github.com/zoobzio/levelsync"
)

// console prints status transitions in colour. It replaces the tray icon.
type console struct {
	mu      sync.Mutex
	out     io.Writer
	profile termenv.Profile
}

func newConsole(out io.Writer) *console {
	return &console{out: out, profile: termenv.ColorProfile()}
}

func (c *console) colour(kind levelsync.StatusKind) string {
	switch kind {
	case levelsync.StatusHealthy:
		return "#22c55e"
	case levelsync.StatusUnhealthy:
		return "#ef4444"
	case levelsync.StatusStarted:
		return "#818cf8"
	default:
		return "#a1a1aa"
	}
}

// Present implements levelsync.Presenter.
func (c *console) Present(_ context.Context, ev levelsync.StatusEvent) {
	mark := termenv.String("●").Foreground(c.profile.Color(c.colour(ev.Kind)))
	line := fmt.Sprintf("%s %s %s", ev.At.Format("15:04:05"), mark, ev.Kind)
	if ev.Source != "" {
		line += " " + ev.Source
	}
	if ev.Detail != "" {
		line += ": " + ev.Detail
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// Println writes a plain line under the same lock as status output.
func (c *console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

func (c *console) banner() {
	p := c.profile
	s1 := termenv.String(" _                _                        ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("| | _____   _____| |___ _   _ _ __   ___   ").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String("| |/ _ \\ \\ / / _ \\ / __| | | | '_ \\ / __|  ").Foreground(p.Color("#c084fc"))
	s4 := termenv.String("| |  __/\\ V /  __/ \\__ \\ |_| | | | | (__   ").Foreground(p.Color("#e879f9"))
	s5 := termenv.String("|_|\\___| \\_/ \\___|_|___/\\__, |_| |_|\\___|  ").Foreground(p.Color("#f472b6"))
	s6 := termenv.String("                        |___/             ").Foreground(p.Color("#fb7185"))

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out)
	for _, s := range []termenv.Style{s1, s2, s3, s4, s5, s6} {
		fmt.Fprintln(c.out, s)
	}
	fmt.Fprintln(c.out)
}
