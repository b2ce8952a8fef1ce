package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zoobzio/levelsync"
	"github.com/zoobzio/levelsync/pkg/memory"
)

const simulateHelp = `commands:
  vol N          set the system volume (0-100)
  gain G         set the bus gain in dB
  health on|off  make the mixer respond or not
  status         print both levels and the session state
  start | stop | reload
  help`

// controller is the part of *levelsync.Session the simulator drives.
type controller interface {
	Status() levelsync.Status
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Reload(ctx context.Context) error
}

// simulator stands in for the real endpoint and mixer.
type simulator struct {
	system *memory.Source
	mixer  *memory.Source
}

func newSimulator() *simulator {
	return &simulator{
		system: memory.NewVolume("system", 50),
		mixer:  memory.NewGain("voicemeeter", -10.82),
	}
}

func (s *simulator) sources(levelsync.Config) (levelsync.Source, levelsync.Source, error) {
	return s.system, s.mixer, nil
}

func (s *simulator) repl(ctx context.Context, in io.Reader, con *console, ctl controller) {
	con.Println(simulateHelp)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		out, err := s.exec(ctx, scanner.Text(), ctl)
		switch {
		case err != nil:
			con.Println("error:", err)
		case out != "":
			con.Println(out)
		}
	}
}

func (s *simulator) exec(ctx context.Context, line string, ctl controller) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	arg := func() (string, error) {
		if len(fields) < 2 {
			return "", fmt.Errorf("%s needs an argument", fields[0])
		}
		return fields[1], nil
	}

	switch fields[0] {
	case "vol":
		a, err := arg()
		if err != nil {
			return "", err
		}
		v, err := strconv.Atoi(a)
		if err != nil {
			return "", fmt.Errorf("invalid volume %q", a)
		}
		s.system.Set(levelsync.Percent(v))
		return "", nil
	case "gain":
		a, err := arg()
		if err != nil {
			return "", err
		}
		g, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return "", fmt.Errorf("invalid gain %q", a)
		}
		s.mixer.Set(levelsync.Decibels(g))
		return "", nil
	case "health":
		a, err := arg()
		if err != nil {
			return "", err
		}
		s.mixer.SetHealthy(a == "on")
		return "", nil
	case "status":
		st := ctl.Status()
		return fmt.Sprintf("system=%s mixer=%s running=%t healthy=%t direction=%s",
			s.system.Value(), s.mixer.Value(), st.Running, st.Healthy, st.Snapshot.State.Direction), nil
	case "start":
		return "", ctl.Start(ctx)
	case "stop":
		return "", ctl.Stop(ctx)
	case "reload":
		return "", ctl.Reload(ctx)
	case "help":
		return simulateHelp, nil
	default:
		return "", errors.New("unknown command, try help")
	}
}
