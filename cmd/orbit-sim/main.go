// Command orbit-sim runs the N-body simulation in the terminal
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-orbit/config"
	"github.com/lixenwraith/vi-orbit/constant"
	"github.com/lixenwraith/vi-orbit/control"
	"github.com/lixenwraith/vi-orbit/core"
	"github.com/lixenwraith/vi-orbit/engine"
	"github.com/lixenwraith/vi-orbit/event"
	"github.com/lixenwraith/vi-orbit/physics"
	"github.com/lixenwraith/vi-orbit/service"
	"github.com/lixenwraith/vi-orbit/status"
)

var (
	configFlag = flag.String("config", "", "INI configuration file")
	debugFlag  = flag.Bool("debug", false, "Write logs to the log directory")
	loadFlag   = flag.String("load", "", "Save file to start from instead of the built-in scenario")
	speedFlag  = flag.Float64("speed", -1, "Initial speed in simulated seconds per real second")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	if *debugFlag {
		cfg.Log.Debug = true
	}
	if *speedFlag >= 0 {
		cfg.Simulation.Speed = *speedFlag
	}

	if logFile := setupLogging(cfg.Log.Debug, cfg.Log.Dir); logFile != nil {
		defer logFile.Close()
	}

	reg := status.NewRegistry()
	sim := engine.New(cfg.Engine(reg))

	if *loadFlag != "" {
		if err := sim.Load(*loadFlag); err != nil {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", *loadFlag, err)
			os.Exit(1)
		}
	} else if err := loadScenario(sim, solarSystem); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	runner := engine.NewRunner(sim, constant.DefaultFrameInterval, nil)
	hub, err := buildHub(cfg, sim, runner, reg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}
	core.SetCrashCleanup(screen.Fini)
	defer screen.Fini()

	if err := hub.StartAll(); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer hub.StopAll()

	run(screen, sim, runner)
	log.Printf("[MAIN] exit at %s", sim.Date())
}

// buildHub registers the frame runner and the optional network endpoints
func buildHub(cfg *config.Config, sim *engine.Simulation, runner *engine.Runner, reg *status.Registry) (*service.Hub, error) {
	hub := service.NewHub()
	if err := hub.Register(runner); err != nil {
		return nil, err
	}
	if cfg.Metrics.Listen != "" {
		if err := hub.Register(status.NewServer(cfg.Metrics.Listen, reg)); err != nil {
			return nil, err
		}
	}
	if cfg.Control.Listen != "" {
		srv := control.NewServer(cfg.Control.Listen, sim, control.Options{
			Rate:   cfg.Control.Rate,
			Burst:  cfg.Control.Burst,
			Status: reg,
		})
		if err := hub.Register(srv); err != nil {
			return nil, err
		}
	}
	return hub, nil
}

// run owns the terminal until the user quits
func run(screen tcell.Screen, sim *engine.Simulation, runner *engine.Runner) {
	events := make(chan tcell.Event, 64)
	core.Go(func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	})

	// Save and load outcomes arrive asynchronously once the simulation drains them
	results := make(chan string, 4)
	var message string
	var messageAt time.Time
	var last engine.Plan

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !handleKey(ev, sim, runner, results) {
					return
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case msg := <-results:
			message, messageAt = msg, time.Now()

		case last = <-runner.Frames():
			if message != "" && time.Since(messageAt) > 5*time.Second {
				message = ""
			}
			snapshotView(sim, last, runner.IsPaused(), message).draw(screen)
		}
	}
}

// handleKey maps keys onto commands; false quits
func handleKey(ev *tcell.EventKey, sim *engine.Simulation, runner *engine.Runner, results chan<- string) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case 'q':
		return false
	case '+', '=':
		sim.Push(event.Command{Type: event.SpeedUp})
	case '-', '_':
		sim.Push(event.Command{Type: event.SpeedDown})
	case '0':
		sim.Push(event.Command{Type: event.SetSpeed, Speed: 0})
	case 'p':
		runner.TogglePause()
	case 'k':
		next := physics.Kilometers
		if sim.Units() == physics.Kilometers {
			next = physics.Meters
		}
		sim.Push(event.Command{Type: event.SetUnits, Units: next.String()})
	case 's':
		pushWithResult(sim, event.Command{Type: event.Save}, "saved "+sim.SavePath(""), results)
	case 'l':
		pushWithResult(sim, event.Command{Type: event.Load}, "loaded "+sim.SavePath(""), results)
	}
	return true
}

// pushWithResult reports the command outcome on results without blocking the UI
func pushWithResult(sim *engine.Simulation, cmd event.Command, success string, results chan<- string) {
	reply := make(chan error, 1)
	cmd.Reply = reply
	sim.Push(cmd)

	core.Go(func() {
		msg := success
		select {
		case err := <-reply:
			if err != nil {
				msg = fmt.Sprintf("%s failed: %v", cmd.Type, err)
			}
		case <-time.After(constant.ControlReplyTimeout):
			msg = fmt.Sprintf("%s: no reply", cmd.Type)
		}
		select {
		case results <- msg:
		default:
		}
	})
}
