package control

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lixenwraith/vi-orbit/event"
)

var (
	// ErrBadRequest marks a message that cannot become a command
	ErrBadRequest = errors.New("control: bad request")
	// ErrRateLimited is reported when a connection exceeds its command budget
	ErrRateLimited = errors.New("control: rate limited")
	// ErrTimeout is reported when the simulation does not answer in time
	ErrTimeout = errors.New("control: no reply from simulation")
)

// Request is one client message
//
//	{"command":"set_speed","speed":1000}
//	{"command":"set_units","units":"km"}
//	{"command":"save","path":"orbits.sav"}
type Request struct {
	Command string   `json:"command"`
	Speed   *float64 `json:"speed,omitempty"`
	Units   string   `json:"units,omitempty"`
	Path    string   `json:"path,omitempty"`
}

// Reply answers every request in order
type Reply struct {
	OK    bool    `json:"ok"`
	Error string  `json:"error,omitempty"`
	Speed float64 `json:"speed"`
}

// ToCommand validates the request and builds the engine command
func (r Request) ToCommand() (event.Command, error) {
	typ, ok := event.ParseType(r.Command)
	if !ok {
		return event.Command{}, fmt.Errorf("%w: unknown command %q", ErrBadRequest, r.Command)
	}

	cmd := event.Command{Type: typ}
	switch typ {
	case event.SetSpeed:
		if r.Speed == nil {
			return event.Command{}, fmt.Errorf("%w: set_speed needs a speed", ErrBadRequest)
		}
		cmd.Speed = *r.Speed
	case event.SetUnits:
		if r.Units == "" {
			return event.Command{}, fmt.Errorf("%w: set_units needs units", ErrBadRequest)
		}
		cmd.Units = r.Units
	case event.Save, event.Load:
		if err := checkFileName(r.Path); err != nil {
			return event.Command{}, err
		}
		cmd.Path = r.Path
	}
	return cmd, nil
}

// checkFileName keeps remote save and load inside the save directory
// An empty name selects the configured save file
func checkFileName(name string) error {
	if name == "" {
		return nil
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || name == ".." || name == "." {
		return fmt.Errorf("%w: path %q must be a plain file name", ErrBadRequest, name)
	}
	return nil
}
