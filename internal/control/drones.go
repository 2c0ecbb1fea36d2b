// Package control tracks the survey drones operated from the control panel.
package control

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = errors.New("drone not found")

// Action is a command an operator can send.
type Action string

const (
	ActionStart       Action = "start"
	ActionStop        Action = "stop"
	ActionRecalibrate Action = "recalibrate"
)

// Status is the reported state of a drone.
type Status string

const (
	StatusActive      Status = "active"
	StatusIdle        Status = "idle"
	StatusCalibrating Status = "calibrating"
)

// Drone is the last known state of one drone.
type Drone struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Battery     int       `json:"battery"`
	Zone        string    `json:"zone"`
	LastCommand Action    `json:"lastCommand,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Registry is an in-memory set of drones.
type Registry struct {
	mu     sync.RWMutex
	drones map[string]Drone
	now    func() time.Time
}

func NewRegistry(drones ...Drone) *Registry {
	r := &Registry{drones: make(map[string]Drone), now: time.Now}
	for _, d := range drones {
		r.drones[d.ID] = d
	}
	return r
}

// DefaultFleet is the fleet shown before any drone reports in.
func DefaultFleet() []Drone {
	return []Drone{
		{ID: "1", Name: "Drone #1", Status: StatusActive, Battery: 85, Zone: "Zone A"},
		{ID: "2", Name: "Drone #2", Status: StatusIdle, Battery: 100, Zone: "Zone B"},
	}
}

// List returns all drones ordered by ID.
func (r *Registry) List() []Drone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Drone, 0, len(r.drones))
	for _, d := range r.drones {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dispatch applies an action to a drone and returns its new state.
func (r *Registry) Dispatch(id string, action Action, operator string) (Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drones[id]
	if !ok {
		return Drone{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	switch action {
	case ActionStart:
		d.Status = StatusActive
	case ActionStop:
		d.Status = StatusIdle
	case ActionRecalibrate:
		d.Status = StatusCalibrating
	default:
		return Drone{}, fmt.Errorf("unknown action %q", action)
	}
	d.LastCommand = action
	d.UpdatedAt = r.now().UTC()
	r.drones[id] = d

	log.Printf("INFO: control: %s sent %s to %s", operator, action, d.Name)
	return d, nil
}
