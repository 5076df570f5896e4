package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is a stage of the order lifecycle.
type Status string

const (
	StatusPlaced    Status = "Placed"
	StatusAccepted  Status = "Accepted"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

var stages = []Status{StatusPlaced, StatusAccepted, StatusShipped, StatusDelivered}

// statusAliases maps lower-cased labels, including the Spanish labels written
// by earlier versions of the admin panel, to canonical statuses.
var statusAliases = map[string]Status{
	"":            StatusPlaced,
	"placed":      StatusPlaced,
	"pending":     StatusPlaced,
	"in-progress": StatusPlaced,
	"in progress": StatusPlaced,
	"pendiente":   StatusPlaced,
	"en progreso": StatusPlaced,
	"accepted":    StatusAccepted,
	"aceptado":    StatusAccepted,
	"shipped":     StatusShipped,
	"enviado":     StatusShipped,
	"delivered":   StatusDelivered,
	"entregado":   StatusDelivered,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
	"cancelado":   StatusCancelled,
}

// Stages returns the ordered delivery stages, terminal last.
func Stages() []Status {
	return append([]Status(nil), stages...)
}

// Normalize maps a stored or submitted label to its canonical status.
func Normalize(raw string) (Status, error) {
	s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

func (s Status) index() int {
	for i, st := range stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// NextAllowedStates lists the statuses reachable from s: any later stage, or
// Cancelled, unless s is terminal.
func NextAllowedStates(s Status) []Status {
	if s.Terminal() {
		return nil
	}
	idx := s.index()
	if idx < 0 {
		return nil
	}
	next := make([]Status, 0, len(stages)-idx)
	next = append(next, stages[idx+1:]...)
	return append(next, StatusCancelled)
}

// Transition validates moving from one status to another.
func Transition(from, to Status) error {
	for _, s := range NextAllowedStates(from) {
		if s == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// UnmarshalJSON normalises legacy labels on read.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("domain: decode status: %w", err)
	}
	st, err := Normalize(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

type StageState string

const (
	StageCompleted StageState = "completed"
	StageActive    StageState = "active"
	StageFuture    StageState = "future"
)

type TrackerStage struct {
	Status Status     `json:"status"`
	State  StageState `json:"state"`
}

// Tracker is the progress-bar projection of a status.
type Tracker struct {
	Stages    []TrackerStage `json:"stages"`
	Cancelled bool           `json:"cancelled"`
}

// TrackerFor derives each stage's display state from the index of s.
func TrackerFor(s Status) Tracker {
	current := s.index()
	t := Tracker{
		Stages:    make([]TrackerStage, len(stages)),
		Cancelled: s == StatusCancelled,
	}
	for i, st := range stages {
		state := StageFuture
		switch {
		case current < 0:
		case i < current:
			state = StageCompleted
		case i == current:
			state = StageActive
		}
		t.Stages[i] = TrackerStage{Status: st, State: state}
	}
	return t
}
