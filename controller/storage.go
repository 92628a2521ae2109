package controller

import (
	"errors"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

var ErrDuplicate = errors.New("duplicate event")

// storage is the dedup table plus the queue of events admitted while the
// controller is not active. It is owned by a single Controller.
type storage struct {
	events map[types.MessageID]types.Event
	queue  []types.Event
}

func newStorage() *storage {
	return &storage{
		events: make(map[types.MessageID]types.Event),
	}
}

// putEvent records ev under its message id. An identical value is a
// re-delivery; a different value for a known id replaces the stored one.
func (s *storage) putEvent(ev types.Event) error {
	if stored, ok := s.events[ev.MessageID()]; ok && stored == ev {
		return ErrDuplicate
	}
	s.events[ev.MessageID()] = ev
	return nil
}

func (s *storage) enqueue(ev types.Event) {
	s.queue = append(s.queue, ev)
}

// drain returns the queued events in admission order and empties the queue.
func (s *storage) drain() []types.Event {
	queued := s.queue
	s.queue = nil
	return queued
}
