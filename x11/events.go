package x11

import (
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xfixes"
)

// The change streams are pull driven: the library owns no goroutine, so
// whichever consumer asks first performs the blocking read on the connection
// and queues events belonging to the other stream. Concurrent consumers
// coordinate through the condition variable.

type eventClass int

const (
	classOutput    eventClass = iota // RandR configuration notifies
	classSelection                   // XFixes selection-ownership notifies
	classCount
)

type demux struct {
	wait func() (xgb.Event, xgb.Error)

	mu      sync.Mutex
	cond    *sync.Cond
	pumping bool
	queues  [classCount][]xgb.Event
	err     error

	// onProtoError sees X errors pulled off the wire that belong to no
	// stream, typically failed unchecked requests.
	onProtoError func(xgb.Error)
}

func newDemux(wait func() (xgb.Event, xgb.Error)) *demux {
	d := &demux{wait: wait}
	d.cond = sync.NewCond(&d.mu)
	return d
}

func classify(ev xgb.Event) (eventClass, bool) {
	switch ev.(type) {
	case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
		return classOutput, true
	case xfixes.SelectionNotifyEvent:
		return classSelection, true
	}
	return 0, false
}

// next blocks until an event of one of the wanted classes, or a terminal
// error, is available. Events of other classes observed while pumping are
// queued for their own consumers; unclassified events are dropped.
func (d *demux) next(classes ...eventClass) (xgb.Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		for _, c := range classes {
			if q := d.queues[c]; len(q) > 0 {
				ev := q[0]
				d.queues[c] = q[1:]
				return ev, nil
			}
		}
		if d.err != nil {
			return nil, d.err
		}
		if d.pumping {
			d.cond.Wait()
			continue
		}

		d.pumping = true
		d.mu.Unlock()
		ev, xerr := d.wait()
		d.mu.Lock()
		d.pumping = false

		switch {
		case ev == nil && xerr == nil:
			// Connection torn down underneath us.
			d.err = ErrSessionClosed
		case xerr != nil:
			if d.onProtoError != nil {
				d.onProtoError(xerr)
			}
		default:
			if c, ok := classify(ev); ok {
				d.queues[c] = append(d.queues[c], ev)
			}
		}
		d.cond.Broadcast()
	}
}

// NextOutputEvent blocks until the server reports an output configuration
// change. Consumed by the topology watcher.
func (s *Session) NextOutputEvent() (xgb.Event, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	return s.events.next(classOutput)
}

// NextSelectionEvent blocks until a selection-ownership notify arrives.
// Consumed by the compositor watcher.
func (s *Session) NextSelectionEvent() (xgb.Event, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	return s.events.next(classSelection)
}

// NextChangeEvent blocks until any subscribed change event arrives,
// whatever its class. Used by the merged facade stream.
func (s *Session) NextChangeEvent() (xgb.Event, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	return s.events.next(classOutput, classSelection)
}

// HandleProtocolErrors installs a hook for X errors that belong to no
// stream. The facade points this at its debug logger.
func (s *Session) HandleProtocolErrors(fn func(xgb.Error)) {
	s.events.mu.Lock()
	s.events.onProtoError = fn
	s.events.mu.Unlock()
}
