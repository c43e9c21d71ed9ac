package readiness

import (
	"regexp"
	"strings"
	"sync"
)

// EventKind identifies which output marker a Detector matched.
type EventKind int

const (
	// EventAPIAddress reports the daemon's announced API listen address.
	EventAPIAddress EventKind = iota
	// EventGatewayAddress reports the daemon's announced gateway listen address.
	EventGatewayAddress
	// EventReady reports that the daemon finished starting.
	EventReady
)

// Event is a discrete readiness observation extracted from process output.
type Event struct {
	Kind    EventKind
	Address string
}

var (
	apiPattern     = regexp.MustCompile(`API server listening on:?\s+(\S+)`)
	gatewayPattern = regexp.MustCompile(`Gateway(?: server| \(read-?only\))? listening on:?\s+(\S+)`)
	readyPattern   = regexp.MustCompile(`(?i)daemon is (?:running|ready)`)
)

const (
	maxBufferSize  = 64 << 10
	trimRetainSize = 16 << 10
)

// Detector incrementally scans accumulated daemon output for address
// announcements and the ready marker. Chunks arrive through Write and are
// handed to a dedicated scanning goroutine over a channel, so an announcement
// split across I/O chunks still matches: every append re-applies the rules
// against the full accumulated buffer, not per line.
//
// Address rules may re-match as more output arrives; the latest value wins and
// a fresh event is emitted whenever it changes. The ready rule fires once and
// stops all scanning, after which further writes are drained without work.
type Detector struct {
	chunks chan []byte
	events chan Event
	closed chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewDetector constructs a detector and starts its scanning goroutine.
func NewDetector() *Detector {
	d := &Detector{
		chunks: make(chan []byte, 64),
		events: make(chan Event, 8),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.scan()
	return d
}

// Events returns the channel readiness observations are delivered on.
func (d *Detector) Events() <-chan Event {
	return d.events
}

// Write feeds a chunk of process output to the scanner. It never fails; after
// Close the chunk is discarded. Write is safe for use as an exec stdout sink.
func (d *Detector) Write(p []byte) (int, error) {
	chunk := make([]byte, len(p))
	copy(chunk, p)
	select {
	case d.chunks <- chunk:
	case <-d.closed:
	}
	return len(p), nil
}

// Close detaches the detector. Pending and future writes are dropped and the
// scanning goroutine exits. Safe to call more than once.
func (d *Detector) Close() {
	d.once.Do(func() {
		close(d.closed)
	})
	<-d.done
}

func (d *Detector) scan() {
	defer close(d.done)

	var buf []byte
	var lastAPI, lastGateway string
	ready := false

	for {
		select {
		case <-d.closed:
			return
		case chunk := <-d.chunks:
			if ready {
				continue
			}
			buf = append(buf, chunk...)
			if len(buf) > maxBufferSize {
				retained := make([]byte, trimRetainSize)
				copy(retained, buf[len(buf)-trimRetainSize:])
				buf = retained
			}

			if addr := lastSubmatch(apiPattern, buf); addr != "" && addr != lastAPI {
				lastAPI = addr
				if !d.emit(Event{Kind: EventAPIAddress, Address: addr}) {
					return
				}
			}
			if addr := lastSubmatch(gatewayPattern, buf); addr != "" && addr != lastGateway {
				lastGateway = addr
				if !d.emit(Event{Kind: EventGatewayAddress, Address: addr}) {
					return
				}
			}
			if readyPattern.Match(buf) {
				ready = true
				buf = nil
				if !d.emit(Event{Kind: EventReady}) {
					return
				}
			}
		}
	}
}

func (d *Detector) emit(ev Event) bool {
	select {
	case d.events <- ev:
		return true
	case <-d.closed:
		return false
	}
}

func lastSubmatch(pattern *regexp.Regexp, buf []byte) string {
	matches := pattern.FindAllSubmatch(buf, -1)
	if len(matches) == 0 {
		return ""
	}
	return strings.TrimSpace(string(matches[len(matches)-1][1]))
}
