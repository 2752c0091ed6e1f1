// Package engine serializes batch arrivals and operator commands on a
// single goroutine and pushes each operator's recomputed view to them.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"caramelo/internal/filter"
	"caramelo/internal/metrics"
	"caramelo/internal/models"
	"caramelo/internal/source"
	"caramelo/internal/view"
)

const (
	eventQueueSize = 256
	controlTimeout = 10 * time.Second
)

// Client represents a connected operator that receives views.
type Client interface {
	SendMessage(msg models.WSMessage) error
}

// Stats is a point-in-time summary for health reporting.
type Stats struct {
	Packets   int  `json:"packets"`
	Clients   int  `json:"clients"`
	Capturing bool `json:"capturing"`
}

type eventKind int

const (
	evRegister eventKind = iota
	evUnregister
	evCommand
	evCaptureResult
)

type event struct {
	kind   eventKind
	client Client
	msg    models.WSMessage
	status models.CaptureStatus
	err    error
}

type pendingBatch struct {
	source  string
	packets []models.Packet
}

// Engine owns the working batch and every operator's view state. All of it
// is touched only by the Run goroutine.
type Engine struct {
	events   chan event
	wake     chan struct{}
	done     chan struct{}
	compiler *filter.Compiler
	control  source.CaptureController

	pendingMu sync.Mutex
	pending   *pendingBatch

	batch     []models.Packet
	sessions  map[Client]*view.State
	capturing bool

	packets       atomic.Int64
	clients       atomic.Int64
	capturingFlag atomic.Bool
}

// New creates an Engine. control may be nil when the source cannot switch
// capture on and off.
func New(compiler *filter.Compiler, control source.CaptureController) *Engine {
	if compiler == nil {
		compiler = filter.NewCompiler(0)
	}
	return &Engine{
		events:   make(chan event, eventQueueSize),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		compiler: compiler,
		control:  control,
		sessions: make(map[Client]*view.State),
	}
}

// Run processes events until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
			e.applyPending()
		case ev := <-e.events:
			e.handle(ctx, ev)
		}
	}
}

// Ingest replaces the working batch. If an earlier batch has not been
// applied yet it is dropped; only the latest one matters.
func (e *Engine) Ingest(src string, packets []models.Packet) {
	e.pendingMu.Lock()
	e.pending = &pendingBatch{source: src, packets: packets}
	e.pendingMu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// RegisterClient opens a session with a fresh query state.
func (e *Engine) RegisterClient(c Client) {
	e.post(event{kind: evRegister, client: c})
}

// UnregisterClient drops the client's session.
func (e *Engine) UnregisterClient(c Client) {
	e.post(event{kind: evUnregister, client: c})
}

// Submit queues an operator command from c.
func (e *Engine) Submit(c Client, msg models.WSMessage) {
	e.post(event{kind: evCommand, client: c, msg: msg})
}

// Stats returns counters that are safe to read from any goroutine.
func (e *Engine) Stats() Stats {
	return Stats{
		Packets:   int(e.packets.Load()),
		Clients:   int(e.clients.Load()),
		Capturing: e.capturingFlag.Load(),
	}
}

func (e *Engine) post(ev event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

func (e *Engine) applyPending() {
	e.pendingMu.Lock()
	b := e.pending
	e.pending = nil
	e.pendingMu.Unlock()
	if b == nil {
		return
	}

	e.batch = b.packets
	e.packets.Store(int64(len(b.packets)))
	metrics.BatchesIngestedTotal.WithLabelValues(b.source).Inc()
	metrics.BatchPackets.Set(float64(len(b.packets)))
	log.WithFields(log.Fields{
		"source":  b.source,
		"packets": len(b.packets),
	}).Debug("Batch ingested")

	for c, st := range e.sessions {
		e.sendView(c, st)
	}
}

func (e *Engine) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evRegister:
		st := view.NewState()
		e.sessions[ev.client] = st
		e.clients.Store(int64(len(e.sessions)))
		metrics.ConnectedClients.Set(float64(len(e.sessions)))
		e.sendView(ev.client, st)
		e.sendCaptureStatus(ev.client, models.CaptureStatus{Capturing: e.capturing})

	case evUnregister:
		delete(e.sessions, ev.client)
		e.clients.Store(int64(len(e.sessions)))
		metrics.ConnectedClients.Set(float64(len(e.sessions)))

	case evCommand:
		st, ok := e.sessions[ev.client]
		if !ok {
			return
		}
		if err := e.handleCommand(ctx, ev.client, st, ev.msg); err != nil {
			sendError(ev.client, err.Error())
			return
		}

	case evCaptureResult:
		if ev.err != nil {
			log.WithError(ev.err).Warn("Capture control request failed")
			e.broadcast(models.WSMessage{Type: models.MsgError, Payload: errorPayload("capture control failed: " + ev.err.Error())})
			return
		}
		e.capturing = ev.status.Capturing
		e.capturingFlag.Store(e.capturing)
		for c := range e.sessions {
			e.sendCaptureStatus(c, ev.status)
		}
	}
}

func (e *Engine) handleCommand(ctx context.Context, c Client, st *view.State, msg models.WSMessage) error {
	switch msg.Type {
	case models.CmdToggleProtocol:
		var req models.ToggleProtocolRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil || req.Protocol == "" {
			return fmt.Errorf("invalid %s payload", msg.Type)
		}
		if req.Enabled != nil {
			st.Filter.Protocols.Set(req.Protocol, *req.Enabled)
		} else {
			st.Filter.Protocols.Toggle(req.Protocol)
		}

	case models.CmdClearProtocols:
		st.Filter.Protocols.Clear()

	case models.CmdSetPredicate:
		var req models.SetPredicateRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fmt.Errorf("invalid %s payload", msg.Type)
		}
		st.Filter.Predicate = e.compiler.Compile(req.Expression)

	case models.CmdSort:
		var req models.SortRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fmt.Errorf("invalid %s payload", msg.Type)
		}
		if err := st.Sort.Select(req.Column); err != nil {
			return err
		}

	case models.CmdClearSort:
		st.Sort.Clear()

	case models.CmdSelect:
		var req models.SelectRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fmt.Errorf("invalid %s payload", msg.Type)
		}
		st.Selection.Select(req.Number)

	case models.CmdResetSelection:
		st.Selection.Reset()

	case models.CmdStartCapture, models.CmdStopCapture:
		if e.control == nil {
			return fmt.Errorf("capture control is not available for this source")
		}
		e.requestCapture(ctx, msg.Type == models.CmdStartCapture)
		return nil

	default:
		return fmt.Errorf("unknown command: %s", msg.Type)
	}

	e.sendView(c, st)
	return nil
}

// requestCapture talks to the backend off the event loop and posts the
// outcome back as an event.
func (e *Engine) requestCapture(ctx context.Context, start bool) {
	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, controlTimeout)
		defer cancel()

		var (
			status string
			err    error
		)
		if start {
			status, err = e.control.StartCapture(reqCtx)
		} else {
			status, err = e.control.StopCapture(reqCtx)
		}
		log.WithFields(log.Fields{
			"start":  start,
			"status": status,
		}).Info("Capture control request completed")
		e.post(event{
			kind:   evCaptureResult,
			status: models.CaptureStatus{Capturing: start, Status: status},
			err:    err,
		})
	}()
}

func (e *Engine) sendView(c Client, st *view.State) {
	payload, err := json.Marshal(st.Compute(e.batch))
	if err != nil {
		log.WithError(err).Error("Failed to encode view")
		return
	}
	c.SendMessage(models.WSMessage{Type: models.MsgView, Payload: payload})
}

func (e *Engine) sendCaptureStatus(c Client, status models.CaptureStatus) {
	payload, _ := json.Marshal(status)
	c.SendMessage(models.WSMessage{Type: models.MsgCaptureStatus, Payload: payload})
}

func (e *Engine) broadcast(msg models.WSMessage) {
	for c := range e.sessions {
		c.SendMessage(msg)
	}
}

func sendError(c Client, message string) {
	c.SendMessage(models.WSMessage{Type: models.MsgError, Payload: errorPayload(message)})
}

func errorPayload(message string) json.RawMessage {
	payload, _ := json.Marshal(models.ErrorPayload{Message: message})
	return payload
}
