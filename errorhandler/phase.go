package errorhandler

import (
	"context"
)

// ErrorPhase indicates where in the ingestion pipeline an error occurred
type ErrorPhase int

const (
	PhaseUnknown  ErrorPhase = iota // zero value - uninitialized phase
	PhaseDecode                     // payload is not parseable or has a wrong field type
	PhaseValidate                   // required, bounds or consistency rule failed
	PhaseResolve                    // referenced parent row does not exist
	PhaseWrite                      // sink transaction failed
	PhaseCommit                     // offset commit or quarantine failed
)

func (p ErrorPhase) String() string {
	switch p {
	case PhaseDecode:
		return "decode"
	case PhaseValidate:
		return "validate"
	case PhaseResolve:
		return "resolve"
	case PhaseWrite:
		return "write"
	case PhaseCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// IsRecordPhase reports whether errors in this phase concern a single record.
func (p ErrorPhase) IsRecordPhase() bool {
	return p == PhaseDecode || p == PhaseValidate || p == PhaseResolve
}

var _ Handler = (*PhaseRouter)(nil)

type PhaseRouter struct {
	handler Handler
	routes  map[ErrorPhase]Handler
}

// NewPhaseRouter creates a new PhaseRouter that sends every phase to handler
// unless a phase specific handler is registered with On.
// If the default handler is unset, defaults to SilentFail, which fails without logging at the error handler level.
func NewPhaseRouter(handler Handler) *PhaseRouter {
	if handler == nil {
		handler = SilentFail()
	}

	return &PhaseRouter{
		handler: handler,
		routes:  make(map[ErrorPhase]Handler),
	}
}

// On registers a handler for a phase. A nil handler removes the route.
func (r *PhaseRouter) On(phase ErrorPhase, h Handler) *PhaseRouter {
	if h == nil {
		delete(r.routes, phase)
		return r
	}
	r.routes[phase] = h
	return r
}

func (r *PhaseRouter) Handle(ctx context.Context, ec ErrorContext) Action {
	if h, ok := r.routes[ec.Phase]; ok {
		return h.Handle(ctx, ec)
	}

	return r.handler.Handle(ctx, ec)
}
