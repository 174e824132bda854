package errorhandler

import (
	"context"
)

type ActionType int

// Record phases may answer Continue or Quarantine; either way the record
// is consumed. Retry and Fail apply to the whole batch: Retry keeps the
// batch pending for the next cycle, Fail halts the topic without
// committing.
const (
	ActionTypeContinue ActionType = iota
	ActionTypeRetry
	ActionTypeFail
	ActionTypeQuarantine
)

func (a ActionType) String() string {
	switch a {
	case ActionTypeContinue:
		return "continue"
	case ActionTypeRetry:
		return "retry"
	case ActionTypeFail:
		return "fail"
	case ActionTypeQuarantine:
		return "quarantine"
	default:
		return "unknown"
	}
}

var (
	_ Action = ActionContinue{}
	_ Action = ActionRetry{}
	_ Action = ActionFail{}
	_ Action = ActionQuarantine{}
)

type Action interface {
	Type() ActionType
}

type (
	ActionContinue   struct{}
	ActionRetry      struct{}
	ActionFail       struct{}
	ActionQuarantine struct{}
)

func (ActionContinue) Type() ActionType   { return ActionTypeContinue }
func (ActionRetry) Type() ActionType      { return ActionTypeRetry }
func (ActionFail) Type() ActionType       { return ActionTypeFail }
func (ActionQuarantine) Type() ActionType { return ActionTypeQuarantine }

// Handler decides what happens after a failure in any phase.
type Handler interface {
	Handle(ctx context.Context, ec ErrorContext) Action
}

type HandlerFunc func(ctx context.Context, ec ErrorContext) Action

func (f HandlerFunc) Handle(ctx context.Context, ec ErrorContext) Action {
	return f(ctx, ec)
}
