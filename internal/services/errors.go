package services

import (
	"context"
	"errors"

	"github.com/ecoboard/backend/internal/events"
	"go.uber.org/zap"
)

var (
	ErrDuplicateVote    = errors.New("user has already voted on this proposal")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrUpstream wraps every failure of an external provider call.
	ErrUpstream = errors.New("upstream provider failure")
	// ErrUpstreamDisabled is returned when a provider has no credentials.
	ErrUpstreamDisabled = errors.New("upstream not configured")
)

// publish is best-effort: a failed publish is logged and never fails the
// operation that produced the event.
func publish(ctx context.Context, p events.Publisher, log *zap.Logger, event events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, events.StreamBoard, event); err != nil {
		log.Warn("failed to publish event", zap.String("type", event.Type), zap.Error(err))
	}
}
