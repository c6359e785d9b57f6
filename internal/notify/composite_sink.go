package notify

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"

	"github.com/satohidetada/my-flea-app/internal/models"
)

// ErrNoSinks is returned by an empty CompositeSink.
var ErrNoSinks = errors.New("no sinks configured")

// CompositeSink delivers every notification to all of its sinks.
type CompositeSink struct {
	sinks []Sink
}

// NewCompositeSink creates a CompositeSink. Nil sinks are ignored.
func NewCompositeSink(sinks ...Sink) *CompositeSink {
	cs := &CompositeSink{}
	for _, s := range sinks {
		cs.AddSink(s)
	}
	return cs
}

// AddSink appends a sink.
func (cs *CompositeSink) AddSink(sink Sink) {
	if sink != nil {
		cs.sinks = append(cs.sinks, sink)
	}
}

// Len returns the number of sinks.
func (cs *CompositeSink) Len() int {
	return len(cs.sinks)
}

// Deliver tries every sink even when an earlier one fails and returns all
// failures combined.
func (cs *CompositeSink) Deliver(ctx context.Context, n *models.Notification) error {
	if len(cs.sinks) == 0 {
		return ErrNoSinks
	}
	var result *multierror.Error
	for _, sink := range cs.sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
