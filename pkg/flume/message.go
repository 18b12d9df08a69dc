package flume

import (
	"github.com/millrace/flume/pkg/types"
)

// envelopeKind discriminates what a queued envelope carries.
type envelopeKind int

const (
	kindLog envelopeKind = iota
	kindFlush
	kindTerminate
)

// envelope is the owned, queue-resident form of one logging event or
// control signal.
//
// Construction deep-copies the record, so an envelope stays valid
// after the producer's buffers are reused or gone. The target
// reference keeps the destination logger reachable until dispatch
// completes, even if the application has dropped its last reference.
// An envelope moves by value: handed once into the queue and once out
// to a worker, never retained by the producer and never aliased by
// two goroutines. The fields are unexported so nothing outside this
// package can duplicate one.
type envelope struct {
	kind   envelopeKind
	target Target
	rec    types.Record
}

// newLogEnvelope captures rec into envelope-owned storage. The
// message bytes are copied into a fresh slice sized exactly to the
// content and the fields map is cloned, so the caller may reuse both
// as soon as this returns.
func newLogEnvelope(target Target, rec types.Record) envelope {
	if rec.Msg != nil {
		owned := make([]byte, len(rec.Msg))
		copy(owned, rec.Msg)
		rec.Msg = owned
	}
	if rec.Fields != nil {
		fields := make(map[string]interface{}, len(rec.Fields))
		for k, v := range rec.Fields {
			fields[k] = v
		}
		rec.Fields = fields
	}
	return envelope{kind: kindLog, target: target, rec: rec}
}

// newFlushEnvelope builds a flush signal for target.
func newFlushEnvelope(target Target) envelope {
	return envelope{kind: kindFlush, target: target}
}

// newTerminateEnvelope builds the per-worker shutdown signal. It has
// no target; a worker consumes exactly one and exits its loop.
func newTerminateEnvelope() envelope {
	return envelope{kind: kindTerminate}
}
