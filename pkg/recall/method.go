package recall

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Operation is any callable that can be instrumented. The context plays the
// role of the implicit receiver and is never recorded; only args are.
type Operation func(ctx context.Context, args ...any) (any, error)

// Method binds an Operation to an identity and the store handle its
// instrumentation writes to. Wrappers return a new Method with the same
// identity and client, so they can be stacked in any order.
type Method struct {
	name   string
	client redis.Cmdable
	op     Operation
}

// NewMethod creates an uninstrumented Method.
func NewMethod(name string, client redis.Cmdable, op Operation) (*Method, error) {
	if name == "" {
		return nil, ErrEmptyIdentity
	}
	if op == nil {
		return nil, fmt.Errorf("method %s: operation is nil", name)
	}
	return &Method{name: name, client: client, op: op}, nil
}

// Name returns the operation identity.
func (m *Method) Name() string { return m.name }

// Client returns the store handle, which may be nil.
func (m *Method) Client() redis.Cmdable { return m.client }

// Call invokes the (possibly wrapped) operation.
func (m *Method) Call(ctx context.Context, args ...any) (any, error) {
	return m.op(ctx, args...)
}

func (m *Method) wrap(op Operation) *Method {
	return &Method{name: m.name, client: m.client, op: op}
}

// CountCalls increments the call counter for m's identity before every call.
// The increment is unconditional: a call that later fails is still counted.
// If the increment itself fails the operation is not invoked.
func CountCalls(m *Method, opts ...Option) *Method {
	s := newSettings(opts)
	next := m.op
	key := CountKey(m.name)
	return m.wrap(func(ctx context.Context, args ...any) (any, error) {
		start := time.Now()
		result, err := func() (any, error) {
			if m.client == nil {
				return nil, &ConnectivityError{Command: "INCR", Key: key, Cause: ErrNilClient}
			}
			if err := m.client.Incr(ctx, key).Err(); err != nil {
				return nil, storeError("INCR", key, err)
			}
			return next(ctx, args...)
		}()
		s.observer.OnCall(ctx, &CallEvent{
			Identity: m.name,
			Wrapper:  "count_calls",
			Duration: time.Since(start),
			Error:    err,
		})
		return result, err
	})
}

// CallHistory appends the encoded arguments of every call to the inputs list
// and, once the call returns successfully, its result to the outputs list.
// A failed call leaves an input without a matching output, so history only
// lines up for completed calls.
func CallHistory(m *Method, opts ...Option) *Method {
	s := newSettings(opts)
	next := m.op
	inputs, outputs := InputsKey(m.name), OutputsKey(m.name)
	return m.wrap(func(ctx context.Context, args ...any) (any, error) {
		start := time.Now()
		result, err := func() (any, error) {
			if m.client == nil {
				return nil, &ConnectivityError{Command: "RPUSH", Key: inputs, Cause: ErrNilClient}
			}
			encoded, err := EncodeArgs(args)
			if err != nil {
				return nil, err
			}
			if err := m.client.RPush(ctx, inputs, encoded).Err(); err != nil {
				return nil, storeError("RPUSH", inputs, err)
			}
			result, err := next(ctx, args...)
			if err != nil {
				return nil, err
			}
			if err := m.client.RPush(ctx, outputs, storeValue(result)).Err(); err != nil {
				return nil, storeError("RPUSH", outputs, err)
			}
			return result, nil
		}()
		s.observer.OnCall(ctx, &CallEvent{
			Identity: m.name,
			Wrapper:  "call_history",
			Duration: time.Since(start),
			Error:    err,
		})
		return result, err
	})
}

// storeValue converts a result to something the client can write.
// Scalars pass through; anything else is stored as its fmt.Sprint text.
func storeValue(v any) any {
	switch v.(type) {
	case string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, bool:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
