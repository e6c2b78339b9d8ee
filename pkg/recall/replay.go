package recall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// CallRecord is one completed call read back from the history lists.
type CallRecord struct {
	// Input is the raw entry from the inputs list
	Input string

	// Args is Input decoded with DecodeArgs; nil if it could not be decoded
	Args []any

	// Output is the raw entry from the outputs list
	Output string
}

// History is the recorded state of an instrumented operation.
type History struct {
	Identity string
	Count    int64
	Calls    []CallRecord
}

// ReadHistory loads the call counter and the aligned input/output pairs for m.
// An absent counter reads as 0. When the lists have different lengths only
// the aligned prefix is returned.
func ReadHistory(ctx context.Context, m *Method) (*History, error) {
	if m == nil || m.client == nil {
		return nil, ErrNilClient
	}
	h := &History{Identity: m.name}

	countKey := CountKey(m.name)
	raw, err := m.client.Get(ctx, countKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, storeError("GET", countKey, err)
	default:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &FormatError{Key: countKey, Decoder: "int", Value: []byte(raw), Cause: err}
		}
		h.Count = n
	}

	inputsKey, outputsKey := InputsKey(m.name), OutputsKey(m.name)
	inputs, err := m.client.LRange(ctx, inputsKey, 0, -1).Result()
	if err != nil {
		return nil, storeError("LRANGE", inputsKey, err)
	}
	outputs, err := m.client.LRange(ctx, outputsKey, 0, -1).Result()
	if err != nil {
		return nil, storeError("LRANGE", outputsKey, err)
	}

	n := min(len(inputs), len(outputs))
	h.Calls = make([]CallRecord, n)
	for i := 0; i < n; i++ {
		rec := CallRecord{Input: inputs[i], Output: outputs[i]}
		if args, err := DecodeArgs(inputs[i]); err == nil {
			rec.Args = args
		}
		h.Calls[i] = rec
	}
	return h, nil
}

// Replay writes the call count and history of m to w:
//
//	store was called 2 times:
//	store(*('foo',)) -> 6a1c...
//	store(*('bar',)) -> 0f3e...
//
// A nil method or a method without a store handle is a no-op.
func Replay(ctx context.Context, w io.Writer, m *Method) error {
	if m == nil || m.client == nil {
		return nil
	}
	h, err := ReadHistory(ctx, m)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s was called %d times:\n", h.Identity, h.Count)
	for _, call := range h.Calls {
		input := call.Input
		if call.Args != nil {
			input = FormatArgs(call.Args)
		}
		fmt.Fprintf(&b, "%s(*%s) -> %s\n", h.Identity, input, call.Output)
	}
	_, err = io.WriteString(w, b.String())
	return err
}
