package recall

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ArgsVersion tags the argument encoding written to the inputs list.
const ArgsVersion = "v1"

const argsPrefix = ArgsVersion + ":"

var errUnknownArgsVersion = errors.New("unknown argument encoding version")

// bytesField tags a base64 byte string inside the encoded list.
const bytesField = "$bytes"

// EncodeArgs serializes positional arguments as "v1:" followed by a compact
// JSON array built from a google.protobuf.ListValue, e.g. v1:["foo",42].
//
// Numbers become doubles. Byte slices become {"$bytes":"<base64>"} so they
// replay as bytes rather than text. Values structpb cannot represent are
// stored as their fmt.Sprint text. Object keys are sorted, so equal arguments
// always produce identical text.
func EncodeArgs(args []any) (string, error) {
	values := make([]*structpb.Value, 0, len(args))
	for _, arg := range args {
		values = append(values, argValue(arg))
	}
	list := &structpb.ListValue{Values: values}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(list.AsSlice()); err != nil {
		return "", fmt.Errorf("failed to encode arguments: %w", err)
	}
	return argsPrefix + strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeArgs parses text written by EncodeArgs back into argument values.
// Tagged byte strings come back as []byte.
func DecodeArgs(text string) ([]any, error) {
	body, ok := strings.CutPrefix(text, argsPrefix)
	if !ok {
		return nil, &FormatError{Decoder: "args/" + ArgsVersion, Value: []byte(text), Cause: errUnknownArgsVersion}
	}
	var list structpb.ListValue
	if err := protojson.Unmarshal([]byte(body), &list); err != nil {
		return nil, &FormatError{Decoder: "args/" + ArgsVersion, Value: []byte(text), Cause: err}
	}
	args := list.AsSlice()
	for i, arg := range args {
		args[i] = untagBytes(arg)
	}
	return args, nil
}

func argValue(arg any) *structpb.Value {
	switch v := arg.(type) {
	case float64:
		// JSON has no non-finite numbers
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return structpb.NewStringValue(strconv.FormatFloat(v, 'g', -1, 64))
		}
	case float32:
		return argValue(float64(v))
	case []byte:
		return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			bytesField: structpb.NewStringValue(base64.StdEncoding.EncodeToString(v)),
		}})
	case []string:
		items := make([]*structpb.Value, len(v))
		for i, s := range v {
			items[i] = structpb.NewStringValue(s)
		}
		return structpb.NewListValue(&structpb.ListValue{Values: items})
	case []any:
		items := make([]*structpb.Value, len(v))
		for i, item := range v {
			items[i] = argValue(item)
		}
		return structpb.NewListValue(&structpb.ListValue{Values: items})
	case map[string]any:
		fields := make(map[string]*structpb.Value, len(v))
		for k, item := range v {
			fields[k] = argValue(item)
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields})
	case fmt.Stringer:
		return structpb.NewStringValue(v.String())
	}
	value, err := structpb.NewValue(arg)
	if err != nil {
		return structpb.NewStringValue(fmt.Sprint(arg))
	}
	return value
}

func untagBytes(v any) any {
	switch v := v.(type) {
	case []any:
		for i, item := range v {
			v[i] = untagBytes(item)
		}
	case map[string]any:
		if enc, ok := v[bytesField].(string); ok && len(v) == 1 {
			if b, err := base64.StdEncoding.DecodeString(enc); err == nil {
				return b
			}
		}
		for k, item := range v {
			v[k] = untagBytes(item)
		}
	}
	return v
}

// FormatArgs renders decoded arguments as a tuple literal, e.g. ('foo',) or (1, 'x').
func FormatArgs(args []any) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		writeRepr(&b, arg)
	}
	if len(args) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

func writeRepr(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		b.WriteString("None")
	case bool:
		if v {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case float64:
		b.WriteString(formatNumber(v))
	case string:
		writeQuoted(b, v)
	case []byte:
		writeBytes(b, v)
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, item)
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			writeQuoted(b, k)
			b.WriteString(": ")
			writeRepr(b, v[k])
		}
		b.WriteByte('}')
	default:
		fmt.Fprint(b, v)
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(b, `\x%02x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('\'')
}

func writeBytes(b *strings.Builder, p []byte) {
	b.WriteString("b'")
	for _, c := range p {
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(b, `\x%02x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('\'')
}
