package serialize

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"time"

	"github.com/chatwire/realtime/core/logger"
)

// maxDepth bounds recursion so cyclic or pathologically nested payloads
// degrade to the string fallback instead of overflowing the stack.
const maxDepth = 32

// Mapper is implemented by model-like payloads that can dump themselves to a
// plain mapping. The resulting map is converted value-wise.
type Mapper interface {
	AsMap() map[string]any
}

// Serializer converts payload values into JSON-safe trees. The zero value is
// not usable; construct with New.
type Serializer struct {
	logger *slog.Logger
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithLogger sets the logger that records string-fallback conversions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Serializer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Serializer. Without options fallbacks are not logged.
func New(opts ...Option) *Serializer {
	s := &Serializer{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSerializer = New()

// JSONSafe converts v using the package default serializer. Fallbacks are
// silent; use a Serializer with WithLogger to observe them.
func JSONSafe(v any) any {
	return defaultSerializer.JSONSafe(v)
}

// JSONSafe converts v into a value that encoding/json can always marshal.
// It never panics; a panic anywhere in the conversion chain degrades to the
// string fallback.
func (s *Serializer) JSONSafe(v any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("payload conversion panicked, falling back to string",
				slog.String("go_type", fmt.Sprintf("%T", v)),
				slog.Any("panic", r))
			out = fmt.Sprintf("%v", v)
		}
	}()
	return s.convert(v, 0)
}

func (s *Serializer) convert(v any, depth int) any {
	if v == nil {
		return nil
	}
	if depth > maxDepth {
		return s.fallback(v, "max depth exceeded")
	}

	switch tv := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		json.Number:
		return tv
	case time.Time:
		return tv.Format(time.RFC3339Nano)
	case *time.Time:
		if tv == nil {
			return nil
		}
		return tv.Format(time.RFC3339Nano)
	case time.Duration:
		return tv.Milliseconds()
	case json.RawMessage:
		return tv
	case []byte:
		return string(tv)
	}

	// Self-describing payloads convert through their own capability before
	// any reflection-based reduction.
	if m, ok := v.(json.Marshaler); ok {
		if converted, ok := s.viaMarshaler(m); ok {
			return converted
		}
	}
	if m, ok := v.(Mapper); ok {
		return s.convertStringMap(m.AsMap(), depth+1)
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		// Named string types (enum-style constants) reduce to their value.
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return s.convert(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = s.convert(rv.Index(i).Interface(), depth+1)
		}
		return out
	case reflect.Map:
		return s.convertMap(rv, depth)
	default:
		return s.fallback(v, "no conversion capability")
	}
}

// convertMap handles both set-style maps (struct{} values become a sequence
// of keys) and ordinary mappings (values converted, keys stringified).
func (s *Serializer) convertMap(rv reflect.Value, depth int) any {
	if rv.Type().Elem() == reflect.TypeOf(struct{}{}) {
		out := make([]any, 0, rv.Len())
		for _, key := range rv.MapKeys() {
			out = append(out, s.convert(key.Interface(), depth+1))
		}
		return out
	}

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := s.stringifyKey(iter.Key().Interface(), depth+1)
		out[key] = s.convert(iter.Value().Interface(), depth+1)
	}
	return out
}

func (s *Serializer) convertStringMap(m map[string]any, depth int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = s.convert(v, depth+1)
	}
	return out
}

// stringifyKey reduces a map key to a string. Enum-typed keys reduce to the
// string form of their underlying scalar, not their symbolic name.
func (s *Serializer) stringifyKey(key any, depth int) string {
	converted := s.convert(key, depth)
	if str, ok := converted.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", converted)
}

func (s *Serializer) viaMarshaler(m json.Marshaler) (any, bool) {
	data, err := m.MarshalJSON()
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

// fallback is the observable last resort for unanticipated payload shapes.
func (s *Serializer) fallback(v any, reason string) string {
	s.logger.Warn("payload fell back to string representation",
		slog.String("go_type", fmt.Sprintf("%T", v)),
		logger.Reason(reason))
	return fmt.Sprintf("%v", v)
}
