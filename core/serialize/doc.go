// Package serialize converts arbitrary payload values into JSON-safe trees.
//
// JSONSafe is a total function: it never panics and never returns a value
// that encoding/json cannot marshal. Conversion walks an ordered capability
// chain; values that match no capability fall back to their string
// representation, and that fallback is logged as a warning because it
// usually means a caller is sending a payload shape the platform has not
// seen before.
//
// Conversion rules, applied recursively:
//
//   - JSON primitives (string, bool, numbers, nil) pass through.
//   - time.Time and time.Duration reduce to RFC 3339 strings and
//     millisecond counts respectively.
//   - json.Marshaler values round-trip through their own marshaling.
//   - Values exposing AsMap() map[string]any convert via that mapping.
//   - Named scalar types (enum-style constants) reduce to their underlying
//     value, not their symbolic name.
//   - Slices and arrays convert element-wise; map[T]struct{} is treated as a
//     set and becomes a sequence of converted keys.
//   - Map keys that are not strings are stringified; enum-typed keys use the
//     string form of their underlying scalar.
//   - Everything else falls back to fmt.Sprintf("%v").
package serialize
