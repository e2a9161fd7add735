// Package store defines the remote document store contract used by the
// client core, together with an in-memory implementation and helpers for
// optimistic read-modify-write cycles.
//
// # Model
//
// Documents are addressed by slash-separated paths ("users/u1",
// "chats/c1/messages/m1"). Each document holds a JSON-like field map and a
// version that increases on every write. Single-document writes are atomic;
// there are no multi-document transactions. CompareAndSet is the only
// conditional primitive and is what Modify builds on.
//
// # Field values
//
// Field maps are normalised to JSON types before they are stored: numbers
// become float64, slices become []any and nested objects map[string]any. The
// Float/Int/String/... helpers read them back without callers caring about
// the concrete numeric type.
package store
