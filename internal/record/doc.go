// Package record encodes the persisted last-dispatch record. The wire
// form is versioned so future fields can be added without breaking
// records written by older builds.
package record
