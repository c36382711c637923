// Package ca holds the leaf utilities of the cellular-automaton track
// finder: seeded sampling (Random), the strip frame transform
// (UvConverter) and the detector-independent hit representation
// (HitRecord, HitStore) produced during time-slice reading.
//
// Everything here is single-threaded. A Random must not be shared between
// goroutines; give each worker its own, independently seeded instance.
// UvConverter is immutable after construction and safe to share.
package ca
