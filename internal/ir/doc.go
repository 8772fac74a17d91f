// Package ir provides the value and record types shared by every qassist
// package: the scalar Value union, ordered Records, Tables, the read-only
// TableStore, and intent Rules.
//
// This package contains type definitions and their codecs only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is sealed: Null, String, Number, Bool and Date are the only kinds
//   - Missing record fields read as Null, never as a Go nil
//   - TableStore and Rule values are never mutated after construction
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for content hashes and golden snapshots
package ir
