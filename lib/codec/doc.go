// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Warren's standard CBOR encoding configuration
// and state fingerprinting.
//
// Warren uses two serialization formats with a clear boundary:
//
//   - JSON for human-facing output: audit log records, CLI --json
//     output, and config files.
//   - CBOR for canonical artifacts: policy snapshot exports and the
//     byte stream that state fingerprints are computed over.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes, which is what
// makes [Fingerprint] meaningful: the fingerprint of a policy snapshot
// changes exactly when the policy changes, regardless of map iteration
// order or row history. Fingerprints are stamped on every audit record
// so a decision can be correlated with the policy that produced it,
// and exposed by "warren state fingerprint" for drift checks between
// instances.
//
// fxamacker/cbor v2 reads `json` struct tags as fallback when `cbor`
// tags are absent, so types that serve both the JSON audit surface and
// the CBOR export carry a single `json` tag controlling field naming
// for both formats. Never use both tags on the same field.
package codec
