package crypto

import "github.com/awnumar/memguard"

// Zero overwrites b with zeros so key material doesn't linger in memory
// after an operation finishes. b must not be used after this call. Uses
// memguard rather than a hand-rolled loop a compiler could optimize away.
func Zero(b []byte) {
	memguard.WipeBytes(b)
}

// ZeroAll zeros every slice given, in order. Convenient for cleaning up
// all the transient key material (CEK, per-entry KEKs, verify block)
// produced during a single operation.
func ZeroAll(slices ...[]byte) {
	for _, s := range slices {
		Zero(s)
	}
}
