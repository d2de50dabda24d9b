// Package secret provides a string wrapper that never leaks its
// plaintext through logging or debug printing, grounded on
// jinshu-utils/src/secret.rs.
package secret

import "encoding/json"

// DebugString is what Secret shows for %v, %s, and %q.
const DebugString = "<SECRET>"

// Secret hides a plaintext value from accidental exposure through
// logging. Go has no Drop, so the plaintext stays reachable through the
// Secret until Destroy is called; see Destroy for what it does not
// scrub.
type Secret struct {
	plain string
}

// New wraps s as a Secret.
func New(s string) Secret {
	return Secret{plain: s}
}

// Expose returns the plaintext. Name chosen to make call sites stand
// out under review, matching the original's expose/expose_string.
func (s Secret) Expose() string {
	return s.plain
}

// ExposeBytes returns the plaintext as bytes.
func (s Secret) ExposeBytes() []byte {
	return []byte(s.plain)
}

// Destroy drops the plaintext, so Expose returns "" afterwards. Go
// strings are immutable, so the bytes that backed the plaintext are
// not overwritten with zeros: they stay in memory until the garbage
// collector reclaims them.
func (s *Secret) Destroy() {
	s.plain = ""
}

func (s Secret) String() string {
	return DebugString
}

func (s Secret) GoString() string {
	return DebugString
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.plain)
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.plain)
}
