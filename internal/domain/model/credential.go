package model

// CredentialState reports whether the diary password has been configured.
type CredentialState int

const (
	CredentialUnset CredentialState = iota
	CredentialSet
)

// String returns "unset" or "set".
func (s CredentialState) String() string {
	if s == CredentialSet {
		return "set"
	}
	return "unset"
}
