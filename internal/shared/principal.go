package shared

// Principal is the request-scoped projection of an authenticated user: the
// external identifier, the stored password hash for credential checks, and
// the flattened authority snapshot resolved at build time.
type Principal struct {
	Identifier   string
	PasswordHash string
	Authorities  []string
}

// HasAuthority reports whether the authority set contains the given entry.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}
