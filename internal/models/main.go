// Package models defines the core data structures for credentials
// retrieved from the vault.
package models

import "net/url"

// Credential is one stored vault record. Credentials are immutable once
// constructed and are owned by the CredentialSet produced by a login.
type Credential struct {
	// ID is the unique identifier assigned by the vault.
	ID string
	// Name is the user-visible label of the record.
	Name string
	// Username is the login name stored in the record.
	Username string
	// Secret is the stored password, already decrypted by the vault session.
	Secret string
	// URL is the site address associated with the record.
	URL string
	// Hostname is the match key derived from URL. Populated at
	// construction when empty.
	Hostname string
}

// CredentialSet holds the full collection of a user's credentials for the
// lifetime of a session, with lookup by hostname. It is created only by a
// successful login and replaced wholesale on logout, never mutated.
type CredentialSet struct {
	credentials []Credential
	byHostname  map[string][]int
}

// NewCredentialSet builds a CredentialSet from the given credentials.
// Credentials with an empty Hostname get one derived from their URL;
// records whose URL cannot be parsed keep an empty hostname and are
// simply unmatchable by hostname lookup.
func NewCredentialSet(credentials []Credential) *CredentialSet {
	set := &CredentialSet{
		credentials: make([]Credential, len(credentials)),
		byHostname:  make(map[string][]int),
	}
	copy(set.credentials, credentials)
	for i := range set.credentials {
		c := &set.credentials[i]
		if c.Hostname == "" {
			c.Hostname = HostnameFromURL(c.URL)
		}
		if c.Hostname != "" {
			set.byHostname[c.Hostname] = append(set.byHostname[c.Hostname], i)
		}
	}
	return set
}

// All returns a copy of every credential in the set, in vault order.
func (s *CredentialSet) All() []Credential {
	out := make([]Credential, len(s.credentials))
	copy(out, s.credentials)
	return out
}

// ByHostname returns the credentials whose hostname exactly equals host.
func (s *CredentialSet) ByHostname(host string) []Credential {
	idx := s.byHostname[host]
	out := make([]Credential, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.credentials[i])
	}
	return out
}

// Len returns the number of credentials in the set.
func (s *CredentialSet) Len() int {
	return len(s.credentials)
}

// HostnameFromURL extracts the hostname portion of a stored URL.
// Bare hostnames without a scheme ("mail.example.com") are accepted.
// Returns "" when no hostname can be determined.
func HostnameFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err == nil && u.Host != "" {
		return u.Hostname()
	}
	// No scheme: retry as host-only.
	u, err = url.Parse("https://" + raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
