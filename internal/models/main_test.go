package models

import "testing"

func TestHostnameFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://mail.example.com/login", "mail.example.com"},
		{"http://example.com", "example.com"},
		{"mail.example.com", "mail.example.com"},
		{"https://example.com:8443/path", "example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := HostnameFromURL(tt.raw); got != tt.want {
			t.Errorf("HostnameFromURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNewCredentialSet_HostnameIndex(t *testing.T) {
	set := NewCredentialSet([]Credential{
		{ID: "1", Name: "Mail", URL: "https://mail.example.com/login"},
		{ID: "2", Name: "Mail 2", URL: "mail.example.com"},
		{ID: "3", Name: "Bank", URL: "https://bank.example.com"},
	})

	if set.Len() != 3 {
		t.Fatalf("Len = %d, want 3", set.Len())
	}
	mail := set.ByHostname("mail.example.com")
	if len(mail) != 2 {
		t.Errorf("expected 2 credentials for mail.example.com, got %d", len(mail))
	}
	if got := set.ByHostname("example.com"); len(got) != 0 {
		t.Errorf("expected no exact matches for example.com, got %d", len(got))
	}
}

func TestCredentialSet_AllReturnsCopy(t *testing.T) {
	set := NewCredentialSet([]Credential{{ID: "1", Name: "Mail", URL: "mail.example.com"}})

	all := set.All()
	all[0].Name = "changed"

	if set.All()[0].Name != "Mail" {
		t.Error("mutating the All() result must not affect the set")
	}
}

func TestNewCredentialSet_PreservesExplicitHostname(t *testing.T) {
	set := NewCredentialSet([]Credential{
		{ID: "1", Name: "Custom", URL: "https://alias.example.com", Hostname: "real.example.com"},
	})
	if len(set.ByHostname("real.example.com")) != 1 {
		t.Error("explicit hostname should be used as the match key")
	}
	if len(set.ByHostname("alias.example.com")) != 0 {
		t.Error("URL hostname should not override an explicit hostname")
	}
}
