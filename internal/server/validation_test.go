package server

import "testing"

func TestValidateParticipantName(t *testing.T) {
	if _, err := validateParticipantName("Ada Lovelace"); err != nil {
		t.Fatalf("expected valid name, got %v", err)
	}
	if got, _ := validateParticipantName("  Ada   Lovelace  "); got != "Ada Lovelace" {
		t.Fatalf("expected whitespace normalization, got %q", got)
	}
	if _, err := validateParticipantName(""); err == nil {
		t.Fatal("expected empty name to fail")
	}
	if _, err := validateParticipantName("this name is way way too long for us"); err == nil {
		t.Fatal("expected overlong name to fail")
	}
	if _, err := validateParticipantName("ada<script>"); err == nil {
		t.Fatal("expected unsafe characters to fail")
	}
}

func TestValidateParticipantNameReserved(t *testing.T) {
	for _, name := range []string{"admin", "Host", "SERVER", "bot"} {
		if _, err := validateParticipantName(name); err == nil {
			t.Fatalf("expected reserved name %q to fail", name)
		}
	}
}

func TestValidateSessionName(t *testing.T) {
	if _, err := validateSessionName("friday-night-games"); err != nil {
		t.Fatalf("expected valid session name, got %v", err)
	}
	if _, err := validateSessionName("café"); err == nil {
		t.Fatal("expected non-ascii session name to fail")
	}
}
