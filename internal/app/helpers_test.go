package app

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/tagctl/internal/config"
)

func TestRequireUserID(t *testing.T) {
	cfg = &config.Config{}

	if _, err := requireUserID(""); err == nil {
		t.Error("expected error with no flag and no default")
	}

	cfg.Defaults.UserID = "u-default"
	got, err := requireUserID("")
	if err != nil {
		t.Fatalf("requireUserID failed: %v", err)
	}
	if got != "u-default" {
		t.Errorf("got %q, want config default", got)
	}

	got, err = requireUserID("u-flag")
	if err != nil {
		t.Fatalf("requireUserID failed: %v", err)
	}
	if got != "u-flag" {
		t.Errorf("got %q, want flag value to win", got)
	}
}

func TestRequireLibraryIDHint(t *testing.T) {
	cfg = &config.Config{}

	_, err := requireLibraryID("")
	if err == nil || !strings.Contains(err.Error(), "tagctl libraries") {
		t.Errorf("error should point at the libraries command, got %v", err)
	}
}
