package util_test

import (
	"testing"

	"github.com/fatih/color"

	"github.com/blackwell-systems/tagctl/internal/util"
)

func TestInitColorForcesOff(t *testing.T) {
	old := color.NoColor
	defer func() { color.NoColor = old }()

	color.NoColor = false
	util.InitColor(true)
	if !color.NoColor {
		t.Error("InitColor(true) left color enabled")
	}
}

func TestInitColorWithoutTTY(t *testing.T) {
	old := color.NoColor
	defer func() { color.NoColor = old }()

	// Test binaries run with stdout piped, so terminal detection must
	// disable color even when the flag allows it.
	color.NoColor = false
	util.InitColor(false)
	if util.IsTTY() {
		t.Skip("stdout is a terminal")
	}
	if !color.NoColor {
		t.Error("InitColor(false) left color enabled without a TTY")
	}
}
