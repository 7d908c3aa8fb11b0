package app

import (
	"testing"

	_ "github.com/wasteops/wasteops/testing"
)

func TestInTestModeFollowsEnvironment(t *testing.T) {
	t.Setenv("WASTEOPS_TEST_MODE", "1")
	RefreshTestMode()
	if !InTestMode() {
		t.Fatalf("expected test mode on")
	}

	t.Setenv("WASTEOPS_TEST_MODE", "")
	RefreshTestMode()
	if InTestMode() {
		t.Fatalf("expected test mode off")
	}

	// Leave the flag the way the test bootstrap set it.
	t.Setenv("WASTEOPS_TEST_MODE", "1")
	RefreshTestMode()
}
