package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	t.Cleanup(func() { Version = old })

	if Short() != "v1.2.3" {
		t.Errorf("Short() = %q", Short())
	}
	if info := Info(); !strings.HasPrefix(info, "llmexperts v1.2.3 (commit ") {
		t.Errorf("Info() = %q", info)
	}
}
