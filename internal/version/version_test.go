package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	t.Parallel()
	got := String()
	if !strings.HasPrefix(got, "librarian dev") {
		t.Errorf("unexpected banner %q", got)
	}
	if !strings.Contains(got, "commit unknown") {
		t.Errorf("banner missing commit: %q", got)
	}
}
