package main

import (
	"strings"
	"testing"

	"github.com/gwillem/yeti/pkg/auto"
)

func TestRenderPlan(t *testing.T) {
	out := renderPlan(auto.DefaultSequence())

	for _, want := range []string{"Deploy", "Hold", "[0.0, 2.0]", "(2.0, 3.0]", "(12.0, 25.0)", "intake(0.85)"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "25.0]") {
		t.Errorf("last window includes the end of the sequence:\n%s", out)
	}
}
