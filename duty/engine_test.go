package duty

import (
	"testing"

	"github.com/rocket-pool/validator-watcher/metrics"
	"github.com/rocket-pool/validator-watcher/notifier"
)

func TestShouldSkip(t *testing.T) {
	engine := New(nil, notifier.New("", "", nil), metrics.New(), nil, nil, nil, "")

	if engine.ShouldSkip(5) {
		t.Errorf("should not skip before any slot has been processed")
	}

	engine.previousSlot = 5
	engine.havePrevSlot = true

	if !engine.ShouldSkip(5) {
		t.Errorf("should skip a repeat of the previously processed slot")
	}
	if engine.ShouldSkip(6) {
		t.Errorf("should not skip a genuinely new slot")
	}
}
