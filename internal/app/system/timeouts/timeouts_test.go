package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZeroValues(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second})

	if Short() != 7*time.Second {
		t.Errorf("Short = %v, want 7s", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium = %v, want default", Medium())
	}

	Reset()
	if Current() != defaults() {
		t.Errorf("Reset did not restore defaults: %+v", Current())
	}
}

func TestWithTimeout_LogsOnDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, log, "slow op")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("expected 1 warning, got %d", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "slow op" {
		t.Errorf("operation field = %v", op)
	}

	_, cancel = WithTimeout(context.Background(), time.Minute, log, "fast op")
	cancel()
	if logs.Len() != 1 {
		t.Errorf("early cancel should not log, got %d entries", logs.Len())
	}
}
