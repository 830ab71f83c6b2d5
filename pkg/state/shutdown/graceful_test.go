package shutdown

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetupSignalHandlerCancelsOnSignal(t *testing.T) {
	ctx, cancel := SetupSignalHandler(context.Background())
	defer cancel()

	assert.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}

func TestStepRunsAndSwallowsErrors(t *testing.T) {
	var ran []string
	Step("one", func() error { ran = append(ran, "one"); return nil })
	Step("two", func() error { ran = append(ran, "two"); return errors.New("nope") })
	assert.Equal(t, []string{"one", "two"}, ran)
}
