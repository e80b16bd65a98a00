package stream

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain guards against leaking the heartbeat ticker goroutine past Stop.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
