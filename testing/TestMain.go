// Package testing switches binaries into test mode so importing them from tests has no side effects.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("POS_TEST_MODE", "1")
		if os.Getenv("STORAGE") == "" {
			_ = os.Setenv("STORAGE", "memory")
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain runs m with test mode enabled.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
