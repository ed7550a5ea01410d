package app

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// TestModeEnv names the variable that keeps binaries from dialing Redis,
// Postgres or the sales backend.
const TestModeEnv = "CONSOLE_TEST_MODE"

var (
	testModeMu sync.RWMutex
	testMode   *bool
)

func readTestMode() bool {
	on, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(TestModeEnv)))
	return err == nil && on
}

// InTestMode reports whether CONSOLE_TEST_MODE is set to a true value. The
// variable is read once; RefreshTestMode rereads it.
func InTestMode() bool {
	testModeMu.RLock()
	cached := testMode
	testModeMu.RUnlock()
	if cached != nil {
		return *cached
	}
	return RefreshTestMode()
}

// RefreshTestMode rereads the environment and returns the new value.
func RefreshTestMode() bool {
	on := readTestMode()
	testModeMu.Lock()
	testMode = &on
	testModeMu.Unlock()
	return on
}
