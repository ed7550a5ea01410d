// Package guard switches binaries into test mode when imported from tests.
package guard

import (
	"os"
	"sync"
)

// Env mirrors app.TestModeEnv.
const Env = "CONSOLE_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(Env) == "" {
			_ = os.Setenv(Env, "1")
		}
	})
}
