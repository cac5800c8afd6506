package app

import (
	"os"
	"sync"
)

const testModeEnv = "CHALLAN_TEST_MODE"

// InTestMode reports whether CHALLAN_TEST_MODE=1 was set when first asked.
// Test mode disables rate limiting and makes the binaries exit before startup.
var InTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})
