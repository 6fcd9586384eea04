package config

import (
	"os"
	"strings"
)

// RequireDispatchSerials enforces that an installation dispatch carries a
// registered serial for every serialized component it selects (pump,
// controller). Deployments still back-filling their serial registry leave
// this off and record serials via the patch endpoint later.
//
// Set via env:
// - REQUIRE_DISPATCH_SERIALS=true
func RequireDispatchSerials() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REQUIRE_DISPATCH_SERIALS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
