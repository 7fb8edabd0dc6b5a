package blob

import (
	"testing"

	"travelbook/testutil"
)

// Only internal/blob wraps the infra-backed blob drivers, tests included.
// Everything else depends on blob.Store.
func TestOnlyBlobPackageImportsInfra(t *testing.T) {
	testutil.AssertLayering(t, "travelbook/...", testutil.Layer{
		Infra: "travelbook/internal/infra/blob",
		Owner: "travelbook/internal/blob",
	})
}
