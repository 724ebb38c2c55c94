package core

import (
	"testing"

	"maintcore/testutil"
)

func TestCoreReachesStorageOnlyThroughGateway(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.BackendImportForbidden, "core must depend on the gateway, not on adapters")
}
