package testsupport

import (
	"testing"

	"cinelog/internal/catalog"
	"cinelog/internal/config"
	"cinelog/internal/logging"
)

// MustOpenCatalog opens the catalog configured in cfg for tests.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.Paths.CatalogPath, logging.NewNop())
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	return store
}
