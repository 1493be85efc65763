package memory

import (
	"testing"

	"github.com/pokecatch/pokecatch/internal/testutil"
)

func TestStore(t *testing.T) {
	testutil.RunStoreSuite(t, func(t *testing.T) testutil.Store {
		return New()
	})
}
