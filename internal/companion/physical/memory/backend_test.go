package memory

import (
	"context"
	"testing"

	"github.com/gezibash/idbridge/internal/companion/physical"
	"github.com/gezibash/idbridge/internal/companion/physical/physicaltest"
)

func TestBackend(t *testing.T) {
	physicaltest.Run(t, func(t *testing.T) physical.Backend {
		be, err := physical.New(context.Background(), "memory", nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { be.Close() })
		return be
	})
}
