package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/internal/companion"
	_ "github.com/gezibash/idbridge/internal/companion/physical/fs"
	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

func openEnv(t *testing.T, settings map[string]any) *Env {
	t.Helper()
	t.Chdir(t.TempDir())

	v := viper.New()
	v.Set("registry.backend", "fs")
	v.Set("registry.config", map[string]string{"path": filepath.Join(t.TempDir(), "companions")})
	for k, val := range settings {
		v.Set(k, val)
	}

	var logs bytes.Buffer
	env, err := Open(context.Background(), v, &logs)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = env.Close(context.Background()) })
	return env
}

func TestCompanionFromRegistry(t *testing.T) {
	env := openEnv(t, nil)
	ctx := context.Background()

	r, err := env.Registry(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := companion.Descriptor{UDID: "SIM-1", Host: "10.0.0.5", Port: 10882}
	if err := r.Add(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := env.Companion(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Companion() = %+v, want %+v", got, want)
	}
}

func TestCompanionStaticFallback(t *testing.T) {
	env := openEnv(t, map[string]any{"companion.udid": "SIM-9", "companion.local": true})

	got, err := env.Companion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := companion.Descriptor{UDID: "SIM-9", Host: "localhost", Port: 10882, IsLocal: true}
	if got != want {
		t.Errorf("Companion() = %+v, want %+v", got, want)
	}
}

func TestCompanionNoneRegistered(t *testing.T) {
	env := openEnv(t, nil)

	_, err := env.Companion(context.Background())
	if !errors.Is(err, companion.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCompanionAmbiguous(t *testing.T) {
	env := openEnv(t, nil)
	ctx := context.Background()

	r, err := env.Registry(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, udid := range []string{"SIM-1", "SIM-2"} {
		if err := r.Add(ctx, companion.Descriptor{UDID: udid, Host: "localhost", Port: 10882}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.Companion(ctx); !errors.Is(err, idberrors.ErrInvalidArgument) {
		t.Errorf("error = %v, want InvalidArgument", err)
	}
}

func TestClientOptionsFollowConfig(t *testing.T) {
	env := openEnv(t, map[string]any{"transfer.chunk_size": 1024})
	if got := len(env.ClientOptions()); got != 4 {
		t.Errorf("got %d options", got)
	}
	if env.Config.Transfer.ChunkSize != 1024 {
		t.Errorf("ChunkSize = %d", env.Config.Transfer.ChunkSize)
	}
}

func TestRunCommandValidates(t *testing.T) {
	if err := RunCommand(CommandConfig{}); err == nil {
		t.Error("RunCommand with empty config should fail")
	}
}
