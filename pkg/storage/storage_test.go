package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/io"
	"github.com/matzehuels/nunet/pkg/observability"
)

func sample(t *testing.T, name string) io.Snapshot {
	t.Helper()
	d := design.New()
	if err := d.AddInput(design.Pos(0, 0), design.ActNone, design.NoConst(), design.Valid("x")); err != nil {
		t.Fatal(err)
	}
	if err := d.AddOutput(design.Pos(1, 0), design.LossMSE, design.NoConst(), design.Valid("y")); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddSynapse(design.Pos(0, 0), design.Pos(1, 0), design.Range(0.1, -1, 1), true); err != nil {
		t.Fatal(err)
	}
	return io.FromStore(d.Store(), uuid.New(), name)
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(filepath.Join(dir, "designs"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	sq, err := NewSQLiteStore(context.Background(), filepath.Join(dir, "designs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{BackendFile: fs, BackendSQLite: sq}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			snap := sample(t, "xor")
			if err := st.Put(ctx, snap); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			got, err := st.Get(ctx, snap.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if !reflect.DeepEqual(got, snap) {
				t.Errorf("Get() = %+v, want %+v", got, snap)
			}

			snap.Name = "xor-v2"
			if err := st.Put(ctx, snap); err != nil {
				t.Fatalf("Put() replace error: %v", err)
			}
			entries, err := st.List(ctx)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			if len(entries) != 1 || entries[0].Name != "xor-v2" || entries[0].Neurons != 2 || entries[0].Synapses != 1 {
				t.Errorf("List() = %+v, want one replaced entry", entries)
			}

			if err := st.Delete(ctx, snap.ID); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := st.Get(ctx, snap.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after Delete = %v, want ErrNotFound", err)
			}
			if err := st.Delete(ctx, snap.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete() = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreListOrder(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, n := range []string{"mnist", "and", "xor"} {
				if err := st.Put(ctx, sample(t, n)); err != nil {
					t.Fatal(err)
				}
			}
			entries, err := st.List(ctx)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			var names []string
			for _, e := range entries {
				names = append(names, e.Name)
			}
			if want := []string{"and", "mnist", "xor"}; !reflect.DeepEqual(names, want) {
				t.Errorf("List() names = %v, want %v", names, want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	st := backends(t)[BackendSQLite]

	xor := sample(t, "xor")
	dup1, dup2 := sample(t, "dup"), sample(t, "dup")
	for _, s := range []io.Snapshot{xor, dup1, dup2} {
		if err := st.Put(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if got, err := Resolve(ctx, st, "xor"); err != nil || got.ID != xor.ID {
		t.Errorf("Resolve(xor) = %v, %v", got.ID, err)
	}
	if got, err := Resolve(ctx, st, dup2.ID.String()); err != nil || got.ID != dup2.ID {
		t.Errorf("Resolve(id) = %v, %v", got.ID, err)
	}
	if _, err := Resolve(ctx, st, "dup"); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("Resolve(dup) = %v, want ErrAmbiguous", err)
	}
	if _, err := Resolve(ctx, st, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(nope) = %v, want ErrNotFound", err)
	}
}

type recordingHooks struct {
	observability.NoopStorageHooks
	ops []string
}

func (h *recordingHooks) OnStorageOp(_ context.Context, backend, op string, _ time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.ops = append(h.ops, backend+":"+op+":"+status)
}

func TestOpenInstrumentsCalls(t *testing.T) {
	defer observability.Reset()
	hooks := &recordingHooks{}
	observability.SetStorageHooks(hooks)

	ctx := context.Background()
	st, err := Open(ctx, "", "", t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer st.Close()

	snap := sample(t, "xor")
	_ = st.Put(ctx, snap)
	_, _ = st.Get(ctx, uuid.New())
	_, _ = st.List(ctx)

	want := []string{"file:put:ok", "file:get:error", "file:list:ok"}
	if !reflect.DeepEqual(hooks.ops, want) {
		t.Errorf("ops = %v, want %v", hooks.ops, want)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), "floppy", "", t.TempDir()); err == nil {
		t.Error("Open(floppy) should fail")
	}
}
