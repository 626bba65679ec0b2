package unlock

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "unlock.db")

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tick := time.UnixMilli(1000)
	store.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	for _, id := range []string{"shadow", "dragon", "shadow"} {
		if err := store.Add(ctx, id); err != nil {
			t.Fatalf("add %q: %v", id, err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	set, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, want := set.IDs(), []string{"shadow", "dragon"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
}

func TestStoreRejectsEmptyID(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.Add(context.Background(), "  "); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("err = %v, want ErrEmptyID", err)
	}
}

func TestClosedStore(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = store.Close()

	if _, err := store.Load(context.Background()); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("load err = %v, want ErrStoreClosed", err)
	}
	if err := store.Add(context.Background(), "x"); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("add err = %v, want ErrStoreClosed", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSetSelectable(t *testing.T) {
	set := NewSet("shadow")

	tests := []struct {
		name string
		d    catalog.Descriptor
		want bool
	}{
		{name: "free", d: catalog.Descriptor{ID: "warrior"}, want: true},
		{name: "premium unlocked", d: catalog.Descriptor{ID: "shadow", IsPremium: true}, want: true},
		{name: "premium locked", d: catalog.Descriptor{ID: "dragon", IsPremium: true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := set.Selectable(tt.d); got != tt.want {
				t.Fatalf("Selectable = %v, want %v", got, tt.want)
			}
		})
	}

	if !set.Add("dragon") {
		t.Fatal("expected dragon to be newly added")
	}
	if set.Add("dragon") {
		t.Fatal("expected duplicate add to report false")
	}
	if set.Len() != 2 {
		t.Fatalf("len = %d, want 2", set.Len())
	}
}
