package cache

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/samermassoud/eduvpn-client/common"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "discovery.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_ReadMissing(t *testing.T) {
	store := openTestStore(t)

	_, _, err := store.Read(context.Background(), common.DirectoryServers)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Read() on empty store error = %v, want ErrNotFound", err)
	}
}

func TestStore_WriteReadRoundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	payload := []byte(`{"v":1,"server_list":[]}`)

	before := time.Now().Add(-time.Second)
	if err := store.Write(ctx, common.DirectoryServers, payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, storedAt, err := store.Read(ctx, common.DirectoryServers)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Read() payload = %q, want %q", got, payload)
	}
	if storedAt.Before(before) || storedAt.After(time.Now().Add(time.Second)) {
		t.Errorf("storedAt = %v, want approximately now", storedAt)
	}
}

func TestStore_WriteReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, common.DirectoryServers, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := store.Write(ctx, common.DirectoryServers, []byte("new")); err != nil {
		t.Fatalf("Write() replace error = %v", err)
	}

	got, _, err := store.Read(ctx, common.DirectoryServers)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("Read() after replace = %q, want %q", got, "new")
	}
}

func TestStore_DirectoryTypesAreIsolated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, common.DirectoryServers, []byte("servers")); err != nil {
		t.Fatal(err)
	}
	if err := store.Write(ctx, common.DirectoryOrganizations, []byte("orgs")); err != nil {
		t.Fatal(err)
	}

	servers, _, err := store.Read(ctx, common.DirectoryServers)
	if err != nil {
		t.Fatal(err)
	}
	orgs, _, err := store.Read(ctx, common.DirectoryOrganizations)
	if err != nil {
		t.Fatal(err)
	}
	if string(servers) != "servers" || string(orgs) != "orgs" {
		t.Errorf("cross-feed contamination: servers=%q orgs=%q", servers, orgs)
	}
}

func TestStore_Delete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, common.DirectoryServers, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, common.DirectoryServers); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, _, err := store.Read(ctx, common.DirectoryServers); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Read() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting an absent entry is fine.
	if err := store.Delete(ctx, common.DirectoryServers); err != nil {
		t.Errorf("Delete() of absent entry error = %v", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(ctx, common.DirectoryServers, []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, _, err := reopened.Read(ctx, common.DirectoryServers)
	if err != nil {
		t.Fatalf("Read() after reopen error = %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("Read() after reopen = %q, want %q", got, "persisted")
	}
}
