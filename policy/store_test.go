package policy

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewStore(t *testing.T) {
	if _, err := NewStore(nil); err == nil {
		t.Error("NewStore(nil) should return error")
	}

	wantErr := errors.New("boom")
	if _, err := NewStore(func() (*Engine, error) { return nil, wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("NewStore() error = %v, want %v", err, wantErr)
	}
}

func TestStore_Reload(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Rules:    filepath.Join(dir, "policy.csv"),
		Grouping: filepath.Join(dir, "grouping.csv"),
	}
	writeFile(t, paths.Rules, "admin, admin_resource, read\n")
	writeFile(t, paths.Grouping, "alice, admin\nbob, user\n")

	s, err := NewStore(FileLoader(paths))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", s.Generation())
	}
	if !s.Authorize("alice", "read", "admin_resource") || s.Authorize("bob", "read", "admin_resource") {
		t.Fatal("initial decisions wrong")
	}

	before := s.Engine()
	writeFile(t, paths.Rules, "admin, admin_resource, read\nuser, admin_resource, read\n")
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !s.Authorize("bob", "read", "admin_resource") {
		t.Error("bob should be allowed after reload")
	}
	if s.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", s.Generation())
	}
	if before.Authorize("bob", "read", "admin_resource") {
		t.Error("old snapshot must not change")
	}
}

func TestStore_ReloadFailureKeepsEngine(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Rules:    filepath.Join(dir, "policy.csv"),
		Grouping: filepath.Join(dir, "grouping.csv"),
	}
	writeFile(t, paths.Rules, "admin, admin_resource, read\n")
	writeFile(t, paths.Grouping, "alice, admin\n")

	s, err := NewStore(FileLoader(paths))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	current := s.Engine()

	writeFile(t, paths.Rules, "admin, admin_resource\n")
	err = s.Reload()
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("Reload() error = %v, want ErrConfig", err)
	}
	if s.Engine() != current {
		t.Error("failed reload replaced the engine")
	}
	if s.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", s.Generation())
	}
	if !s.Authorize("alice", "read", "admin_resource") {
		t.Error("previous rules should still apply")
	}
}

func TestStaticStore(t *testing.T) {
	e := newTestEngine(t)
	s := StaticStore(e)
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if s.Engine() != e {
		t.Error("StaticStore reload should keep the engine")
	}

	d := s.Decide("alice", "read", "admin_resource")
	if !d.Allowed || d.Role != "admin" {
		t.Errorf("Decide() = %+v", d)
	}

	s.Swap(nil)
	if s.Engine() != e {
		t.Error("Swap(nil) should be ignored")
	}
}

func TestStore_ConcurrentSwap(t *testing.T) {
	allow, err := New(nil, []Rule{{Role: "admin", Resource: "doc", Action: "read"}}, Grouping{"alice": {"admin"}})
	if err != nil {
		t.Fatal(err)
	}
	deny, err := New(nil, nil, Grouping{"alice": {"admin"}})
	if err != nil {
		t.Fatal(err)
	}

	s := StaticStore(allow)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				e := s.Engine()
				if e != allow && e != deny {
					t.Error("observed an unknown engine")
					return
				}
				if got := e.Authorize("alice", "read", "doc"); got != (e == allow) {
					t.Error("snapshot decision inconsistent")
					return
				}
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		if i%2 == 0 {
			s.Swap(deny)
		} else {
			s.Swap(allow)
		}
	}
	close(stop)
	wg.Wait()

	if s.Generation() != 1001 {
		t.Errorf("Generation() = %d, want 1001", s.Generation())
	}
}
