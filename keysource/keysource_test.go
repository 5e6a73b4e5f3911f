package keysource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rocket-pool/validator-watcher/internal/ethtypes"
)

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func TestLoadFromFile(t *testing.T) {
	keyA := repeat("a", 96)
	keyB := repeat("b", 96)
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.txt")
	content := "# comment\n0x" + keyA + "\n\n" + keyB + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	watched, err := Load(context.Background(), http.DefaultClient, path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(watched) != 2 {
		t.Fatalf("got %d keys, want 2", len(watched))
	}
	if _, ok := watched[ethtypes.Pubkey("0x"+keyA)]; !ok {
		t.Errorf("missing keyA")
	}
	if _, ok := watched[ethtypes.Pubkey("0x"+keyB)]; !ok {
		t.Errorf("missing keyB")
	}
}

func TestLoadFromSigner(t *testing.T) {
	keyA := repeat("a", 96)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != web3signerKeysPath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`["0x` + keyA + `"]`))
	}))
	defer server.Close()

	watched, err := Load(context.Background(), http.DefaultClient, "", []string{server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(watched) != 1 {
		t.Fatalf("got %d keys, want 1", len(watched))
	}
}

func TestLoad_UnionsFileAndSigner(t *testing.T) {
	keyA := repeat("a", 96)
	keyB := repeat("b", 96)
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.txt")
	if err := os.WriteFile(path, []byte("0x"+keyA+"\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`["0x` + keyB + `"]`))
	}))
	defer server.Close()

	watched, err := Load(context.Background(), http.DefaultClient, path, []string{server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(watched) != 2 {
		t.Fatalf("got %d keys, want 2", len(watched))
	}
}

func TestLoad_NoSourcesIsError(t *testing.T) {
	_, err := Load(context.Background(), http.DefaultClient, "", nil)
	if err == nil {
		t.Fatalf("expected error when no sources configured")
	}
}

func TestLoadFromFile_MalformedKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.txt")
	if err := os.WriteFile(path, []byte("not-a-key\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := Load(context.Background(), http.DefaultClient, path, nil)
	if err == nil || !strings.Contains(err.Error(), "invalid pubkey") {
		t.Fatalf("got %v, want invalid pubkey error", err)
	}
}
