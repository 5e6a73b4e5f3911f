package notifier

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAlert_NoSlackConfigured_DoesNotPanic(t *testing.T) {
	n := New("", "", nil)
	n.Alert("hello")
	n.Println("world")
}

func TestPostToSlackTo_Success(t *testing.T) {
	var gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := New("C123", "xoxb-test", nil)
	n.http = server.Client()

	if err := n.postToSlackTo(server.URL, "hi there"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer xoxb-test" {
		t.Errorf("auth header = %q, want %q", gotAuth, "Bearer xoxb-test")
	}
	if !strings.Contains(gotBody, "hi there") || !strings.Contains(gotBody, "C123") {
		t.Errorf("body = %q, want it to contain channel and text", gotBody)
	}
}

func TestPostToSlackTo_RejectedBySlack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer server.Close()

	n := New("bad-channel", "xoxb-test", nil)
	n.http = server.Client()

	err := n.postToSlackTo(server.URL, "hi there")
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("got %v, want channel_not_found error", err)
	}
}
