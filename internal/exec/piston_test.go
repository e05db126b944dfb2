package exec

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
)

func newTestServer(t *testing.T, handler func(req pistonRequest) pistonResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/execute" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req pistonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(handler(req))
	}))
}

func TestClient_Run(t *testing.T) {
	srv := newTestServer(t, func(req pistonRequest) pistonResponse {
		if req.Language != "python" || req.Version != "3.10.0" {
			t.Errorf("runtime = %s/%s", req.Language, req.Version)
		}
		if len(req.Files) != 1 || req.Files[0].Name != "main.py" {
			t.Errorf("files = %+v", req.Files)
		}
		return pistonResponse{Run: &pistonStage{Output: "hi\n"}}
	})
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Run(context.Background(), RunRequest{
		Language: domain.LangPython,
		Code:     "print('hi')",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Output != "hi\n" || !res.OK() {
		t.Fatalf("result = %+v", res)
	}
}

func TestClient_GoGetsPackageMain(t *testing.T) {
	srv := newTestServer(t, func(req pistonRequest) pistonResponse {
		if !strings.HasPrefix(req.Files[0].Content, "package main") {
			t.Errorf("go snippet must be prefixed: %q", req.Files[0].Content)
		}
		return pistonResponse{Run: &pistonStage{Output: "ok"}}
	})
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.Run(context.Background(), RunRequest{
		Language: domain.LangGo,
		Code:     "func main() { fmt.Println(\"ok\") }",
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestClient_CRequiresMain(t *testing.T) {
	c := NewClient("http://unused.test", time.Second)

	_, err := c.Run(context.Background(), RunRequest{
		Language: domain.LangC,
		Code:     "int add(int a, int b) { return a + b; }",
	})
	if !errors.Is(err, ErrNoMainFunc) {
		t.Fatalf("err = %v, want ErrNoMainFunc", err)
	}
}

func TestClient_NotRunnableLanguage(t *testing.T) {
	c := NewClient("http://unused.test", time.Second)

	if _, err := c.Run(context.Background(), RunRequest{
		Language: domain.LangMarkdown,
		Code:     "# heading",
	}); !errors.Is(err, ErrNotRunnable) {
		t.Fatalf("err = %v, want ErrNotRunnable", err)
	}
	if Runnable(domain.LangMarkdown) {
		t.Fatal("markdown must not be runnable")
	}
	if !Runnable(domain.LangRust) {
		t.Fatal("rust must be runnable")
	}
}

func TestClient_CompileError(t *testing.T) {
	srv := newTestServer(t, func(req pistonRequest) pistonResponse {
		return pistonResponse{
			Compile: &pistonStage{Stderr: "main.cpp:1: error: expected ';'"},
			Run:     &pistonStage{Output: "ignored"},
		}
	})
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Run(context.Background(), RunRequest{
		Language: domain.LangCPP,
		Code:     "int main() { return 0 }",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.OK() || res.CompileErr == "" {
		t.Fatalf("result = %+v, want compile error", res)
	}
}

func TestClient_EmptyOutputGetsNote(t *testing.T) {
	srv := newTestServer(t, func(req pistonRequest) pistonResponse {
		return pistonResponse{Run: &pistonStage{}}
	})
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Run(context.Background(), RunRequest{
		Language: domain.LangPython,
		Code:     "pass",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Output == "" {
		t.Fatal("empty run must be explained to the user")
	}
}
