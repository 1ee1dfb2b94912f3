package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/csheth/askdb/internal/tuitest"
)

const projectsBody = `{"answer":"3 projects found","sql":"SELECT * FROM projects","data":[{"id":1,"name":"Alpha"},{"id":2,"name":"Beta"}]}`

func TestAskDBKeyboardSubmit(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and drives the binary in a PTY")
	}
	t.Parallel()

	svc := newService(t, http.StatusOK, projectsBody)
	rec := runTUI(t, svc.URL, []tuitest.Step{
		tuitest.Wait(time.Second),
		tuitest.Type("Show all projects"),
		tuitest.Press(tuitest.KeyCtrlJ, 200*time.Millisecond),
		tuitest.Wait(1500 * time.Millisecond),
		{Input: tuitest.KeyCtrlC},
	})

	if _, ok := rec.LastFrameContaining("AI Answer", "3 projects found", "Generated SQL", "SELECT * FROM projects", "Alpha", "Beta"); !ok {
		final, _ := rec.FinalFrame()
		t.Fatalf("answer never rendered; final frame:\n%s", final.Plain)
	}
}

func TestAskDBButtonSubmitShowsFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and drives the binary in a PTY")
	}
	t.Parallel()

	svc := newService(t, http.StatusInternalServerError, `oops`)
	rec := runTUI(t, svc.URL, []tuitest.Step{
		tuitest.Wait(time.Second),
		tuitest.Type("Show all projects"),
		tuitest.Press(tuitest.KeyTab, 200*time.Millisecond),
		tuitest.Press(tuitest.KeyEnter, 200*time.Millisecond),
		tuitest.Wait(1500 * time.Millisecond),
		{Input: tuitest.KeyCtrlC},
	})

	frame, ok := rec.LastFrameContaining("AI Answer", "Backend error")
	if !ok {
		final, _ := rec.FinalFrame()
		t.Fatalf("failure never rendered; final frame:\n%s", final.Plain)
	}
	if frame.Contains("Generated SQL") {
		t.Fatalf("failure must not show the SQL panel:\n%s", frame.Plain)
	}
}

func runTUI(t *testing.T, endpoint string, steps []tuitest.Step) *tuitest.Recording {
	t.Helper()
	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	home := t.TempDir()

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen", "--endpoint", endpoint},
		Dir:     home,
		Env: []string{
			"XDG_CONFIG_HOME=" + filepath.Join(home, "config"),
			"XDG_DATA_HOME=" + filepath.Join(home, "data"),
		},
		Width:          100,
		Height:         40,
		Steps:          steps,
		Timeout:        8 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}
	return rec
}

func newService(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ask" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	tmp := t.TempDir()
	name := "askdb-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
