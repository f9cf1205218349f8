package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tesenso/tb-import/internal/csvfile"
	"github.com/tesenso/tb-import/internal/infrastructure/config"
	"github.com/tesenso/tb-import/internal/telemetry"
)

// capture records the requests a run makes against a test server.
type capture struct {
	mu     sync.Mutex
	paths  []string
	bodies [][]byte
}

func newCaptureServer() (*capture, *httptest.Server) {
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.paths = append(c.paths, r.URL.Path)
		c.bodies = append(c.bodies, body)
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	return c, srv
}

// writeCSV drops test content into a temp file and returns its path.
func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test csv: %v", err)
	}
	return path
}

func TestRun_NoArgs(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Error("run() expected error for missing command")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Error("run() expected error for unknown command")
	}
}

func TestRun_SingleDeviceScenario(t *testing.T) {
	rec, srv := newCaptureServer()
	defer srv.Close()

	path := writeCSV(t, "Unixtimestamp;temp;humidity\n1000;21.5;60\n1001;22.0;61\n")

	err := run(context.Background(), []string{
		"csv",
		"--token", "test-token",
		"--baseurl", srv.URL,
		"--batch", "10",
		"--delay", "0",
		path,
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if len(rec.bodies) != 1 {
		t.Fatalf("requests = %d, want 1 (two rows, batch size 10)", len(rec.bodies))
	}
	if rec.paths[0] != "/api/v1/test-token/telemetry" {
		t.Errorf("path = %q, want /api/v1/test-token/telemetry", rec.paths[0])
	}

	var points []telemetry.Point
	if err := json.Unmarshal(rec.bodies[0], &points); err != nil {
		t.Fatalf("body is not a JSON point array: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].TS != 1000000 || points[1].TS != 1001000 {
		t.Errorf("timestamps = %d, %d, want 1000000, 1001000", points[0].TS, points[1].TS)
	}
	if got := points[0].Values["temp"]; got != 21.5 {
		t.Errorf("points[0].Values[temp] = %v, want 21.5", got)
	}
	if got := points[0].Values["humidity"]; got != float64(60) {
		t.Errorf("points[0].Values[humidity] = %v, want 60", got)
	}
}

func TestRun_SingleDeviceKeyFilter(t *testing.T) {
	rec, srv := newCaptureServer()
	defer srv.Close()

	path := writeCSV(t, "Unixtimestamp;temp;humidity\n1000;21.5;60\n")

	err := run(context.Background(), []string{
		"csv",
		"--token", "test-token",
		"--baseurl", srv.URL,
		"--keys", "temp",
		"--delay", "0",
		path,
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var points []telemetry.Point
	if err := json.Unmarshal(rec.bodies[0], &points); err != nil {
		t.Fatalf("body: %v", err)
	}
	if len(points[0].Values) != 1 {
		t.Errorf("values = %v, want only temp", points[0].Values)
	}
	if _, ok := points[0].Values["temp"]; !ok {
		t.Error("values missing key temp")
	}
}

func TestRun_SingleDeviceMissingToken(t *testing.T) {
	t.Setenv("ACCESS_TOKEN", "")

	path := writeCSV(t, "Unixtimestamp;temp\n1000;21.5\n")

	err := run(context.Background(), []string{"csv", path})
	if err == nil {
		t.Error("run() expected error without an access token")
	}
}

func TestRun_SingleDeviceTokenFromEnv(t *testing.T) {
	rec, srv := newCaptureServer()
	defer srv.Close()

	t.Setenv("ACCESS_TOKEN", "env-token")

	path := writeCSV(t, "Unixtimestamp;temp\n1000;21.5\n")

	err := run(context.Background(), []string{
		"csv", "--baseurl", srv.URL, "--delay", "0", path,
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if rec.paths[0] != "/api/v1/env-token/telemetry" {
		t.Errorf("path = %q, want env-token in path", rec.paths[0])
	}
}

func TestRun_MultiDeviceScenario(t *testing.T) {
	rec, srv := newCaptureServer()
	defer srv.Close()

	// Three rows for token-a, one for token-b, interleaved.
	path := writeCSV(t, "access_token;key;value;timestamp\n"+
		"token-a;temp;21.5;1000\n"+
		"token-b;temp;19.0;1000\n"+
		"token-a;humidity;60;1001\n"+
		"token-a;temp;21.7;1002\n")

	err := run(context.Background(), []string{
		"multi", "--baseurl", srv.URL, "--delay", "0", path,
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	// Batch size 100: exactly one request per token.
	if len(rec.paths) != 2 {
		t.Fatalf("requests = %d, want 2", len(rec.paths))
	}
	if rec.paths[0] != "/api/v1/token-a/telemetry" {
		t.Errorf("paths[0] = %q, want token-a", rec.paths[0])
	}
	if rec.paths[1] != "/api/v1/token-b/telemetry" {
		t.Errorf("paths[1] = %q, want token-b", rec.paths[1])
	}

	var first []telemetry.Point
	if err := json.Unmarshal(rec.bodies[0], &first); err != nil {
		t.Fatalf("first body: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("token-a points = %d, want 3", len(first))
	}
	// Original file order preserved within the group.
	wantTS := []int64{1000000, 1001000, 1002000}
	for i, want := range wantTS {
		if first[i].TS != want {
			t.Errorf("token-a points[%d].TS = %d, want %d", i, first[i].TS, want)
		}
	}

	var second []telemetry.Point
	if err := json.Unmarshal(rec.bodies[1], &second); err != nil {
		t.Fatalf("second body: %v", err)
	}
	if len(second) != 1 {
		t.Errorf("token-b points = %d, want 1", len(second))
	}
}

func TestRun_MultiDeviceMissingColumns(t *testing.T) {
	rec, srv := newCaptureServer()
	defer srv.Close()

	path := writeCSV(t, "access_token;value\ntoken-a;21.5\n")

	err := run(context.Background(), []string{
		"multi", "--baseurl", srv.URL, path,
	})

	var missing *telemetry.MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("run() error = %v, want MissingColumnError", err)
	}
	if len(rec.paths) != 0 {
		t.Errorf("requests = %d, want 0 (nothing uploaded)", len(rec.paths))
	}
}

func TestRun_MultiDeviceMissingFile(t *testing.T) {
	rec, srv := newCaptureServer()
	defer srv.Close()

	err := run(context.Background(), []string{
		"multi", "--baseurl", srv.URL, "/nonexistent/data.csv",
	})
	if !errors.Is(err, csvfile.ErrFileNotFound) {
		t.Fatalf("run() error = %v, want ErrFileNotFound", err)
	}
	if len(rec.paths) != 0 {
		t.Errorf("requests = %d, want 0", len(rec.paths))
	}
}

func TestRun_SingleDeviceBatchSplit(t *testing.T) {
	rec, srv := newCaptureServer()
	defer srv.Close()

	path := writeCSV(t, "Unixtimestamp;temp\n"+
		"1000;21.0\n1001;21.1\n1002;21.2\n1003;21.3\n1004;21.4\n")

	err := run(context.Background(), []string{
		"csv",
		"--token", "tok",
		"--baseurl", srv.URL,
		"--batch", "2",
		"--delay", "0",
		path,
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	// Five points, batch size 2: batches of 2, 2, 1.
	if len(rec.bodies) != 3 {
		t.Fatalf("requests = %d, want 3", len(rec.bodies))
	}
	var last []telemetry.Point
	if err := json.Unmarshal(rec.bodies[2], &last); err != nil {
		t.Fatalf("last body: %v", err)
	}
	if len(last) != 1 {
		t.Errorf("final batch = %d points, want 1", len(last))
	}
}

func TestBatchSize(t *testing.T) {
	cfg := config.Default()

	if got := batchSize(cfg, defaultSingleBatch); got != 10 {
		t.Errorf("batchSize(default, csv) = %d, want 10", got)
	}
	if got := batchSize(cfg, defaultMultiBatch); got != 100 {
		t.Errorf("batchSize(default, multi) = %d, want 100", got)
	}

	cfg.Upload.BatchSize = 42
	if got := batchSize(cfg, defaultSingleBatch); got != 42 {
		t.Errorf("batchSize(explicit) = %d, want 42", got)
	}
}

func TestStringList(t *testing.T) {
	var keys stringList
	if err := keys.Set("temp"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := keys.Set("humidity"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if len(keys) != 2 || keys[0] != "temp" || keys[1] != "humidity" {
		t.Errorf("keys = %v, want [temp humidity]", keys)
	}
	if keys.String() != "temp,humidity" {
		t.Errorf("String() = %q, want temp,humidity", keys.String())
	}
}
