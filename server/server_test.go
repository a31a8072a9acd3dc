package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/milk9111/physbench/cache"
)

func do(t *testing.T, s *Server, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	s := New(Options{})
	resp := do(t, s, http.MethodGet, "/health/live", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Fatal("missing request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(RequestIDHeader, "abc")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get(RequestIDHeader); got != "abc" {
		t.Fatalf("request id = %q", got)
	}
}

func TestTasks(t *testing.T) {
	s := New(Options{})
	var list struct {
		TaskIDs []int32 `json:"task_ids"`
	}
	decodeJSON(t, do(t, s, http.MethodGet, "/api/v1/tasks", ""), &list)
	if len(list.TaskIDs) == 0 {
		t.Fatal("no tasks listed")
	}
	resp := do(t, s, http.MethodGet, "/api/v1/tasks/1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp := do(t, s, http.MethodGet, "/api/v1/tasks/4242", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing task status = %d", resp.StatusCode)
	}
	if resp := do(t, s, http.MethodGet, "/api/v1/tasks/x", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", resp.StatusCode)
	}
}

func TestSimulateCached(t *testing.T) {
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	s := New(Options{Cache: c})

	body := `{"task_id": 1, "max_steps": 60, "stride": 10}`
	var first, second simulateResponse
	decodeJSON(t, do(t, s, http.MethodPost, "/api/v1/simulate", body), &first)
	decodeJSON(t, do(t, s, http.MethodPost, "/api/v1/simulate", body), &second)
	if first.Cached || !second.Cached {
		t.Fatalf("cached flags = %v, %v", first.Cached, second.Cached)
	}
	if first.StepsSimulated != 60 || second.StepsSimulated != 60 || len(first.SolvedStateList) != 6 {
		t.Fatalf("responses = %+v / %+v", first, second)
	}
}

func TestSimulateCacheSeparatesKeepSpace(t *testing.T) {
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	s := New(Options{Cache: c, KeepSpaceMargin: 8})

	input := `"user_input": {"balls": [{"position": {"x": 40, "y": 20}, "radius": 5}]}`
	loose := `{"task_id": 1, "max_steps": 30, "stride": 10, ` + input + `}`
	tight := `{"task_id": 1, "max_steps": 30, "stride": 10, "keep_space": true, ` + input + `}`

	var first, second, again simulateResponse
	decodeJSON(t, do(t, s, http.MethodPost, "/api/v1/simulate", loose), &first)
	decodeJSON(t, do(t, s, http.MethodPost, "/api/v1/simulate", tight), &second)
	decodeJSON(t, do(t, s, http.MethodPost, "/api/v1/simulate", tight), &again)
	if first.HadOcclusions || first.Cached {
		t.Fatalf("without keep space: %+v", first)
	}
	if second.Cached || !second.HadOcclusions {
		t.Fatalf("keep space answered from the wrong entry: %+v", second)
	}
	if !again.Cached || !again.HadOcclusions {
		t.Fatalf("keep space repeat: %+v", again)
	}
}

func TestBadRequests(t *testing.T) {
	s := New(Options{})
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"empty body", "/api/v1/simulate", "", http.StatusBadRequest},
		{"bad json", "/api/v1/evaluate", "{", http.StatusBadRequest},
		{"no task", "/api/v1/occlusions", `{"user_input": {}}`, http.StatusBadRequest},
		{"unknown task", "/api/v1/render", `{"task_id": 999}`, http.StatusNotFound},
		{"odd points", "/api/v1/occlusions", `{"task_id": 0, "user_input": {"flattened_point_list": [1]}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := do(t, s, http.MethodPost, tt.path, tt.body); resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestOcclusionsAndEvaluate(t *testing.T) {
	s := New(Options{})
	var occ struct {
		HadOcclusions bool `json:"had_occlusions"`
	}
	// The sample floor spans y 0..10.
	decodeJSON(t, do(t, s, http.MethodPost, "/api/v1/occlusions",
		`{"task_id": 0, "user_input": {"balls": [{"position": {"x": 30, "y": 5}, "radius": 4}]}}`), &occ)
	if !occ.HadOcclusions {
		t.Fatal("expected occlusion")
	}

	var ev evaluateResponse
	decodeJSON(t, do(t, s, http.MethodPost, "/api/v1/evaluate",
		`{"task_id": 0, "steps": 30, "stride": 10, "need_features": true, "user_input": {"balls": [{"position": {"x": 200, "y": 200}, "radius": 4}]}}`), &ev)
	if ev.HadOcclusions || ev.NumScenes != 3 || ev.NumObjects != 4 {
		t.Fatalf("evaluate = %+v", ev)
	}
}

func TestRenderPNG(t *testing.T) {
	s := New(Options{})
	resp := do(t, s, http.MethodPost, "/api/v1/render", `{"task_id": 2}`)
	defer resp.Body.Close()
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("content type = %q", resp.Header.Get("Content-Type"))
	}
	data, _ := io.ReadAll(resp.Body)
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Fatalf("width = %d", img.Bounds().Dx())
	}
}
