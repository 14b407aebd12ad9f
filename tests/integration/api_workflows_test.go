package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpserver "github.com/trendhijack/trendhijack-back/internal/http"
	"github.com/trendhijack/trendhijack-back/internal/http/handlers"
	"github.com/trendhijack/trendhijack-back/internal/pipeline"
	"github.com/trendhijack/trendhijack-back/internal/service"
	"github.com/trendhijack/trendhijack-back/internal/store"
	"github.com/trendhijack/trendhijack-back/internal/supervisor"
)

type integrationRuntime struct {
	server *httptest.Server
}

// startIntegrationRuntime wires the full API around a smoke-mode pipeline
// so runs are deterministic and touch no external provider.
func startIntegrationRuntime(t *testing.T, debug bool) integrationRuntime {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	machine := pipeline.New(pipeline.Config{Mode: pipeline.ModeSmoke, Logger: logger})
	jobs := store.New(logger)
	sup := supervisor.New(supervisor.Config{
		Store:  jobs,
		Runner: machine,
		Logger: logger,
		Tick:   time.Millisecond,
	})
	jobsService := service.NewJobsService(jobs, sup, machine, logger)

	api := handlers.NewAPI(handlers.Config{
		Jobs:      jobsService,
		SmokeMode: true,
		Debug:     debug,
	})
	router := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      "",
		RateLimitRPS:   20000,
		RateLimitBurst: 20000,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return integrationRuntime{server: server}
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response from %s: %v", url, err)
	}
	return resp, decoded
}

func getJSON(t *testing.T, client *http.Client, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response from %s: %v", url, err)
	}
	return resp, decoded
}

func validRequest() map[string]string {
	return map[string]string{
		"brand":      "acme",
		"competitor": "globex",
		"location":   "Berlin",
	}
}

func TestGenerateJobLifecycle(t *testing.T) {
	runtime := startIntegrationRuntime(t, false)
	client := runtime.server.Client()

	resp, accepted := postJSON(t, client, runtime.server.URL+"/v1/generate", validRequest())
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %v", resp.StatusCode, accepted)
	}
	if accepted["status"] != "queued" {
		t.Errorf("expected queued status, got %v", accepted["status"])
	}
	jobID, _ := accepted["job_id"].(string)
	if jobID == "" {
		t.Fatalf("missing job_id in %v", accepted)
	}

	var job map[string]any
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, job = getJSON(t, client, runtime.server.URL+"/v1/jobs/"+jobID)
		status, _ := job["status"].(string)
		if status == "done" || status == "error" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if job["status"] != "done" {
		t.Fatalf("job did not finish: %v", job)
	}

	progress, _ := job["progress"].(map[string]any)
	if progress["step"] != "COMPLETE" || progress["percent"] != float64(100) {
		t.Errorf("unexpected terminal progress %v", progress)
	}

	result, ok := job["result"].(map[string]any)
	if !ok {
		t.Fatalf("done job missing result: %v", job)
	}
	if result["status"] != "success" || result["video_url"] == "" {
		t.Errorf("unexpected result %v", result)
	}
	if _, leaked := result["api_key"]; leaked {
		t.Error("result must not carry credential keys")
	}
}

func TestGenerateValidation(t *testing.T) {
	runtime := startIntegrationRuntime(t, false)
	client := runtime.server.Client()

	request := validRequest()
	request["brand"] = "   "
	resp, body := postJSON(t, client, runtime.server.URL+"/v1/generate", request)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", resp.StatusCode, body)
	}

	_, listing := getJSON(t, client, runtime.server.URL+"/v1/jobs")
	if jobs, _ := listing["jobs"].([]any); len(jobs) != 0 {
		t.Errorf("rejected request must create no job, got %v", jobs)
	}
}

func TestGenerateSyncReturnsResultWithoutJob(t *testing.T) {
	runtime := startIntegrationRuntime(t, false)
	client := runtime.server.Client()

	resp, result := postJSON(t, client, runtime.server.URL+"/v1/generate/sync", validRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, result)
	}
	if result["status"] != "success" {
		t.Errorf("unexpected sync result %v", result)
	}

	_, listing := getJSON(t, client, runtime.server.URL+"/v1/jobs")
	if jobs, _ := listing["jobs"].([]any); len(jobs) != 0 {
		t.Errorf("sync call must create no job, got %v", jobs)
	}
}

func TestJobListingAndNotFound(t *testing.T) {
	runtime := startIntegrationRuntime(t, false)
	client := runtime.server.Client()

	for i := 0; i < 3; i++ {
		request := validRequest()
		request["competitor"] = fmt.Sprintf("globex-%d", i)
		postJSON(t, client, runtime.server.URL+"/v1/generate", request)
	}

	_, listing := getJSON(t, client, runtime.server.URL+"/v1/jobs")
	jobs, _ := listing["jobs"].([]any)
	if len(jobs) != 3 {
		t.Errorf("expected 3 jobs listed, got %d", len(jobs))
	}

	resp, _ := getJSON(t, client, runtime.server.URL+"/v1/jobs/no-such-id")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", resp.StatusCode)
	}
}

func TestClearJobsGatedByDebug(t *testing.T) {
	locked := startIntegrationRuntime(t, false)
	resp, body := postJSON(t, locked.server.Client(), locked.server.URL+"/v1/jobs/clear", map[string]string{})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 outside debug mode, got %d: %v", resp.StatusCode, body)
	}

	debug := startIntegrationRuntime(t, true)
	client := debug.server.Client()
	postJSON(t, client, debug.server.URL+"/v1/generate", validRequest())

	resp, body = postJSON(t, client, debug.server.URL+"/v1/jobs/clear", map[string]string{})
	if resp.StatusCode != http.StatusOK || body["status"] != "cleared" {
		t.Fatalf("expected cleared, got %d: %v", resp.StatusCode, body)
	}

	_, listing := getJSON(t, client, debug.server.URL+"/v1/jobs")
	if jobs, _ := listing["jobs"].([]any); len(jobs) != 0 {
		t.Errorf("expected empty listing after clear, got %v", jobs)
	}
}

func TestHealthReportsSmokeMode(t *testing.T) {
	runtime := startIntegrationRuntime(t, false)
	resp, body := getJSON(t, runtime.server.Client(), runtime.server.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "ok" || body["smoke_mode"] != true {
		t.Errorf("unexpected health payload %v", body)
	}
}
