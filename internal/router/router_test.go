package router_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"countdown/backend/internal/db"
	"countdown/backend/internal/handler"
	"countdown/backend/internal/notify"
	"countdown/backend/internal/repository"
	"countdown/backend/internal/router"
	"countdown/backend/internal/service"
	"countdown/backend/internal/timekeeper"
)

const testPassphrase = "correct horse"

type testEnv struct {
	engine   http.Handler
	clock    *clockwork.FakeClock
	hub      *notify.Hub
	pomodoro *service.PomodoroService
}

type tokenResponse struct {
	Token string `json:"token"`
}

type timerEnvelope struct {
	Timer struct {
		ID               string  `json:"id"`
		Status           string  `json:"status"`
		RemainingSeconds int     `json:"remainingSeconds"`
		EndTime          *string `json:"endTime"`
	} `json:"timer"`
}

type stateEnvelope struct {
	State struct {
		Phase            string `json:"phase"`
		Status           string `json:"status"`
		RemainingSeconds int    `json:"remainingSeconds"`
		History          []struct {
			DurationSeconds int `json:"durationSeconds"`
		} `json:"history"`
	} `json:"state"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestTimerLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	token := login(t, env.engine)

	status, raw := requestJSON(t, env.engine, http.MethodPost, "/api/timers", token, map[string]interface{}{
		"label":   "Tea",
		"minutes": 1,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on create, got %d: %s", status, raw)
	}
	created := decode[timerEnvelope](t, raw)

	status, _ = requestJSON(t, env.engine, http.MethodPost, "/api/timers/"+created.Timer.ID+"/start", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", status)
	}

	env.clock.Advance(10 * time.Second)
	status, raw = requestJSON(t, env.engine, http.MethodPost, "/api/timers/"+created.Timer.ID+"/pause", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on pause, got %d", status)
	}
	paused := decode[timerEnvelope](t, raw)
	if paused.Timer.Status != "paused" || paused.Timer.RemainingSeconds != 50 || paused.Timer.EndTime != nil {
		t.Fatalf("unexpected paused timer: %+v", paused.Timer)
	}

	// Pausing again is a no-op that still answers with the timer.
	status, raw = requestJSON(t, env.engine, http.MethodPost, "/api/timers/"+created.Timer.ID+"/pause", token, nil)
	if status != http.StatusOK || decode[timerEnvelope](t, raw).Timer.RemainingSeconds != 50 {
		t.Fatalf("expected idempotent pause, got %d: %s", status, raw)
	}

	status, raw = requestJSON(t, env.engine, http.MethodPost, "/api/timers", token, map[string]interface{}{"label": "zero"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero duration, got %d", status)
	}
	if code := decode[apiErrorEnvelope](t, raw).Error.Code; code != "invalid_duration" {
		t.Fatalf("expected invalid_duration, got %s", code)
	}

	status, _ = requestJSON(t, env.engine, http.MethodDelete, "/api/timers/"+created.Timer.ID, token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", status)
	}
	status, _ = requestJSON(t, env.engine, http.MethodGet, "/api/timers/"+created.Timer.ID, token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestOwnerRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)

	status, _ := requestJSON(t, env.engine, http.MethodGet, "/api/timers", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, _ = requestJSON(t, env.engine, http.MethodPost, "/api/auth/login", "", map[string]string{"passphrase": "nope"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong passphrase, got %d", status)
	}
}

func TestPomodoroWorkPhaseCompletes(t *testing.T) {
	env := setupTestEnv(t)
	token := login(t, env.engine)

	status, _ := requestJSON(t, env.engine, http.MethodPost, "/api/pomodoro/start", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", status)
	}

	env.clock.Advance(25*time.Minute + time.Second)
	env.pomodoro.Tick(env.clock.Now())

	status, raw := requestJSON(t, env.engine, http.MethodGet, "/api/pomodoro/state", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on state, got %d", status)
	}
	state := decode[stateEnvelope](t, raw).State
	if state.Phase != string(timekeeper.PhaseShortBreak) || state.RemainingSeconds != 300 || state.Status != "idle" {
		t.Fatalf("unexpected state after work phase: %+v", state)
	}
	if len(state.History) != 1 || state.History[0].DurationSeconds != 1500 {
		t.Fatalf("expected one 1500s history entry, got %+v", state.History)
	}

	status, _ = requestJSON(t, env.engine, http.MethodPut, "/api/pomodoro/config", token, map[string]int{"workMinutes": 0})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid config, got %d", status)
	}
}

func TestShareLinksRoundTrip(t *testing.T) {
	env := setupTestEnv(t)

	status, raw := requestJSON(t, env.engine, http.MethodPost, "/api/share/timer", "", map[string]interface{}{
		"label":           "Laundry & more",
		"durationSeconds": 1800,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on encode, got %d: %s", status, raw)
	}
	link := decode[struct {
		URL string `json:"url"`
	}](t, raw).URL
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if parsed.Path != "/t" {
		t.Fatalf("expected /t path, got %s", parsed.Path)
	}

	status, raw = requestJSON(t, env.engine, http.MethodGet, "/api/share/timer?"+parsed.RawQuery, "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on decode, got %d", status)
	}
	decoded := decode[struct {
		Timer struct {
			Label           string `json:"label"`
			DurationSeconds int    `json:"durationSeconds"`
		} `json:"timer"`
	}](t, raw)
	if decoded.Timer.Label != "Laundry & more" || decoded.Timer.DurationSeconds != 1800 {
		t.Fatalf("unexpected decoded timer: %+v", decoded.Timer)
	}

	status, raw = requestJSON(t, env.engine, http.MethodGet, "/api/share/event?n=Party&t=abc", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed event link, got %d", status)
	}
	if code := decode[apiErrorEnvelope](t, raw).Error.Code; code != "invalid_link" {
		t.Fatalf("expected invalid_link, got %s", code)
	}
}

func TestEmbedMinimalStartsFromQuery(t *testing.T) {
	env := setupTestEnv(t)

	status, raw := requestJSON(t, env.engine, http.MethodPost, "/api/embed?l=Standup&d=900", "", nil)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on open, got %d: %s", status, raw)
	}
	embed := decode[struct {
		Embed struct {
			Status string `json:"status"`
			Mode   string `json:"mode"`
		} `json:"embed"`
	}](t, raw).Embed
	if embed.Status != "running" || embed.Mode != "minimal" {
		t.Fatalf("expected running minimal embed, got %+v", embed)
	}
}

func TestStreamDeliversHubEvents(t *testing.T) {
	env := setupTestEnv(t)
	token := login(t, env.engine)
	server := httptest.NewServer(env.engine)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/stream?domains=timers&token="+token, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	env.hub.Publish(notify.Event{Kind: notify.KindCompleted, Domain: "pomodoro"})
	env.hub.Publish(notify.Event{Kind: notify.KindCompleted, Domain: "timers", UnitID: "abc"})

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") && strings.Contains(line, `"domain":"pomodoro"`) {
			t.Fatal("filtered domain leaked into stream")
		}
		if strings.HasPrefix(line, "data:") && strings.Contains(line, `"unitId":"abc"`) {
			return
		}
	}
	t.Fatalf("stream ended before timer event: %v", scanner.Err())
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	env.engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	return setupTestEnvWithOptions(t, router.Options{CORSOrigins: []string{"http://localhost:5173"}})
}

func setupTestEnvWithOptions(t *testing.T, opts router.Options) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	database, err := db.OpenSQLite(db.DriverCGO, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if _, err := db.RunMigrations(ctx, database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	clock := clockwork.NewFakeClockAt(time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC))
	hub := notify.NewHub()
	idle := 24 * time.Hour
	rt := service.Runtime{
		Clock:     clock,
		Hub:       hub,
		Intervals: service.Intervals{Timers: idle, Pomodoro: idle, Embed: idle, Events: idle, Stopwatch: idle},
	}
	repo := repository.NewKVRepository(database)

	authService, err := service.NewAuthService(testPassphrase, "test-secret", 24*time.Hour, clock)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	timerService := service.NewTimerService(ctx, repo, rt)
	pomodoroService := service.NewPomodoroService(ctx, repo, rt, timekeeper.DefaultPomodoroConfig())
	stopwatchService := service.NewStopwatchService(rt)
	eventService := service.NewEventService(ctx, repo, rt)
	embedService := service.NewEmbedService(rt, 0)
	settingsService := service.NewSettingsService(ctx, repo, rt)
	worldClockService, err := service.NewWorldClockService(ctx, repo, rt)
	if err != nil {
		t.Fatalf("world clock service: %v", err)
	}
	t.Cleanup(func() {
		timerService.Close()
		pomodoroService.Close()
		stopwatchService.Close()
		eventService.Close()
		embedService.Close()
	})

	engine := router.New(authService, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Timers:     handler.NewTimerHandler(timerService),
		Pomodoro:   handler.NewPomodoroHandler(pomodoroService),
		Stopwatch:  handler.NewStopwatchHandler(stopwatchService),
		Events:     handler.NewEventHandler(eventService),
		Embed:      handler.NewEmbedHandler(embedService),
		Settings:   handler.NewSettingsHandler(settingsService),
		WorldClock: handler.NewWorldClockHandler(worldClockService),
		Share:      handler.NewShareHandler("https://countdown.example"),
		Stream:     handler.NewStreamHandler(hub, clock),
	}, opts)

	return testEnv{engine: engine, clock: clock, hub: hub, pomodoro: pomodoroService}
}

func login(t *testing.T, server http.Handler) string {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]string{
		"passphrase": testPassphrase,
	})
	if status != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", status, string(body))
	}
	resp := decode[tokenResponse](t, body)
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	return resp.Token
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", string(raw), err)
	}
	return out
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	env := setupTestEnvWithOptions(t, router.Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/share/timer?l=Tea&d=60", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		rec := httptest.NewRecorder()
		env.engine.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(""); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("10.1.2.3"); code != http.StatusTooManyRequests {
		t.Fatalf("expected spoofed client to share the peer's budget, got %d", code)
	}
}
