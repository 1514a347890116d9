package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/vinayak200306/primetrade-assignment/internal/repository/memory"
	"github.com/vinayak200306/primetrade-assignment/internal/service/auth"
	"github.com/vinayak200306/primetrade-assignment/internal/service/task"
	"github.com/vinayak200306/primetrade-assignment/internal/service/team"
	"github.com/vinayak200306/primetrade-assignment/internal/service/user"
	"github.com/vinayak200306/primetrade-assignment/pkg/config"
	jwtpkg "github.com/vinayak200306/primetrade-assignment/pkg/jwt"
)

type rateLimiterStub struct {
	mu      sync.Mutex
	calls   []rateLimitCall
	allowFn func(key string, limit int, window time.Duration) rateDecision
}

type rateLimitCall struct {
	key    string
	limit  int
	window time.Duration
}

func newRateLimiterStub() *rateLimiterStub {
	return &rateLimiterStub{}
}

func (rl *rateLimiterStub) Allow(key string, limit int, window time.Duration) rateDecision {
	rl.mu.Lock()
	rl.calls = append(rl.calls, rateLimitCall{key: key, limit: limit, window: window})
	fn := rl.allowFn
	rl.mu.Unlock()
	if fn != nil {
		return fn(key, limit, window)
	}
	return rateDecision{allowed: true, count: 1, windowEnd: time.Now().Add(window)}
}

func (rl *rateLimiterStub) Close() {}

func (rl *rateLimiterStub) lastCall(t *testing.T) rateLimitCall {
	t.Helper()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.calls) == 0 {
		t.Fatalf("expected limiter to be called")
	}
	return rl.calls[len(rl.calls)-1]
}

type testEnv struct {
	router  *Router
	repo    *memory.Repository
	limiter *rateLimiterStub
}

func setupRouter(t *testing.T, scope string, dbHealth func(context.Context) error) testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.New()
	issuer, err := jwtpkg.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	limiter := newRateLimiterStub()
	router := NewRouter(
		logger,
		auth.New(repo, issuer, logger),
		user.New(repo, logger),
		team.New(repo, repo, logger),
		task.New(repo, repo, logger, scope),
		limiter,
		dbHealth,
	)
	t.Cleanup(router.Close)
	return testEnv{router: router, repo: repo, limiter: limiter}
}

func (e testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:5555"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	decoded := map[string]any{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: response is not JSON: %v (%q)", method, path, err, rr.Body.String())
		}
	}
	return rr, decoded
}

func (e testEnv) signup(t *testing.T, name, email string) (string, string) {
	t.Helper()
	rr, body := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d: %s", email, rr.Code, rr.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("signup %s: missing token", email)
	}
	u, _ := body["user"].(map[string]any)
	id, _ := u["id"].(string)
	return token, id
}

func (e testEnv) createTask(t *testing.T, token string, payload map[string]any) string {
	t.Helper()
	rr, body := e.do(t, http.MethodPost, "/tasks", token, payload)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create task: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created, _ := body["task"].(map[string]any)
	id, _ := created["id"].(string)
	return id
}

func taskList(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["tasks"].([]any)
	if !ok {
		t.Fatalf("expected tasks array, got %v", body["tasks"])
	}
	if count, _ := body["count"].(float64); int(count) != len(raw) {
		t.Fatalf("count %v does not match %d tasks", body["count"], len(raw))
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		out = append(out, item.(map[string]any))
	}
	return out
}

func TestTaskLifecycle(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	token, userID := env.signup(t, "A", "a@x.com")

	rr, body := env.do(t, http.MethodPost, "/tasks", token, map[string]any{"title": "t1"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rr.Code)
	}
	created := body["task"].(map[string]any)
	if created["status"] != "pending" || created["user"] != userID {
		t.Fatalf("unexpected created task %v", created)
	}
	taskID := created["id"].(string)

	rr, body = env.do(t, http.MethodGet, "/tasks", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	tasks := taskList(t, body)
	if len(tasks) != 1 || tasks[0]["title"] != "t1" {
		t.Fatalf("expected exactly t1, got %v", tasks)
	}

	rr, body = env.do(t, http.MethodPut, "/tasks/"+taskID, token, map[string]any{"status": "completed"})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if updated := body["task"].(map[string]any); updated["status"] != "completed" || updated["title"] != "t1" {
		t.Fatalf("unexpected updated task %v", updated)
	}

	rr, _ = env.do(t, http.MethodDelete, "/tasks/"+taskID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rr.Code)
	}

	rr, body = env.do(t, http.MethodGet, "/tasks", token, nil)
	if rr.Code != http.StatusOK || len(taskList(t, body)) != 0 {
		t.Fatalf("expected empty list after delete, got %d %v", rr.Code, body)
	}
}

func TestProtectedRoutesRejectMissingOrBadTokens(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	token, userID := env.signup(t, "A", "a@x.com")

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "wrong scheme", header: "Basic " + token},
		{name: "garbage", header: "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}

	env.repo.DeleteUser(userID)
	rr, _ := env.do(t, http.MethodGet, "/user/profile", token, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("token of deleted user: expected 401, got %d", rr.Code)
	}
}

func TestSignupValidationAndDuplicateEmail(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)

	rr, body := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "A", "email": "not-an-email", "password": "123",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	details, _ := body["details"].([]any)
	fields := map[string]bool{}
	for _, d := range details {
		fields[d.(map[string]any)["field"].(string)] = true
	}
	if !fields["email"] || !fields["password"] {
		t.Fatalf("expected email and password field errors, got %v", body)
	}

	rr, _ = env.do(t, http.MethodPost, "/auth/signup", "", "{not json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: expected 400, got %d", rr.Code)
	}

	env.signup(t, "A", "a@x.com")
	rr, body = env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Other", "email": "A@X.com", "password": "secret2",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", rr.Code)
	}
	if body["error"] != "user already exists with this email" {
		t.Fatalf("unexpected duplicate message %v", body["error"])
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	env.signup(t, "A", "a@x.com")

	rr, body := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	if rr.Code != http.StatusOK || body["token"] == "" {
		t.Fatalf("login: expected 200 with token, got %d %v", rr.Code, body)
	}

	wrongPass, wrongBody := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "nope-nope"})
	unknown, unknownBody := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "secret1"})
	if wrongPass.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrongPass.Code, unknown.Code)
	}
	if wrongBody["error"] != unknownBody["error"] {
		t.Fatalf("messages differ: %v vs %v", wrongBody["error"], unknownBody["error"])
	}
}

func TestProfileReadAndUpdate(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	token, _ := env.signup(t, "A", "a@x.com")
	env.signup(t, "B", "b@x.com")

	rr, body := env.do(t, http.MethodGet, "/user/profile", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", rr.Code)
	}
	profile := body["user"].(map[string]any)
	if profile["email"] != "a@x.com" {
		t.Fatalf("unexpected profile %v", profile)
	}
	if _, leaked := profile["passwordHash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}

	rr, body = env.do(t, http.MethodPut, "/user/profile", token, map[string]string{"name": "Alice"})
	if rr.Code != http.StatusOK || body["user"].(map[string]any)["name"] != "Alice" {
		t.Fatalf("rename: got %d %v", rr.Code, body)
	}

	rr, body = env.do(t, http.MethodPut, "/user/profile", token, map[string]string{"email": "b@x.com"})
	if rr.Code != http.StatusBadRequest || body["error"] != "email already in use" {
		t.Fatalf("taken email: got %d %v", rr.Code, body)
	}

	rr, body = env.do(t, http.MethodPut, "/user/profile", token, map[string]string{"name": "   "})
	if rr.Code != http.StatusBadRequest || body["error"] != "name cannot be empty" {
		t.Fatalf("blank name: got %d %v", rr.Code, body)
	}
	details, _ := body["details"].([]any)
	if len(details) != 1 || details[0].(map[string]any)["field"] != "name" {
		t.Fatalf("expected name field detail, got %v", body["details"])
	}

	rr, body = env.do(t, http.MethodGet, "/user/profile", token, nil)
	if rr.Code != http.StatusOK || body["user"].(map[string]any)["name"] != "Alice" {
		t.Fatalf("name must be unchanged after rejected update: %d %v", rr.Code, body)
	}
}

func TestTaskMutationByOtherUser(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	alice, _ := env.signup(t, "A", "a@x.com")
	bob, _ := env.signup(t, "B", "b@x.com")
	taskID := env.createTask(t, alice, map[string]any{"title": "private"})

	rr, body := env.do(t, http.MethodPut, "/tasks/"+taskID, bob, map[string]any{"title": "mine now"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("update by other: expected 403, got %d", rr.Code)
	}
	if body["error"] != "not authorized to update this task" {
		t.Fatalf("unexpected message %v", body["error"])
	}
	rr, _ = env.do(t, http.MethodDelete, "/tasks/"+taskID, bob, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("delete by other: expected 403, got %d", rr.Code)
	}

	rr, body = env.do(t, http.MethodGet, "/tasks", bob, nil)
	if rr.Code != http.StatusOK || len(taskList(t, body)) != 0 {
		t.Fatalf("bob must not see alice's personal task: %v", body)
	}

	rr, _ = env.do(t, http.MethodDelete, "/tasks/00000000-0000-0000-0000-000000000000", alice, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodPut, "/tasks/not-a-uuid", alice, map[string]any{"title": "x"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("malformed id: expected 404, got %d", rr.Code)
	}
}

func TestTeamTasksFollowConfiguredScope(t *testing.T) {
	for _, tc := range []struct {
		scope   string
		visible int
		delete  int
	}{
		{scope: config.TeamTaskScopeAny, visible: 1, delete: http.StatusOK},
		{scope: config.TeamTaskScopeMember, visible: 0, delete: http.StatusForbidden},
	} {
		t.Run(tc.scope, func(t *testing.T) {
			env := setupRouter(t, tc.scope, nil)
			alice, _ := env.signup(t, "A", "a@x.com")
			outsider, _ := env.signup(t, "C", "c@x.com")

			rr, body := env.do(t, http.MethodPost, "/teams", alice, map[string]string{"name": "Core"})
			if rr.Code != http.StatusCreated {
				t.Fatalf("create team: expected 201, got %d", rr.Code)
			}
			teamID := body["team"].(map[string]any)["id"].(string)
			taskID := env.createTask(t, alice, map[string]any{"title": "shared", "team": teamID})

			rr, body = env.do(t, http.MethodGet, "/tasks", outsider, nil)
			if rr.Code != http.StatusOK || len(taskList(t, body)) != tc.visible {
				t.Fatalf("outsider list: got %d %v", rr.Code, body)
			}
			rr, _ = env.do(t, http.MethodDelete, "/tasks/"+taskID, outsider, nil)
			if rr.Code != tc.delete {
				t.Fatalf("outsider delete: expected %d, got %d", tc.delete, rr.Code)
			}
		})
	}
}

func TestTeamMembership(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeMember, nil)
	alice, _ := env.signup(t, "A", "a@x.com")
	bob, _ := env.signup(t, "B", "b@x.com")

	rr, body := env.do(t, http.MethodPost, "/teams", alice, map[string]string{"name": "Core"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create team: expected 201, got %d", rr.Code)
	}
	created := body["team"].(map[string]any)
	teamID := created["id"].(string)
	if members := created["members"].([]any); len(members) != 1 {
		t.Fatalf("expected owner as only member, got %v", members)
	}

	addPath := "/teams/" + teamID + "/add-member"
	if rr, _ := env.do(t, http.MethodPost, addPath, bob, map[string]string{"email": "a@x.com"}); rr.Code != http.StatusForbidden {
		t.Fatalf("non-owner add: expected 403, got %d", rr.Code)
	}
	if rr, _ := env.do(t, http.MethodPost, addPath, alice, map[string]string{"email": "ghost@x.com"}); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", rr.Code)
	}
	if rr, _ := env.do(t, http.MethodPost, "/teams/"+"00000000-0000-0000-0000-000000000000"+"/add-member", alice, map[string]string{"email": "b@x.com"}); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown team: expected 404, got %d", rr.Code)
	}
	if rr, _ := env.do(t, http.MethodPost, addPath, alice, map[string]string{"email": "b@x.com"}); rr.Code != http.StatusOK {
		t.Fatalf("add member: expected 200, got %d", rr.Code)
	}
	rr, body = env.do(t, http.MethodPost, addPath, alice, map[string]string{"email": "b@x.com"})
	if rr.Code != http.StatusBadRequest || body["error"] != "user already in team" {
		t.Fatalf("duplicate add: got %d %v", rr.Code, body)
	}

	rr, body = env.do(t, http.MethodGet, "/teams", bob, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list teams: expected 200, got %d", rr.Code)
	}
	teams := body["teams"].([]any)
	if len(teams) != 1 || len(teams[0].(map[string]any)["members"].([]any)) != 2 {
		t.Fatalf("bob should see one team with two members, got %v", teams)
	}

	// Membership is resolved per request, so bob can now work in the team.
	env.createTask(t, bob, map[string]any{"title": "joined", "team": teamID})
}

func TestListTasksFilters(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	token, _ := env.signup(t, "A", "a@x.com")
	env.createTask(t, token, map[string]any{"title": "Report draft", "dueDate": "2025-03-01"})
	env.createTask(t, token, map[string]any{"title": "report final", "status": "completed", "dueDate": "2025-03-10T15:30:00Z"})
	env.createTask(t, token, map[string]any{"title": "groceries"})

	rr, body := env.do(t, http.MethodGet, "/tasks?search=REPORT", token, nil)
	if rr.Code != http.StatusOK || len(taskList(t, body)) != 2 {
		t.Fatalf("search: got %d %v", rr.Code, body)
	}
	rr, body = env.do(t, http.MethodGet, "/tasks?status=completed", token, nil)
	if tasks := taskList(t, body); rr.Code != http.StatusOK || len(tasks) != 1 || tasks[0]["status"] != "completed" {
		t.Fatalf("status: got %d %v", rr.Code, body)
	}
	rr, body = env.do(t, http.MethodGet, "/tasks?from=2025-03-01&to=2025-03-10", token, nil)
	if rr.Code != http.StatusOK || len(taskList(t, body)) != 2 {
		t.Fatalf("date range should include both bounds: got %d %v", rr.Code, body)
	}
	rr, body = env.do(t, http.MethodGet, "/tasks?from=2025-03-02&to=2025-03-09", token, nil)
	if rr.Code != http.StatusOK || len(taskList(t, body)) != 0 {
		t.Fatalf("narrow range: got %d %v", rr.Code, body)
	}
	rr, _ = env.do(t, http.MethodGet, "/tasks?from=yesterday&to=2025-03-09", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed date: expected 400, got %d", rr.Code)
	}
}

func TestUpdateTaskDueDate(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	token, _ := env.signup(t, "A", "a@x.com")
	taskID := env.createTask(t, token, map[string]any{"title": "t", "dueDate": "2025-06-01"})

	rr, body := env.do(t, http.MethodPut, "/tasks/"+taskID, token, map[string]any{"title": "renamed"})
	if rr.Code != http.StatusOK || body["task"].(map[string]any)["dueDate"] == nil {
		t.Fatalf("absent dueDate must be kept: %d %v", rr.Code, body)
	}
	rr, body = env.do(t, http.MethodPut, "/tasks/"+taskID, token, `{"dueDate": null}`)
	if rr.Code != http.StatusOK || body["task"].(map[string]any)["dueDate"] != nil {
		t.Fatalf("null dueDate must clear: %d %v", rr.Code, body)
	}
	rr, _ = env.do(t, http.MethodPut, "/tasks/"+taskID, token, map[string]any{"status": "archived"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: expected 400, got %d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodPut, "/tasks/"+taskID, token, map[string]any{"title": "  "})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("blank title: expected 400, got %d", rr.Code)
	}
}

func TestUnmatchedRoutesAndMethods(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	token, _ := env.signup(t, "A", "a@x.com")

	rr, body := env.do(t, http.MethodGet, "/nope", "", nil)
	if rr.Code != http.StatusNotFound || body["error"] == nil {
		t.Fatalf("unmatched route: got %d %v", rr.Code, body)
	}
	rr, _ = env.do(t, http.MethodPatch, "/tasks", token, nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method: expected 405, got %d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodGet, "/auth/login", "", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method on login: expected 405, got %d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodGet, "/api/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("prefixed health: expected 200, got %d", rr.Code)
	}
}

func TestHealthReportsDatabaseState(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, func(context.Context) error { return errors.New("connection refused") })
	rr, body := env.do(t, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusServiceUnavailable || body["status"] != "degraded" {
		t.Fatalf("expected 503 degraded, got %d %v", rr.Code, body)
	}

	env = setupRouter(t, config.TeamTaskScopeAny, func(context.Context) error { return nil })
	rr, body = env.do(t, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("expected 200 ok, got %d %v", rr.Code, body)
	}
}

func TestRateLimitedRequests(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	token, userID := env.signup(t, "A", "a@x.com")

	call := env.limiter.lastCall(t)
	if call.key != "ip:203.0.113.7:signup" || call.limit != rateLimitSignup {
		t.Fatalf("unexpected signup limiter call %+v", call)
	}

	reset := time.Unix(1_950_000_000, 0)
	env.limiter.allowFn = func(key string, limit int, window time.Duration) rateDecision {
		return rateDecision{allowed: false, count: limit, windowEnd: reset}
	}
	rr, body := env.do(t, http.MethodGet, "/tasks", token, nil)
	if rr.Code != http.StatusTooManyRequests || body["error"] != "rate limit exceeded" {
		t.Fatalf("expected 429, got %d %v", rr.Code, body)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "120" {
		t.Fatalf("unexpected limit header %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("unexpected remaining header %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Reset"); got != "1950000000" {
		t.Fatalf("unexpected reset header %q", got)
	}
	if call := env.limiter.lastCall(t); call.key != "user:"+userID+":read" {
		t.Fatalf("unexpected read key %q", call.key)
	}

	env.do(t, http.MethodPost, "/tasks", token, map[string]any{"title": "x"})
	if call := env.limiter.lastCall(t); call.key != "user:"+userID+":write" || call.limit != rateLimitUserWrite {
		t.Fatalf("unexpected write limiter call %+v", call)
	}
}

func TestAuditRecoversFromPanics(t *testing.T) {
	env := setupRouter(t, config.TeamTaskScopeAny, nil)
	handler := env.router.audit("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] != "internal server error" {
		t.Fatalf("expected generic error body, got %q", rr.Body.String())
	}
}
