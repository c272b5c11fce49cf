package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/pipeline"
)

type stubAgent struct {
	result pipeline.Result
	err    error

	gotQuestion string
	gotTopic    string
	gotHistory  []pipeline.Turn
}

func (s *stubAgent) AnswerQuestion(_ context.Context, question, topic string, priorTurns []pipeline.Turn) (pipeline.Result, error) {
	s.gotQuestion = question
	s.gotTopic = topic
	s.gotHistory = priorTurns
	return s.result, s.err
}

func newTestServer(t *testing.T, agent *stubAgent) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewHandler(Deps{
		Agent:          agent,
		AllowedOrigins: []string{"http://localhost:5173"},
		StartedAt:      time.Now(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("posting: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAnswerQuestion_OK(t *testing.T) {
	agent := &stubAgent{result: pipeline.Result{
		Answer:    "Aim for 80-130 mg/dL before meals. Consult your care team.",
		Followups: []string{"How often should I check my glucose?"},
		Topic:     "glucose",
	}}
	srv := newTestServer(t, agent)

	resp := postJSON(t, srv.URL+"/api/answerQuestion", AnswerRequest{
		Question: "What should my blood sugar be?",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body AnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Answer != agent.result.Answer {
		t.Errorf("answer = %q, want %q", body.Answer, agent.result.Answer)
	}
	if len(body.FollowupQuestions) != 1 {
		t.Errorf("followupQuestions = %v, want 1 item", body.FollowupQuestions)
	}
	if body.Topic != "glucose" {
		t.Errorf("topic = %q, want glucose", body.Topic)
	}
	if agent.gotQuestion != "What should my blood sugar be?" {
		t.Errorf("agent got question %q", agent.gotQuestion)
	}
}

func TestAnswerQuestion_ForwardsTopicAndHistory(t *testing.T) {
	agent := &stubAgent{result: pipeline.Result{Answer: "ok", Topic: "meal"}}
	srv := newTestServer(t, agent)

	resp := postJSON(t, srv.URL+"/api/answerQuestion", AnswerRequest{
		Question: "What should I eat?",
		Topic:    "meal",
		ConversationHistory: []pipeline.Turn{
			{Role: "user", Content: "I was diagnosed last week."},
			{Role: "assistant", Content: "I'm here to help."},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if agent.gotTopic != "meal" {
		t.Errorf("agent got topic %q, want meal", agent.gotTopic)
	}
	if len(agent.gotHistory) != 2 {
		t.Errorf("agent got %d history turns, want 2", len(agent.gotHistory))
	}
}

func TestAnswerQuestion_MissingQuestion(t *testing.T) {
	agent := &stubAgent{}
	srv := newTestServer(t, agent)

	resp := postJSON(t, srv.URL+"/api/answerQuestion", AnswerRequest{Topic: "meal"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if agent.gotQuestion != "" {
		t.Error("agent should not be called without a question")
	}
}

func TestAnswerQuestion_InvalidJSON(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	resp, err := http.Post(srv.URL+"/api/answerQuestion", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("posting: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAnswerQuestion_PipelineFailure(t *testing.T) {
	agent := &stubAgent{err: errors.New("completion backend unreachable: connection refused")}
	srv := newTestServer(t, agent)

	resp := postJSON(t, srv.URL+"/api/answerQuestion", AnswerRequest{Question: "question"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	var body map[string]map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// Backend details stay out of client responses.
	if strings.Contains(body["error"]["message"], "connection refused") {
		t.Errorf("error message leaks internals: %q", body["error"]["message"])
	}
}

func TestAnswerQuestion_NilFollowupsSerializeAsEmptyArray(t *testing.T) {
	agent := &stubAgent{result: pipeline.Result{Answer: "ok", Topic: "general"}}
	srv := newTestServer(t, agent)

	resp := postJSON(t, srv.URL+"/api/answerQuestion", AnswerRequest{Question: "question"})
	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if !strings.Contains(raw.String(), `"followupQuestions":[]`) {
		t.Errorf("body should carry an empty array, got %s", raw.String())
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("getting health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if _, ok := body["timestamp"]; !ok {
		t.Error("health response missing timestamp")
	}
	if _, ok := body["uptime_seconds"]; !ok {
		t.Error("health response missing uptime_seconds")
	}
}

func TestRootGreeting(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("getting root: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("getting: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/answerQuestion", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the configured origin", got)
	}
}
