package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/lujip/citu-speech-evaluation/internal/question"
)

func newQuestionApp(t *testing.T) *fiber.App {
	t.Helper()
	seq, err := question.NewSequencer([]question.Question{
		{ID: "q1", Text: "Tell me about yourself.", Keywords: []string{"experience"}},
		{ID: "q2", Text: "Describe a challenge.", Keywords: []string{"problem", "solution"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	h := NewQuestionHandler(seq)
	app := fiber.New()
	app.Get("/api/v1/question", h.GetCurrent)
	app.Post("/api/v1/question/advance", h.Advance)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal %q: %v", body, err)
	}
	return resp.StatusCode, payload
}

func TestGetCurrentIsStable(t *testing.T) {
	app := newQuestionApp(t)

	for i := 0; i < 3; i++ {
		status, payload := doJSON(t, app, http.MethodGet, "/api/v1/question")
		if status != http.StatusOK {
			t.Fatalf("status: got %d", status)
		}
		if payload["id"] != "q1" {
			t.Errorf("call %d: got question %v, want q1", i, payload["id"])
		}
	}
}

func TestAdvanceWalksTheBank(t *testing.T) {
	app := newQuestionApp(t)

	status, payload := doJSON(t, app, http.MethodPost, "/api/v1/question/advance")
	if status != http.StatusOK {
		t.Fatalf("status: got %d", status)
	}
	if payload["success"] != true {
		t.Fatalf("advance failed: %v", payload)
	}
	q := payload["question"].(map[string]any)
	if q["id"] != "q2" {
		t.Errorf("got question %v, want q2", q["id"])
	}

	// The current question must follow the advance.
	_, current := doJSON(t, app, http.MethodGet, "/api/v1/question")
	if current["id"] != "q2" {
		t.Errorf("current after advance: got %v, want q2", current["id"])
	}
}

func TestAdvancePastEndIsTerminal(t *testing.T) {
	app := newQuestionApp(t)

	doJSON(t, app, http.MethodPost, "/api/v1/question/advance")

	for i := 0; i < 2; i++ {
		status, payload := doJSON(t, app, http.MethodPost, "/api/v1/question/advance")
		if status != http.StatusOK {
			t.Fatalf("terminal advance should stay a 200, got %d", status)
		}
		if payload["success"] != false {
			t.Errorf("terminal advance: got %v", payload)
		}
		if payload["message"] != "No more questions." {
			t.Errorf("message: got %v", payload["message"])
		}
	}

	// The sequencer should still serve the last question.
	_, current := doJSON(t, app, http.MethodGet, "/api/v1/question")
	if current["id"] != "q2" {
		t.Errorf("current after exhaustion: got %v, want q2", current["id"])
	}
}
