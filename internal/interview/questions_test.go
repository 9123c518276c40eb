package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yihu111/tech-europe-hackathon/internal/rag"
)

type stubRetriever struct {
	entries []rag.Entry
	err     error
	query   string
}

func (s *stubRetriever) Query(_ context.Context, _, text string, _ int) ([]rag.Entry, error) {
	s.query = text
	return s.entries, s.err
}

type stubGenerator struct {
	response string
	err      error
	failOnce bool
	calls    int
	prompt   string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	if s.failOnce {
		s.failOnce = false
		return "", errors.New("transient failure")
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func fragment(text string) rag.Entry {
	return rag.Entry{Identifier: "alice", Kind: rag.KindInsight, Text: text}
}

func TestGenerateQuestionsGroundsOnFragments(t *testing.T) {
	retriever := &stubRetriever{entries: []rag.Entry{
		fragment("Repository api: a FastAPI service with OAuth login."),
		fragment("Python: 60% of detected activity."),
	}}
	gen := &stubGenerator{response: `["Tell me about the OAuth flow you built.", "How did you structure the FastAPI service?"]`}

	svc := NewService(retriever, gen, nil)

	questions, err := svc.GenerateQuestions(context.Background(), Request{
		Identifier:     "alice",
		JobDescription: "Backend engineer, Python, auth experience required.",
		Count:          2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %v", questions)
	}
	if !strings.Contains(gen.prompt, "OAuth login") {
		t.Fatalf("prompt must include retrieved fragments:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "Backend engineer") {
		t.Fatalf("prompt must include the job description:\n%s", gen.prompt)
	}
	if !strings.Contains(retriever.query, "Backend engineer") {
		t.Fatalf("retrieval query must carry the job description, got %q", retriever.query)
	}
}

func TestGenerateQuestionsTrimsToCount(t *testing.T) {
	retriever := &stubRetriever{entries: []rag.Entry{fragment("something")}}
	gen := &stubGenerator{response: `["q1", "q2", "q3", "q4"]`}

	svc := NewService(retriever, gen, nil)

	questions, err := svc.GenerateQuestions(context.Background(), Request{
		Identifier:     "alice",
		JobDescription: "any",
		Count:          2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 || questions[1] != "q2" {
		t.Fatalf("expected first 2 questions, got %v", questions)
	}
}

func TestGenerateQuestionsFallsBackToSkillList(t *testing.T) {
	retriever := &stubRetriever{} // nothing indexed
	gen := &stubGenerator{response: `["What drew you to Go?"]`}

	svc := NewService(retriever, gen, nil)

	questions, err := svc.GenerateQuestions(context.Background(), Request{
		Identifier:     "alice",
		JobDescription: "Go developer role.",
		Count:          1,
		FallbackSkills: []string{"Go", "PostgreSQL"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %v", questions)
	}
	if !strings.Contains(gen.prompt, "Known skills: Go, PostgreSQL") {
		t.Fatalf("prompt must ground on the fallback skill list:\n%s", gen.prompt)
	}
}

func TestGenerateQuestionsInsufficientContext(t *testing.T) {
	retriever := &stubRetriever{}
	gen := &stubGenerator{response: `["unused"]`}

	svc := NewService(retriever, gen, nil)

	_, err := svc.GenerateQuestions(context.Background(), Request{
		Identifier:     "alice",
		JobDescription: "A job with zero overlap.",
		Count:          3,
	})
	if !errors.Is(err, ErrInsufficientContext) {
		t.Fatalf("expected ErrInsufficientContext, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("model must not be called without grounding, got %d calls", gen.calls)
	}
}

func TestGenerateQuestionsRetriesTransientFailureOnce(t *testing.T) {
	retriever := &stubRetriever{entries: []rag.Entry{fragment("something")}}
	gen := &stubGenerator{response: `["q"]`, failOnce: true}

	svc := NewService(retriever, gen, nil)

	questions, err := svc.GenerateQuestions(context.Background(), Request{
		Identifier:     "alice",
		JobDescription: "any",
		Count:          1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected retry to recover, got %v", questions)
	}
	if gen.calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", gen.calls)
	}
}

func TestGenerateQuestionsStripsCodeFence(t *testing.T) {
	retriever := &stubRetriever{entries: []rag.Entry{fragment("something")}}
	gen := &stubGenerator{response: "```json\n[\"fenced question\"]\n```"}

	svc := NewService(retriever, gen, nil)

	questions, err := svc.GenerateQuestions(context.Background(), Request{
		Identifier:     "alice",
		JobDescription: "any",
		Count:          1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 || questions[0] != "fenced question" {
		t.Fatalf("unexpected questions: %v", questions)
	}
}
