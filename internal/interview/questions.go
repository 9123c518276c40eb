// Package interview generates interview questions grounded in a
// candidate's indexed profile and a specific job description.
package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"github.com/yihu111/tech-europe-hackathon/internal/ai"
	"github.com/yihu111/tech-europe-hackathon/internal/rag"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const defaultFragments = 5

// ErrInsufficientContext means neither the profile index nor a fallback
// skill list yielded anything to ground questions in. The caller must
// fall back to generic, job-only questions.
var ErrInsufficientContext = errors.New("no profile context available for question generation")

// retriever is the slice of the profile index the service consumes.
type retriever interface {
	Query(ctx context.Context, identifier, text string, k int) ([]rag.Entry, error)
}

// Request describes one question-generation call. FallbackSkills ground
// the questions when the index has nothing for the identifier; leave it
// empty to make a missing index an ErrInsufficientContext failure.
type Request struct {
	Identifier     string
	JobDescription string
	Count          int
	FallbackSkills []string
}

type Service struct {
	retriever retriever
	generator ai.Generator
	logger    *zap.Logger
	fragments int
}

func NewService(retriever retriever, generator ai.Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		retriever: retriever,
		generator: generator,
		logger:    logger,
		fragments: defaultFragments,
	}
}

// GenerateQuestions retrieves the profile fragments most relevant to the
// job description and asks the model for tailored questions grounded in
// them. The result is ordered as the model produced it, trimmed to
// req.Count.
func (s *Service) GenerateQuestions(ctx context.Context, req Request) ([]string, error) {
	if req.Count < 1 {
		req.Count = 1
	}

	log := s.logger.With(zap.String("identifier", req.Identifier))

	entries, err := s.retriever.Query(ctx, req.Identifier, enhancedQuery(req.JobDescription), s.fragments)
	if err != nil {
		return nil, fmt.Errorf("query profile index: %w", err)
	}

	grounding := buildContext(entries, req.FallbackSkills)
	if grounding == "" {
		return nil, ErrInsufficientContext
	}
	if len(entries) == 0 {
		log.Info("no indexed fragments, grounding on raw skill list",
			zap.Int("skills", len(req.FallbackSkills)),
		)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{JOB_DESCRIPTION}}", strings.TrimSpace(req.JobDescription))
	prompt = strings.ReplaceAll(prompt, "{{CONTEXT}}", grounding)
	prompt = strings.ReplaceAll(prompt, "{{COUNT}}", strconv.Itoa(req.Count))

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		log.Debug("question generation failed, retrying once", zap.Error(err))
		raw, err = s.generator.GenerateContent(ctx, prompt)
	}
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions, err := parseQuestions(raw)
	if err != nil {
		return nil, err
	}
	if len(questions) > req.Count {
		questions = questions[:req.Count]
	}

	log.Info("interview questions generated",
		zap.Int("questions", len(questions)),
		zap.Int("fragments", len(entries)),
	)
	return questions, nil
}

// enhancedQuery rephrases the job description as a retrieval query so
// the index matches on skills and experience rather than on the posting
// boilerplate.
func enhancedQuery(jobDescription string) string {
	return "skills, projects and experience relevant to this job: " + strings.TrimSpace(jobDescription)
}

func buildContext(entries []rag.Entry, fallbackSkills []string) string {
	if len(entries) > 0 {
		lines := make([]string, 0, len(entries))
		for _, entry := range entries {
			lines = append(lines, "- "+entry.Text)
		}
		return strings.Join(lines, "\n")
	}

	if len(fallbackSkills) > 0 {
		return "Known skills: " + strings.Join(fallbackSkills, ", ")
	}

	return ""
}

func parseQuestions(raw string) ([]string, error) {
	cleaned := extractJSON(raw)

	var items []string
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("parse questions response: %w", err)
	}

	questions := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		questions = append(questions, item)
	}
	return questions, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
