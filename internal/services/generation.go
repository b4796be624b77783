package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/platform/openai"
	"github.com/yungbote/studybridge-backend/internal/types"
)

const maxFlashcardsPerTurn = 5

// ChatTurnResult is the decoded structured output of one tutoring turn.
type ChatTurnResult struct {
	AssistantText string              `json:"assistant_text"`
	Flashcards    []ProposedFlashcard `json:"flashcards"`
}

type ProposedFlashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MCQPlan is the decoded structured output of an auto-quiz generation call.
type MCQPlan struct {
	Title     string        `json:"title"`
	Questions []MCQQuestion `json:"questions"`
}

type MCQQuestion struct {
	FlashcardID  string            `json:"flashcard_id"`
	Question     string            `json:"question"`
	Options      []types.MCQOption `json:"options"`
	CorrectLabel string            `json:"correct_label"`
}

type GenerationService interface {
	ChatTurn(ctx context.Context, messages []openai.Message) (*ChatTurnResult, error)
	MCQPlan(ctx context.Context, cards []types.Flashcard, title string) (*MCQPlan, error)
	GenerateTitle(ctx context.Context, prompt string) (string, error)
	GenerateExplanation(ctx context.Context, prompt string) (string, error)
}

type generationService struct {
	ai  openai.Client
	log *logger.Logger
}

func NewGenerationService(ai openai.Client, log *logger.Logger) GenerationService {
	return &generationService{ai: ai, log: log.With("service", "generation")}
}

var chatTurnSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"assistant_text", "flashcards"},
	"properties": map[string]interface{}{
		"assistant_text": map[string]interface{}{"type": "string"},
		"flashcards": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"question", "answer"},
				"properties": map[string]interface{}{
					"question": map[string]interface{}{"type": "string"},
					"answer":   map[string]interface{}{"type": "string"},
				},
			},
		},
	},
}

func (s *generationService) ChatTurn(ctx context.Context, messages []openai.Message) (*ChatTurnResult, error) {
	var result ChatTurnResult
	if err := s.ai.GenerateJSON(ctx, messages, "chat_turn", chatTurnSchema, &result); err != nil {
		return nil, apierr.Generation("chat generation failed: %v", err)
	}
	if strings.TrimSpace(result.AssistantText) == "" {
		return nil, apierr.Generation("empty assistant text")
	}
	result.Flashcards = clipFlashcards(result.Flashcards)
	return &result, nil
}

// clipFlashcards drops proposals with an empty question or answer and caps
// the survivors at maxFlashcardsPerTurn.
func clipFlashcards(cards []ProposedFlashcard) []ProposedFlashcard {
	out := make([]ProposedFlashcard, 0, len(cards))
	for _, card := range cards {
		question := strings.TrimSpace(card.Question)
		answer := strings.TrimSpace(card.Answer)
		if question == "" || answer == "" {
			continue
		}
		out = append(out, ProposedFlashcard{Question: question, Answer: answer})
		if len(out) == maxFlashcardsPerTurn {
			break
		}
	}
	return out
}

var mcqPlanSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"title", "questions"},
	"properties": map[string]interface{}{
		"title": map[string]interface{}{"type": "string"},
		"questions": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"flashcard_id", "question", "options", "correct_label"},
				"properties": map[string]interface{}{
					"flashcard_id": map[string]interface{}{"type": "string"},
					"question":     map[string]interface{}{"type": "string"},
					"options": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type":                 "object",
							"additionalProperties": false,
							"required":             []string{"label", "text"},
							"properties": map[string]interface{}{
								"label": map[string]interface{}{"type": "string"},
								"text":  map[string]interface{}{"type": "string"},
							},
						},
					},
					"correct_label": map[string]interface{}{"type": "string"},
				},
			},
		},
	},
}

func (s *generationService) MCQPlan(ctx context.Context, cards []types.Flashcard, title string) (*MCQPlan, error) {
	messages := buildMCQMessages(cards, title)
	var plan MCQPlan
	if err := s.ai.GenerateJSON(ctx, messages, "mcq_plan", mcqPlanSchema, &plan); err != nil {
		return nil, apierr.Generation("quiz generation failed: %v", err)
	}
	answers := make(map[string]string, len(cards))
	for _, card := range cards {
		answers[card.ID.String()] = card.Answer
	}
	if err := validateMCQPlan(&plan, answers); err != nil {
		return nil, err
	}
	if err := substituteAnswers(&plan, answers); err != nil {
		return nil, err
	}
	return &plan, nil
}

// validateMCQPlan enforces the structural contract on a generated plan: one
// question per requested flashcard, exactly four options labeled A-D with
// distinct non-empty texts, and a correct label that exists.
func validateMCQPlan(plan *MCQPlan, answers map[string]string) error {
	if len(plan.Questions) != len(answers) {
		return apierr.GenerationValidation(
			"expected %d questions, got %d", len(answers), len(plan.Questions))
	}
	seen := make(map[string]struct{}, len(plan.Questions))
	for i, q := range plan.Questions {
		if _, ok := answers[q.FlashcardID]; !ok {
			return apierr.GenerationValidation("question %d references unknown flashcard %q", i+1, q.FlashcardID)
		}
		if _, dup := seen[q.FlashcardID]; dup {
			return apierr.GenerationValidation("duplicate question for flashcard %q", q.FlashcardID)
		}
		seen[q.FlashcardID] = struct{}{}
		if strings.TrimSpace(q.Question) == "" {
			return apierr.GenerationValidation("question %d has empty text", i+1)
		}
		if err := validateOptions(q, i); err != nil {
			return err
		}
	}
	return nil
}

func validateOptions(q MCQQuestion, index int) error {
	if len(q.Options) != 4 {
		return apierr.GenerationValidation("question %d has %d options, want 4", index+1, len(q.Options))
	}
	wanted := map[string]bool{"A": false, "B": false, "C": false, "D": false}
	texts := make(map[string]struct{}, 4)
	for _, opt := range q.Options {
		seen, known := wanted[opt.Label]
		if !known || seen {
			return apierr.GenerationValidation("question %d has invalid option labels", index+1)
		}
		wanted[opt.Label] = true
		text := strings.TrimSpace(opt.Text)
		if text == "" {
			return apierr.GenerationValidation("question %d has an empty option", index+1)
		}
		key := strings.ToLower(text)
		if _, dup := texts[key]; dup {
			return apierr.GenerationValidation("question %d has duplicate options", index+1)
		}
		texts[key] = struct{}{}
	}
	if _, ok := wanted[q.CorrectLabel]; !ok {
		return apierr.GenerationValidation("question %d has invalid correct label %q", index+1, q.CorrectLabel)
	}
	return nil
}

// substituteAnswers overwrites each correct option's text with the stored
// flashcard answer, then re-checks option distinctness.
func substituteAnswers(plan *MCQPlan, answers map[string]string) error {
	for i := range plan.Questions {
		q := &plan.Questions[i]
		answer := strings.TrimSpace(answers[q.FlashcardID])
		texts := make(map[string]struct{}, 4)
		for j := range q.Options {
			if q.Options[j].Label == q.CorrectLabel {
				q.Options[j].Text = answer
			}
			key := strings.ToLower(strings.TrimSpace(q.Options[j].Text))
			if key == "" {
				return apierr.GenerationValidation("question %d lost its correct option text", i+1)
			}
			if _, dup := texts[key]; dup {
				return apierr.GenerationValidation(
					"question %d options collide after answer substitution", i+1)
			}
			texts[key] = struct{}{}
		}
	}
	return nil
}

func buildMCQMessages(cards []types.Flashcard, title string) []openai.Message {
	var sb strings.Builder
	if title != "" {
		sb.WriteString("Quiz topic: " + title + "\n\n")
	}
	sb.WriteString("Flashcards:\n")
	for _, card := range cards {
		fmt.Fprintf(&sb, "- id=%s\n  question: %s\n  answer: %s\n", card.ID, card.Question, card.Answer)
	}
	return []openai.Message{
		{Role: "system", Content: mcqSystemPrompt},
		{Role: "user", Content: sb.String()},
	}
}

func (s *generationService) GenerateTitle(ctx context.Context, prompt string) (string, error) {
	return s.ai.GenerateText(ctx, []openai.Message{
		{Role: "system", Content: titleSystemPrompt},
		{Role: "user", Content: prompt},
	})
}

func (s *generationService) GenerateExplanation(ctx context.Context, prompt string) (string, error) {
	text, err := s.ai.GenerateText(ctx, []openai.Message{
		{Role: "system", Content: explanationSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", apierr.Generation("explanation generation failed: %v", err)
	}
	return text, nil
}
