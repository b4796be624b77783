package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/types"
)

func validPlan() *MCQPlan {
	return &MCQPlan{
		Title: "Anatomy basics",
		Questions: []MCQQuestion{
			{
				FlashcardID: "card-1",
				Question:    "What carries oxygen in blood?",
				Options: []types.MCQOption{
					{Label: "A", Text: "Red blood cells"},
					{Label: "B", Text: "Platelets"},
					{Label: "C", Text: "Plasma"},
					{Label: "D", Text: "White blood cells"},
				},
				CorrectLabel: "A",
			},
		},
	}
}

func TestValidateMCQPlanAcceptsValidPlan(t *testing.T) {
	answers := map[string]string{"card-1": "Red blood cells"}
	if err := validateMCQPlan(validPlan(), answers); err != nil {
		t.Fatalf("valid plan rejected: %v", err)
	}
}

func TestValidateMCQPlanRejections(t *testing.T) {
	answers := map[string]string{"card-1": "Red blood cells"}
	cases := []struct {
		name   string
		mutate func(*MCQPlan)
	}{
		{"missing question", func(p *MCQPlan) { p.Questions = nil }},
		{"unknown flashcard", func(p *MCQPlan) { p.Questions[0].FlashcardID = "card-99" }},
		{"empty question text", func(p *MCQPlan) { p.Questions[0].Question = "  " }},
		{"three options", func(p *MCQPlan) { p.Questions[0].Options = p.Questions[0].Options[:3] }},
		{"bad label", func(p *MCQPlan) { p.Questions[0].Options[3].Label = "E" }},
		{"duplicate label", func(p *MCQPlan) { p.Questions[0].Options[1].Label = "A" }},
		{"empty option text", func(p *MCQPlan) { p.Questions[0].Options[2].Text = "" }},
		{"duplicate option text", func(p *MCQPlan) { p.Questions[0].Options[2].Text = "platelets" }},
		{"correct label not present", func(p *MCQPlan) { p.Questions[0].CorrectLabel = "Z" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := validPlan()
			tc.mutate(plan)
			err := validateMCQPlan(plan, answers)
			if err == nil {
				t.Fatal("expected rejection, got nil")
			}
			var ae *apierr.Error
			if !errors.As(err, &ae) || ae.Code != apierr.CodeGenerationValidation {
				t.Fatalf("want %s, got %v", apierr.CodeGenerationValidation, err)
			}
		})
	}
}

func TestValidateMCQPlanDuplicateFlashcard(t *testing.T) {
	answers := map[string]string{"card-1": "a1", "card-2": "a2"}
	plan := validPlan()
	second := plan.Questions[0]
	plan.Questions = append(plan.Questions, second)
	if err := validateMCQPlan(plan, answers); err == nil {
		t.Fatal("duplicate flashcard id accepted")
	}
}

func TestSubstituteAnswersOverwritesCorrectOption(t *testing.T) {
	plan := validPlan()
	answers := map[string]string{"card-1": "Erythrocytes"}
	if err := substituteAnswers(plan, answers); err != nil {
		t.Fatalf("substitution failed: %v", err)
	}
	if got := plan.Questions[0].Options[0].Text; got != "Erythrocytes" {
		t.Fatalf("correct option not substituted: %q", got)
	}
}

func TestSubstituteAnswersDetectsCollision(t *testing.T) {
	plan := validPlan()
	// The stored answer equals a distractor, so substitution collides.
	answers := map[string]string{"card-1": "Platelets"}
	err := substituteAnswers(plan, answers)
	if err == nil {
		t.Fatal("post-substitution collision accepted")
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeGenerationValidation {
		t.Fatalf("want %s, got %v", apierr.CodeGenerationValidation, err)
	}
}

func TestClipFlashcards(t *testing.T) {
	in := []ProposedFlashcard{
		{Question: " q1 ", Answer: " a1 "},
		{Question: "", Answer: "a2"},
		{Question: "q3", Answer: "   "},
		{Question: "q4", Answer: "a4"},
		{Question: "q5", Answer: "a5"},
		{Question: "q6", Answer: "a6"},
		{Question: "q7", Answer: "a7"},
		{Question: "q8", Answer: "a8"},
	}
	out := clipFlashcards(in)
	if len(out) != 5 {
		t.Fatalf("want 5 surviving cards, got %d", len(out))
	}
	if out[0].Question != "q1" || out[0].Answer != "a1" {
		t.Fatalf("fields not trimmed: %+v", out[0])
	}
	for _, card := range out {
		if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
			t.Fatalf("empty card survived: %+v", card)
		}
	}
}
