package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/openai"
	"github.com/yungbote/studybridge-backend/internal/repos"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type quizFixture struct {
	db         *gorm.DB
	flashcards repos.FlashcardRepo
	quizzes    repos.QuizRepo
	svc        QuizService
	userID     uuid.UUID
}

func newQuizFixture(t *testing.T, gen GenerationService) *quizFixture {
	t.Helper()
	gdb := newTestDB(t)
	log := newTestLogger()
	f := &quizFixture{
		db:         gdb,
		flashcards: repos.NewFlashcardRepo(gdb, log),
		quizzes:    repos.NewQuizRepo(gdb, log),
		userID:     uuid.New(),
	}
	f.svc = NewQuizService(gdb, f.quizzes, f.flashcards, gen, log)
	user := &types.User{ID: f.userID, Email: "s@example.com", PasswordHash: "x", Name: "S", Role: "user"}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return f
}

func (f *quizFixture) seedCard(t *testing.T, question, answer string) types.Flashcard {
	t.Helper()
	card := types.Flashcard{
		ID:       uuid.New(),
		UserID:   f.userID,
		Question: question,
		Answer:   answer,
		IsActive: true,
	}
	if err := f.flashcards.Create(context.Background(), nil, &card); err != nil {
		t.Fatalf("seed flashcard: %v", err)
	}
	return card
}

func TestCreateFromFlashcardsSnapshotsContent(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	card := f.seedCard(t, "What is ATP?", "Energy currency of the cell")

	result, err := f.svc.CreateFromFlashcards(ctx, f.userID, types.CreateQuizRequest{
		FlashcardIDs: []uuid.UUID{card.ID, card.ID},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if len(result.Questions) != 1 {
		t.Fatalf("duplicate ids not deduped: %d questions", len(result.Questions))
	}
	if result.Questions[0].OrderIndex != 1 {
		t.Fatalf("order index = %d, want 1", result.Questions[0].OrderIndex)
	}

	// Editing the flashcard afterwards must not touch the snapshot.
	card.Answer = "Something else"
	if err := f.flashcards.Save(ctx, nil, &card); err != nil {
		t.Fatalf("edit flashcard: %v", err)
	}
	stored, err := f.quizzes.GetQuestion(ctx, nil, result.Questions[0].ID)
	if err != nil {
		t.Fatalf("reload question: %v", err)
	}
	if stored.CorrectAnswer != "Energy currency of the cell" {
		t.Fatalf("snapshot drifted: %q", stored.CorrectAnswer)
	}
}

func TestCreateFromFlashcardsRejectsForeignCards(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	card := f.seedCard(t, "q", "a")

	_, err := f.svc.CreateFromFlashcards(ctx, f.userID, types.CreateQuizRequest{
		FlashcardIDs: []uuid.UUID{card.ID, uuid.New()},
	})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeOwnership {
		t.Fatalf("want %s, got %v", apierr.CodeOwnership, err)
	}
}

func TestAnswerQuestionRecomputesScore(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	card1 := f.seedCard(t, "q1", "right")
	card2 := f.seedCard(t, "q2", "also right")

	result, err := f.svc.CreateFromFlashcards(ctx, f.userID, types.CreateQuizRequest{
		FlashcardIDs: []uuid.UUID{card1.ID, card2.ID},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	quizID := result.Quiz.ID

	first, err := f.svc.AnswerQuestion(ctx, f.userID, "user", quizID, result.Questions[0].ID, "  right  ")
	if err != nil {
		t.Fatalf("answer 1: %v", err)
	}
	if first.Question.IsCorrect == nil || !*first.Question.IsCorrect {
		t.Fatal("trimmed exact match not graded correct")
	}
	if first.Quiz.CorrectAnswers != 1 || first.Quiz.TotalQuestions != 2 {
		t.Fatalf("counters = %d/%d, want 1/2", first.Quiz.CorrectAnswers, first.Quiz.TotalQuestions)
	}
	if first.Quiz.ScorePercent != 50 {
		t.Fatalf("score = %v, want 50", first.Quiz.ScorePercent)
	}

	second, err := f.svc.AnswerQuestion(ctx, f.userID, "user", quizID, result.Questions[1].ID, "ALSO RIGHT")
	if err != nil {
		t.Fatalf("answer 2: %v", err)
	}
	if second.Question.IsCorrect == nil || *second.Question.IsCorrect {
		t.Fatal("case-sensitive grading violated")
	}
	if second.Quiz.ScorePercent != 50 {
		t.Fatalf("score after wrong answer = %v, want 50", second.Quiz.ScorePercent)
	}

	// Re-answering flips the stored grade and the recompute follows.
	third, err := f.svc.AnswerQuestion(ctx, f.userID, "user", quizID, result.Questions[1].ID, "also right")
	if err != nil {
		t.Fatalf("answer 3: %v", err)
	}
	if third.Quiz.CorrectAnswers != 2 || third.Quiz.ScorePercent != 100 {
		t.Fatalf("recompute wrong: %d correct, %v%%", third.Quiz.CorrectAnswers, third.Quiz.ScorePercent)
	}
}

func TestAnswerQuestionQuizMismatch(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	card := f.seedCard(t, "q", "a")

	quiz1, err := f.svc.CreateFromFlashcards(ctx, f.userID, types.CreateQuizRequest{FlashcardIDs: []uuid.UUID{card.ID}})
	if err != nil {
		t.Fatalf("quiz1: %v", err)
	}
	quiz2, err := f.svc.CreateFromFlashcards(ctx, f.userID, types.CreateQuizRequest{FlashcardIDs: []uuid.UUID{card.ID}})
	if err != nil {
		t.Fatalf("quiz2: %v", err)
	}

	_, err = f.svc.AnswerQuestion(ctx, f.userID, "user", quiz2.Quiz.ID, quiz1.Questions[0].ID, "a")
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeMismatch {
		t.Fatalf("want %s, got %v", apierr.CodeMismatch, err)
	}
}

func TestAnswerQuestionOwnership(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	card := f.seedCard(t, "q", "a")
	quiz, err := f.svc.CreateFromFlashcards(ctx, f.userID, types.CreateQuizRequest{FlashcardIDs: []uuid.UUID{card.ID}})
	if err != nil {
		t.Fatalf("quiz: %v", err)
	}

	stranger := uuid.New()
	_, err = f.svc.AnswerQuestion(ctx, stranger, "user", quiz.Quiz.ID, quiz.Questions[0].ID, "a")
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeOwnership {
		t.Fatalf("stranger not rejected: %v", err)
	}
	// An admin may answer on behalf of the user.
	if _, err := f.svc.AnswerQuestion(ctx, stranger, "admin", quiz.Quiz.ID, quiz.Questions[0].ID, "a"); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
}

func TestCreateAutoMCQPersistsValidatedPlan(t *testing.T) {
	var captured []types.Flashcard
	gen := &stubGeneration{
		mcqPlan: func(ctx context.Context, cards []types.Flashcard, title string) (*MCQPlan, error) {
			captured = cards
			return &MCQPlan{
				Title: "Generated",
				Questions: []MCQQuestion{{
					FlashcardID: cards[0].ID.String(),
					Question:    "Pick one",
					Options: []types.MCQOption{
						{Label: "A", Text: "right"},
						{Label: "B", Text: "w1"},
						{Label: "C", Text: "w2"},
						{Label: "D", Text: "w3"},
					},
					CorrectLabel: "A",
				}},
			}, nil
		},
	}
	f := newQuizFixture(t, gen)
	ctx := context.Background()
	card := f.seedCard(t, "q", "right")

	result, err := f.svc.CreateAutoMCQ(ctx, f.userID, types.AutoMCQQuizRequest{FlashcardIDs: []uuid.UUID{card.ID}})
	if err != nil {
		t.Fatalf("auto mcq: %v", err)
	}
	if len(captured) != 1 || captured[0].ID != card.ID {
		t.Fatalf("generation saw wrong cards: %+v", captured)
	}
	if result.Quiz.Title != "Generated" || result.Quiz.SourceType != types.QuizSourceAutoMCQ {
		t.Fatalf("quiz metadata wrong: %+v", result.Quiz)
	}
	if len(result.Questions[0].MCQOptions) == 0 {
		t.Fatal("mcq options not persisted")
	}

	// MCQ submissions grade against the stored answer text, not the label.
	labeled, err := f.svc.AnswerQuestion(ctx, f.userID, "user", result.Quiz.ID, result.Questions[0].ID, "A")
	if err != nil {
		t.Fatalf("answer with label: %v", err)
	}
	if labeled.Question.IsCorrect == nil || *labeled.Question.IsCorrect {
		t.Fatal("option label graded as a correct answer")
	}
	answered, err := f.svc.AnswerQuestion(ctx, f.userID, "user", result.Quiz.ID, result.Questions[0].ID, "  right  ")
	if err != nil {
		t.Fatalf("answer with text: %v", err)
	}
	if answered.Question.IsCorrect == nil || !*answered.Question.IsCorrect {
		t.Fatal("stored answer text graded incorrect")
	}
}

func TestAnswerQuestionUnknownQuizIsNotFound(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	card := f.seedCard(t, "q", "a")
	quiz, err := f.svc.CreateFromFlashcards(ctx, f.userID, types.CreateQuizRequest{FlashcardIDs: []uuid.UUID{card.ID}})
	if err != nil {
		t.Fatalf("quiz: %v", err)
	}

	_, err = f.svc.AnswerQuestion(ctx, f.userID, "user", uuid.New(), quiz.Questions[0].ID, "a")
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeNotFound {
		t.Fatalf("missing quiz should be %s, got %v", apierr.CodeNotFound, err)
	}
}

// stubGeneration satisfies GenerationService for quiz, chat and stats tests.
type stubGeneration struct {
	chatTurn    func(ctx context.Context, messages []openai.Message) (*ChatTurnResult, error)
	mcqPlan     func(ctx context.Context, cards []types.Flashcard, title string) (*MCQPlan, error)
	title       func(ctx context.Context, prompt string) (string, error)
	explanation func(ctx context.Context, prompt string) (string, error)
}

func (s *stubGeneration) ChatTurn(ctx context.Context, messages []openai.Message) (*ChatTurnResult, error) {
	if s.chatTurn == nil {
		panic("unexpected ChatTurn call")
	}
	return s.chatTurn(ctx, messages)
}

func (s *stubGeneration) MCQPlan(ctx context.Context, cards []types.Flashcard, title string) (*MCQPlan, error) {
	if s.mcqPlan == nil {
		panic("unexpected MCQPlan call")
	}
	return s.mcqPlan(ctx, cards, title)
}

func (s *stubGeneration) GenerateTitle(ctx context.Context, prompt string) (string, error) {
	if s.title == nil {
		panic("unexpected GenerateTitle call")
	}
	return s.title(ctx, prompt)
}

func (s *stubGeneration) GenerateExplanation(ctx context.Context, prompt string) (string, error) {
	if s.explanation == nil {
		panic("unexpected GenerateExplanation call")
	}
	return s.explanation(ctx, prompt)
}
