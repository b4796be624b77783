package services

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/studybridge-backend/internal/db"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/platform/openai"
)

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// fakeAI stubs the provider client; unset hooks fail loudly so tests notice
// unexpected calls.
type fakeAI struct {
	generateText    func(ctx context.Context, messages []openai.Message) (string, error)
	generateJSON    func(ctx context.Context, messages []openai.Message, schemaName string, schema map[string]interface{}, out interface{}) error
	searchVector    func(ctx context.Context, vectorStoreID, query string, maxResults int) (*openai.VectorSearchResults, error)
	listStoreFiles  func(ctx context.Context, vectorStoreID string) ([]openai.VectorStoreFile, error)
	listAccountFile func(ctx context.Context, purpose string) ([]openai.AccountFile, error)
	retrieveFile    func(ctx context.Context, fileID string) (*openai.AccountFile, error)
	attachFiles     func(ctx context.Context, vectorStoreID string, fileIDs []string) error
}

func (f *fakeAI) GenerateText(ctx context.Context, messages []openai.Message) (string, error) {
	if f.generateText == nil {
		panic("unexpected GenerateText call")
	}
	return f.generateText(ctx, messages)
}

func (f *fakeAI) GenerateJSON(ctx context.Context, messages []openai.Message, schemaName string, schema map[string]interface{}, out interface{}) error {
	if f.generateJSON == nil {
		panic("unexpected GenerateJSON call")
	}
	return f.generateJSON(ctx, messages, schemaName, schema, out)
}

func (f *fakeAI) SearchVectorStore(ctx context.Context, vectorStoreID, query string, maxResults int) (*openai.VectorSearchResults, error) {
	if f.searchVector == nil {
		panic("unexpected SearchVectorStore call")
	}
	return f.searchVector(ctx, vectorStoreID, query, maxResults)
}

func (f *fakeAI) ListVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]openai.VectorStoreFile, error) {
	if f.listStoreFiles == nil {
		panic("unexpected ListVectorStoreFiles call")
	}
	return f.listStoreFiles(ctx, vectorStoreID)
}

func (f *fakeAI) ListAccountFiles(ctx context.Context, purpose string) ([]openai.AccountFile, error) {
	if f.listAccountFile == nil {
		panic("unexpected ListAccountFiles call")
	}
	return f.listAccountFile(ctx, purpose)
}

func (f *fakeAI) RetrieveFile(ctx context.Context, fileID string) (*openai.AccountFile, error) {
	if f.retrieveFile == nil {
		panic("unexpected RetrieveFile call")
	}
	return f.retrieveFile(ctx, fileID)
}

func (f *fakeAI) AttachVectorStoreFiles(ctx context.Context, vectorStoreID string, fileIDs []string) error {
	if f.attachFiles == nil {
		panic("unexpected AttachVectorStoreFiles call")
	}
	return f.attachFiles(ctx, vectorStoreID, fileIDs)
}
