package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chatbridge/chatbridge/models"
	"github.com/chatbridge/chatbridge/repositories"
)

var settingsColumns = []string{
	"id", "session_id", "chat_id", "provider", "model",
	"system_prompt", "endpoint_config", "created_at", "updated_at",
}

func newMockSettingsRepo(t *testing.T) (repositories.ChatSettingsRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wrapped := NewDBFromConnection(db, zaptest.NewLogger(t))
	return NewChatSettingsRepository(wrapped, zaptest.NewLogger(t)), mock
}

func TestChatSettingsRepository_GetBySessionAndChat(t *testing.T) {
	repo, mock := newMockSettingsRepo(t)

	id := uuid.New()
	prompt := "be brief"
	now := time.Now()

	mock.ExpectQuery("SELECT id, session_id, chat_id, provider, model, system_prompt, endpoint_config, created_at, updated_at FROM chat_settings").
		WithArgs("s1", "c1").
		WillReturnRows(sqlmock.NewRows(settingsColumns).
			AddRow(id, "s1", "c1", "anthropic", "claude-3-5-haiku-20241022", &prompt, []byte(`{}`), now, now))

	settings, err := repo.GetBySessionAndChat(context.Background(), "s1", "c1")
	require.NoError(t, err)

	assert.Equal(t, id, settings.ID)
	assert.Equal(t, "anthropic", settings.Provider)
	assert.Equal(t, "claude-3-5-haiku-20241022", settings.Model)
	require.NotNil(t, settings.SystemPrompt)
	assert.Equal(t, "be brief", *settings.SystemPrompt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatSettingsRepository_GetBySessionAndChat_NotFound(t *testing.T) {
	repo, mock := newMockSettingsRepo(t)

	mock.ExpectQuery("SELECT id, session_id, chat_id").
		WithArgs("s1", "missing").
		WillReturnRows(sqlmock.NewRows(settingsColumns))

	_, err := repo.GetBySessionAndChat(context.Background(), "s1", "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatSettingsRepository_GetBySessionAndChat_QueryError(t *testing.T) {
	repo, mock := newMockSettingsRepo(t)

	mock.ExpectQuery("SELECT id, session_id, chat_id").
		WithArgs("s1", "c1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetBySessionAndChat(context.Background(), "s1", "c1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repositories.ErrNotFound)
}

func TestChatSettingsRepository_Upsert(t *testing.T) {
	repo, mock := newMockSettingsRepo(t)

	mock.ExpectExec("INSERT INTO chat_settings").
		WithArgs(sqlmock.AnyArg(), "s1", "c1", "openai", "gpt-4o-mini", nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	settings := &models.ChatSettings{
		SessionID: "s1",
		ChatID:    "c1",
		Provider:  "openai",
		Model:     "gpt-4o-mini",
	}

	err := repo.Upsert(context.Background(), settings)
	require.NoError(t, err)

	// Upsert assigns the identity and timestamps
	assert.NotEqual(t, uuid.Nil, settings.ID)
	assert.False(t, settings.CreatedAt.IsZero())
	assert.False(t, settings.UpdatedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatSettingsRepository_Upsert_Error(t *testing.T) {
	repo, mock := newMockSettingsRepo(t)

	mock.ExpectExec("INSERT INTO chat_settings").
		WillReturnError(errors.New("constraint violation"))

	err := repo.Upsert(context.Background(), &models.ChatSettings{SessionID: "s1", ChatID: "c1"})
	require.Error(t, err)
}

func TestChatSettingsRepository_Delete(t *testing.T) {
	repo, mock := newMockSettingsRepo(t)

	mock.ExpectExec("DELETE FROM chat_settings").
		WithArgs("s1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
