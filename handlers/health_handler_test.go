package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chatbridge/chatbridge/repositories/postgres"
)

func TestHealthHandler(t *testing.T) {
	deps := newTestDeps(t, &MockChatSettingsRepository{}, &MockResponseRepository{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	HealthHandler(deps)(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestReadyHandler(t *testing.T) {
	t.Run("ready when database answers", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()

		deps := newTestDeps(t, &MockChatSettingsRepository{}, &MockResponseRepository{})
		deps.DB = postgres.NewDBFromConnection(db, zaptest.NewLogger(t))

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()

		ReadyHandler(deps)(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ready"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unavailable when database is down", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		deps := newTestDeps(t, &MockChatSettingsRepository{}, &MockResponseRepository{})
		deps.DB = postgres.NewDBFromConnection(db, zaptest.NewLogger(t))

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()

		ReadyHandler(deps)(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
