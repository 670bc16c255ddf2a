package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/account/models"
	"opsconsole/pkg/platform/sentinel"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestAppend(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO log ("user", client, sva, request, ip, created_at)`)).
		WithArgs("maria.souza", "12345678900", "Globoplay Premium", "Reenviar link", "10.0.0.7", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Append(context.Background(), models.AuditLogEntry{
		ActorName:        "maria.souza",
		TargetIdentifier: "12345678900",
		ServiceLabel:     "Globoplay Premium",
		ActionLabel:      "Reenviar link",
		SourceIP:         "10.0.0.7",
		Timestamp:        at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendClassifiesConnectionErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"undefined table", &pq.Error{Code: "42P01"}, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO log`)).WillReturnError(tt.err)

			err := store.Append(context.Background(), models.AuditLogEntry{Timestamp: time.Now()})
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errors.Is(err, sentinel.ErrUnavailable))
		})
	}
}

func TestListRecent(t *testing.T) {
	store, mock := newMockStore(t)
	newer := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	rows := sqlmock.NewRows([]string{"user", "client", "sva", "request", "ip", "created_at"}).
		AddRow("maria.souza", "ana@example.com", "Atlassian", "Adicionar ao grupo", "10.0.0.7", newer).
		AddRow("joao.lima", "ana.silva", "Active Directory", "Resetar senha (falhou)", "10.0.0.8", older)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "user", client, sva, request, ip, created_at`)).
		WithArgs(2).
		WillReturnRows(rows)

	entries, err := store.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Adicionar ao grupo", entries[0].ActionLabel)
	assert.Equal(t, newer, entries[0].Timestamp)
	assert.Equal(t, "Resetar senha (falhou)", entries[1].ActionLabel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).WillReturnError(errors.New("boom"))

	_, err := store.ListRecent(context.Background(), 5)
	assert.Error(t, err)
}
