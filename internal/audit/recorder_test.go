package audit_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"opsconsole/internal/account/models"
	"opsconsole/internal/audit"
	"opsconsole/internal/audit/mocks"
	"opsconsole/internal/platform/metrics"
	"opsconsole/pkg/requestcontext"
)

func TestRecordFillsFromRequestContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	at := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	ctx := requestcontext.WithActor(context.Background(), "maria.souza")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.7", "")
	ctx = requestcontext.WithTime(ctx, at)

	store.EXPECT().Append(gomock.Any(), models.AuditLogEntry{
		ActorName:        "maria.souza",
		TargetIdentifier: "12345678900",
		ServiceLabel:     "Globoplay Premium",
		ActionLabel:      "Reenviar link",
		SourceIP:         "10.0.0.7",
		Timestamp:        at,
	}).Return(nil)

	rec := audit.NewRecorder(store)
	err := rec.Record(ctx, models.AuditLogEntry{
		TargetIdentifier: "12345678900",
		ServiceLabel:     "Globoplay Premium",
		ActionLabel:      "Reenviar link",
	})
	require.NoError(t, err)
}

func TestRecordKeepsExplicitValues(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := models.AuditLogEntry{ActorName: "joao.lima", SourceIP: "10.1.1.1", Timestamp: at, ActionLabel: "Suspender"}

	store.EXPECT().Append(gomock.Any(), entry).Return(nil)

	ctx := requestcontext.WithActor(context.Background(), "someone.else")
	require.NoError(t, audit.NewRecorder(store).Record(ctx, entry))
}

func TestRecordFailureIsReportedNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m := metrics.New(prometheus.NewRegistry())

	rec := audit.NewRecorder(store, audit.WithLogger(logger), audit.WithMetrics(m))
	err := rec.Record(requestcontext.WithRequestID(context.Background(), "req-1"), models.AuditLogEntry{ActionLabel: "Suspender"})

	require.Error(t, err)
	assert.ErrorIs(t, err, audit.ErrWriteFailed)
	assert.Contains(t, buf.String(), "audit write failed")
	assert.Contains(t, buf.String(), "log_type=audit")
	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWriteFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AuditWrites))
}

func TestRecentClampsLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	rec := audit.NewRecorder(store)

	store.EXPECT().ListRecent(gomock.Any(), 50).Return(nil, nil)
	store.EXPECT().ListRecent(gomock.Any(), 500).Return(nil, nil)
	store.EXPECT().ListRecent(gomock.Any(), 7).Return([]models.AuditLogEntry{{ActionLabel: "Fixit"}}, nil)

	_, err := rec.Recent(context.Background(), 0)
	require.NoError(t, err)
	_, err = rec.Recent(context.Background(), 10_000)
	require.NoError(t, err)
	got, err := rec.Recent(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
