//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"opsconsole/internal/account/models"
	"opsconsole/pkg/testutil/containers"
)

type StoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T(), "../../../../migrations/0001_create_log.sql")
	s.store = New(s.pg.DB)
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "log"))
}

func (s *StoreSuite) TestAppendAndListRecent() {
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	for i, label := range []string{"Suspender", "Reativar", "Reenviar link"} {
		s.Require().NoError(s.store.Append(ctx, models.AuditLogEntry{
			ActorName:        "maria.souza",
			TargetIdentifier: "12345678900",
			ServiceLabel:     "Globoplay Premium",
			ActionLabel:      label,
			SourceIP:         "10.0.0.7",
			Timestamp:        base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("Reenviar link", entries[0].ActionLabel)
	s.Equal("Reativar", entries[1].ActionLabel)
	s.True(base.Add(2 * time.Minute).Equal(entries[0].Timestamp))
	s.Equal("maria.souza", entries[0].ActorName)
}

func (s *StoreSuite) TestConcurrentAppendsAreIndependent() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.store.Append(ctx, models.AuditLogEntry{
				ActorName:        "joao.lima",
				TargetIdentifier: "ana.silva",
				ServiceLabel:     "Active Directory",
				ActionLabel:      "Resetar senha",
				Timestamp:        time.Now(),
			}))
		}()
	}
	wg.Wait()

	entries, err := s.store.ListRecent(ctx, 100)
	s.Require().NoError(err)
	s.Len(entries, 20)
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.store.Ping(context.Background()))
}
