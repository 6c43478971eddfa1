package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/finance-tracker/internal/database"
	"github.com/iliyamo/finance-tracker/internal/queue"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/utils"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type serviceSuite struct {
	suite.Suite
	ctx       context.Context
	db        *sql.DB
	users     *repository.UserRepo
	entries   *repository.EntryRepo
	templates *repository.TemplateRepo
	tokens    *utils.TokenIssuer
	events    *recordingPublisher
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.Migrate(s.ctx, db, database.DriverSQLite))
	s.db = db
	s.users = repository.NewUserRepo(db)
	s.entries = repository.NewEntryRepo(db)
	s.templates = repository.NewTemplateRepo(db)
	s.tokens, err = utils.NewTokenIssuer("test-secret")
	require.NoError(s.T(), err)
	s.events = &recordingPublisher{}
}

func (s *serviceSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *serviceSuite) newAuth(maxUsers int) *AuthService {
	svc, err := NewAuthService(s.users, s.tokens, AuthOptions{
		BcryptCost: bcrypt.MinCost,
		MaxUsers:   maxUsers,
		Events:     s.events,
	})
	require.NoError(s.T(), err)
	return svc
}

func signup(name string) SignupInput {
	return SignupInput{Username: name, Email: name + "@example.com", Password: "Secret123", ConfirmPassword: "Secret123"}
}
