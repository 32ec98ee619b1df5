package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ecoboard/backend/internal/models"
)

type voteKey struct {
	proposalID int64
	voter      string
}

// MemStorage keeps everything in process memory. Iteration follows
// insertion order; re-inserting an existing key keeps its position.
type MemStorage struct {
	mu sync.RWMutex

	users     map[string]*models.User
	userOrder []string

	proposals     map[int64]*models.Proposal
	proposalOrder []int64

	votes     map[voteKey]*models.Vote
	voteOrder []voteKey

	tasks []*models.EcoTask

	nextUserID     int64
	nextProposalID int64
	nextVoteID     int64
	nextTaskID     int64

	now func() time.Time
}

type MemOption func(*MemStorage)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) MemOption {
	return func(s *MemStorage) { s.now = now }
}

func NewMemStorage(opts ...MemOption) *MemStorage {
	s := &MemStorage{
		users:          make(map[string]*models.User),
		proposals:      make(map[int64]*models.Proposal),
		votes:          make(map[voteKey]*models.Vote),
		nextUserID:     1,
		nextProposalID: 1,
		nextVoteID:     1,
		nextTaskID:     1,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Users ---

func (s *MemStorage) GetUser(_ context.Context, walletAddress string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[walletAddress]
	if !ok {
		return nil, ErrNotFound
	}
	c := u.Clone()
	return &c, nil
}

func (s *MemStorage) CreateUser(_ context.Context, in models.NewUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := in.Build(s.nextUserID, s.now())
	s.nextUserID++

	if _, exists := s.users[u.WalletAddress]; !exists {
		s.userOrder = append(s.userOrder, u.WalletAddress)
	}
	s.users[u.WalletAddress] = &u

	c := u.Clone()
	return &c, nil
}

func (s *MemStorage) UpdateUserEcoPoints(_ context.Context, walletAddress string, delta int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[walletAddress]
	if !ok {
		return nil, ErrNotFound
	}
	u.EcoPoints += delta
	c := u.Clone()
	return &c, nil
}

func (s *MemStorage) UpdateUserStreak(_ context.Context, walletAddress string, streak int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[walletAddress]
	if !ok {
		return nil, ErrNotFound
	}
	u.Streak = streak
	c := u.Clone()
	return &c, nil
}

func (s *MemStorage) GetLeaderboard(_ context.Context, limit int) ([]models.User, error) {
	s.mu.RLock()
	users := make([]models.User, 0, len(s.userOrder))
	for _, addr := range s.userOrder {
		users = append(users, s.users[addr].Clone())
	}
	s.mu.RUnlock()

	// Full stable sort first, truncate after: ties keep insertion order.
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].EcoPoints > users[j].EcoPoints
	})

	if limit < 0 {
		limit = 0
	}
	if limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

// --- Proposals ---

func (s *MemStorage) GetProposals(_ context.Context) ([]models.Proposal, error) {
	s.mu.RLock()
	out := make([]models.Proposal, 0, len(s.proposalOrder))
	for _, id := range s.proposalOrder {
		out = append(out, *s.proposals[id])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemStorage) GetProposal(_ context.Context, id int64) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *MemStorage) CreateProposal(_ context.Context, in models.NewProposal) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := in.Build(s.nextProposalID, s.now())
	s.nextProposalID++

	s.proposals[p.ID] = &p
	s.proposalOrder = append(s.proposalOrder, p.ID)

	c := p
	return &c, nil
}

func (s *MemStorage) UpdateProposalVotes(_ context.Context, id int64, yesVotes, noVotes int) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.YesVotes = yesVotes
	p.NoVotes = noVotes
	c := *p
	return &c, nil
}

func (s *MemStorage) RecountProposalVotes(_ context.Context, id int64) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, ErrNotFound
	}
	yes, no := 0, 0
	for _, key := range s.voteOrder {
		if key.proposalID != id {
			continue
		}
		if s.votes[key].Vote {
			yes++
		} else {
			no++
		}
	}
	p.YesVotes = yes
	p.NoVotes = no
	c := *p
	return &c, nil
}

// --- Votes ---

func (s *MemStorage) CreateVote(_ context.Context, in models.NewVote) (*models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := in.Build(s.nextVoteID, s.now())
	s.nextVoteID++

	key := voteKey{proposalID: v.ProposalID, voter: v.VoterWallet}
	if _, exists := s.votes[key]; !exists {
		s.voteOrder = append(s.voteOrder, key)
	}
	s.votes[key] = &v

	c := v
	return &c, nil
}

func (s *MemStorage) GetUserVote(_ context.Context, proposalID int64, voterWallet string) (*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.votes[voteKey{proposalID: proposalID, voter: voterWallet}]
	if !ok {
		return nil, ErrNotFound
	}
	c := *v
	return &c, nil
}

func (s *MemStorage) GetProposalVotes(_ context.Context, proposalID int64) ([]models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Vote{}
	for _, key := range s.voteOrder {
		if key.proposalID == proposalID {
			out = append(out, *s.votes[key])
		}
	}
	return out, nil
}

// --- Eco tasks ---

func (s *MemStorage) CreateEcoTask(_ context.Context, in models.NewEcoTask) (*models.EcoTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := in.Build(s.nextTaskID, s.now())
	s.nextTaskID++
	s.tasks = append(s.tasks, &t)

	c := t
	return &c, nil
}

func (s *MemStorage) RecordEcoTask(_ context.Context, in models.NewEcoTask) (*models.EcoTask, *models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := in.Build(s.nextTaskID, s.now())
	s.nextTaskID++
	s.tasks = append(s.tasks, &t)
	task := t

	u, ok := s.users[in.UserWallet]
	if !ok {
		return &task, nil, nil
	}
	u.EcoPoints += in.PointsAwarded
	c := u.Clone()
	return &task, &c, nil
}

func (s *MemStorage) GetUserTasks(_ context.Context, userWallet string) ([]models.EcoTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.EcoTask{}
	for _, t := range s.tasks {
		if t.UserWallet == userWallet {
			out = append(out, *t)
		}
	}
	return out, nil
}
