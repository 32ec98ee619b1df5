package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/ecoboard/backend/internal/models"
	"github.com/ecoboard/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// runConformance exercises the behaviour every Storage backend shares.
func runConformance(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	ctx := context.Background()

	t.Run("user lookup miss", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetUser(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("create user applies defaults", func(t *testing.T) {
		s := newStore(t)
		name := "alice"
		u, err := s.CreateUser(ctx, models.NewUser{WalletAddress: "W1", Username: &name})
		require.NoError(t, err)
		assert.Equal(t, "W1", u.WalletAddress)
		assert.Equal(t, "alice", *u.Username)
		assert.Zero(t, u.EcoPoints)
		assert.Zero(t, u.Streak)
		assert.Zero(t, u.CompletedTasks)
		assert.Empty(t, u.Achievements)
		assert.NotNil(t, u.Achievements)
		assert.False(t, u.CreatedAt.IsZero())

		got, err := s.GetUser(ctx, "W1")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("create user twice overwrites and resets points", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateUser(ctx, models.NewUser{WalletAddress: "W1"})
		require.NoError(t, err)
		u, err := s.UpdateUserEcoPoints(ctx, "W1", 50)
		require.NoError(t, err)
		require.Equal(t, 50, u.EcoPoints)

		u, err = s.CreateUser(ctx, models.NewUser{WalletAddress: "W1"})
		require.NoError(t, err)
		assert.Equal(t, 0, u.EcoPoints)

		board, err := s.GetLeaderboard(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, board, 1, "overwrite must not add a second user")
	})

	t.Run("eco points delta is signed and unclamped", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateUser(ctx, models.NewUser{WalletAddress: "W1"})
		require.NoError(t, err)

		u, err := s.UpdateUserEcoPoints(ctx, "W1", 10)
		require.NoError(t, err)
		assert.Equal(t, 10, u.EcoPoints)

		u, err = s.UpdateUserEcoPoints(ctx, "W1", -25)
		require.NoError(t, err)
		assert.Equal(t, -15, u.EcoPoints)

		_, err = s.UpdateUserEcoPoints(ctx, "ghost", 5)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("streak is an absolute set", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateUser(ctx, models.NewUser{WalletAddress: "W1", Streak: intPtr(4)})
		require.NoError(t, err)

		u, err := s.UpdateUserStreak(ctx, "W1", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, u.Streak)

		_, err = s.UpdateUserStreak(ctx, "ghost", 1)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("leaderboard sorts by points with stable ties", func(t *testing.T) {
		s := newStore(t)
		points := map[string]int{"A": 10, "B": 30, "C": 10, "D": 30, "E": 5}
		for _, w := range []string{"A", "B", "C", "D", "E"} {
			_, err := s.CreateUser(ctx, models.NewUser{WalletAddress: w})
			require.NoError(t, err)
			_, err = s.UpdateUserEcoPoints(ctx, w, points[w])
			require.NoError(t, err)
		}

		board, err := s.GetLeaderboard(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "D", "A", "C", "E"}, wallets(board))

		board, err = s.GetLeaderboard(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "D", "A"}, wallets(board))

		board, err = s.GetLeaderboard(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, board)
	})

	t.Run("proposals newest first with fresh tallies", func(t *testing.T) {
		s := newStore(t)
		end := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
		for _, title := range []string{"first", "second", "third"} {
			p, err := s.CreateProposal(ctx, models.NewProposal{
				Title: title, Description: "d", Category: "Energy", AuthorWallet: "A", EndDate: end,
			})
			require.NoError(t, err)
			assert.True(t, p.IsActive)
			assert.Zero(t, p.YesVotes)
			assert.Zero(t, p.NoVotes)
			assert.True(t, p.EndDate.Equal(end))
		}

		list, err := s.GetProposals(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "third", list[0].Title)
		assert.Equal(t, "first", list[2].Title)
		assert.Greater(t, list[0].ID, list[1].ID)
		assert.Greater(t, list[1].ID, list[2].ID)
	})

	t.Run("proposal tallies are absolute", func(t *testing.T) {
		s := newStore(t)
		p, err := s.CreateProposal(ctx, models.NewProposal{Title: "t", Description: "d", Category: "c", AuthorWallet: "A", EndDate: time.Now()})
		require.NoError(t, err)

		got, err := s.UpdateProposalVotes(ctx, p.ID, 4, 2)
		require.NoError(t, err)
		assert.Equal(t, 4, got.YesVotes)
		assert.Equal(t, 2, got.NoVotes)

		got, err = s.UpdateProposalVotes(ctx, p.ID, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, got.YesVotes)
		assert.Equal(t, 0, got.NoVotes)

		_, err = s.UpdateProposalVotes(ctx, p.ID+100, 1, 1)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.GetProposal(ctx, p.ID+100)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("recount sets tallies from stored votes", func(t *testing.T) {
		s := newStore(t)
		p, err := s.CreateProposal(ctx, models.NewProposal{Title: "t", Description: "d", Category: "c", AuthorWallet: "A", EndDate: time.Now()})
		require.NoError(t, err)
		other, err := s.CreateProposal(ctx, models.NewProposal{Title: "o", Description: "d", Category: "c", AuthorWallet: "A", EndDate: time.Now()})
		require.NoError(t, err)

		for _, v := range []models.NewVote{
			{ProposalID: p.ID, VoterWallet: "A", Vote: true},
			{ProposalID: p.ID, VoterWallet: "B", Vote: true},
			{ProposalID: p.ID, VoterWallet: "C", Vote: false},
			{ProposalID: other.ID, VoterWallet: "A", Vote: false},
		} {
			_, err := s.CreateVote(ctx, v)
			require.NoError(t, err)
		}
		_, err = s.UpdateProposalVotes(ctx, p.ID, 40, 40)
		require.NoError(t, err)

		got, err := s.RecountProposalVotes(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.YesVotes)
		assert.Equal(t, 1, got.NoVotes)

		stored, err := s.GetProposal(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stored.TotalVotes())

		_, err = s.RecountProposalVotes(ctx, other.ID+100)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("record eco task credits the wallet", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateUser(ctx, models.NewUser{WalletAddress: "W1"})
		require.NoError(t, err)

		task, user, err := s.RecordEcoTask(ctx, models.NewEcoTask{UserWallet: "W1", TaskType: "tip", TaskID: "tip-1", PointsAwarded: 15})
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, 15, task.PointsAwarded)
		assert.Equal(t, 15, user.EcoPoints)

		task, user, err = s.RecordEcoTask(ctx, models.NewEcoTask{UserWallet: "ghost", TaskType: "tip", TaskID: "tip-1", PointsAwarded: 5})
		require.NoError(t, err)
		assert.Nil(t, user)
		assert.Equal(t, "ghost", task.UserWallet)

		tasks, err := s.GetUserTasks(ctx, "ghost")
		require.NoError(t, err)
		assert.Len(t, tasks, 1, "task is kept without a user")
	})

	t.Run("votes by composite key", func(t *testing.T) {
		s := newStore(t)
		hash := "5xSig"
		v, err := s.CreateVote(ctx, models.NewVote{ProposalID: 1, VoterWallet: "A", Vote: true, TransactionHash: &hash})
		require.NoError(t, err)
		assert.Equal(t, "5xSig", *v.TransactionHash)

		_, err = s.CreateVote(ctx, models.NewVote{ProposalID: 1, VoterWallet: "B", Vote: false})
		require.NoError(t, err)
		_, err = s.CreateVote(ctx, models.NewVote{ProposalID: 2, VoterWallet: "A", Vote: false})
		require.NoError(t, err)

		got, err := s.GetUserVote(ctx, 1, "A")
		require.NoError(t, err)
		assert.Equal(t, v.ID, got.ID)
		assert.True(t, got.Vote)

		_, err = s.GetUserVote(ctx, 1, "C")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		votes, err := s.GetProposalVotes(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, votes, 2)
		assert.Equal(t, models.Tally{Yes: 1, No: 1}, models.CountVotes(votes))

		votes, err = s.GetProposalVotes(ctx, 99)
		require.NoError(t, err)
		assert.Empty(t, votes)
	})

	t.Run("tasks filtered by wallet", func(t *testing.T) {
		s := newStore(t)
		for i, w := range []string{"A", "B", "A"} {
			task, err := s.CreateEcoTask(ctx, models.NewEcoTask{UserWallet: w, TaskType: "tip", TaskID: "tip-1", PointsAwarded: 10 * (i + 1)})
			require.NoError(t, err)
			assert.False(t, task.CompletedAt.IsZero())
		}

		tasks, err := s.GetUserTasks(ctx, "A")
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, 10, tasks[0].PointsAwarded)
		assert.Equal(t, 30, tasks[1].PointsAwarded)
		assert.Less(t, tasks[0].ID, tasks[1].ID)
	})
}

func wallets(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.WalletAddress)
	}
	return out
}
