package auth_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/teamflow/boardchat/internal/domain"
)

// ---------------------------------------------------------------------------
// Fake repositories
// ---------------------------------------------------------------------------

type fakeUserRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return f.getByIDFunc(ctx, id)
}

type fakeBoardRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
}

func (f *fakeBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return f.getByIDFunc(ctx, id)
}

// userRepoWith returns a repo that knows exactly the given users.
func userRepoWith(users ...*domain.User) *fakeUserRepo {
	byID := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return &fakeUserRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			u, ok := byID[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return u, nil
		},
	}
}

// boardRepoWith returns a repo that knows exactly the given boards.
func boardRepoWith(boards ...*domain.Board) *fakeBoardRepo {
	byID := make(map[uuid.UUID]*domain.Board, len(boards))
	for _, b := range boards {
		byID[b.ID] = b
	}
	return &fakeBoardRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Board, error) {
			b, ok := byID[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return b, nil
		},
	}
}
