package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamflow/boardchat/internal/domain"
)

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var b domain.Board
	var description *string
	var memberIDs []uuid.UUID

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, owner_id, member_ids, created_at
		 FROM boards WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &description, &b.OwnerID, &memberIDs, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", err)
	}

	b.Description = derefStr(description)
	b.MemberIDs = memberIDs

	return &b, nil
}
