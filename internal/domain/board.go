package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID          uuid.UUID
	Name        string
	Description string
	OwnerID     uuid.UUID
	MemberIDs   []uuid.UUID // users allowed on the board; admins are exempt
	CreatedAt   time.Time
}

type BoardRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
}
