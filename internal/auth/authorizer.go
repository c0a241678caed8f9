package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/teamflow/boardchat/internal/domain"
)

// AccessReason classifies why board access was denied.
type AccessReason string

const (
	ReasonBoardNotFound AccessReason = "board-not-found"
	ReasonNotAMember    AccessReason = "not-a-member"
)

// AccessError is returned when an identity may not join a board channel.
// Like AuthError it is connection-terminal and never detailed to the client.
type AccessError struct {
	Reason AccessReason
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("auth: access denied (%s)", e.Reason)
}

// Authorizer decides whether a resolved identity may join a board channel.
type Authorizer struct {
	boards domain.BoardRepository
}

func NewAuthorizer(boards domain.BoardRepository) *Authorizer {
	return &Authorizer{boards: boards}
}

// Authorize looks up the board and applies the membership rule: admins may
// join every board, everyone else must appear in the board's member set.
// Returns *AccessError for classified denials; any other error is an internal
// lookup failure.
func (a *Authorizer) Authorize(ctx context.Context, identity *Identity, boardID uuid.UUID) (*domain.Board, error) {
	board, err := a.boards.GetByID(ctx, boardID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &AccessError{Reason: ReasonBoardNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("auth.Authorizer.Authorize: %w", err)
	}

	if domain.NormalizeRole(identity.Role) == domain.RoleAdmin {
		return board, nil
	}

	if lo.Contains(board.MemberIDs, identity.ID) {
		return board, nil
	}

	return nil, &AccessError{Reason: ReasonNotAMember}
}
