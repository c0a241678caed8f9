package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/teamflow/boardchat/internal/chat"
)

type GetOnlineUsersInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type OnlineUsers struct {
	BoardID     string   `json:"board_id"`
	OnlineUsers []string `json:"online_users"`
	Count       int      `json:"count"`
}

type GetOnlineUsersOutput struct {
	Body *OnlineUsers
}

// RegisterPresenceRoutes exposes the presence snapshot. An unknown board is
// simply empty, never an error.
func RegisterPresenceRoutes(api huma.API, registry *chat.Registry) {
	huma.Register(api, huma.Operation{
		OperationID: "get-online-users",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/online-users",
		Summary:     "List users currently connected to a board",
		Tags:        []string{"Presence"},
	}, func(_ context.Context, input *GetOnlineUsersInput) (*GetOnlineUsersOutput, error) {
		online := registry.ListOnline(input.BoardID)

		return &GetOnlineUsersOutput{Body: &OnlineUsers{
			BoardID: input.BoardID.String(),
			OnlineUsers: lo.Map(online, func(id uuid.UUID, _ int) string {
				return id.String()
			}),
			Count: len(online),
		}}, nil
	})
}
