package company

import "context"

type StoreAPI interface {
	ListClients(ctx context.Context, limit, offset int) ([]Client, int, error)
	CreateClient(ctx context.Context, c Client) (Client, error)
	GetClient(ctx context.Context, id string) (Client, error)
	ListEndUsers(ctx context.Context, clientID string) ([]EndUser, error)
	CreateEndUser(ctx context.Context, u EndUser) (EndUser, error)
	GetEndUser(ctx context.Context, id string) (EndUser, error)
	GetSettings(ctx context.Context) (Settings, []byte, error)
	SaveSettings(ctx context.Context, s Settings, bankEnc []byte) (Settings, error)
}
