package company

import (
	"context"
)

// Cipher seals sensitive columns at rest.
type Cipher interface {
	EncryptString(value string) ([]byte, error)
	DecryptString(value []byte) (string, error)
}

type Service struct {
	store  StoreAPI
	cipher Cipher
}

func NewService(store StoreAPI, cipher Cipher) *Service {
	return &Service{store: store, cipher: cipher}
}

func (s *Service) ListClients(ctx context.Context, limit, offset int) ([]Client, int, error) {
	return s.store.ListClients(ctx, limit, offset)
}

func (s *Service) CreateClient(ctx context.Context, c Client) (Client, error) {
	c, err := normalizeClient(c)
	if err != nil {
		return Client{}, err
	}
	return s.store.CreateClient(ctx, c)
}

func (s *Service) GetClient(ctx context.Context, id string) (Client, error) {
	return s.store.GetClient(ctx, id)
}

func (s *Service) ListEndUsers(ctx context.Context, clientID string) ([]EndUser, error) {
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.store.ListEndUsers(ctx, clientID)
}

func (s *Service) CreateEndUser(ctx context.Context, u EndUser) (EndUser, error) {
	u, err := normalizeEndUser(u)
	if err != nil {
		return EndUser{}, err
	}
	if _, err := s.store.GetClient(ctx, u.ClientCompanyID); err != nil {
		return EndUser{}, err
	}
	return s.store.CreateEndUser(ctx, u)
}

func (s *Service) GetEndUser(ctx context.Context, id string) (EndUser, error) {
	return s.store.GetEndUser(ctx, id)
}

// ResolveParties loads the bill-to client and, when given, the ship-to end
// user, checking the end user belongs to that client.
func (s *Service) ResolveParties(ctx context.Context, clientID, endUserID string) (*Client, *EndUser, error) {
	if clientID == "" {
		if endUserID != "" {
			return nil, nil, ErrEndUserMismatch
		}
		return nil, nil, nil
	}
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	if endUserID == "" {
		return &client, nil, nil
	}
	user, err := s.store.GetEndUser(ctx, endUserID)
	if err != nil {
		return nil, nil, err
	}
	if user.ClientCompanyID != client.ID {
		return nil, nil, ErrEndUserMismatch
	}
	return &client, &user, nil
}

// Settings returns the issuing company with bank details decrypted.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	st, bankEnc, err := s.store.GetSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	if len(bankEnc) > 0 {
		bank, err := s.cipher.DecryptString(bankEnc)
		if err != nil {
			return Settings{}, err
		}
		st.BankDetails = bank
	}
	return st, nil
}

func (s *Service) UpdateSettings(ctx context.Context, st Settings) (Settings, error) {
	st, err := normalizeSettings(st)
	if err != nil {
		return Settings{}, err
	}
	bankEnc, err := s.cipher.EncryptString(st.BankDetails)
	if err != nil {
		return Settings{}, err
	}
	return s.store.SaveSettings(ctx, st, bankEnc)
}
