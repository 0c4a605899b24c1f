package company

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"staffing/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListClients(ctx context.Context, limit, offset int) ([]Client, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM client_companies").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, address, gstin, email, created_at
    FROM client_companies
    ORDER BY name
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.GSTIN, &c.Email, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *Store) CreateClient(ctx context.Context, c Client) (Client, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO client_companies (name, address, gstin, email)
    VALUES ($1,$2,$3,$4)
    RETURNING id, created_at
  `, c.Name, c.Address, c.GSTIN, c.Email).Scan(&c.ID, &c.CreatedAt)
	return c, err
}

func (s *Store) GetClient(ctx context.Context, id string) (Client, error) {
	var c Client
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, address, gstin, email, created_at
    FROM client_companies
    WHERE id = $1
  `, id).Scan(&c.ID, &c.Name, &c.Address, &c.GSTIN, &c.Email, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	return c, err
}

func (s *Store) ListEndUsers(ctx context.Context, clientID string) ([]EndUser, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, client_company_id, name, address, created_at
    FROM end_users
    WHERE client_company_id = $1
    ORDER BY name
  `, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EndUser
	for rows.Next() {
		var u EndUser
		if err := rows.Scan(&u.ID, &u.ClientCompanyID, &u.Name, &u.Address, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CreateEndUser(ctx context.Context, u EndUser) (EndUser, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO end_users (client_company_id, name, address)
    VALUES ($1,$2,$3)
    RETURNING id, created_at
  `, u.ClientCompanyID, u.Name, u.Address).Scan(&u.ID, &u.CreatedAt)
	return u, err
}

func (s *Store) GetEndUser(ctx context.Context, id string) (EndUser, error) {
	var u EndUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, client_company_id, name, address, created_at
    FROM end_users
    WHERE id = $1
  `, id).Scan(&u.ID, &u.ClientCompanyID, &u.Name, &u.Address, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return EndUser{}, ErrNotFound
	}
	return u, err
}

func (s *Store) GetSettings(ctx context.Context) (Settings, []byte, error) {
	var st Settings
	var bankEnc []byte
	err := s.DB.QueryRow(ctx, `
    SELECT name, address, gstin, pan, bank_details_enc, updated_at
    FROM company_settings
    WHERE id = 1
  `).Scan(&st.Name, &st.Address, &st.GSTIN, &st.PAN, &bankEnc, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, nil, ErrNotFound
	}
	return st, bankEnc, err
}

func (s *Store) SaveSettings(ctx context.Context, st Settings, bankEnc []byte) (Settings, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO company_settings (id, name, address, gstin, pan, bank_details_enc, updated_at)
    VALUES (1,$1,$2,$3,$4,$5,now())
    ON CONFLICT (id) DO UPDATE
    SET name = EXCLUDED.name, address = EXCLUDED.address, gstin = EXCLUDED.gstin,
        pan = EXCLUDED.pan, bank_details_enc = EXCLUDED.bank_details_enc, updated_at = now()
    RETURNING updated_at
  `, st.Name, st.Address, st.GSTIN, st.PAN, bankEnc).Scan(&st.UpdatedAt)
	return st, err
}
