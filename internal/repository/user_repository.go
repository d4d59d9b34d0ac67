package repository

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qugame/twentyq-backend/internal/model"
)

// ErrNotFound signals that an operation targeted zero rows. Callers use it to
// distinguish "nothing there" from real database failures.
var ErrNotFound = errors.New("not found")

const passcodeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newPasscode generates the shared-secret passcode assigned to new players.
func newPasscode(rng *rand.Rand, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = passcodeChars[rng.Intn(len(passcodeChars))]
	}
	return string(b)
}

// UserRepository handles player account data access.
type UserRepository struct {
	pool *pgxpool.Pool
	rng  *rand.Rand
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		pool: pool,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetByUsername retrieves a player by username. Returns ErrNotFound when the
// username is unknown.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, passcode, name, created_at
		 FROM users
		 WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Passcode, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetOrCreate returns the existing player or creates one transparently
// (guest mode). Idempotent under concurrent calls for the same username.
func (r *UserRepository) GetOrCreate(ctx context.Context, username string) (*model.User, error) {
	name := capitalize(username)
	passcode := newPasscode(r.rng, 8)

	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, passcode, name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		 RETURNING id, username, passcode, name, created_at`,
		username, passcode, name,
	).Scan(&u.ID, &u.Username, &u.Passcode, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a player's passcode. The comparison is plaintext; the
// passcode is an operator-issued shared secret, not a credential. Returns
// ErrNotFound for unknown users and wrong passcodes alike so callers cannot
// distinguish the two.
func (r *UserRepository) Authenticate(ctx context.Context, username, passcode string) (*model.User, error) {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u.Passcode != passcode {
		return nil, ErrNotFound
	}
	return u, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
