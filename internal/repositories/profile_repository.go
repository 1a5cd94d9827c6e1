package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-service/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")
)

// ProfileRepository abstracts profile persistence.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, username, email, passwordHash, firstName, lastName string) (models.Profile, error)
	GetProfile(ctx context.Context, userID int) (models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (models.Profile, error)
	BulkProfiles(ctx context.Context, userIDs []int) ([]models.Profile, error)
	SearchProfiles(ctx context.Context, usernamePrefix string, limit int) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, userID int, firstName, lastName string, avatarURL, bio *string) (models.Profile, error)
	SetRole(ctx context.Context, userID int, role string) error
	SetBlocked(ctx context.Context, userID int, blocked bool) error
}

const profileColumns = `id, username, email, password_hash, first_name, last_name, avatar_url, bio, role, blocked, created_at`

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// CreateProfile inserts a new account row.
func (r *ProfileRepo) CreateProfile(ctx context.Context, username, email, passwordHash, firstName, lastName string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile,
		`INSERT INTO profiles (username, email, password_hash, first_name, last_name)
         VALUES ($1, $2, $3, $4, $5) RETURNING `+profileColumns,
		username, email, passwordHash, firstName, lastName)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "profiles_username_key":
				return models.Profile{}, ErrUsernameTaken
			case "profiles_email_key":
				return models.Profile{}, ErrEmailTaken
			}
			return models.Profile{}, ErrUsernameTaken
		}
		return models.Profile{}, err
	}
	return profile, nil
}

// GetProfile fetches a profile by id.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// GetProfileByEmail fetches a profile by email for login.
func (r *ProfileRepo) GetProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// BulkProfiles fetches the profiles for the given ids. Missing ids are
// simply absent from the result; callers fall back per id.
func (r *ProfileRepo) BulkProfiles(ctx context.Context, userIDs []int) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var profiles []models.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1)`, pq.Array(userIDs))
	return profiles, err
}

// SearchProfiles returns non-blocked profiles whose username starts with the prefix.
func (r *ProfileRepo) SearchProfiles(ctx context.Context, usernamePrefix string, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT `+profileColumns+` FROM profiles
         WHERE username ILIKE $1 || '%' AND blocked = FALSE
         ORDER BY username ASC LIMIT $2`, usernamePrefix, limit)
	return profiles, err
}

// UpdateProfile mutates the owner-editable fields.
func (r *ProfileRepo) UpdateProfile(ctx context.Context, userID int, firstName, lastName string, avatarURL, bio *string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile,
		`UPDATE profiles SET first_name=$2, last_name=$3, avatar_url=$4, bio=$5
         WHERE id=$1 RETURNING `+profileColumns,
		userID, firstName, lastName, avatarURL, bio)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// SetRole updates the role field (admin-only operation).
func (r *ProfileRepo) SetRole(ctx context.Context, userID int, role string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET role=$2 WHERE id=$1`, userID, role)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrProfileNotFound)
}

// SetBlocked toggles the blocked flag (admin-only operation).
func (r *ProfileRepo) SetBlocked(ctx context.Context, userID int, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET blocked=$2 WHERE id=$1`, userID, blocked)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrProfileNotFound)
}

func requireRowAffected(res sql.Result, notFound error) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}
