package repo

import (
	"context"
	"errors"
	"strings"

	"possessher/internal/domain"
	"possessher/internal/infra"
	"possessher/internal/sqlinline"
)

// ProfileRepositoryPG implements domain.ProfileRepository against the
// provider's PostgreSQL profiles table.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProfileRepository creates a new ProfileRepositoryPG.
func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// IsPro reports whether the profile with exactly this email carries the pro
// flag. A missing profile is not an error.
func (r *ProfileRepositoryPG) IsPro(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, errors.New("profile: email is required")
	}
	var isPro bool
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectProfileProByEmail, email).Scan(&isPro); err != nil {
		if infra.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return isPro, nil
}

// Get loads the profile for an email.
func (r *ProfileRepositoryPG) Get(ctx context.Context, email string) (*domain.Profile, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectProfileByEmail, strings.TrimSpace(email))
	return scanProfile(row.Scan)
}

// SetPro grants or revokes the pro flag for an email.
func (r *ProfileRepositoryPG) SetPro(ctx context.Context, email string, isPro bool) (*domain.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("profile: email is required")
	}
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateProfilePro, email, isPro)
	return scanProfile(row.Scan)
}

func scanProfile(scan func(dest ...any) error) (*domain.Profile, error) {
	var p domain.Profile
	if err := scan(&p.ID, &p.Email, &p.IsPro); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

var _ domain.ProfileRepository = (*ProfileRepositoryPG)(nil)
