package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// UserExists reports whether a user with id exists.
func (s *BunStore) UserExists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	ok, err := s.db.NewSelect().Model((*userModel)(nil)).Where("u.id = ?", id).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("store: check user: %w", err)
	}
	return ok, nil
}

// FindOrCreateUser returns the id of the user registered with email,
// creating it with name when absent. Emails compare case-insensitively.
func (s *BunStore) FindOrCreateUser(ctx context.Context, name, email string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	var existing userModel
	err := s.db.NewSelect().Model(&existing).Where("u.email = ?", email).Limit(1).Scan(ctx)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("store: find user: %w", err)
	}

	user := &userModel{DisplayName: name, Email: email, CreatedAt: s.timestamp()}
	if _, err := s.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return 0, fmt.Errorf("store: create user: %w", err)
	}
	s.logger.WithField("id", user.ID).Debug("user created")
	return user.ID, nil
}
