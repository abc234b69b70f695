package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-server-go/internal/domain/auth/model"
	"catalog-server-go/internal/platform/storage"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a SQLite-backed user store on an existing database handle.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Save(ctx context.Context, user model.UserRecord) error {
	if user.Username == "" {
		return fmt.Errorf("username required")
	}
	scopes, err := json.Marshal(user.Scopes)
	if err != nil {
		return fmt.Errorf("encode scopes: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing storage.User
		err := tx.Where("username = ?", user.Username).First(&existing).Error
		switch {
		case err == nil:
			existing.HashedPassword = user.HashedPassword
			existing.FullName = user.FullName
			existing.Email = user.Email
			existing.Role = string(user.Role)
			existing.Active = user.Active
			existing.Scopes = datatypes.JSON(scopes)
			return tx.Save(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			record := &storage.User{
				Username:       user.Username,
				HashedPassword: user.HashedPassword,
				FullName:       user.FullName,
				Email:          user.Email,
				Role:           string(user.Role),
				Active:         user.Active,
				Scopes:         datatypes.JSON(scopes),
				CreatedAt:      time.Now(),
			}
			return tx.Create(record).Error
		default:
			return err
		}
	})
}

func (s *sqliteStore) Get(ctx context.Context, username string) (model.UserRecord, error) {
	var record storage.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.UserRecord{}, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	if err != nil {
		return model.UserRecord{}, err
	}
	return toUserRecord(record), nil
}

func (s *sqliteStore) List(ctx context.Context) ([]model.UserRecord, error) {
	var records []storage.User
	if err := s.db.WithContext(ctx).Order("username").Find(&records).Error; err != nil {
		return nil, err
	}
	users := make([]model.UserRecord, 0, len(records))
	for _, record := range records {
		users = append(users, toUserRecord(record))
	}
	return users, nil
}

func (s *sqliteStore) SetRole(ctx context.Context, username string, role model.Role) error {
	return s.updateColumn(ctx, username, "role", string(role))
}

func (s *sqliteStore) SetActive(ctx context.Context, username string, active bool) error {
	return s.updateColumn(ctx, username, "active", active)
}

func (s *sqliteStore) updateColumn(ctx context.Context, username, column string, value any) error {
	result := s.db.WithContext(ctx).
		Model(&storage.User{}).
		Where("username = ?", username).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, username string) error {
	result := s.db.WithContext(ctx).Where("username = ?", username).Delete(&storage.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return nil
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total, active int64
	if err := s.db.WithContext(ctx).Model(&storage.User{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&storage.User{}).
		Where("active = ?", true).
		Count(&active).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":   "sqlite",
		"total":  total,
		"active": active,
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func toUserRecord(record storage.User) model.UserRecord {
	user := model.UserRecord{
		Username:       record.Username,
		HashedPassword: record.HashedPassword,
		FullName:       record.FullName,
		Email:          record.Email,
		Role:           model.Role(record.Role),
		Active:         record.Active,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
	if len(record.Scopes) > 0 {
		_ = json.Unmarshal(record.Scopes, &user.Scopes)
	}
	return user
}
