package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitacare/telecare-backend/pkg/db/models"
	"github.com/vitacare/telecare-backend/pkg/enums"
)

// ErrNotFound signals a missing user row.
var ErrNotFound = errors.New("user not found")

// Repository exposes the user lookups other domains need.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListActiveByRole(ctx context.Context, role enums.UserRole, limit int) ([]models.User, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a users repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) ListActiveByRole(ctx context.Context, role enums.UserRole, limit int) ([]models.User, error) {
	query := r.db.WithContext(ctx).
		Where("role = ? AND is_active", role).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
