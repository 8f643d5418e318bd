package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengePostgreSQL struct {
	db *gorm.DB
}

func NewChallengePostgreSQL(db *gorm.DB) repositories.ChallengeRepository {
	return &ChallengePostgreSQL{db: db}
}

func (c *ChallengePostgreSQL) Create(ctx context.Context, challenge *models.Challenge) error {
	return c.db.WithContext(ctx).Create(challenge).Error
}

// Upsert creates or replaces challenges by ID in a single transaction
func (c *ChallengePostgreSQL) Upsert(ctx context.Context, challenges []*models.Challenge) error {
	if len(challenges) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&challenges).Error
		if err != nil {
			return fmt.Errorf("failed to upsert challenges: %w", err)
		}
		return nil
	})
}

func (c *ChallengePostgreSQL) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := c.db.WithContext(ctx).First(&challenge, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (c *ChallengePostgreSQL) GetBySlug(ctx context.Context, slug string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := c.db.WithContext(ctx).First(&challenge, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (c *ChallengePostgreSQL) Update(ctx context.Context, challenge *models.Challenge) error {
	result := c.db.WithContext(ctx).Model(challenge).Select("*").Omit("created_at").Updates(challenge)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *ChallengePostgreSQL) Delete(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Delete(&models.Challenge{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *ChallengePostgreSQL) List(ctx context.Context, filters repositories.ChallengeFilters) ([]*models.Challenge, int64, error) {
	var challenges []*models.Challenge
	var total int64

	// apply filter first
	query := c.db.WithContext(ctx).Model(&models.Challenge{})
	query = applyChallengeFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&challenges).Error; err != nil {
		return nil, 0, err
	}

	return challenges, total, nil
}

func applyChallengeFilters(query *gorm.DB, filters repositories.ChallengeFilters) *gorm.DB {
	if filters.ChallengeType != nil {
		query = query.Where("challenge_type = ?", *filters.ChallengeType)
	}
	if filters.SuperBlock != "" {
		query = query.Where("super_block = ?", filters.SuperBlock)
	}
	if filters.Block != "" {
		query = query.Where("block = ?", filters.Block)
	}
	if filters.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filters.Search)+"%")
	}
	return query
}

var sortableColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
	"block":      "block",
}

func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	column, ok := sortableColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	query = query.Order(column + " " + direction)

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}
