package postgres

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-service/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database. A single connection keeps
// every query on the same memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, pkg.MigrateDatabase(db))
	return db
}

func challenge(id, title string, kind models.ChallengeType, block string) *models.Challenge {
	return &models.Challenge{
		ID:            id,
		Title:         title,
		ChallengeType: kind,
		SuperBlock:    "responsive-web-design",
		Block:         block,
		Slug:          block + "/" + id,
		Questions:     datatypes.JSON(`[]`),
		Assignments:   datatypes.JSON(`[]`),
		Tests:         datatypes.JSON(`[]`),
	}
}

func TestChallengePostgreSQL_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewChallengePostgreSQL(newTestDB(t))

	require.NoError(t, repo.Create(ctx, challenge("c1", "Intro to HTML", models.ChallengeTypeVideo, "html")))

	err := repo.Create(ctx, challenge("c1", "Duplicate", models.ChallengeTypeVideo, "html"))
	assert.True(t, repositories.IsDuplicateError(err))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Intro to HTML", got.Title)

	got, err = repo.GetBySlug(ctx, "html/c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)

	updated := challenge("c1", "HTML Basics", models.ChallengeTypeVideo, "html")
	require.NoError(t, repo.Update(ctx, updated))
	got, err = repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "HTML Basics", got.Title)

	err = repo.Update(ctx, challenge("missing", "Nope", models.ChallengeTypeVideo, "html"))
	assert.True(t, repositories.IsNotFoundError(err))

	require.NoError(t, repo.Delete(ctx, "c1"))
	_, err = repo.GetByID(ctx, "c1")
	assert.True(t, repositories.IsNotFoundError(err))
	assert.True(t, repositories.IsNotFoundError(repo.Delete(ctx, "c1")))
}

func TestChallengePostgreSQL_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewChallengePostgreSQL(newTestDB(t))

	require.NoError(t, repo.Create(ctx, challenge("c1", "Old title", models.ChallengeTypeVideo, "html")))
	require.NoError(t, repo.Upsert(ctx, []*models.Challenge{
		challenge("c1", "New title", models.ChallengeTypeVideo, "html"),
		challenge("c2", "Build a page", models.ChallengeTypeOdin, "html"),
	}))
	require.NoError(t, repo.Upsert(ctx, nil))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)

	_, total, err := repo.List(ctx, repositories.ChallengeFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestChallengePostgreSQL_List(t *testing.T) {
	ctx := context.Background()
	repo := NewChallengePostgreSQL(newTestDB(t))

	require.NoError(t, repo.Upsert(ctx, []*models.Challenge{
		challenge("c1", "Intro to HTML", models.ChallengeTypeVideo, "html"),
		challenge("c2", "HTML forms", models.ChallengeTypeOdin, "html"),
		challenge("c3", "CSS colors", models.ChallengeTypeVideo, "css"),
	}))

	odin := models.ChallengeTypeOdin
	cases := []struct {
		name    string
		filters repositories.ChallengeFilters
		want    []string
		total   int64
	}{
		{
			name:    "by block sorted by title",
			filters: repositories.ChallengeFilters{Block: "html", SortBy: "title", SortOrder: "asc"},
			want:    []string{"c2", "c1"},
			total:   2,
		},
		{
			name:    "by type",
			filters: repositories.ChallengeFilters{ChallengeType: &odin},
			want:    []string{"c2"},
			total:   1,
		},
		{
			name:    "case insensitive search",
			filters: repositories.ChallengeFilters{Search: "html", SortBy: "title", SortOrder: "asc"},
			want:    []string{"c2", "c1"},
			total:   2,
		},
		{
			name:    "pagination keeps the full total",
			filters: repositories.ChallengeFilters{SortBy: "title", SortOrder: "asc", Limit: 1, Offset: 1},
			want:    []string{"c2"},
			total:   3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, tc.filters)
			require.NoError(t, err)
			assert.Equal(t, tc.total, total)

			ids := make([]string, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}
