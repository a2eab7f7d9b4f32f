package settings

import (
	"context"
	"testing"
	"time"

	"github.com/nextup/nextup/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_LoadDefaultsWhenUnsaved(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)

	loaded, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}

func TestRepository_SaveAndLoad(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	saved := Settings{
		RefreshInterval:  5 * time.Minute,
		LeadTime:         2 * time.Minute,
		ShowOnlyAccepted: true,
		PopupEnabled:     true,
		SoundEnabled:     false,
	}
	require.NoError(t, repo.Save(ctx, saved))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestRepository_SaveReplacesSingleRow(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, Default()))

	changed := Default()
	changed.LeadTime = 10 * time.Minute
	require.NoError(t, repo.Save(ctx, changed))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, loaded.LeadTime)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&count))
	assert.Equal(t, 1, count)
}
