package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexcarousel/internal/auth"
	"apexcarousel/internal/generations"
	"apexcarousel/pkg/database"
	"apexcarousel/pkg/models"
)

func TestWriteGenerations(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(database.Config{Path: database.Memory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	require.NoError(t, auth.NewRepo(db).CreateUser(ctx, auth.User{ID: "u1", Email: "a@b.co", PasswordHash: "x"}))
	repo := generations.NewRepo(db)
	require.NoError(t, repo.Create(ctx, &models.Generation{
		ID:        "g1",
		Owner:     "u1",
		InputText: "olá",
		Style:     models.StyleKoe,
		Slides:    []models.CarouselSlide{{SlideNumber: 1, Title: "a", Content: "b"}, {SlideNumber: 2, Title: "c", Content: "d"}},
		Caption:   "cap, with comma",
		Hooks:     []string{"one", "two"},
	}, generations.Unlimited))

	var buf bytes.Buffer
	n, err := writeGenerations(ctx, repo, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, header, records[0])

	row := records[1]
	assert.Equal(t, "g1", row[0])
	assert.Equal(t, "koe", row[2])
	assert.Equal(t, "2", row[3])
	assert.Equal(t, "cap, with comma", row[4])
	assert.Equal(t, "one | two", row[6])
	assert.Equal(t, "false", row[7])
	assert.Equal(t, "3", row[8])
}

func TestWriteGenerationsEmpty(t *testing.T) {
	db, err := database.Open(database.Config{Path: database.Memory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	var buf bytes.Buffer
	n, err := writeGenerations(context.Background(), generations.NewRepo(db), &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "id,owner,style,slide_count,caption,pinned_comment,hooks,has_pdf,input_chars,created,updated\n", buf.String())
}
