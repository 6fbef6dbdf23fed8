package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesotho-health/cost-api/pkg/database"
	"github.com/lesotho-health/cost-api/pkg/types"
)

func TestPostgresSource(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(ctx, PostgresSchema)
	require.NoError(t, err)

	name := "test-" + uuid.NewString()
	defer db.Exec(ctx, `DELETE FROM model_artifacts WHERE name = $1`, name)

	src := NewPostgresSource(db)

	_, err = src.Fetch(ctx, name)
	assert.True(t, errors.Is(err, ErrArtifactNotFound))

	manifest, files := bundleFromDir(t, filepath.Join("testdata", "linear"))
	manifest = []byte(strings.Replace(string(manifest), artifactName, name, 1))
	require.NoError(t, Publish(ctx, db, name, "1", manifest, files))

	a, err := Load(ctx, src, name)
	require.NoError(t, err)
	assert.Equal(t, ModelLinearRegression, a.Model.Kind())
	assert.Equal(t, "postgres:"+name+"@1", a.Location)
	assert.Equal(t, types.InputFields, a.Features)
}
