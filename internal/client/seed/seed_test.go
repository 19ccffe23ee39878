package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/admindata/internal/client/bridge"
	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSeeder_ReturnsClones(t *testing.T) {
	s := StaticSeeder{{"id": "1", "name": "Acme"}}

	got, err := s.Records(context.Background())
	require.NoError(t, err)
	got[0]["name"] = "changed"

	again, err := s.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Acme", again[0].String("name"))
}

func TestFromJSON(t *testing.T) {
	s, err := FromJSON([]byte(`[{"id":"a"},{"id":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, s, 2)

	_, err = FromJSON([]byte(`{`))
	assert.ErrorIs(t, err, common.ErrParseFailure)
}

func TestFileSeeder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"email":"a@example.com"}]`), 0o600))

	got, err := FileSeeder{Path: path}.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@example.com", got[0].String("email"))

	_, err = FileSeeder{Path: filepath.Join(t.TempDir(), "missing.json")}.Records(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type fetcherFunc func(ctx context.Context, p bridge.FetchParam) ([]models.Record, error)

func (f fetcherFunc) Fetch(ctx context.Context, p bridge.FetchParam) ([]models.Record, error) {
	return f(ctx, p)
}

func TestBridgeSeeder(t *testing.T) {
	var seen bridge.FetchParam
	b := fetcherFunc(func(_ context.Context, p bridge.FetchParam) ([]models.Record, error) {
		seen = p
		return []models.Record{{"id": "LV"}}, nil
	})

	param := bridge.FetchParam{Code: "countries:all", Call: bridge.Call{Operation: "countries"}}
	got, err := BridgeSeeder{Bridge: b, Param: param}.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, param, seen)

	_, err = BridgeSeeder{}.Records(context.Background())
	assert.ErrorIs(t, err, common.ErrMissingCollaborator)
}
