package sqlite

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVecExtensionLoaded(t *testing.T) {
	db, err := sql.Open(DriverName, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var version string
	require.NoError(t, db.QueryRow("SELECT vec_version()").Scan(&version))
	assert.NotEmpty(t, version)
}

func TestVecMetadataFilter(t *testing.T) {
	db, err := sql.Open(DriverName, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE VIRTUAL TABLE docs_vec USING vec0(
		embedding float[3],
		owner_id integer
	)`)
	require.NoError(t, err)

	rows := []struct {
		id    int64
		owner int64
		v     []float32
	}{
		{1, 7, []float32{1, 0, 0}},
		{2, 8, []float32{1, 0, 0}},
		{3, 7, []float32{0, 1, 0}},
	}
	for _, r := range rows {
		blob, err := SerializeFloat32(r.v)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO docs_vec(rowid, embedding, owner_id) VALUES (?, ?, ?)`, r.id, blob, r.owner)
		require.NoError(t, err)
	}

	query, err := SerializeFloat32([]float32{1, 0, 0})
	require.NoError(t, err)

	res, err := db.Query(`SELECT rowid FROM docs_vec WHERE embedding MATCH ? AND k = 5 AND owner_id = ? ORDER BY distance`, query, 7)
	require.NoError(t, err)
	defer res.Close()

	var got []int64
	for res.Next() {
		var id int64
		require.NoError(t, res.Scan(&id))
		got = append(got, id)
	}
	require.NoError(t, res.Err())
	assert.Equal(t, []int64{1, 3}, got)
}
