package dbutil_test

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/literag/internal/pkg/dbutil"
)

func TestFinalizeRewritesLimitAndPlaceholders(t *testing.T) {
	query := "SELECT id FROM assets WHERE project_id=? ORDER BY ctime LIMIT ?,?"
	args := []interface{}{"p1", 10, 20}

	sqlStr, out := dbutil.Finalize(query, args)
	require.Equal(t, "SELECT id FROM assets WHERE project_id=$1 ORDER BY ctime LIMIT $2 OFFSET $3", sqlStr)
	require.Equal(t, []interface{}{"p1", 20, 10}, out)
}

func TestFinalizeWithoutLimitClause(t *testing.T) {
	sqlStr, out := dbutil.Finalize("DELETE FROM chunks WHERE project_id=? AND asset_id=?", []interface{}{"p1", "a1"})
	require.Equal(t, "DELETE FROM chunks WHERE project_id=$1 AND asset_id=$2", sqlStr)
	require.Equal(t, []interface{}{"p1", "a1"}, out)
}

func TestIsConflict(t *testing.T) {
	require.True(t, dbutil.IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, dbutil.IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, dbutil.IsConflict(errors.New("plain")))
	require.False(t, dbutil.IsConflict(nil))
}
