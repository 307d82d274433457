package sqlxrepos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/material"
	"github.com/trezcool/schooldesk/core/user"
)

func TestUserConds(t *testing.T) {
	query := psql.Select("id").From("users").Where(userConds(user.QueryFilter{
		Role:        user.RoleStudent,
		ClassNumber: null.IntFrom(4),
		IDs:         []string{"a", "b"},
		Search:      "x_y",
	}))

	stmt, args, err := query.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id FROM users WHERE (role = $1 AND class_number = $2 AND id::text IN ($3,$4) AND (full_name ILIKE $5 OR email ILIKE $6))",
		stmt,
	)
	assert.Equal(t, []interface{}{user.RoleStudent, 4, "a", "b", `%x\_y%`, `%x\_y%`}, args)
}

func TestRecordConds(t *testing.T) {
	t.Run("nil student list is no filter", func(t *testing.T) {
		stmt, args, err := psql.Select("id").From("attendance").
			Where(recordConds(attendance.RecordFilter{Status: attendance.StatusLate})).
			ToSql()
		require.NoError(t, err)
		assert.Equal(t, "SELECT id FROM attendance WHERE (status = $1)", stmt)
		assert.Equal(t, []interface{}{attendance.StatusLate}, args)
	})

	t.Run("empty student list matches nothing", func(t *testing.T) {
		stmt, args, err := psql.Select("id").From("attendance").
			Where(recordConds(attendance.RecordFilter{StudentIDs: []string{}})).
			ToSql()
		require.NoError(t, err)
		assert.Contains(t, stmt, "(1=0)")
		assert.Empty(t, args)
	})

	t.Run("date range", func(t *testing.T) {
		from, to := core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31)
		stmt, args, err := psql.Select("id").From("attendance").
			Where(recordConds(attendance.RecordFilter{From: from, To: to})).
			ToSql()
		require.NoError(t, err)
		assert.Equal(t, "SELECT id FROM attendance WHERE (date >= $1 AND date <= $2)", stmt)
		assert.Len(t, args, 2)
	})
}

func TestMaterialConds_search(t *testing.T) {
	stmt, args, err := psql.Select("m.id").From("materials m").
		Where(materialConds(material.QueryFilter{Search: `50%`})).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT m.id FROM materials m WHERE ((m.title ILIKE $1 OR m.description ILIKE $2))", stmt)
	assert.Equal(t, []interface{}{`%50\%%`, `%50\%%`}, args)
}

func TestUpsertRecord(t *testing.T) {
	rec := attendance.Record{ID: "r1", StudentID: "s1", Date: core.NewDate(2024, 1, 8), Status: attendance.StatusLate}
	stmt, args, err := upsertRecord(rec).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO attendance (id,student_id,date,status,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6) "+
			"ON CONFLICT (student_id, date) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at "+
			"RETURNING id, student_id, date, status, created_at, updated_at",
		stmt,
	)
	require.Len(t, args, 6)
	assert.Equal(t, "s1", args[1])
	assert.Equal(t, attendance.StatusLate, args[3])
}
