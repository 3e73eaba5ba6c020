package controller

import (
	"net/url"
	"testing"

	"testcracker/internal/repository"
	"testcracker/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryValues url.Values

func (v queryValues) Query(key string) string { return url.Values(v).Get(key) }

func parse(t *testing.T, raw string, relations ...string) (listParams, error) {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return parseListQuery(v, queryValues(v), relations...)
}

func TestParseListQuery_Defaults(t *testing.T) {
	p, err := parse(t, "")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultLimit, p.Limit)
	assert.Equal(t, 0, p.Query.Skip)
	assert.Equal(t, defaultLimit, p.Query.Take)
	assert.Empty(t, p.Query.Where)
}

func TestParseListQuery_PageAndLimit(t *testing.T) {
	p, err := parse(t, "page=3&limit=500")
	require.NoError(t, err)
	assert.Equal(t, maxLimit, p.Limit)
	assert.Equal(t, 2*maxLimit, p.Query.Skip)

	p, err = parse(t, "page=-4&limit=0")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.Limit)
}

func TestParseListQuery_Cursor(t *testing.T) {
	p, err := parse(t, "cursor=e2&take=5&orderBy=name:asc")
	require.NoError(t, err)
	assert.Equal(t, "e2", p.Query.Cursor)
	assert.Equal(t, 5, p.Query.Take)
	assert.Zero(t, p.Query.Skip)
	assert.Zero(t, p.Page)
	assert.Equal(t, []repository.Order{{Field: "name"}}, p.Query.OrderBy)
}

func TestParseListQuery_FiltersAndOrder(t *testing.T) {
	p, err := parse(t, "role=ADMIN&name[contains]=ash&submittedAt[isNull]=1&orderBy=createdAt:desc,id&include=attempts", "attempts")
	require.NoError(t, err)
	assert.Equal(t, []repository.Filter{
		{Field: "name", Op: repository.OpContains, Value: "ash"},
		{Field: "role", Op: repository.OpEquals, Value: "ADMIN"},
		{Field: "submittedAt", Op: repository.OpIsNull, Value: nil},
	}, p.Query.Where)
	assert.Equal(t, []repository.Order{{Field: "createdAt", Desc: true}, {Field: "id"}}, p.Query.OrderBy)
	assert.Equal(t, []string{"attempts"}, p.Query.Include)
}

func TestParseListQuery_Errors(t *testing.T) {
	_, err := parse(t, "orderBy=name:sideways")
	assert.ErrorIs(t, err, util.ErrInvalidQuery)

	_, err = parse(t, "score[gte=5")
	assert.ErrorIs(t, err, util.ErrInvalidQuery)
}

func TestParseListQuery_IncludeIsPerEndpoint(t *testing.T) {
	_, err := parse(t, "include=attempts")
	assert.ErrorIs(t, err, util.ErrInvalidQuery)

	_, err = parse(t, "include=user,attempts", "user", "exam")
	assert.ErrorIs(t, err, util.ErrInvalidQuery)

	p, err := parse(t, "include=user, exam", "user", "exam")
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "exam"}, p.Query.Include)
}
