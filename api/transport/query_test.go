package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/jw164/MP3/domain"
)

func parseArgs(raw string) *fasthttp.Args {
	args := &fasthttp.Args{}
	args.Parse(raw)
	return args
}

func TestParseQuery_Empty(t *testing.T) {
	q, err := ParseQuery(parseArgs(""))
	require.NoError(t, err)

	assert.Nil(t, q.Filter)
	assert.Nil(t, q.Sort)
	assert.Nil(t, q.Projection)
	assert.Zero(t, q.Skip)
	assert.Zero(t, q.Limit)
	assert.False(t, q.Count)
	assert.False(t, q.HasFilter())
}

func TestParseQuery_AllParameters(t *testing.T) {
	raw := `where={"completed":true}&sort={"deadline":1}&select={"name":1}&skip=5&limit=20&count=TRUE`
	q, err := ParseQuery(parseArgs(raw))
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"completed": true}, q.Filter)
	assert.Equal(t, map[string]interface{}{"deadline": float64(1)}, q.Sort)
	assert.Equal(t, map[string]interface{}{"name": float64(1)}, q.Projection)
	assert.Equal(t, int64(5), q.Skip)
	assert.Equal(t, int64(20), q.Limit)
	assert.True(t, q.Count)
	assert.True(t, q.HasFilter())
}

func TestParseQuery_OperatorsPassThrough(t *testing.T) {
	raw := `where={"deadline":{"$gt":"2025-01-01"},"assignedUser":{"$ne":null}}`
	q, err := ParseQuery(parseArgs(raw))
	require.NoError(t, err)

	assert.Contains(t, q.Filter, "deadline")
	assert.Contains(t, q.Filter, "assignedUser")
}

func TestParseQuery_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"where not json", `where={completed:true}`},
		{"sort is array", `sort=["deadline"]`},
		{"select is scalar", `select=1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuery(parseArgs(tt.raw))
			assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		})
	}
}

func TestParseQuery_RejectsBadPagination(t *testing.T) {
	for _, raw := range []string{"skip=-1", "limit=-5", "skip=abc", "limit=1.5"} {
		_, err := ParseQuery(parseArgs(raw))
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeQuery), raw)
	}
}

func TestParseQuery_CountIsLenient(t *testing.T) {
	q, err := ParseQuery(parseArgs("count=false"))
	require.NoError(t, err)
	assert.False(t, q.Count)

	q, err = ParseQuery(parseArgs("count=yes"))
	require.NoError(t, err)
	assert.False(t, q.Count)
}

func TestParseProjection(t *testing.T) {
	p, err := ParseProjection(parseArgs(`select={"pendingTasks":0}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"pendingTasks": float64(0)}, p)

	_, err = ParseProjection(parseArgs(`select=nope`))
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}
