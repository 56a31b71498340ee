package integration

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/directory"
	"docket/internal/logger"
)

func seedCase(t *testing.T, infra *TestInfra) {
	t.Helper()

	_, err := infra.PostgresDB.Exec(`INSERT INTO users (id, full_name) VALUES ('u1', 'Jane Doe'), ('u2', 'John Roe')`)
	require.NoError(t, err)

	_, err = infra.PostgresDB.Exec(`
		INSERT INTO cases (id, title, status, assigned_lawyer_id, assigned_to, assigned_users)
		VALUES ('c1', 'Smith v. Jones', 'open', 'u1', 'u2', $1)
	`, pq.Array([]string{"u3"}))
	require.NoError(t, err)
}

func TestPostgresDirectory_Lookups(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false)
	seedCase(t, infra)

	ctx := context.Background()
	dir := directory.NewPostgresDirectory(infra.PostgresDB)

	name, err := dir.UserName(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)

	title, err := dir.CaseTitle(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Smith v. Jones", title)

	team, err := dir.CaseTeam(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "u1", team.AssignedLawyerID)
	assert.Equal(t, "u2", team.AssignedTo)
	assert.Equal(t, []string{"u3"}, team.AssignedUsers)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, team.Members())
}

func TestPostgresDirectory_NotFound(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false)

	ctx := context.Background()
	dir := directory.NewPostgresDirectory(infra.PostgresDB)

	_, err := dir.UserName(ctx, "ghost")
	assert.Error(t, err)

	_, err = dir.CaseTeam(ctx, "ghost")
	assert.Error(t, err)
}

func TestCachedDirectory_ReadThrough(t *testing.T) {
	infra := SetupTestInfra(t)
	seedCase(t, infra)

	ctx := context.Background()
	dir := directory.NewCachedDirectory(
		directory.NewPostgresDirectory(infra.PostgresDB),
		infra.RedisClient,
		time.Minute,
		logger.NopLogger(),
	)

	name, err := dir.UserName(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)

	// Rename behind the cache; the cached name should win until TTL.
	_, err = infra.PostgresDB.Exec(`UPDATE users SET full_name = 'Renamed' WHERE id = 'u1'`)
	require.NoError(t, err)

	name, err = dir.UserName(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)
}
