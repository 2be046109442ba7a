package mysql_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/burugo/fluent"
	"github.com/burugo/fluent/drivers/db/mysql"
	"github.com/burugo/fluent/internal/sqlxdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMySQL starts a throwaway MySQL container. Skipped with -short or when no
// container runtime is reachable.
func setupMySQL(t *testing.T) *sqlxdb.Adapter {
	if testing.Short() {
		t.Skip("skipping MySQL container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.0",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "fluent",
				"MYSQL_DATABASE":      "fluent",
			},
			WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	addr, err := ctr.PortEndpoint(ctx, "3306/tcp", "")
	require.NoError(t, err)

	db, err := mysql.NewMySQLAdapter(fmt.Sprintf("root:fluent@tcp(%s)/fluent?parseTime=true", addr))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMySQL_CreateAndUpdate(t *testing.T) {
	db := setupMySQL(t)
	ctx := context.Background()
	b := fluent.NewBuilder(db)

	require.NoError(t, b.Create(ctx, "roles", func(bp *fluent.Blueprint) {
		bp.Increments("id")
		bp.String("name", 50).Unique()
	}))
	require.NoError(t, b.Create(ctx, "users", func(bp *fluent.Blueprint) {
		bp.SetEngine("InnoDB")
		bp.SetComment("accounts")
		bp.Increments("id")
		bp.String("email", 100).Comment("login")
		bp.Integer("role_id").Unsigned().Nullable()
		bp.Enum("status", "active", "banned").Default("active")
		bp.Decimal("balance", 10, 2).Default(0)
		bp.Timestamps()
		bp.Foreign(fluent.Columns{"role_id"}).References("id").On("roles").OnDelete(fluent.SetNull)
		bp.Index(fluent.Columns{"email"})
	}))

	info, err := db.GetTableInfo(ctx, "users")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "id", info.PrimaryKey)
	assert.Len(t, info.Columns, 7)

	require.NoError(t, b.Update(ctx, "users", func(bp *fluent.Blueprint) {
		bp.String("nickname", 30).Nullable().After("email")
		bp.DropIndex(fluent.Columns{"email"})
	}))

	info, err = db.GetTableInfo(ctx, "users")
	require.NoError(t, err)
	require.Len(t, info.Columns, 8)
	assert.Equal(t, "nickname", info.Columns[2].Name)
	for _, idx := range info.Indexes {
		assert.NotEqual(t, []string{"email"}, idx.Columns)
	}

	require.NoError(t, b.Rename(ctx, "users", "accounts"))
	ok, err := b.HasTable(ctx, "accounts")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Drop(ctx, "accounts"))
}

func TestMySQL_MissingTable(t *testing.T) {
	db := setupMySQL(t)
	info, err := db.GetTableInfo(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, info)
}
