package ddl_test

import (
	"strings"
	"testing"

	"github.com/burugo/fluent/drivers/db/mysql"
	"github.com/burugo/fluent/drivers/db/postgres"
	"github.com/burugo/fluent/drivers/db/sqlite"
	"github.com/burugo/fluent/internal/ddl"
	"github.com/burugo/fluent/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersTable() ddl.Table {
	return ddl.Table{
		Name: "users",
		Columns: []*schema.Column{
			schema.NewColumn("id", schema.TypeInteger, schema.ColumnOptions{Identity: true, Unsigned: true}),
			schema.NewColumn("email", schema.TypeString, schema.ColumnOptions{Limit: 100}),
			schema.NewColumn("created_at", schema.TypeTimestamp, schema.ColumnOptions{Null: true, Default: schema.CurrentTimestamp}),
		},
		Indexes: []schema.Index{{Columns: []string{"email"}, IndexOptions: schema.IndexOptions{Unique: true}}},
		Options: schema.Options{},
	}
}

func TestCreateTable_SQLite(t *testing.T) {
	sqls, err := ddl.CreateTable(sqlite.Dialector{}, usersTable())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE \"users\" (\n" +
			"  \"id\" INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,\n" +
			"  \"email\" VARCHAR(100) NOT NULL,\n" +
			"  \"created_at\" DATETIME NULL DEFAULT CURRENT_TIMESTAMP\n" +
			");",
		`CREATE UNIQUE INDEX IF NOT EXISTS "uniq_users_email" ON "users" ("email");`,
	}, sqls)
}

func TestCreateTable_MySQL(t *testing.T) {
	tbl := usersTable()
	tbl.Columns[1].Options.Comment = "login"
	tbl.Columns = append(tbl.Columns,
		schema.NewColumn("role_id", schema.TypeInteger, schema.ColumnOptions{Limit: schema.IntBig, Unsigned: true}))
	tbl.ForeignKeys = []schema.ForeignKey{{
		Columns:           []string{"role_id"},
		ReferencedTable:   "roles",
		ReferencedColumns: []string{"id"},
		ForeignKeyOptions: schema.ForeignKeyOptions{Delete: "CASCADE"},
	}}
	tbl.Options = schema.Options{
		schema.OptionComment:   "accounts",
		schema.OptionCollation: "utf8mb4_unicode_ci",
	}

	sqls, err := ddl.CreateTable(mysql.Dialector{}, tbl)
	require.NoError(t, err)
	require.Len(t, sqls, 2)
	assert.Equal(t, "CREATE TABLE `users` (\n"+
		"  `id` INT(11) UNSIGNED NOT NULL AUTO_INCREMENT,\n"+
		"  `email` VARCHAR(100) NOT NULL COMMENT 'login',\n"+
		"  `created_at` TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,\n"+
		"  `role_id` BIGINT(20) UNSIGNED NOT NULL,\n"+
		"  PRIMARY KEY (`id`),\n"+
		"  CONSTRAINT `fk_users_role_id` FOREIGN KEY (`role_id`) REFERENCES `roles` (`id`) ON DELETE CASCADE\n"+
		") ENGINE = InnoDB CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci COMMENT='accounts';", sqls[0])
	assert.Equal(t, "CREATE UNIQUE INDEX `uniq_users_email` ON `users` (`email`);", sqls[1])
}

func TestCreateTable_Postgres(t *testing.T) {
	tbl := ddl.Table{
		Name: "users",
		Columns: []*schema.Column{
			schema.NewColumn("id", schema.TypeInteger, schema.ColumnOptions{Identity: true, Unsigned: true}),
			schema.NewColumn("email", schema.TypeString, schema.ColumnOptions{Limit: 100, Comment: "user's login"}),
			schema.NewColumn("balance", schema.TypeDecimal, schema.ColumnOptions{Precision: 8, Scale: 2, Default: 0}),
			schema.NewColumn("active", schema.TypeBoolean, schema.ColumnOptions{Default: true}),
			schema.NewColumn("seen_at", schema.TypeDateTime, schema.ColumnOptions{Timezone: true, Null: true}),
		},
		Options: schema.Options{schema.OptionComment: "accounts"},
	}

	sqls, err := ddl.CreateTable(postgres.Dialector{}, tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE \"users\" (\n" +
			"  \"id\" SERIAL NOT NULL,\n" +
			"  \"email\" VARCHAR(100) NOT NULL,\n" +
			"  \"balance\" DECIMAL(8,2) NOT NULL DEFAULT 0,\n" +
			"  \"active\" BOOLEAN NOT NULL DEFAULT TRUE,\n" +
			"  \"seen_at\" TIMESTAMP WITH TIME ZONE NULL,\n" +
			"  PRIMARY KEY (\"id\")\n" +
			");",
		`COMMENT ON TABLE "users" IS 'accounts';`,
		`COMMENT ON COLUMN "users"."email" IS 'user''s login';`,
	}, sqls)
}

func TestCreateTable_ExplicitPrimaryKey(t *testing.T) {
	tbl := ddl.Table{
		Name: "role_user",
		Columns: []*schema.Column{
			schema.NewColumn("role_id", schema.TypeInteger, schema.ColumnOptions{}),
			schema.NewColumn("user_id", schema.TypeInteger, schema.ColumnOptions{}),
		},
		Options: schema.Options{schema.OptionPrimaryKey: []string{"role_id", "user_id"}},
	}
	sqls, err := ddl.CreateTable(sqlite.Dialector{}, tbl)
	require.NoError(t, err)
	assert.Contains(t, sqls[0], `PRIMARY KEY ("role_id", "user_id")`)
}

func TestCreateTable_Errors(t *testing.T) {
	_, err := ddl.CreateTable(sqlite.Dialector{}, ddl.Table{Name: "empty"})
	assert.ErrorIs(t, err, schema.ErrNoColumns)

	tbl := ddl.Table{
		Name:    "things",
		Columns: []*schema.Column{schema.NewColumn("mood", schema.TypeEnum, schema.ColumnOptions{Values: []string{"a"}})},
	}
	_, err = ddl.CreateTable(postgres.Dialector{}, tbl)
	assert.ErrorIs(t, err, schema.ErrUnsupportedType)
}

func TestColumnDefinition(t *testing.T) {
	tests := []struct {
		name    string
		dialect schema.Dialect
		col     *schema.Column
		want    string
	}{
		{
			name:    "mysql enum",
			dialect: mysql.Dialector{},
			col:     schema.NewColumn("mood", schema.TypeEnum, schema.ColumnOptions{Values: []string{"happy", "it's ok"}}),
			want:    "`mood` ENUM('happy','it''s ok') NOT NULL",
		},
		{
			name:    "mysql generated",
			dialect: mysql.Dialector{},
			col:     schema.NewColumn("total", "INT(11) AS (a+b)", schema.ColumnOptions{}),
			want:    "`total` INT(11) AS (a+b) NOT NULL",
		},
		{
			name:    "mysql charset and on update",
			dialect: mysql.Dialector{},
			col: schema.NewColumn("updated_at", schema.TypeTimestamp, schema.ColumnOptions{
				Null: true, Default: "current_timestamp", Update: schema.CurrentTimestamp,
			}),
			want: "`updated_at` TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP",
		},
		{
			name:    "mysql collation",
			dialect: mysql.Dialector{},
			col:     schema.NewColumn("name", schema.TypeString, schema.ColumnOptions{Encoding: "utf8mb4", Collation: "utf8mb4_bin"}),
			want:    "`name` VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
		},
		{
			name:    "mysql boolean default",
			dialect: mysql.Dialector{},
			col:     schema.NewColumn("active", schema.TypeBoolean, schema.ColumnOptions{Default: false}),
			want:    "`active` TINYINT(1) NOT NULL DEFAULT 0",
		},
		{
			name:    "postgres big identity",
			dialect: postgres.Dialector{},
			col:     schema.NewColumn("id", schema.TypeInteger, schema.ColumnOptions{Identity: true, Limit: schema.IntBig}),
			want:    `"id" BIGSERIAL NOT NULL`,
		},
		{
			name:    "postgres collation",
			dialect: postgres.Dialector{},
			col:     schema.NewColumn("name", schema.TypeString, schema.ColumnOptions{Collation: "C"}),
			want:    `"name" VARCHAR(255) COLLATE "C" NOT NULL`,
		},
		{
			name:    "postgres double",
			dialect: postgres.Dialector{},
			col:     schema.NewColumn("ratio", schema.TypeDouble, schema.ColumnOptions{Precision: 8, Scale: 2}),
			want:    `"ratio" DOUBLE PRECISION NOT NULL`,
		},
		{
			name:    "sqlite string default",
			dialect: sqlite.Dialector{},
			col:     schema.NewColumn("status", schema.TypeString, schema.ColumnOptions{Limit: 20, Default: "new"}),
			want:    `"status" VARCHAR(20) NOT NULL DEFAULT 'new'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ddl.ColumnDefinition(tt.dialect, tt.col, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddColumn(t *testing.T) {
	nickname := schema.NewColumn("nickname", schema.TypeString, schema.ColumnOptions{Null: true, After: "email"})
	sqls, err := ddl.AddColumn(mysql.Dialector{}, "users", nickname, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE `users` ADD COLUMN `nickname` VARCHAR(255) NULL AFTER `email`;"}, sqls)

	first := schema.NewColumn("code", schema.TypeChar, schema.ColumnOptions{Limit: 2, First: true})
	sqls, err = ddl.AddColumn(mysql.Dialector{}, "users", first, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE `users` ADD COLUMN `code` CHAR(2) NOT NULL FIRST;"}, sqls)

	roleID := schema.NewColumn("role_id", schema.TypeInteger, schema.ColumnOptions{Null: true})
	ref := &schema.ForeignKey{
		Columns:           []string{"role_id"},
		ReferencedTable:   "roles",
		ReferencedColumns: []string{"id"},
		ForeignKeyOptions: schema.ForeignKeyOptions{Delete: "SET NULL"},
	}
	sqls, err = ddl.AddColumn(sqlite.Dialector{}, "users", roleID, ref)
	require.NoError(t, err)
	assert.Equal(t, []string{`ALTER TABLE "users" ADD COLUMN "role_id" INTEGER NULL REFERENCES "roles" ("id") ON DELETE SET NULL;`}, sqls)

	commented := schema.NewColumn("bio", schema.TypeText, schema.ColumnOptions{Null: true, Comment: "about"})
	sqls, err = ddl.AddColumn(postgres.Dialector{}, "users", commented, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TABLE "users" ADD COLUMN "bio" TEXT NULL;`,
		`COMMENT ON COLUMN "users"."bio" IS 'about';`,
	}, sqls)
}

func TestAddForeignKey(t *testing.T) {
	fk := schema.ForeignKey{
		Columns:           []string{"user_id"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
		ForeignKeyOptions: schema.ForeignKeyOptions{Delete: "CASCADE", Update: "RESTRICT"},
	}

	stmt, err := ddl.AddForeignKey(postgres.Dialector{}, "posts", fk)
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "posts" ADD CONSTRAINT "fk_posts_user_id" FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE ON UPDATE RESTRICT;`, stmt)

	fk.Constraint = "posts_author"
	stmt, err = ddl.AddForeignKey(mysql.Dialector{}, "posts", fk)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `posts` ADD CONSTRAINT `posts_author` FOREIGN KEY (`user_id`) REFERENCES `users` (`id`) ON DELETE CASCADE ON UPDATE RESTRICT;", stmt)

	_, err = ddl.AddForeignKey(sqlite.Dialector{}, "posts", fk)
	assert.ErrorIs(t, err, schema.ErrUnsupportedOperation)
}

func TestIndexStatements(t *testing.T) {
	idx := schema.Index{Columns: []string{"last_name", "first_name"}}
	assert.Equal(t, "CREATE INDEX `idx_users_last_name_first_name` ON `users` (`last_name`, `first_name`);",
		ddl.CreateIndex(mysql.Dialector{}, "users", idx))
	assert.Equal(t, `CREATE INDEX IF NOT EXISTS "idx_users_last_name_first_name" ON "users" ("last_name", "first_name");`,
		ddl.CreateIndex(postgres.Dialector{}, "users", idx))

	assert.Equal(t, "DROP INDEX `by_name` ON `users`;", ddl.DropIndex(mysql.Dialector{}, "users", "by_name"))
	assert.Equal(t, `DROP INDEX IF EXISTS "by_name";`, ddl.DropIndex(sqlite.Dialector{}, "users", "by_name"))
}

func TestTableStatements(t *testing.T) {
	assert.Equal(t, `DROP TABLE IF EXISTS "users";`, ddl.DropTable(postgres.Dialector{}, "users"))
	assert.Equal(t, "RENAME TABLE `users` TO `accounts`;", ddl.RenameTable(mysql.Dialector{}, "users", "accounts"))
	assert.Equal(t, `ALTER TABLE "users" RENAME TO "accounts";`, ddl.RenameTable(sqlite.Dialector{}, "users", "accounts"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "idx_users_email", ddl.IndexName("users", schema.Index{Columns: []string{"email"}}))
	assert.Equal(t, "uniq_users_a_b", ddl.IndexName("users", schema.Index{
		Columns:      []string{"a", "b"},
		IndexOptions: schema.IndexOptions{Unique: true},
	}))
	assert.Equal(t, "custom", ddl.IndexName("users", schema.Index{
		Columns:      []string{"a"},
		IndexOptions: schema.IndexOptions{Name: "custom"},
	}))

	assert.Equal(t, "fk_posts_user_id", ddl.ForeignKeyName("posts", schema.ForeignKey{Columns: []string{"user_id"}}))
	assert.Equal(t, "named", ddl.ForeignKeyName("posts", schema.ForeignKey{
		Columns:           []string{"user_id"},
		ForeignKeyOptions: schema.ForeignKeyOptions{Constraint: "named"},
	}))
}

func TestPrimaryKeyColumns(t *testing.T) {
	assert.Equal(t, []string{"id"}, ddl.PrimaryKeyColumns(schema.Options{schema.OptionPrimaryKey: "id"}))
	assert.Equal(t, []string{"a", "b"}, ddl.PrimaryKeyColumns(schema.Options{schema.OptionPrimaryKey: []string{"a", "b"}}))
	assert.Nil(t, ddl.PrimaryKeyColumns(schema.Options{schema.OptionPrimaryKey: ""}))
	assert.Nil(t, ddl.PrimaryKeyColumns(nil))
}

func TestMigrationsTable(t *testing.T) {
	for _, dialect := range []string{"mysql", "postgres", "sqlite"} {
		stmt, err := ddl.MigrationsTable(dialect)
		require.NoError(t, err, dialect)
		assert.Contains(t, stmt, "CREATE TABLE IF NOT EXISTS schema_migrations")
	}
	_, err := ddl.MigrationsTable("oracle")
	assert.ErrorIs(t, err, schema.ErrUnsupportedDialect)
}

func TestMatchIndex(t *testing.T) {
	indexes := []schema.IndexInfo{
		{Name: "idx_users_email", Columns: []string{"email"}},
		{Name: "idx_users_name", Columns: []string{"last_name", "first_name"}, Unique: true},
	}

	name, ok := ddl.MatchIndex(indexes, []string{"first_name", "last_name"})
	assert.True(t, ok)
	assert.Equal(t, "idx_users_name", name)

	_, ok = ddl.MatchIndex(indexes, []string{"email", "last_name"})
	assert.False(t, ok)
}

func startingTable() ddl.Table {
	return ddl.Table{
		Name: "invoices",
		Columns: []*schema.Column{
			schema.NewColumn("id", schema.TypeInteger, schema.ColumnOptions{Identity: true, Increment: 1000}),
			schema.NewColumn("total", schema.TypeDecimal, schema.ColumnOptions{Precision: 8, Scale: 2}),
		},
		Options: schema.Options{},
	}
}

func TestCreateTable_IdentityStart(t *testing.T) {
	sqls, err := ddl.CreateTable(mysql.Dialector{}, startingTable())
	require.NoError(t, err)
	require.Len(t, sqls, 1)
	assert.True(t, strings.HasSuffix(sqls[0], ") ENGINE = InnoDB AUTO_INCREMENT = 1000;"), sqls[0])

	sqls, err = ddl.CreateTable(postgres.Dialector{}, startingTable())
	require.NoError(t, err)
	require.Len(t, sqls, 2)
	assert.Equal(t, `SELECT setval(pg_get_serial_sequence('"invoices"', 'id'), 1000, false);`, sqls[1])

	sqls, err = ddl.CreateTable(sqlite.Dialector{}, startingTable())
	require.NoError(t, err)
	require.Len(t, sqls, 2)
	assert.Equal(t, `INSERT INTO sqlite_sequence (name, seq) VALUES ('invoices', 999);`, sqls[1])

	composite := startingTable()
	composite.Options[schema.OptionPrimaryKey] = []string{"id", "total"}
	_, err = ddl.CreateTable(sqlite.Dialector{}, composite)
	assert.ErrorIs(t, err, schema.ErrUnsupportedOperation)
}

func TestAddColumn_IdentityStart(t *testing.T) {
	id := schema.NewColumn("id", schema.TypeInteger, schema.ColumnOptions{Identity: true, Increment: 500})

	sqls, err := ddl.AddColumn(mysql.Dialector{}, "legacy", id, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE `legacy` ADD COLUMN `id` INT(11) NOT NULL AUTO_INCREMENT;",
		"ALTER TABLE `legacy` AUTO_INCREMENT = 500;",
	}, sqls)

	sqls, err = ddl.AddColumn(postgres.Dialector{}, "legacy", id, nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT setval(pg_get_serial_sequence('"legacy"', 'id'), 500, false);`, sqls[1])

	_, err = ddl.AddColumn(sqlite.Dialector{}, "legacy", id, nil)
	assert.ErrorIs(t, err, schema.ErrUnsupportedOperation)
}
