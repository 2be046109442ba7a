// Package migration tracks applied schema versions in a schema_migrations table and
// runs pending migrations through a fluent.Builder.
package migration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/burugo/fluent"
)

// Func is the body of one migration direction.
type Func func(ctx context.Context, b *fluent.Builder) error

// Migration is one versioned schema change. Up/Down run first, then UpSQL/DownSQL
// when set; either half may be empty.
type Migration struct {
	Version int64
	Name    string
	Up      Func
	Down    Func
	UpSQL   string
	DownSQL string
}

var (
	registryMu sync.Mutex
	registry   = make(map[int64]Migration)
)

// Register adds m to the package registry used by NewMigrator when no migrations
// are passed explicitly. It panics if the version is registered twice.
func Register(m Migration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[m.Version]; dup {
		panic(fmt.Sprintf("migration: Register called twice for version %d", m.Version))
	}
	registry[m.Version] = m
}

// Registered returns the registered migrations sorted by version.
func Registered() []Migration {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]Migration, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	sortByVersion(out)
	return out
}

func sortByVersion(ms []Migration) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Version < ms[j].Version })
}

// migrationFilenameRegex matches 00001_create_users.up.sql style names.
var migrationFilenameRegex = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)

// DiscoverMigrations loads the SQL migration files in dir, pairing the up and down
// scripts of each version. A missing directory yields no migrations.
func DiscoverMigrations(dir string) ([]Migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Migration{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory %s: %w", dir, err)
	}

	byVersion := make(map[int64]*Migration)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		match := migrationFilenameRegex.FindStringSubmatch(file.Name())
		if len(match) != 4 {
			continue
		}
		version, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}
		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: match[2]}
			byVersion[version] = m
		}
		if match[3] == "up" {
			m.UpSQL = string(content)
		} else {
			m.DownSQL = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		migrations = append(migrations, *m)
	}
	sortByVersion(migrations)
	return migrations, nil
}
