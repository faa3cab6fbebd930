package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/middleware"
)

// Migration is one versioned pair of embedded Postgres scripts.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
	// Indexes are the index names the up script creates.
	Indexes []string
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var (
	migrations      []Migration
	createIndexRe   = regexp.MustCompile(`(?i)CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?(\w+)`)
	migrationNameRe = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.up\.sql$`)
)

func init() {
	loaded, err := LoadMigrations(migrationFS)
	if err != nil {
		middleware.Logger.Error("failed to load embedded migrations", slog.String("error", err.Error()))
		return
	}
	migrations = loaded
}

// LoadMigrations reads NNNNNN_name.up.sql / .down.sql pairs from the
// migrations directory of fsys. Every up script needs a down script and
// versions must be unique.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		parts := migrationNameRe.FindStringSubmatch(name)
		if parts == nil {
			middleware.Logger.Warn("Skipping migration with invalid naming", slog.String("file", name))
			continue
		}
		version, _ := strconv.Atoi(parts[1])
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %06d declared by %s and %s", version, prev, name)
		}
		seen[version] = name

		up, err := fs.ReadFile(fsys, path.Join("migrations", name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		downName := strings.TrimSuffix(name, ".up.sql") + ".down.sql"
		down, err := fs.ReadFile(fsys, path.Join("migrations", downName))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no %s: %w", name, downName, err)
		}

		out = append(out, Migration{
			Version:    version,
			Name:       parts[2],
			UpScript:   string(up),
			DownScript: string(down),
			Indexes:    declaredIndexes(string(up)),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func declaredIndexes(script string) []string {
	var names []string
	for _, m := range createIndexRe.FindAllStringSubmatch(script, -1) {
		names = append(names, m[1])
	}
	return names
}

// GetMigrations returns the registered migrations in version order.
func GetMigrations() []Migration {
	return migrations
}

// GetMigrationByVersion returns the migration with the given version, or nil.
func GetMigrationByVersion(version int) *Migration {
	for i := range migrations {
		if migrations[i].Version == version {
			return &migrations[i]
		}
	}
	return nil
}

// UncoveredEngineIndexes returns engine indexes no migration in set creates.
func UncoveredEngineIndexes(set []Migration) []string {
	declared := make(map[string]bool)
	for _, m := range set {
		for _, name := range m.Indexes {
			declared[name] = true
		}
	}
	var missing []string
	for _, idx := range EngineIndexes {
		if !declared[idx.Name] {
			missing = append(missing, idx.Name)
		}
	}
	return missing
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}
