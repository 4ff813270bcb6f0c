package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, name string) string {
	t.Helper()
	data, err := migrationsFS.ReadFile("migrations/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestMigrations_EveryUpHasADown(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	files := make(map[string]bool, len(entries))
	for _, e := range entries {
		files[e.Name()] = true
	}

	for name := range files {
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		down := strings.TrimSuffix(name, ".up.sql") + ".down.sql"
		assert.True(t, files[down], "missing down migration for %s", name)
	}
}

// Task history must never block deleting a document or a user; the task rows
// keep their payload and lose the reference instead.
func TestMigrations_AgentTaskReferencesDetachOnDelete(t *testing.T) {
	sql := readMigration(t, "000004_add_agent_tasks_table.up.sql")

	assert.Contains(t, sql, "user_id BIGINT REFERENCES users (id) ON DELETE SET NULL")
	assert.Contains(t, sql, "document_id BIGINT REFERENCES legal_documents (id) ON DELETE SET NULL")
}

// Entities and key terms have no life of their own; they go with the document.
func TestMigrations_DocumentChildTablesCascade(t *testing.T) {
	sql := readMigration(t, "000003_add_document_tables.up.sql")

	assert.Equal(t, 2, strings.Count(sql, "REFERENCES legal_documents (id) ON DELETE CASCADE"))
}
