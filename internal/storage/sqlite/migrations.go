package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the items table if it does not exist.
// created_at keeps millisecond precision so ordering by it is meaningful
// for items created within the same second.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
`

// runMigrations executes the schema setup on the given connection.
func runMigrations(ctx context.Context, conn *sql.Conn) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
