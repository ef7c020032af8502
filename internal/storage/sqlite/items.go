package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NoManNayeem/Terraform-POC/internal/models"
	"github.com/NoManNayeem/Terraform-POC/internal/storage"
)

const selectItem = "SELECT id, name, description, created_at FROM items"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem builds an Item field by field from one result row.
func scanItem(row rowScanner) (models.Item, error) {
	var (
		item        models.Item
		description sql.NullString
		createdAt   timestamp
	)
	if err := row.Scan(&item.ID, &item.Name, &description, &createdAt); err != nil {
		return models.Item{}, err
	}
	if description.Valid {
		d := description.String
		item.Description = &d
	}
	if createdAt.Valid {
		t := createdAt.Time
		item.CreatedAt = &t
	}
	return item, nil
}

// ListItems returns all items, newest first. Ties on created_at fall back to
// the higher ID first.
func (s *SQLiteStore) ListItems(ctx context.Context) ([]models.Item, error) {
	items := []models.Item{}
	err := s.do(ctx, "list", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, selectItem+" ORDER BY created_at DESC, id DESC")
		if err != nil {
			return fmt.Errorf("failed to list items: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scanItem(rows)
			if err != nil {
				return fmt.Errorf("failed to scan item: %w", err)
			}
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem inserts an item and reads it back by its assigned ID on the
// same connection.
func (s *SQLiteStore) CreateItem(ctx context.Context, in models.NewItem) (*models.Item, error) {
	var created models.Item
	err := s.do(ctx, "create", func(ctx context.Context, conn *sql.Conn) error {
		var description sql.NullString
		if in.Description != nil {
			description = sql.NullString{String: *in.Description, Valid: true}
		}

		res, err := conn.ExecContext(ctx,
			"INSERT INTO items (name, description) VALUES (?, ?)",
			in.Name, description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted item id: %w", err)
		}

		created, err = scanItem(conn.QueryRowContext(ctx, selectItem+" WHERE id = ?", id))
		if err != nil {
			return fmt.Errorf("failed to read back item %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetItem retrieves an item by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := s.do(ctx, "get", func(ctx context.Context, conn *sql.Conn) error {
		var err error
		item, err = scanItem(conn.QueryRowContext(ctx, selectItem+" WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("item %d: %w", id, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item by ID and returns the number of rows removed.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := s.do(ctx, "delete", func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// CountItems returns the number of stored items.
func (s *SQLiteStore) CountItems(ctx context.Context) (int64, error) {
	var n int64
	err := s.do(ctx, "count", func(ctx context.Context, conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&n); err != nil {
			return fmt.Errorf("failed to count items: %w", err)
		}
		return nil
	})
	return n, err
}
