package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NewItem inserts a single pending work item.
func (s *Store) NewItem(ctx context.Context, filename, description string) (*Item, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO work_items (
            filename, description, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?)`,
		filename,
		description,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	s.notifyChanged()

	return s.GetByID(ctx, id)
}

// Replace clears any previous item set and inserts the given seeds as
// pending items in order. Each run starts from a fresh list, so the
// replacement happens in one transaction.
func (s *Store) Replace(ctx context.Context, seeds []Seed) error {
	ctx = ensureContext(ctx)

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin replace tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM work_items`); err != nil {
			return fmt.Errorf("clear previous items: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO work_items (
            filename, description, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, seed := range seeds {
			timestamp := time.Now().UTC().Format(time.RFC3339Nano)
			if _, err := stmt.ExecContext(ctx, seed.Filename, seed.Description, StatusPending, timestamp, timestamp); err != nil {
				return fmt.Errorf("insert item %q: %w", seed.Filename, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit replace: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifyChanged()
	return nil
}

// GetByID fetches a work item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM work_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing work item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE work_items
         SET filename = ?, description = ?, title = ?, keywords = ?, category = ?,
             status = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		item.Filename,
		item.Description,
		nullableString(item.Title),
		nullableString(item.Keywords),
		nullableString(item.Category),
		item.Status,
		nullableString(item.ErrorMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	s.notifyChanged()
	return nil
}

// UpdateAll persists a batch of item changes in one transaction and raises a
// single change signal. The scheduler uses this when a whole batch settles.
func (s *Store) UpdateAll(ctx context.Context, items []*Item) error {
	if len(items) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin update tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `UPDATE work_items
         SET filename = ?, description = ?, title = ?, keywords = ?, category = ?,
             status = ?, error_message = ?, updated_at = ?
         WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("prepare update: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, item := range items {
			if item == nil {
				continue
			}
			item.UpdatedAt = now
			if _, err := stmt.ExecContext(ctx,
				item.Filename,
				item.Description,
				nullableString(item.Title),
				nullableString(item.Keywords),
				nullableString(item.Category),
				item.Status,
				nullableString(item.ErrorMessage),
				item.UpdatedAt.Format(time.RFC3339Nano),
				item.ID,
			); err != nil {
				return fmt.Errorf("update item %d: %w", item.ID, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit updates: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifyChanged()
	return nil
}

// ItemsByStatus returns items matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM work_items WHERE status = ? ORDER BY created_at, id`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// List returns work items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM work_items`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		s.notifyChanged()
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed items.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM work_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	s.notifyChanged()
	return res.RowsAffected()
}

// ClearErrored removes only errored items.
func (s *Store) ClearErrored(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM work_items WHERE status = ?`, StatusError)
	if err != nil {
		return 0, fmt.Errorf("clear errored: %w", err)
	}
	s.notifyChanged()
	return res.RowsAffected()
}

// Clear removes all items.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM work_items`)
	if err != nil {
		return 0, fmt.Errorf("clear items: %w", err)
	}
	s.notifyChanged()
	return res.RowsAffected()
}
