package storage

import "context"

// InsertAccount stores a new account name without any uniqueness check.
func (s *Store) InsertAccount(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.driver.rebind(
		"INSERT INTO accounts (name) VALUES (?) RETURNING id"), name,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("insert account", err)
	}
	return id, nil
}

// DeleteAccountsByName removes every account row named name and reports how
// many were removed.
func (s *Store) DeleteAccountsByName(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.driver.rebind("DELETE FROM accounts WHERE name = ?"), name)
	if err != nil {
		return 0, storageErr("delete account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("delete account", err)
	}
	return n, nil
}

// ListAccountNames returns all account names in insertion order.
func (s *Store) ListAccountNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM accounts ORDER BY id")
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("scan account", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list accounts", err)
	}
	return names, nil
}
