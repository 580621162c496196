package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jasim-space/showcase/internal/model"
)

// DBTX is the subset of *sql.DB / *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries provides typed access to the database.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const listProducts = `
SELECT id, title, description, image_url, button_url, is_featured, created_at, updated_at
FROM products
ORDER BY is_featured DESC, created_at DESC
`

// ListProducts returns all products, featured first, newest first within each group.
func (q *Queries) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := q.db.QueryContext(ctx, listProducts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.ButtonURL,
			&p.IsFeatured, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const getProduct = `
SELECT id, title, description, image_url, button_url, is_featured, created_at, updated_at
FROM products
WHERE id = ?
`

// GetProduct returns a single product by ID.
func (q *Queries) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := q.db.QueryRowContext(ctx, getProduct, id).Scan(&p.ID, &p.Title, &p.Description,
		&p.ImageURL, &p.ButtonURL, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateProductParams holds the fields for creating a product.
type CreateProductParams struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	ButtonURL   string
	IsFeatured  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const createProduct = `
INSERT INTO products (id, title, description, image_url, button_url, is_featured, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// CreateProduct inserts a product and returns it.
func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (model.Product, error) {
	_, err := q.db.ExecContext(ctx, createProduct, arg.ID, arg.Title, arg.Description,
		arg.ImageURL, arg.ButtonURL, arg.IsFeatured, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.Product{}, err
	}
	return q.GetProduct(ctx, arg.ID)
}

// UpdateProductParams holds the fields for updating a product.
type UpdateProductParams struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	ButtonURL   string
	IsFeatured  bool
	UpdatedAt   time.Time
}

const updateProduct = `
UPDATE products
SET title = ?, description = ?, image_url = ?, button_url = ?, is_featured = ?, updated_at = ?
WHERE id = ?
`

// UpdateProduct updates a product and returns the stored row.
// Returns sql.ErrNoRows if the product does not exist.
func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (model.Product, error) {
	res, err := q.db.ExecContext(ctx, updateProduct, arg.Title, arg.Description, arg.ImageURL,
		arg.ButtonURL, arg.IsFeatured, arg.UpdatedAt, arg.ID)
	if err != nil {
		return model.Product{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Product{}, err
	}
	if affected == 0 {
		return model.Product{}, sql.ErrNoRows
	}
	return q.GetProduct(ctx, arg.ID)
}

const deleteProduct = `DELETE FROM products WHERE id = ?`

// DeleteProduct removes a product. Returns sql.ErrNoRows if it does not exist.
func (q *Queries) DeleteProduct(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, deleteProduct, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const countProducts = `SELECT COUNT(*) FROM products`

// CountProducts returns the number of products.
func (q *Queries) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countProducts).Scan(&count)
	return count, err
}

const getAdminByEmail = `
SELECT id, email, password_hash, created_at, updated_at
FROM admin_users
WHERE email = ?
`

// GetAdminByEmail returns the admin account for the given (normalized) email.
func (q *Queries) GetAdminByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	var u model.AdminUser
	err := q.db.QueryRowContext(ctx, getAdminByEmail, email).Scan(&u.ID, &u.Email,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateAdminParams holds the fields for creating an admin account.
type CreateAdminParams struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const createAdmin = `
INSERT INTO admin_users (email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?)
`

// CreateAdmin inserts an admin account and returns it.
func (q *Queries) CreateAdmin(ctx context.Context, arg CreateAdminParams) (model.AdminUser, error) {
	res, err := q.db.ExecContext(ctx, createAdmin, arg.Email, arg.PasswordHash, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.AdminUser{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.AdminUser{}, err
	}
	return model.AdminUser{
		ID:           id,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		CreatedAt:    arg.CreatedAt,
		UpdatedAt:    arg.UpdatedAt,
	}, nil
}

// UpdateAdminEmailParams holds the fields for changing an admin email.
type UpdateAdminEmailParams struct {
	ID        int64
	Email     string
	UpdatedAt time.Time
}

const updateAdminEmail = `UPDATE admin_users SET email = ?, updated_at = ? WHERE id = ?`

// UpdateAdminEmail changes the email of an admin account.
func (q *Queries) UpdateAdminEmail(ctx context.Context, arg UpdateAdminEmailParams) error {
	_, err := q.db.ExecContext(ctx, updateAdminEmail, arg.Email, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateAdminPasswordParams holds the fields for changing an admin password hash.
type UpdateAdminPasswordParams struct {
	ID           int64
	PasswordHash string
	UpdatedAt    time.Time
}

const updateAdminPassword = `UPDATE admin_users SET password_hash = ?, updated_at = ? WHERE id = ?`

// UpdateAdminPassword stores a new password hash for an admin account.
func (q *Queries) UpdateAdminPassword(ctx context.Context, arg UpdateAdminPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateAdminPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

// CreateVisitParams holds the fields for recording a visit.
type CreateVisitParams struct {
	PagePath   string
	IPAddress  string
	UserAgent  string
	Browser    string
	OS         string
	DeviceType string
	Country    string
	VisitedAt  time.Time
}

const createVisit = `
INSERT INTO visits (page_path, ip_address, user_agent, browser, os, device_type, country, visited_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// CreateVisit records a page view.
func (q *Queries) CreateVisit(ctx context.Context, arg CreateVisitParams) error {
	_, err := q.db.ExecContext(ctx, createVisit, arg.PagePath, arg.IPAddress, arg.UserAgent,
		arg.Browser, arg.OS, arg.DeviceType, arg.Country, arg.VisitedAt)
	return err
}

const listVisitsSince = `
SELECT id, page_path, ip_address, user_agent, browser, os, device_type, country, visited_at
FROM visits
WHERE visited_at >= ?
ORDER BY visited_at ASC
`

// ListVisitsSince returns all visits at or after the given instant, oldest first.
func (q *Queries) ListVisitsSince(ctx context.Context, since time.Time) ([]model.Visit, error) {
	rows, err := q.db.QueryContext(ctx, listVisitsSince, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.Visit
	for rows.Next() {
		var v model.Visit
		if err := rows.Scan(&v.ID, &v.PagePath, &v.IPAddress, &v.UserAgent, &v.Browser,
			&v.OS, &v.DeviceType, &v.Country, &v.VisitedAt); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

const earliestVisit = `SELECT MIN(visited_at) FROM visits`

// EarliestVisit returns the timestamp of the oldest recorded visit.
// Returns sql.ErrNoRows when no visits exist.
func (q *Queries) EarliestVisit(ctx context.Context) (time.Time, error) {
	var earliest sql.NullTime
	if err := q.db.QueryRowContext(ctx, earliestVisit).Scan(&earliest); err != nil {
		return time.Time{}, err
	}
	if !earliest.Valid {
		return time.Time{}, sql.ErrNoRows
	}
	return earliest.Time, nil
}

const deleteVisitsBefore = `DELETE FROM visits WHERE visited_at < ?`

// DeleteVisitsBefore removes visits older than the cutoff. Returns the number removed.
func (q *Queries) DeleteVisitsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteVisitsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateEventParams holds the fields for creating an event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

const createEvent = `
INSERT INTO events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)
`

// CreateEvent appends an entry to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createEvent, arg.Level, arg.Category, arg.Message,
		arg.Metadata, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listRecentEvents = `
SELECT id, level, category, message, metadata, created_at
FROM events
ORDER BY created_at DESC, id DESC
LIMIT ?
`

// ListRecentEvents returns the most recent event log entries.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listRecentEvents, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const deleteEventsBefore = `DELETE FROM events WHERE created_at < ?`

// DeleteEventsBefore removes event log entries older than the cutoff.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
