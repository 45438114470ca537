package donations

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusgive/campusgive/internal/shared"
)

// Repository defines persistence for items and contact requests.
type Repository interface {
	Create(ctx context.Context, item Item) (Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context, filter ListFilter) ([]Item, int, error)
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, id string) error
	CreateRequest(ctx context.Context, req ContactRequest) (ContactRequest, error)
	Counts(ctx context.Context) (Counts, error)
	RecentDonations(ctx context.Context, limit int) ([]Activity, error)
	RecentRequests(ctx context.Context, limit int) ([]Activity, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const itemColumns = `i.id::text, i.owner_id::text, u.name, u.email, i.title, i.description, i.category, i.condition,
	i.image_url, i.donor_name, i.donor_email, i.donor_mobile, i.status, i.created_at`

const itemFrom = ` FROM items i JOIN users u ON u.id = i.owner_id`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	owner := &Owner{}
	err := row.Scan(&it.ID, &it.OwnerID, &owner.Name, &owner.Email, &it.Title, &it.Description, &it.Category,
		&it.Condition, &it.ImageURL, &it.Donor.Name, &it.Donor.Email, &it.Donor.Mobile, &it.Status, &it.CreatedAt)
	if err != nil {
		return Item{}, err
	}
	owner.ID = it.OwnerID
	it.Owner = owner
	return it, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrStoreFailure, op, err)
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	item.ID = uuid.NewString()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.Status == "" {
		item.Status = StatusAvailable
	}
	query := `INSERT INTO items (id, owner_id, title, description, category, condition, image_url,
		donor_name, donor_email, donor_mobile, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.Exec(ctx, query, item.ID, item.OwnerID, item.Title, item.Description, item.Category, item.Condition,
		item.ImageURL, item.Donor.Name, item.Donor.Email, item.Donor.Mobile, item.Status, item.CreatedAt)
	if err != nil {
		return Item{}, storeErr("insert item", err)
	}
	return item, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, shared.ErrNotFound
	}
	it, err := scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, storeErr("get item", err)
	}
	return &it, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	where := ` WHERE i.status = $1`
	args := []any{filter.Status}

	if filter.Category != "" {
		args = append(args, filter.Category)
		where += ` AND i.category = $` + strconv.Itoa(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (i.title ILIKE $` + n + ` OR i.description ILIKE $` + n + `)`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+itemFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count items", err)
	}

	query := `SELECT ` + itemColumns + itemFrom + where + ` ORDER BY i.created_at DESC`
	args = append(args, filter.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, (filter.Page-1)*filter.Limit)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storeErr("list items", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, storeErr("scan item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("list items", err)
	}
	return items, total, nil
}

func (r *repository) Update(ctx context.Context, item Item) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE items SET title = $1, description = $2, category = $3, condition = $4, status = $5 WHERE id = $6`,
		item.Title, item.Description, item.Category, item.Condition, item.Status, item.ID)
	if err != nil {
		return storeErr("update item", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CreateRequest(ctx context.Context, req ContactRequest) (ContactRequest, error) {
	req.ID = uuid.NewString()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO contact_requests (id, item_id, requester_id, message, created_at) VALUES ($1, $2, $3, $4, $5)`,
		req.ID, req.ItemID, req.RequesterID, req.Message, req.CreatedAt)
	if err != nil {
		return ContactRequest{}, storeErr("insert request", err)
	}
	return req, nil
}

func (r *repository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	var avg *float64
	err := r.db.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM items),
		(SELECT COUNT(*) FROM items WHERE status = 'available'),
		(SELECT EXTRACT(EPOCH FROM AVG(now() - created_at))::float8 / 3600 FROM contact_requests)`,
	).Scan(&c.Users, &c.TotalItems, &c.AvailableItems, &avg)
	if err != nil {
		return Counts{}, storeErr("counts", err)
	}
	if avg != nil {
		c.AvgRequestAgeHours = *avg
		c.HasRequests = true
	}
	return c, nil
}

func (r *repository) RecentDonations(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := r.db.Query(ctx,
		`SELECT title, category, created_at, donor_name, image_url FROM items
		WHERE status = 'available' ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, storeErr("recent donations", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		a := Activity{Type: "donation"}
		if err := rows.Scan(&a.Title, &a.Category, &a.CreatedAt, &a.UserName, &a.ImageURL); err != nil {
			return nil, storeErr("scan donation", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("recent donations", err)
	}
	return out, nil
}

func (r *repository) RecentRequests(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := r.db.Query(ctx,
		`SELECT i.title, cr.created_at, u.name, i.image_url
		FROM contact_requests cr
		JOIN items i ON i.id = cr.item_id
		JOIN users u ON u.id = cr.requester_id
		ORDER BY cr.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, storeErr("recent requests", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		a := Activity{Type: "request"}
		if err := rows.Scan(&a.Title, &a.CreatedAt, &a.UserName, &a.ImageURL); err != nil {
			return nil, storeErr("scan request", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("recent requests", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
