// Package memstore is an in-memory implementation of the credential and
// donation stores for tests that exercise the full HTTP stack.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusgive/campusgive/internal/auth"
	"github.com/campusgive/campusgive/internal/donations"
	"github.com/campusgive/campusgive/internal/shared"
)

// Store holds users, items and contact requests behind one lock so
// joins behave like the SQL store.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[string]auth.User
	byEmail  map[string]string
	items    map[string]donations.Item
	requests []donations.ContactRequest
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		now:     time.Now,
		users:   map[string]auth.User{},
		byEmail: map[string]string{},
		items:   map[string]donations.Item{},
	}
}

// Users returns the credential store view.
func (s *Store) Users() auth.Repository { return users{s} }

// Donations returns the donation store view.
func (s *Store) Donations() donations.Repository { return items{s} }

// stamp returns a strictly increasing timestamp so ordering is stable.
func (s *Store) stamp() time.Time {
	t := s.now().UTC()
	for _, item := range s.items {
		if !t.After(item.CreatedAt) {
			t = item.CreatedAt.Add(time.Microsecond)
		}
	}
	for _, req := range s.requests {
		if !t.After(req.CreatedAt) {
			t = req.CreatedAt.Add(time.Microsecond)
		}
	}
	return t
}

type users struct{ s *Store }

func (u users) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	id, ok := u.s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	user := u.s.users[id]
	return &user, nil
}

func (u users) FindByID(ctx context.Context, id string) (*auth.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &user, nil
}

func (u users) Insert(ctx context.Context, user auth.User) (string, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.byEmail[user.Email]; ok {
		return "", shared.ErrDuplicateEmail
	}
	user.ID = uuid.NewString()
	user.CreatedAt = u.s.now().UTC()
	u.s.users[user.ID] = user
	u.s.byEmail[user.Email] = user.ID
	return user.ID, nil
}

type items struct{ s *Store }

func (r items) withOwner(item donations.Item) donations.Item {
	if u, ok := r.s.users[item.OwnerID]; ok {
		item.Owner = &donations.Owner{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return item
}

func (r items) Create(ctx context.Context, item donations.Item) (donations.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[item.OwnerID]; !ok {
		return donations.Item{}, shared.ErrStoreFailure
	}
	item.ID = uuid.NewString()
	item.CreatedAt = r.s.stamp()
	r.s.items[item.ID] = item
	return r.withOwner(item), nil
}

func (r items) Get(ctx context.Context, id string) (*donations.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	item = r.withOwner(item)
	return &item, nil
}

func (r items) List(ctx context.Context, filter donations.ListFilter) ([]donations.Item, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	search := strings.ToLower(filter.Search)
	var matched []donations.Item
	for _, item := range r.s.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		matched = append(matched, r.withOwner(item))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = total
	}
	start := 0
	if filter.Page > 1 {
		start = (filter.Page - 1) * limit
	}
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r items) Update(ctx context.Context, item donations.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.items[item.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Title = item.Title
	stored.Description = item.Description
	stored.Category = item.Category
	stored.Condition = item.Condition
	stored.Status = item.Status
	r.s.items[item.ID] = stored
	return nil
}

func (r items) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.s.items, id)
	kept := r.s.requests[:0]
	for _, req := range r.s.requests {
		if req.ItemID != id {
			kept = append(kept, req)
		}
	}
	r.s.requests = kept
	return nil
}

func (r items) CreateRequest(ctx context.Context, req donations.ContactRequest) (donations.ContactRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[req.ItemID]; !ok {
		return donations.ContactRequest{}, shared.ErrNotFound
	}
	req.ID = uuid.NewString()
	req.CreatedAt = r.s.stamp()
	r.s.requests = append(r.s.requests, req)
	return req, nil
}

func (r items) Counts(ctx context.Context) (donations.Counts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := donations.Counts{Users: int64(len(r.s.users)), TotalItems: int64(len(r.s.items))}
	for _, item := range r.s.items {
		if item.Status == donations.StatusAvailable {
			c.AvailableItems++
		}
	}
	if len(r.s.requests) > 0 {
		now := r.s.now()
		var sum float64
		for _, req := range r.s.requests {
			sum += now.Sub(req.CreatedAt).Hours()
		}
		c.HasRequests = true
		c.AvgRequestAgeHours = sum / float64(len(r.s.requests))
	}
	return c, nil
}

func (r items) RecentDonations(ctx context.Context, limit int) ([]donations.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []donations.Activity
	for _, item := range r.s.items {
		if item.Status != donations.StatusAvailable {
			continue
		}
		out = append(out, donations.Activity{
			Type:      "donation",
			Title:     item.Title,
			Category:  item.Category,
			CreatedAt: item.CreatedAt,
			UserName:  r.s.users[item.OwnerID].Name,
			ImageURL:  item.ImageURL,
		})
	}
	return newest(out, limit), nil
}

func (r items) RecentRequests(ctx context.Context, limit int) ([]donations.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []donations.Activity
	for _, req := range r.s.requests {
		item := r.s.items[req.ItemID]
		out = append(out, donations.Activity{
			Type:      "request",
			Title:     item.Title,
			CreatedAt: req.CreatedAt,
			UserName:  r.s.users[req.RequesterID].Name,
			ImageURL:  item.ImageURL,
		})
	}
	return newest(out, limit), nil
}

func newest(list []donations.Activity, limit int) []donations.Activity {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
