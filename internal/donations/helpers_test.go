package donations_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgive/campusgive/internal/auth"
	"github.com/campusgive/campusgive/internal/donations"
	"github.com/campusgive/campusgive/internal/platform/blob"
	"github.com/campusgive/campusgive/internal/security/password"
	"github.com/campusgive/campusgive/internal/shared"
	_ "github.com/campusgive/campusgive/testing"
)

type memoryUser struct {
	name   string
	email  string
	digest string
}

// memoryRepo is an in-memory donations store.
type memoryRepo struct {
	mu       sync.Mutex
	users    map[string]memoryUser
	items    map[string]donations.Item
	requests []donations.ContactRequest
	clock    time.Time

	failWith    error
	countsCalls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users: map[string]memoryUser{},
		items: map[string]donations.Item{},
		clock: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memoryRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memoryRepo) Create(ctx context.Context, item donations.Item) (donations.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return donations.Item{}, m.failWith
	}
	item.ID = uuid.NewString()
	item.CreatedAt = m.tick()
	if u, ok := m.users[item.OwnerID]; ok {
		item.Owner = &donations.Owner{ID: item.OwnerID, Name: u.name, Email: u.email}
	}
	m.items[item.ID] = item
	return item, nil
}

func (m *memoryRepo) Get(ctx context.Context, id string) (*donations.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	item, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &item, nil
}

func (m *memoryRepo) List(ctx context.Context, filter donations.ListFilter) ([]donations.Item, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	var matched []donations.Item
	search := strings.ToLower(filter.Search)
	for _, item := range m.items {
		if item.Status != filter.Status {
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
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memoryRepo) Update(ctx context.Context, item donations.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return shared.ErrNotFound
	}
	m.items[item.ID] = item
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	kept := m.requests[:0]
	for _, req := range m.requests {
		if req.ItemID != id {
			kept = append(kept, req)
		}
	}
	m.requests = kept
	return nil
}

func (m *memoryRepo) CreateRequest(ctx context.Context, req donations.ContactRequest) (donations.ContactRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = uuid.NewString()
	req.CreatedAt = m.tick()
	m.requests = append(m.requests, req)
	return req, nil
}

func (m *memoryRepo) Counts(ctx context.Context) (donations.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countsCalls++
	if m.failWith != nil {
		return donations.Counts{}, m.failWith
	}
	c := donations.Counts{Users: int64(len(m.users)), TotalItems: int64(len(m.items))}
	for _, item := range m.items {
		if item.Status == donations.StatusAvailable {
			c.AvailableItems++
		}
	}
	if len(m.requests) > 0 {
		var sum float64
		for _, req := range m.requests {
			sum += m.clock.Sub(req.CreatedAt).Hours()
		}
		c.HasRequests = true
		c.AvgRequestAgeHours = sum / float64(len(m.requests))
	}
	return c, nil
}

func (m *memoryRepo) RecentDonations(ctx context.Context, limit int) ([]donations.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []donations.Activity
	for _, item := range m.items {
		if item.Status != donations.StatusAvailable {
			continue
		}
		out = append(out, donations.Activity{
			Type:      "donation",
			Title:     item.Title,
			Category:  item.Category,
			CreatedAt: item.CreatedAt,
			UserName:  m.users[item.OwnerID].name,
			ImageURL:  item.ImageURL,
		})
	}
	return newest(out, limit), nil
}

func (m *memoryRepo) RecentRequests(ctx context.Context, limit int) ([]donations.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []donations.Activity
	for _, req := range m.requests {
		item := m.items[req.ItemID]
		out = append(out, donations.Activity{
			Type:      "request",
			Title:     item.Title,
			CreatedAt: req.CreatedAt,
			UserName:  m.users[req.RequesterID].name,
			ImageURL:  item.ImageURL,
		})
	}
	return newest(out, limit), nil
}

func newest(list []donations.Activity, limit int) []donations.Activity {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}

func (m *memoryRepo) Credential(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return "", shared.ErrInvalidCredential
	}
	return u.digest, nil
}

// memoryBlobs records stored objects.
type memoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
	failDel error
	deleted []string
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: map[string][]byte{}}
}

func (b *memoryBlobs) Put(ctx context.Context, name string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPut != nil {
		return "", b.failPut
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	b.objects[name] = raw
	return "/uploads/" + name, nil
}

func (b *memoryBlobs) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, name)
	if b.failDel != nil {
		return b.failDel
	}
	delete(b.objects, name)
	return nil
}

func (b *memoryBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

type fixture struct {
	repo    *memoryRepo
	blobs   *memoryBlobs
	hasher  *password.Hasher
	service *donations.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	repo := newMemoryRepo()
	blobs := newMemoryBlobs()
	return &fixture{
		repo:    repo,
		blobs:   blobs,
		hasher:  hasher,
		service: donations.NewService(repo, blobs, auth.NewAuthorizer(hasher), repo, nil, nil),
	}
}

func (f *fixture) addUser(t *testing.T, name, email, pass string) string {
	t.Helper()
	digest, err := f.hasher.Hash(pass)
	require.NoError(t, err)
	id := uuid.NewString()
	f.repo.mu.Lock()
	f.repo.users[id] = memoryUser{name: name, email: email, digest: digest}
	f.repo.mu.Unlock()
	return id
}

func sampleInput(title string) donations.CreateInput {
	return donations.CreateInput{
		Title:       title,
		Description: "Lightly used, works fine",
		Category:    "Electronics",
		Condition:   "Good",
		DonorName:   "Alice",
		Email:       "alice@example.com",
		Mobile:      "555-0100",
	}
}

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}

func pngImage(t *testing.T) *blob.Image {
	t.Helper()
	img, err := blob.Inspect(bytes.NewReader(pngHeader), int64(len(pngHeader)), 1<<20)
	require.NoError(t, err)
	return img
}
