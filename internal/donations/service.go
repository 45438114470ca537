package donations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/campusgive/campusgive/internal/platform/blob"
	"github.com/campusgive/campusgive/internal/shared"
)

const (
	defaultLimit  = 10
	maxLimit      = 100
	activityLimit = 5
)

// Authorizer enforces ownership rules.
type Authorizer interface {
	AuthorizeMutation(ownerID, userID string) error
	AuthorizeDestructiveAction(ownerID, userID, password, digest string) error
}

// CredentialSource loads a user's stored password digest.
type CredentialSource interface {
	Credential(ctx context.Context, userID string) (string, error)
}

// Service implements the marketplace use cases.
type Service struct {
	repo        Repository
	blobs       blob.Store
	authz       Authorizer
	credentials CredentialSource
	stats       *StatsCache
	logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, blobs blob.Store, authz Authorizer, credentials CredentialSource, stats *StatsCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = NewStatsCache(nil, 0, logger)
	}
	return &Service{
		repo:        repo,
		blobs:       blobs,
		authz:       authz,
		credentials: credentials,
		stats:       stats,
		logger:      logger,
	}
}

// Create lists a new item owned by ownerID, storing image when present.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput, image *blob.Image) (Item, error) {
	item := Item{
		OwnerID:     ownerID,
		Title:       clean(in.Title),
		Description: clean(in.Description),
		Category:    clean(in.Category),
		Condition:   clean(in.Condition),
		Donor: Donor{
			Name:   clean(in.DonorName),
			Email:  strings.TrimSpace(in.Email),
			Mobile: strings.TrimSpace(in.Mobile),
		},
		Status: StatusAvailable,
	}
	if item.Title == "" || item.Description == "" || item.Category == "" || item.Condition == "" ||
		item.Donor.Name == "" || item.Donor.Email == "" || item.Donor.Mobile == "" {
		return Item{}, shared.Invalid("All fields required")
	}

	if image != nil {
		url, err := s.blobs.Put(ctx, image.Name, image.Body, image.Size, image.ContentType)
		if err != nil {
			return Item{}, fmt.Errorf("%w: store image: %v", shared.ErrStoreFailure, err)
		}
		item.ImageURL = &url
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		if item.ImageURL != nil {
			s.removeImage(ctx, *item.ImageURL)
		}
		return Item{}, err
	}
	s.stats.Invalidate(ctx)
	return created, nil
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of items matching filter and the total match count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Item, shared.Pagination, error) {
	filter = normalizeFilter(filter)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.Limit, total), nil
}

// Update applies a partial update. Only the owner may update.
func (s *Service) Update(ctx context.Context, id, userID string, in UpdateInput) (*Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.AuthorizeMutation(item.OwnerID, userID); err != nil {
		return nil, err
	}

	apply := func(dst *string, src *string) error {
		if src == nil {
			return nil
		}
		v := clean(*src)
		if v == "" {
			return shared.Invalid("Fields cannot be empty")
		}
		*dst = v
		return nil
	}
	for _, f := range []struct{ dst, src *string }{
		{&item.Title, in.Title},
		{&item.Description, in.Description},
		{&item.Category, in.Category},
		{&item.Condition, in.Condition},
		{&item.Status, in.Status},
	} {
		if err := apply(f.dst, f.src); err != nil {
			return nil, err
		}
	}
	if !validStatus(item.Status) {
		return nil, shared.Invalid("Invalid status")
	}

	if err := s.repo.Update(ctx, *item); err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)
	return item, nil
}

// RequestContact records a request and reveals the donor's contact details.
func (s *Service) RequestContact(ctx context.Context, id, requesterID, message string) (Contact, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return Contact{}, err
	}
	message = clean(message)
	if message == "" {
		message = DefaultRequestMessage
	}
	if _, err := s.repo.CreateRequest(ctx, ContactRequest{
		ItemID:      item.ID,
		RequesterID: requesterID,
		Message:     message,
	}); err != nil {
		return Contact{}, err
	}
	s.stats.Invalidate(ctx)
	return Contact{Email: item.Donor.Email, Mobile: item.Donor.Mobile}, nil
}

// Delete removes an item after checking ownership and re-verifying the
// owner's password.
func (s *Service) Delete(ctx context.Context, id, userID, password string) error {
	if password == "" {
		return shared.Invalid("Password required")
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.AuthorizeMutation(item.OwnerID, userID); err != nil {
		return err
	}
	digest, err := s.credentials.Credential(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.authz.AuthorizeDestructiveAction(item.OwnerID, userID, password, digest); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return err
	}
	if item.ImageURL != nil {
		s.removeImage(ctx, *item.ImageURL)
	}
	s.stats.Invalidate(ctx)
	return nil
}

// Stats returns the marketplace summary.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.stats.Fetch(ctx, func(ctx context.Context) (Stats, error) {
		c, err := s.repo.Counts(ctx)
		if err != nil {
			return Stats{}, err
		}
		avg := "0.00"
		if c.HasRequests && c.AvgRequestAgeHours != 0 {
			avg = fmt.Sprintf("%.2f", c.AvgRequestAgeHours)
		}
		return Stats{
			Users:          c.Users,
			TotalItems:     c.TotalItems,
			AvailableItems: c.AvailableItems,
			AvgResponse:    avg,
		}, nil
	})
}

// RecentActivity merges the newest donations and requests.
func (s *Service) RecentActivity(ctx context.Context) ([]Activity, error) {
	donated, err := s.repo.RecentDonations(ctx, activityLimit)
	if err != nil {
		return nil, err
	}
	requested, err := s.repo.RecentRequests(ctx, activityLimit)
	if err != nil {
		return nil, err
	}
	all := append(append(make([]Activity, 0, len(donated)+len(requested)), donated...), requested...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > activityLimit {
		all = all[:activityLimit]
	}
	return all, nil
}

func (s *Service) removeImage(ctx context.Context, url string) {
	name := blob.NameFromURL(url)
	if name == "" {
		return
	}
	if err := s.blobs.Delete(ctx, name); err != nil && !errors.Is(err, blob.ErrInvalidName) {
		s.logger.Warn("remove image", slog.String("name", name), slog.Any("error", err))
	}
}

func normalizeFilter(f ListFilter) ListFilter {
	f.Status = strings.TrimSpace(f.Status)
	if f.Status == "" {
		f.Status = StatusAvailable
	}
	f.Category = clean(f.Category)
	f.Search = clean(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return f
}

func validStatus(status string) bool {
	switch status {
	case StatusAvailable, StatusReserved, StatusDonated:
		return true
	}
	return false
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
