// Package item implements the catalog: CRUD over the items table with
// memoized reads. Reads go through the cache layer with a fixed TTL; writes
// do not invalidate, so a read may serve a stale entry until its TTL lapses.
package item

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"catalog-server-go/internal/domain/cache"
	"catalog-server-go/internal/platform/storage"
)

// ErrNotFound is returned when no item exists for the ID.
var ErrNotFound = errors.New("item not found")

// Item is the API-facing catalog entry.
type Item struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input carries the writable fields of an item.
type Input struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"min=0"`
}

// Logger is the logging contract required by the service.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Service exposes catalog operations. Get and List are memoized; the
// remaining operations hit the database directly.
type Service struct {
	db     *gorm.DB
	logger Logger

	cachedGet  cache.Func[Item]
	cachedList cache.Func[[]Item]
}

// NewService wires the catalog service. readTTL bounds how stale a memoized
// read may be; zero disables expiry which is almost never what you want.
func NewService(db *gorm.DB, store cache.Store, readTTL time.Duration, logger Logger) (*Service, error) {
	if db == nil {
		return nil, errors.New("item service requires a database handle")
	}
	if store == nil {
		return nil, errors.New("item service requires a cache store")
	}

	s := &Service{db: db, logger: logger}
	s.cachedGet = cache.Memoized(store, "item.get", readTTL,
		func(ctx context.Context, args ...any) (Item, error) {
			return s.fetch(ctx, toID(args[0]))
		})
	s.cachedList = cache.Memoized(store, "item.list", readTTL,
		func(ctx context.Context, args ...any) ([]Item, error) {
			owner, _ := args[0].(string)
			return s.fetchAll(ctx, owner)
		})
	return s, nil
}

// Create inserts a new catalog entry owned by the given user.
func (s *Service) Create(ctx context.Context, owner string, in Input) (Item, error) {
	record := storage.Item{
		Name:  in.Name,
		Price: in.Price,
		Owner: owner,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("created item %d (%s) for %s", record.ID, record.Name, owner)
	}
	return toItem(record), nil
}

// Get returns one item, served from cache when a fresh entry exists.
func (s *Service) Get(ctx context.Context, id uint) (Item, error) {
	return s.cachedGet(ctx, id)
}

// List returns items, optionally filtered by owner, served from cache when a
// fresh entry exists. Newly created items may be missing from the listing
// until the cached entry expires.
func (s *Service) List(ctx context.Context, owner string) ([]Item, error) {
	return s.cachedList(ctx, owner)
}

// Update rewrites the writable fields of an item. The cached copy is not
// touched: readers may see the previous version until the TTL lapses.
func (s *Service) Update(ctx context.Context, id uint, in Input) (Item, error) {
	var record storage.Item
	err := s.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Item{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Item{}, err
	}

	record.Name = in.Name
	record.Price = in.Price
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return Item{}, fmt.Errorf("update item: %w", err)
	}
	return toItem(record), nil
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&storage.Item{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if s.logger != nil {
		s.logger.Info("deleted item %d", id)
	}
	return nil
}

// Count reports how many items exist, optionally per owner.
func (s *Service) Count(ctx context.Context, owner string) (int64, error) {
	query := s.db.WithContext(ctx).Model(&storage.Item{})
	if owner != "" {
		query = query.Where("owner = ?", owner)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) fetch(ctx context.Context, id uint) (Item, error) {
	var record storage.Item
	err := s.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Item{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Item{}, err
	}
	return toItem(record), nil
}

func (s *Service) fetchAll(ctx context.Context, owner string) ([]Item, error) {
	query := s.db.WithContext(ctx).Order("id")
	if owner != "" {
		query = query.Where("owner = ?", owner)
	}
	var records []storage.Item
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(records))
	for _, record := range records {
		items = append(items, toItem(record))
	}
	return items, nil
}

// toID normalises the memoize argument: direct calls pass uint, a cache
// round-trip through JSON yields float64.
func toID(v any) uint {
	switch n := v.(type) {
	case uint:
		return n
	case int:
		return uint(n)
	case float64:
		return uint(n)
	}
	return 0
}

func toItem(record storage.Item) Item {
	return Item{
		ID:        record.ID,
		Name:      record.Name,
		Price:     record.Price,
		Owner:     record.Owner,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
