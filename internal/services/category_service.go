package services

import (
	"context"
	"sort"
	"strings"

	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

const categoryCacheSize = 1024

// CategoryService manages the two-level category tree. Listings are cached
// per owner and served only while the store's category count still matches,
// so a create through any process sharing the store is picked up on the next
// listing.
type CategoryService struct {
	base
	cache *cache.LRUCache[[]core.Category]
}

type NewCategory struct {
	Name     string
	Type     core.CategoryType
	ParentID string
	Icon     string
	Color    string
}

func NewCategoryService(store storage.Store, opts Options) *CategoryService {
	opts = opts.withDefaults()
	return &CategoryService{
		base:  newBase(store, opts, log.ComponentCategory),
		cache: cache.NewLRUCache[[]core.Category](categoryCacheSize, opts.CategoryCacheTTL),
	}
}

// Cache exposes the listing cache so a cache.Manager can sweep it.
func (s *CategoryService) Cache() cache.Cleaner {
	return s.cache
}

// CreateCategory adds a category. A parent must belong to the owner, have the
// same type, and be top-level itself.
func (s *CategoryService) CreateCategory(ctx context.Context, owner string, in NewCategory) (core.Category, error) {
	c := core.Category{
		ID:        newID(),
		Owner:     owner,
		Name:      strings.TrimSpace(in.Name),
		Type:      in.Type,
		ParentID:  in.ParentID,
		Icon:      in.Icon,
		Color:     in.Color,
		CreatedAt: s.now(),
	}
	if c.Icon == "" {
		c.Icon = core.DefaultCategoryIcon
	}
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if c.ParentID != "" {
			parent, err := tx.GetCategory(ctx, owner, c.ParentID)
			if err != nil {
				if core.KindOf(err) == core.KindNotFound {
					return core.Validationf("parent category %s not found", c.ParentID)
				}
				return err
			}
			if parent.ParentID != "" {
				return core.ErrNestedCategory
			}
			if parent.Type != c.Type {
				return core.ErrParentTypeMismatch
			}
		}
		return tx.InsertCategory(ctx, c)
	})
	if err != nil {
		return core.Category{}, s.fail(ctx, "create category", err)
	}

	s.cache.Delete(owner)
	s.logger.InfoContext(ctx, "Category created",
		log.FieldOwner, owner,
		log.FieldCategory, c.ID,
		"parent_id", c.ParentID)
	return c, nil
}

// ListCategories returns top-level categories first, then children, each
// group alphabetical.
func (s *CategoryService) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	if owner == "" {
		return nil, core.ErrMissingOwner
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.store.CountCategories(ctx, owner)
	if err != nil {
		return nil, s.fail(ctx, "count categories", err)
	}
	if cached, ok := s.cache.Get(owner); ok && int64(len(cached)) == n {
		return append([]core.Category(nil), cached...), nil
	}

	cats, err := s.store.ListCategories(ctx, owner)
	if err != nil {
		return nil, s.fail(ctx, "list categories", err)
	}
	SortCategories(cats)
	s.cache.Set(owner, cats)
	return append([]core.Category(nil), cats...), nil
}

// SortCategories orders parents before children, alphabetically within each.
func SortCategories(cats []core.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		pi, pj := cats[i].ParentID == "", cats[j].ParentID == ""
		if pi != pj {
			return pi
		}
		return strings.ToLower(cats[i].Name) < strings.ToLower(cats[j].Name)
	})
}
