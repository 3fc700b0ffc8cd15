package services

import (
	"context"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// CategoryService is the category facade.
type CategoryService struct {
	categories store.CategoryRepository
	operations store.OperationRepository
	factory    core.Factory
	opts       options
}

func NewCategoryService(categories store.CategoryRepository, operations store.OperationRepository, opts ...Option) *CategoryService {
	return &CategoryService{
		categories: categories,
		operations: operations,
		opts:       buildOptions(log.ComponentCategory, opts),
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string, t core.OperationType) (core.Category, error) {
	c, err := s.factory.NewCategory(s.categories.NextID(), t, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if err := s.categories.Add(c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.opts.logger.InfoContext(ctx, "Category created", log.FieldCategoryID, c.ID, "name", c.Name, log.FieldOpType, c.Type)
	s.opts.publish(ctx, core.NewLedgerEvent(core.EventCategoryCreated, c.ID))
	return c, nil
}

func (s *CategoryService) GetCategory(_ context.Context, id int64) (core.Category, error) {
	c, ok := s.categories.Get(id)
	if !ok {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}

// UpdateCategory replaces name and type. Changing the type is refused while
// operations of the old type still reference the category.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, name string, t core.OperationType) (core.Category, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	c, err := s.factory.NewCategory(id, t, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	for _, op := range s.operations.ByCategory(id) {
		if op.Type != t {
			return core.Category{}, fmt.Errorf("update category %d: %w: %w (operation %d is %s)",
				id, core.ErrInvalidState, core.ErrCategoryTypeMismatch, op.ID, op.Type)
		}
	}
	if err := s.categories.Update(c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.opts.publish(ctx, core.NewLedgerEvent(core.EventCategoryUpdated, id))
	return c, nil
}

// DeleteCategory refuses to remove a category that operations still reference.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if ops := s.operations.ByCategory(id); len(ops) > 0 {
		return fmt.Errorf("delete category %d: %w: referenced by %d operations", id, core.ErrInvalidState, len(ops))
	}
	if err := s.categories.Delete(id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.opts.logger.InfoContext(ctx, "Category deleted", log.FieldCategoryID, id)
	s.opts.publish(ctx, core.NewLedgerEvent(core.EventCategoryDeleted, id))
	return nil
}

func (s *CategoryService) ListCategories(_ context.Context) []core.Category {
	return s.categories.All()
}

func (s *CategoryService) CategoriesByType(_ context.Context, t core.OperationType) []core.Category {
	return s.categories.ByType(t)
}
