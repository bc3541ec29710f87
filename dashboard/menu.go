package dashboard

import (
	"context"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/models"
	"github.com/ray-remotestate/cafedash/reconcile"
	"github.com/ray-remotestate/cafedash/utils"
)

const menuPageSize = 50

func menuItemID(i models.MenuItem) string     { return i.ID }
func categoryID(c models.MenuCategory) string { return c.ID }

// MenuItemForm is what the menu item editor submits.
type MenuItemForm struct {
	Name        string                  `json:"name"`
	Description *string                 `json:"description"`
	Price       float64                 `json:"price"`
	CategoryIDs []string                `json:"category_ids"`
	Tags        []string                `json:"tags"`
	ImageURL    *string                 `json:"image_url"`
	InStock     *bool                   `json:"in_stock"`
	Options     []models.MenuItemOption `json:"options"`
}

func (f MenuItemForm) validate() error {
	var errs *multierror.Error
	if strings.TrimSpace(f.Name) == "" {
		errs = invalid(errs, "name", "Name is required")
	}
	if f.Price < 0 {
		errs = invalid(errs, "price", "Price must not be negative")
	}
	return errs.ErrorOrNil()
}

func (f MenuItemForm) input() models.MenuItemInput {
	return models.MenuItemInput{
		CategoryIDs: f.CategoryIDs,
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		Tags:        f.Tags,
		ImageURL:    f.ImageURL,
		Price:       f.Price,
		InStock:     f.InStock,
		Options:     f.Options,
	}
}

func (f MenuItemForm) update() models.MenuItemUpdate {
	name := strings.TrimSpace(f.Name)
	price := f.Price
	return models.MenuItemUpdate{
		CategoryIDs: f.CategoryIDs,
		Name:        &name,
		Description: f.Description,
		Tags:        f.Tags,
		ImageURL:    f.ImageURL,
		Price:       &price,
		InStock:     f.InStock,
		Options:     f.Options,
	}
}

// MenuPage manages the menu items and categories of the owned café.
type MenuPage struct {
	api API

	mu         sync.RWMutex
	sess       *models.Session
	slug       string
	items      *reconcile.List[models.MenuItem, string]
	categories *reconcile.List[models.MenuCategory, string]
	initErr    error
}

func NewMenuPage(api API) *MenuPage {
	return &MenuPage{api: api}
}

func (p *MenuPage) session() *models.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sess
}

// Init loads items and categories concurrently. The lists are built once per
// café and reloaded in place afterwards; a reload while a change is being
// saved fails with reconcile.ErrSubmitting.
func (p *MenuPage) Init(ctx context.Context, sess *models.Session) error {
	owned, err := ownedCafe(sess)
	if err != nil {
		p.mu.Lock()
		p.initErr = err
		p.mu.Unlock()
		return err
	}
	slug := owned.Slug

	p.mu.Lock()
	if p.items != nil && p.slug != slug {
		if p.items.Submitting() || p.categories.Submitting() {
			p.mu.Unlock()
			return reconcile.ErrSubmitting
		}
		p.items, p.categories = nil, nil
	}
	if p.items == nil {
		p.items = reconcile.NewList(menuItemID, func(ctx context.Context) ([]models.MenuItem, error) {
			return cafeapi.Paginate(ctx, menuPageSize, menuItemID, func(ctx context.Context, page, size int) (*models.Page[models.MenuItem], error) {
				return p.api.ListMenuItems(ctx, p.session(), slug, page, size)
			})
		})
		p.categories = reconcile.NewList(categoryID, func(ctx context.Context) ([]models.MenuCategory, error) {
			page, err := p.api.ListCategories(ctx, p.session(), slug)
			if err != nil {
				return nil, err
			}
			return page.Items, nil
		})
	}
	p.sess = sess
	p.slug = slug
	p.initErr = nil
	items, categories := p.items, p.categories
	p.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error { return items.Load(ctx) })
	g.Go(func() error { return categories.Load(ctx) })
	return g.Wait()
}

func (p *MenuPage) Ensure(ctx context.Context, sess *models.Session) error {
	if state, _ := p.State(); state == reconcile.Ready {
		return nil
	}
	return p.Init(ctx, sess)
}

// State is Ready only once both lists are.
func (p *MenuPage) State() (reconcile.State, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.initErr != nil {
		return reconcile.Failed, p.initErr
	}
	if p.items == nil {
		return reconcile.Loading, nil
	}
	itemsState, itemsErr := p.items.State()
	catState, catErr := p.categories.State()
	switch {
	case itemsState == reconcile.Failed:
		return itemsState, itemsErr
	case catState == reconcile.Failed:
		return catState, catErr
	case itemsState == reconcile.Loading || catState == reconcile.Loading:
		return reconcile.Loading, nil
	}
	return reconcile.Ready, nil
}

func (p *MenuPage) lists() (string, *reconcile.List[models.MenuItem, string], *reconcile.List[models.MenuCategory, string], error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.items == nil {
		if p.initErr != nil {
			return "", nil, nil, p.initErr
		}
		return "", nil, nil, ErrNotLoaded
	}
	return p.slug, p.items, p.categories, nil
}

func (p *MenuPage) Items() []models.MenuItem {
	_, items, _, err := p.lists()
	if err != nil {
		return []models.MenuItem{}
	}
	return items.Items()
}

func (p *MenuPage) Categories() []models.MenuCategory {
	_, _, categories, err := p.lists()
	if err != nil {
		return []models.MenuCategory{}
	}
	return categories.Items()
}

// Search filters the cached items by name. It never calls the API.
func (p *MenuPage) Search(query string) []models.MenuItem {
	_, items, _, err := p.lists()
	if err != nil {
		return []models.MenuItem{}
	}
	if strings.TrimSpace(query) == "" {
		return items.Items()
	}
	return items.Filter(func(i models.MenuItem) bool {
		return utils.ContainsFold(i.Name, query)
	})
}

// Save creates the item when id is empty and updates it otherwise.
func (p *MenuPage) Save(ctx context.Context, sess *models.Session, id string, form MenuItemForm) (models.MenuItem, error) {
	if err := form.validate(); err != nil {
		return models.MenuItem{}, err
	}
	slug, items, _, err := p.lists()
	if err != nil {
		return models.MenuItem{}, err
	}

	if id == "" {
		return items.Create(ctx, func(ctx context.Context) (models.MenuItem, error) {
			created, err := p.api.CreateMenuItem(ctx, sess, slug, form.input())
			if err != nil {
				return models.MenuItem{}, err
			}
			return *created, nil
		})
	}
	return items.Update(ctx, func(ctx context.Context) (models.MenuItem, error) {
		updated, err := p.api.UpdateMenuItem(ctx, sess, slug, id, form.update())
		if err != nil {
			return models.MenuItem{}, err
		}
		return *updated, nil
	})
}

func (p *MenuPage) Delete(ctx context.Context, sess *models.Session, id string) error {
	slug, items, _, err := p.lists()
	if err != nil {
		return err
	}
	return items.Delete(ctx, id, func(ctx context.Context) error {
		return p.api.DeleteMenuItem(ctx, sess, slug, id)
	})
}

// ToggleHighlight flips the item's highlight flag and keeps whatever the
// server says the flag now is.
func (p *MenuPage) ToggleHighlight(ctx context.Context, sess *models.Session, id string) (models.MenuItem, error) {
	slug, items, _, err := p.lists()
	if err != nil {
		return models.MenuItem{}, err
	}
	return items.Update(ctx, func(ctx context.Context) (models.MenuItem, error) {
		item, err := p.api.ToggleHighlight(ctx, sess, slug, id)
		if err != nil {
			return models.MenuItem{}, err
		}
		return *item, nil
	})
}

func (p *MenuPage) CreateCategory(ctx context.Context, sess *models.Session, input models.CategoryInput) (models.MenuCategory, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return models.MenuCategory{}, &cafeapi.ValidationError{Field: "name", Message: "Category name is required"}
	}
	slug, _, categories, err := p.lists()
	if err != nil {
		return models.MenuCategory{}, err
	}
	return categories.Create(ctx, func(ctx context.Context) (models.MenuCategory, error) {
		created, err := p.api.CreateCategory(ctx, sess, slug, input)
		if err != nil {
			return models.MenuCategory{}, err
		}
		return *created, nil
	})
}

type MenuView struct {
	View
	Items      []models.MenuItem     `json:"items"`
	Categories []models.MenuCategory `json:"categories"`
}

func (p *MenuPage) View(query string) MenuView {
	state, err := p.State()
	return MenuView{
		View:       viewOf(state, err),
		Items:      p.Search(query),
		Categories: p.Categories(),
	}
}
