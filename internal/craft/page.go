package craft

import (
	"github.com/gravitas-games/stowage/internal/focus"
	"github.com/gravitas-games/stowage/internal/storage"
)

// Page is an open aggregated crafting view held under a focus token. Its
// listing is cached per owner until Invalidate is called; reads never
// refresh it implicitly.
type Page struct {
	view  *View
	token *focus.Token
	cache map[storage.OwnerID][]Attributed
}

// Open builds a page over the given containers. It fails with
// ErrNoEligibleTargets when nothing can be pooled and returns false when
// the focus is held by someone else.
func Open(lock *focus.Lock, owner storage.OwnerID, candidates, attached []*storage.Container) (*Page, bool, error) {
	view := Aggregate(candidates, attached)
	if view.Empty() {
		return nil, true, ErrNoEligibleTargets
	}
	tok, ok := lock.Request(string(owner))
	if !ok {
		return nil, false, nil
	}
	return &Page{view: view, token: tok, cache: make(map[storage.OwnerID][]Attributed)}, true, nil
}

// View returns the pooled view.
func (p *Page) View() *View { return p.view }

// Owner returns the identity holding the page.
func (p *Page) Owner() storage.OwnerID { return storage.OwnerID(p.token.Owner()) }

// Listing returns the merged listing for owner, computing it on first use.
func (p *Page) Listing(owner storage.OwnerID) []Attributed {
	if items, ok := p.cache[owner]; ok {
		return items
	}
	items := p.view.Items(owner)
	p.cache[owner] = items
	return items
}

// Refresh replaces the pooled containers with a freshly resolved set and
// drops the cached listings. An empty pool leaves the page open but with
// nothing to craft from.
func (p *Page) Refresh(candidates, attached []*storage.Container) {
	p.view = Aggregate(candidates, attached)
	p.Invalidate()
}

// Invalidate drops the cached listings. Call it when the container set or
// container contents change.
func (p *Page) Invalidate() {
	clear(p.cache)
}

// Craft runs a recipe against the page's view and invalidates the cache
// when anything moved.
func (p *Page) Craft(inv *storage.Inventory, r Recipe) error {
	if err := Craft(p.view, inv, r); err != nil {
		return err
	}
	p.Invalidate()
	return nil
}

// Close releases the focus token.
func (p *Page) Close() {
	p.token.Release()
}
