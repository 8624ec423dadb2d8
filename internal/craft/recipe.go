package craft

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gravitas-games/stowage/internal/storage"
)

// RecipeID uniquely identifies a recipe.
type RecipeID string

// ItemYield specifies an output item from a recipe.
type ItemYield struct {
	Item     storage.ItemID `json:"item" yaml:"item"`
	Quantity int            `json:"quantity" yaml:"quantity"`
}

// Recipe turns pooled inputs into outputs placed in the player's inventory.
type Recipe struct {
	ID      RecipeID          `json:"id" yaml:"id"`
	Name    string            `json:"name" yaml:"name"`
	Inputs  []ItemRequirement `json:"inputs" yaml:"inputs"`
	Outputs []ItemYield       `json:"outputs" yaml:"outputs"`
}

// Validate checks that a recipe is usable.
func (r Recipe) Validate() error {
	if r.ID == "" {
		return errors.New("recipe id required")
	}
	if len(r.Outputs) == 0 {
		return fmt.Errorf("recipe %s has no outputs", r.ID)
	}
	for _, in := range r.Inputs {
		if in.Item == "" || in.Quantity <= 0 {
			return fmt.Errorf("recipe %s has invalid input %+v", r.ID, in)
		}
	}
	for _, out := range r.Outputs {
		if out.Item == "" || out.Quantity <= 0 {
			return fmt.Errorf("recipe %s has invalid output %+v", r.ID, out)
		}
	}
	return nil
}

// Book is a registry of recipes.
type Book struct {
	mu      sync.RWMutex
	recipes map[RecipeID]Recipe
}

// NewBook creates a book seeded with recipes. Invalid recipes are
// reported and skipped.
func NewBook(recipes ...Recipe) (*Book, error) {
	b := &Book{recipes: make(map[RecipeID]Recipe, len(recipes))}
	var errs []error
	for _, r := range recipes {
		if err := b.Add(r); err != nil {
			errs = append(errs, err)
		}
	}
	return b, errors.Join(errs...)
}

// Add registers or replaces a recipe.
func (b *Book) Add(r Recipe) error {
	if err := r.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recipes[r.ID] = r
	return nil
}

// Get retrieves a recipe by id.
func (b *Book) Get(id RecipeID) (Recipe, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.recipes[id]
	return r, ok
}

// List returns all recipes sorted by id.
func (b *Book) List() []Recipe {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Recipe, 0, len(b.recipes))
	for _, r := range b.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Craft consumes the recipe inputs from the view and places the outputs in
// inv. Nothing changes unless both steps can succeed.
func Craft(v *View, inv *storage.Inventory, r Recipe) error {
	outputs := make([]storage.Stack, 0, len(r.Outputs))
	for _, y := range r.Outputs {
		outputs = append(outputs, storage.Stack{Item: y.Item, Qty: y.Quantity})
	}
	if err := v.Check(inv.Owner, r.Inputs); err != nil {
		return err
	}
	if !inv.CanAccept(outputs) {
		return ErrInventoryFull
	}
	if err := v.Consume(inv.Owner, r.Inputs); err != nil {
		return err
	}
	for _, s := range outputs {
		if rest := inv.Add(s); rest != nil {
			return fmt.Errorf("add %s x%d: %w", s.Item, rest.Qty, ErrInventoryFull)
		}
	}
	return nil
}
