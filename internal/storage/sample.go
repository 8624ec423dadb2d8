package storage

// SampleRegistry returns a small farm-flavored item catalog for tests.
func SampleRegistry() *Registry {
	return NewRegistry(
		ItemDetails{ID: "wood", Name: "Wood", Category: "resource"},
		ItemDetails{ID: "stone", Name: "Stone", Category: "resource"},
		ItemDetails{ID: "copper-ore", Name: "Copper Ore", Category: "ore"},
		ItemDetails{ID: "iron-ore", Name: "Iron Ore", Category: "ore"},
		ItemDetails{ID: "parsnip", Name: "Parsnip", Category: "crop"},
		ItemDetails{ID: "hoe", Name: "Hoe", Category: "tool", StackMax: 1},
		ItemDetails{ID: "chest", Name: "Chest", Category: "craftable"},
	)
}

// SampleContainers returns a handful of containers spread across two
// locations, showing the three location kinds.
func SampleContainers(reg *Registry, holder OwnerID) []*Container {
	shed := NewContainer("shed-chest", PlacedAt("Farm", 10, 12), WithRegistry(reg), WithOptions(Options{
		Stash:    FeatureOptions{Scope: ScopeLocation, Distance: 10},
		Craft:    FeatureOptions{Scope: ScopeLocation, Distance: -1},
		Priority: 1,
	}))
	shed.Name = "Shed Chest"
	_ = shed.Insert(Stack{Item: "wood", Qty: 120})
	_ = shed.Insert(Stack{Item: "stone", Qty: 40})

	ores := NewContainer("ore-chest", PlacedAt("Farm", 14, 12), WithRegistry(reg), WithOptions(Options{
		Stash:    FeatureOptions{Scope: ScopeLocation, Distance: -1},
		Craft:    FeatureOptions{Scope: ScopeWorld},
		Priority: 5,
		Filter:   []string{"category:ore"},
	}))
	ores.Name = "Ore Chest"

	fridge := NewContainer("farmhouse-fridge", AttachedTo("Farmhouse", "FarmHouse", 3, 4), WithRegistry(reg), WithOptions(Options{
		Stash: FeatureOptions{Scope: ScopeDisabled},
		Craft: FeatureOptions{Scope: ScopeWorld, ExcludedLocations: []string{"UndergroundMine"}},
	}))
	fridge.Name = "Fridge"
	_ = fridge.Insert(Stack{Item: "parsnip", Qty: 6})

	junimo := NewContainer("junimo-chest", PlacedAt("Town", 40, 8), WithRegistry(reg), WithCapacity(9), WithOptions(Options{
		Stash:  FeatureOptions{Scope: ScopeWorld},
		Craft:  FeatureOptions{Scope: ScopeWorld},
		Unique: true,
	}))
	junimo.Name = "Junimo Chest"

	satchel := NewContainer("satchel", CarriedBy(holder), WithRegistry(reg), WithCapacity(12), WithOptions(Options{
		Stash: FeatureOptions{Scope: ScopeInventory},
		Craft: FeatureOptions{Scope: ScopeInventory},
	}))
	satchel.Name = "Satchel"

	return []*Container{shed, ores, fridge, junimo, satchel}
}
