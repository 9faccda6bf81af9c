package menu

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/mongo"
)

// Seeds returns all seeds for the Menu service
func Seeds(repo MenuItemRepo) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "2025-01-15_menu_signature_dishes",
			Description: "Seed the signature dishes into an empty menu",
			Run: func(ctx context.Context) error {
				_, err := SeedSignatureDishes(ctx, repo)
				return err
			},
		},
	}
}

// SignatureDishes is the starting menu of a fresh install.
func SignatureDishes() []MenuItem {
	return []MenuItem{
		{
			Name: "Malabar Chicken Biriyani", Description: "Aromatic kaima rice cooked with spiced chicken.",
			Price: 320, Category: "Mains", Image: "https://images.unsplash.com/photo-1633945274405-b6c8069047b0",
			DietaryType: DietNonVeg, SpiceLevel: SpiceMedium, Tags: []string{"bestseller", "comfort"},
			HeroIngredient: "poultry", Allergens: []string{"dairy"},
			PrepTime: intPtr(25), Calories: intPtr(650), Stock: intPtr(50), Rating: floatPtr(4.8),
		},
		{
			Name: "Butter Chicken", Description: "Creamy tomato curry.",
			Price: 280, Category: "Mains", Image: "https://images.unsplash.com/photo-1603894584373-5ac82b2ae398",
			DietaryType: DietNonVeg, SpiceLevel: SpiceMild, Tags: []string{"classic", "kids_friendly"},
			HeroIngredient: "poultry", Allergens: []string{"dairy", "treenuts"},
			PrepTime: intPtr(20), Calories: intPtr(550), Stock: intPtr(30), Rating: floatPtr(4.7),
		},
		{
			Name: "Kerala Parotta", Description: "Flaky layered flatbread.",
			Price: 40, Category: "Breads/Rice", Image: "https://images.unsplash.com/photo-1626074353765-517a681e40be",
			DietaryType: DietVeg, SpiceLevel: SpiceMild,
			HeroIngredient: "rice", Allergens: []string{"gluten"},
			PrepTime: intPtr(10), Calories: intPtr(300), Stock: intPtr(100), Rating: floatPtr(4.9),
		},
		{
			Name: "Fresh Lime Soda", Description: "Refreshing sweet and salty soda.",
			Price: 80, Category: "Beverages", Image: "https://images.unsplash.com/photo-1513558161293-cdaf765ed2fd",
			DietaryType: DietVeg, SpiceLevel: SpiceMild,
			HeroIngredient: "veg", PrepTime: intPtr(5), Calories: intPtr(120), Stock: intPtr(100), Rating: floatPtr(4.5),
		},
		{
			Name: "Gobi Manchurian", Description: "Crispy cauliflower in tangy soy-garlic sauce.",
			Price: 240, Category: "Starters", Image: "https://images.unsplash.com/photo-1567188040759-fb8a883dc6d8",
			DietaryType: DietVeg, SpiceLevel: SpiceMedium, Tags: []string{"vegan", "comfort"},
			HeroIngredient: "veg", Allergens: []string{"soy", "gluten"},
			PrepTime: intPtr(20), Calories: intPtr(290), Stock: intPtr(20), Rating: floatPtr(4.6),
		},
		{
			Name: "Beef Fry", Description: "Spicy stir-fried beef with coconut slices.",
			Price: 380, Category: "Mains", Image: "https://images.unsplash.com/photo-1626509673367-1605553049b6",
			DietaryType: DietNonVeg, SpiceLevel: SpiceFiery, Tags: []string{"spicy", "high_protein", "keto"},
			HeroIngredient: "red_meat", PrepTime: intPtr(25), Calories: intPtr(450), Stock: intPtr(15), Rating: floatPtr(4.8),
		},
		{
			Name: "Palada Payasam", Description: "Sweet rice pasta pudding with milk.",
			Price: 180, Category: "Dessert", Image: "https://images.unsplash.com/photo-1628169604754-583b6329007f",
			DietaryType: DietVeg, SpiceLevel: SpiceMild, Tags: []string{"sweet", "classic"},
			HeroIngredient: "rice", Allergens: []string{"dairy", "gluten"},
			PrepTime: intPtr(5), Calories: intPtr(350), Stock: intPtr(25), Rating: floatPtr(4.9),
		},
	}
}

// SeedSignatureDishes inserts the signature dishes only when the menu is
// empty, so an operator's edits are never overwritten. It returns how many
// items were inserted.
func SeedSignatureDishes(ctx context.Context, repo MenuItemRepo) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot count menu items: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	dishes := SignatureDishes()
	for i := range dishes {
		dish := dishes[i]
		dish.IsAvailable = true
		dish.BeforeCreate()
		if err := repo.Create(ctx, &dish); err != nil {
			return i, fmt.Errorf("seed menu item %s: %w", dish.Name, err)
		}
	}

	return len(dishes), nil
}

// SeedingFunc returns a function for running seeds during service startup
func SeedingFunc(appName string, dbFn func() *mongo.Database, repo MenuItemRepo, logger apt.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Info("Applying menu service database seeds...")
		tracker := seed.NewMongoTracker(dbFn())
		if err := seed.Apply(ctx, tracker, Seeds(repo), appName); err != nil {
			return fmt.Errorf("apply seeds: %w", err)
		}
		logger.Info("Menu service database seeds applied successfully")
		return nil
	}
}
