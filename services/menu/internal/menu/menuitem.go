package menu

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	SpiceMild   = "mild"
	SpiceMedium = "medium"
	SpiceFiery  = "fiery"

	DietVeg    = "veg"
	DietNonVeg = "non-veg"
	DietEgg    = "egg"
)

// MenuItem is a dish or drink guests can order.
type MenuItem struct {
	ID             uuid.UUID `json:"id" bson:"-"`
	Name           string    `json:"name" bson:"name"`
	Description    string    `json:"description,omitempty" bson:"description,omitempty"`
	Price          float64   `json:"price" bson:"price"`
	Category       string    `json:"category" bson:"category"`
	Image          string    `json:"image,omitempty" bson:"image,omitempty"`
	SpiceLevel     string    `json:"spiceLevel,omitempty" bson:"spice_level,omitempty"`
	IsAvailable    bool      `json:"isAvailable" bson:"is_available"`
	DietaryType    string    `json:"dietaryType,omitempty" bson:"dietary_type,omitempty"`
	Tags           []string  `json:"tags" bson:"tags"`
	HeroIngredient string    `json:"heroIngredient,omitempty" bson:"hero_ingredient,omitempty"`
	Allergens      []string  `json:"allergens" bson:"allergens"`
	PrepTime       *int      `json:"prepTime,omitempty" bson:"prep_time,omitempty"`
	Calories       *int      `json:"calories,omitempty" bson:"calories,omitempty"`
	Stock          *int      `json:"stock,omitempty" bson:"stock,omitempty"`
	Rating         *float64  `json:"rating,omitempty" bson:"rating,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updated_at"`
}

// MenuItemPatch carries a partial update. Nil fields are left untouched.
type MenuItemPatch struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Price          *float64  `json:"price"`
	Category       *string   `json:"category"`
	Image          *string   `json:"image"`
	SpiceLevel     *string   `json:"spiceLevel"`
	IsAvailable    *bool     `json:"isAvailable"`
	DietaryType    *string   `json:"dietaryType"`
	Tags           *[]string `json:"tags"`
	HeroIngredient *string   `json:"heroIngredient"`
	Allergens      *[]string `json:"allergens"`
	PrepTime       *int      `json:"prepTime"`
	Calories       *int      `json:"calories"`
	Stock          *int      `json:"stock"`
	Rating         *float64  `json:"rating"`
}

func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu"
}

// BeforeCreate stamps the item and fills the defaults a new dish starts with.
func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.DietaryType == "" {
		m.DietaryType = DietVeg
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.Allergens == nil {
		m.Allergens = []string{}
	}
}

func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now().UTC()
}

// Orderable reports whether guests can currently add the item to an order.
func (m *MenuItem) Orderable() bool {
	return m.IsAvailable && (m.Stock == nil || *m.Stock > 0)
}

// Toggle flips availability.
func (m *MenuItem) Toggle() {
	m.IsAvailable = !m.IsAvailable
}

// Apply copies every field set in p onto the item.
func (m *MenuItem) Apply(p MenuItemPatch) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Price != nil {
		m.Price = *p.Price
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.Image != nil {
		m.Image = *p.Image
	}
	if p.SpiceLevel != nil {
		m.SpiceLevel = *p.SpiceLevel
	}
	if p.IsAvailable != nil {
		m.IsAvailable = *p.IsAvailable
	}
	if p.DietaryType != nil {
		m.DietaryType = *p.DietaryType
	}
	if p.Tags != nil {
		m.Tags = *p.Tags
	}
	if p.HeroIngredient != nil {
		m.HeroIngredient = *p.HeroIngredient
	}
	if p.Allergens != nil {
		m.Allergens = *p.Allergens
	}
	if p.PrepTime != nil {
		m.PrepTime = p.PrepTime
	}
	if p.Calories != nil {
		m.Calories = p.Calories
	}
	if p.Stock != nil {
		m.Stock = p.Stock
	}
	if p.Rating != nil {
		m.Rating = p.Rating
	}
}

// Empty reports whether the patch would change nothing.
func (p MenuItemPatch) Empty() bool {
	return p == MenuItemPatch{}
}

// MarshalBSON stores the id as its string form.
func (m *MenuItem) MarshalBSON() ([]byte, error) {
	type Alias MenuItem
	return bson.Marshal(struct {
		ID    string `bson:"_id"`
		Alias `bson:",inline"`
	}{
		ID:    m.ID.String(),
		Alias: Alias(*m),
	})
}

func (m *MenuItem) UnmarshalBSON(data []byte) error {
	type Alias MenuItem
	var doc struct {
		ID    string `bson:"_id"`
		Alias `bson:",inline"`
	}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}

	*m = MenuItem(doc.Alias)
	if doc.ID != "" {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return fmt.Errorf("invalid UUID format for _id: %w", err)
		}
		m.ID = id
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
