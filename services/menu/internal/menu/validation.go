package menu

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	spiceLevels  = []string{SpiceMild, SpiceMedium, SpiceFiery}
	dietaryTypes = []string{DietVeg, DietNonVeg, DietEgg}
)

// ValidateMenuItem checks a complete item, as it would be stored.
func ValidateMenuItem(item *MenuItem) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(item.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if item.Price < 0 {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "price cannot be negative",
		})
	}

	if strings.TrimSpace(item.Category) == "" {
		errors = append(errors, ValidationError{
			Field:   "category",
			Message: "category is required",
		})
	}

	if item.SpiceLevel != "" && !oneOf(item.SpiceLevel, spiceLevels) {
		errors = append(errors, ValidationError{
			Field:   "spiceLevel",
			Message: fmt.Sprintf("spiceLevel must be one of %s", strings.Join(spiceLevels, ", ")),
		})
	}

	if item.DietaryType != "" && !oneOf(item.DietaryType, dietaryTypes) {
		errors = append(errors, ValidationError{
			Field:   "dietaryType",
			Message: fmt.Sprintf("dietaryType must be one of %s", strings.Join(dietaryTypes, ", ")),
		})
	}

	if item.Stock != nil && *item.Stock < 0 {
		errors = append(errors, ValidationError{
			Field:   "stock",
			Message: "stock cannot be negative",
		})
	}

	if item.PrepTime != nil && *item.PrepTime < 0 {
		errors = append(errors, ValidationError{
			Field:   "prepTime",
			Message: "prepTime cannot be negative",
		})
	}

	if item.Calories != nil && *item.Calories < 0 {
		errors = append(errors, ValidationError{
			Field:   "calories",
			Message: "calories cannot be negative",
		})
	}

	if item.Rating != nil && (*item.Rating < 0 || *item.Rating > 5) {
		errors = append(errors, ValidationError{
			Field:   "rating",
			Message: "rating must be between 0 and 5",
		})
	}

	for i, tag := range item.Tags {
		if strings.TrimSpace(tag) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tags[%d]", i),
				Message: "tag cannot be empty",
			})
		}
	}

	return errors
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
