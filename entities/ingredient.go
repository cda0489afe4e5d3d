package entities

import "github.com/google/uuid"

type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name            string    `gorm:"size:200;uniqueIndex:idx_ingredients_name_unit;index" json:"name"`
	MeasurementUnit string    `gorm:"size:200;uniqueIndex:idx_ingredients_name_unit" json:"measurement_unit"`
}
