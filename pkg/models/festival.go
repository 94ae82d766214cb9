package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// FestivalRecord is one document of the festivals collection. Date holds the
// day of month and may be stored as a number or a string.
type FestivalRecord struct {
	ID    bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Year  int           `json:"year" bson:"year" validate:"required,gte=1900"`
	Month string        `json:"month" bson:"month" validate:"required"`
	Name  string        `json:"name" bson:"name"`
	Date  any           `json:"date" bson:"date"`
	Order int           `json:"order,omitempty" bson:"order,omitempty"`
}
