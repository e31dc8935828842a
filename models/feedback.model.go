package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is a write-once customer feedback submission
type Feedback struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Feedback    string             `bson:"feedback" json:"feedback"`
	Rating      int                `bson:"rating" json:"rating"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submittedAt"`
}

// IsUnsatisfied reports a rating low enough to warrant a follow-up
func (f *Feedback) IsUnsatisfied() bool {
	return f.Rating <= 2
}
