// internal/domain/models/business.go
package models

import (
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
)

const (
	BusinessDraft   = "draft"
	BusinessPending = "pending"
	BusinessPublish = "publish"
)

// Business is a partner listing. Unlike Property it has exactly one owner,
// its author.
type Business struct {
	ID          ident.ID `bson:"_id" json:"id"`
	AuthorID    ident.ID `bson:"author_id" json:"author_id"`
	Name        string   `bson:"name" json:"name"`
	NameCI      string   `bson:"name_ci" json:"-"`
	Description string   `bson:"description" json:"description"`
	Category    string   `bson:"category" json:"category"`
	Phone       string   `bson:"phone,omitempty" json:"phone,omitempty"`
	Website     string   `bson:"website,omitempty" json:"website,omitempty"`
	Status      string   `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
