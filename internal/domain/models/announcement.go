// internal/domain/models/announcement.go
package models

import (
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/roles"
)

// Announcement is a community notice. A TargetRoles set without any tags
// means everyone can see it; unrecognized tags never match a reader. Read
// state is kept on each reader's Profile.
type Announcement struct {
	ID          ident.ID  `bson:"_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Content     string    `bson:"content" json:"content"`
	TargetRoles roles.Set `bson:"target_roles" json:"target_roles"`
	AuthorID    ident.ID  `bson:"author_id" json:"author_id"`
	PublishedAt time.Time `bson:"published_at" json:"published_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
