package models

import "time"

// PostStatus controls public visibility of a post.
type PostStatus string

const (
	PostPublished PostStatus = "published"
	PostDraft     PostStatus = "draft"
)

const (
	PostsCollection = "blogs"

	PostTitle      = "title"
	PostContent    = "content"
	PostOverview   = "overview"
	PostCategory   = "category"
	PostTags       = "tags"
	PostStatusKey  = "status"
	PostDate       = "date"
	PostUpdateDate = "updateDate"
)

// PostOverviewFields is the projection used by overview listings.
var PostOverviewFields = []string{PostTitle, PostOverview, PostCategory, PostTags, PostDate, PostUpdateDate}

type Post struct {
	ID         string     `bson:"_id,omitempty" json:"id,omitempty"`
	Title      string     `bson:"title" json:"title"`
	Content    string     `bson:"content,omitempty" json:"content,omitempty"`
	Overview   string     `bson:"overview" json:"overview"`
	Category   string     `bson:"category" json:"category"`
	Tags       []string   `bson:"tags" json:"tags"`
	Status     PostStatus `bson:"status,omitempty" json:"status,omitempty"`
	Date       time.Time  `bson:"date" json:"date"`
	UpdateDate time.Time  `bson:"updateDate" json:"updateDate"`
}
