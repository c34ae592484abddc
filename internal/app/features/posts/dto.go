// internal/app/features/posts/dto.go
package posts

import "github.com/aktivio/aktivio-server/internal/domain/models"

type createRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,max=5000"`
}

type updateRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,max=5000"`
}

// postResponse is the stored document plus expiring URLs for its
// images. Image paths themselves never leave the server.
type postResponse struct {
	models.Post
	ImageURLs []string `json:"image_urls,omitempty"`
}

// listResponse is one page of a community feed. NextCursor is empty on
// the final page; otherwise it is passed back as the after parameter.
type listResponse struct {
	Posts      []postResponse `json:"posts"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
