package server

import (
	"time"

	"kaizen/internal/models"
)

type authorSummary struct {
	ID       uint   `json:"id"`
	Nickname string `json:"nickname"`
}

func toAuthor(u models.User) authorSummary {
	return authorSummary{ID: u.ID, Nickname: u.Nickname}
}

type postResponse struct {
	ID            uint              `json:"id"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Author        authorSummary     `json:"author"`
	Category      uint              `json:"category"`
	CategoryName  string            `json:"category_name,omitempty"`
	Status        models.PostStatus `json:"status"`
	LikesCount    int64             `json:"likes_count"`
	CommentsCount int64             `json:"comments_count"`
	IsLikedByMe   bool              `json:"is_liked_by_me"`
	Survey        *models.Survey    `json:"survey"`
	Images        []models.Image    `json:"images"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func toPostResponse(p *models.Post) postResponse {
	resp := postResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Author:        toAuthor(p.User),
		Category:      p.CategoryID,
		Status:        p.Status,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		IsLikedByMe:   p.Liked,
		Survey:        p.Survey,
		Images:        p.Images,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Category != nil {
		resp.CategoryName = p.Category.Name
	}
	if resp.Images == nil {
		resp.Images = []models.Image{}
	}
	return resp
}

func toPostResponses(posts []*models.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}

type commentResponse struct {
	ID        uint          `json:"id"`
	Post      uint          `json:"post"`
	Author    authorSummary `json:"author"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func toCommentResponse(c *models.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		Post:      c.PostID,
		Author:    toAuthor(c.User),
		Text:      c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCommentResponses(comments []*models.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out
}

func toNotificationViews(items []*models.Notification) []models.NotificationView {
	out := make([]models.NotificationView, 0, len(items))
	for _, n := range items {
		out = append(out, n.View())
	}
	return out
}

type likeResponse struct {
	Status      string `json:"status"`
	LikesCount  int64  `json:"likes_count"`
	IsLikedByMe bool   `json:"is_liked_by_me"`
}

type imageUploadResponse struct {
	ID     uint   `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type loginResponse struct {
	Access    string `json:"access"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
}
