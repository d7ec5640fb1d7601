package rating

import (
	"context"
	"time"
)

// Rating is one user's star rating of the app.
type Rating struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rater identifies who submits a rating.
type Rater struct {
	ID    string
	Email string
	Name  string
}

// SubmitRequest carries the rating payload.
type SubmitRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// Stats aggregates every stored rating.
type Stats struct {
	TotalRatings       int         `json:"totalRatings"`
	AverageRating      float64     `json:"averageRating"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
	RecentRatings      []Rating    `json:"recentRatings"`
}

// Service manages app ratings.
type Service interface {
	Add(ctx context.Context, rater Rater, req SubmitRequest) (Rating, error)
	ForUser(ctx context.Context, userID string) (Rating, bool, error)
	HasRated(ctx context.Context, userID string) (bool, error)
	Average(ctx context.Context) (float64, error)
	Stats(ctx context.Context) (Stats, error)
	CountByStar(ctx context.Context, star int) (int, error)
}
