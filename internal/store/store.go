package store

import "piringsehat/pkg/domain"

// Store defines persistence operations for users, foods, food logs,
// forums, comments, and testimonials. The data store is the sole source
// of truth; nothing is cached in-process across requests.
type Store interface {
	Ping() error

	// users
	UpsertUserBySubject(u domain.User) (domain.User, error)
	GetUserBySubject(subjectID string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	SetDailyTarget(userID string, target int) (bool, error)

	// foods
	SaveFood(f domain.Food) error
	GetFood(id string) (domain.Food, bool, error)
	SearchFoods(query string, limit int) ([]domain.Food, error)
	FirstFoodByName(query string) (domain.Food, bool, error)
	ListFoods() ([]domain.Food, error)
	SetFoodImage(id, storageKey, imageURL string) error

	// food logs
	SaveFoodLog(l domain.FoodLog) error
	ListFoodLogs(userID, date string) ([]domain.FoodLog, error)
	DeleteFoodLog(id string) error
	SumCalories(userID, startDate, endDate string) (float64, error)
	SumNutrition(userID, date string) (domain.NutritionTotals, error)

	// forums
	SaveForum(f domain.Forum) error
	GetForum(id string) (domain.Forum, bool, error)
	ListForums() ([]domain.Forum, error)
	UpdateForum(f domain.Forum) error
	DeleteForum(id string) error

	// forum comments
	SaveComment(c domain.ForumComment) error
	GetComment(id string) (domain.ForumComment, bool, error)
	ListCommentsByForum(forumID string) ([]domain.ForumComment, error)
	UpdateComment(c domain.ForumComment) error
	DeleteComment(id string) error

	// testimonials
	SaveTestimonial(tm domain.Testimonial) error
	ListTestimonials() ([]domain.Testimonial, error)
	ListTestimonialsByUser(userID string) ([]domain.Testimonial, error)
}
