package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Principal is the resolved identity of the requester for one request.
// It is built by the auth gate and discarded when the request ends.
type Principal struct {
	SubjectID string
	UserID    string
	Role      UserRole
}

type User struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"-"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Role        UserRole  `json:"role"`
	DailyTarget *int      `json:"daily_calorie_target,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Food struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Calories   float64   `json:"calories"`
	Protein    float64   `json:"protein"`
	Carbs      float64   `json:"carbs"`
	Fat        float64   `json:"fat"`
	ImageURL   string    `json:"image_url,omitempty"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// FoodLog links a user, a date, and a calorie amount. FoodID optionally
// references a catalog entry; FoodNameCustom keeps the name as entered.
type FoodLog struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Date           string    `json:"date"`
	FoodNameCustom string    `json:"food_name_custom"`
	Calories       float64   `json:"calories"`
	FoodID         string    `json:"food_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type NutritionTotals struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

type Forum struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ForumComment struct {
	ID              string    `json:"id"`
	ForumID         string    `json:"forum_id"`
	UserID          string    `json:"user_id"`
	ParentCommentID string    `json:"parent_comment_id,omitempty"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Testimonial struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Job       string    `json:"job"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
