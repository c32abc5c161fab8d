package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID                 string `gorm:"primaryKey"`
	FirebaseUID        string `gorm:"uniqueIndex;not null"`
	Email              string
	Username           string
	Role               string `gorm:"not null"`
	DailyCalorieTarget *int
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time
}

func (UserModel) TableName() string { return "users" }

type FoodModel struct {
	ID         string  `gorm:"primaryKey"`
	Name       string  `gorm:"not null;index"`
	Calories   float64 `gorm:"not null"`
	Protein    float64
	Carbs      float64
	Fat        float64
	ImageURL   string
	StorageKey string
	CreatedAt  time.Time `gorm:"not null"`
}

func (FoodModel) TableName() string { return "foods" }

type FoodLogModel struct {
	ID             string         `gorm:"primaryKey"`
	UserID         string         `gorm:"not null;index:idx_food_logs_user_date"`
	LogDate        datatypes.Date `gorm:"not null;index:idx_food_logs_user_date"`
	FoodNameCustom string         `gorm:"not null"`
	Calories       float64        `gorm:"not null"`
	FoodID         string         `gorm:"index"`
	CreatedAt      time.Time      `gorm:"not null"`
}

func (FoodLogModel) TableName() string { return "food_logs" }

type ForumModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (ForumModel) TableName() string { return "forums" }

type CommentModel struct {
	ID              string    `gorm:"primaryKey"`
	ForumID         string    `gorm:"not null;index"`
	UserID          string    `gorm:"not null;index"`
	ParentCommentID string    `gorm:"index"`
	Content         string    `gorm:"type:text;not null"`
	CreatedAt       time.Time `gorm:"not null;index"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (CommentModel) TableName() string { return "forum_comments" }

type TestimonialModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Username  string    `gorm:"not null"`
	Job       string
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (TestimonialModel) TableName() string { return "testimonials" }
