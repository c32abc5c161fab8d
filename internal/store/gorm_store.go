package store

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"piringsehat/pkg/domain"
)

const dateLayout = "2006-01-02"

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&FoodModel{},
		&FoodLogModel{},
		&ForumModel{},
		&CommentModel{},
		&TestimonialModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Ping checks store reachability.
func (s *GormStore) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// UpsertUserBySubject creates or refreshes the user row keyed by the
// external subject identifier and returns the stored record.
func (s *GormStore) UpsertUserBySubject(u domain.User) (domain.User, error) {
	model := userToModel(u)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "firebase_uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "username", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return domain.User{}, err
	}
	stored, found, err := s.GetUserBySubject(u.SubjectID)
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, fmt.Errorf("user %s vanished after upsert", u.SubjectID)
	}
	return stored, nil
}

// GetUserBySubject looks up a user by external subject identifier.
func (s *GormStore) GetUserBySubject(subjectID string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("firebase_uid = ?", subjectID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by local ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SetDailyTarget updates the daily calorie target. The bool reports
// whether a matching user row existed.
func (s *GormStore) SetDailyTarget(userID string, target int) (bool, error) {
	res := s.db.Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"daily_calorie_target": target,
			"updated_at":           time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SaveFood stores a catalog food.
func (s *GormStore) SaveFood(f domain.Food) error {
	model := foodToModel(f)
	return s.db.Create(&model).Error
}

// GetFood retrieves a catalog food.
func (s *GormStore) GetFood(id string) (domain.Food, bool, error) {
	var model FoodModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Food{}, false, nil
		}
		return domain.Food{}, false, err
	}
	return foodFromModel(model), true, nil
}

// SearchFoods returns up to limit foods matching the name fragment.
// An empty query returns catalog rows without name filtering.
func (s *GormStore) SearchFoods(query string, limit int) ([]domain.Food, error) {
	var models []FoodModel
	tx := s.db.Order("name ASC").Limit(limit)
	if query != "" {
		tx = tx.Where("name ILIKE ?", "%"+query+"%")
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	return foodsFromModels(models), nil
}

// FirstFoodByName returns the first food matching the name fragment.
func (s *GormStore) FirstFoodByName(query string) (domain.Food, bool, error) {
	var model FoodModel
	err := s.db.Where("name ILIKE ?", "%"+query+"%").Order("name ASC").First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Food{}, false, nil
		}
		return domain.Food{}, false, err
	}
	return foodFromModel(model), true, nil
}

// ListFoods returns the whole catalog ordered by name.
func (s *GormStore) ListFoods() ([]domain.Food, error) {
	var models []FoodModel
	if err := s.db.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return foodsFromModels(models), nil
}

// SetFoodImage records the storage key and public URL of a food image.
func (s *GormStore) SetFoodImage(id, storageKey, imageURL string) error {
	return s.db.Model(&FoodModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"storage_key": storageKey,
			"image_url":   imageURL,
		}).Error
}

// SaveFoodLog stores a food-log entry.
func (s *GormStore) SaveFoodLog(l domain.FoodLog) error {
	model, err := foodLogToModel(l)
	if err != nil {
		return err
	}
	return s.db.Create(&model).Error
}

// ListFoodLogs returns a user's entries for one date in insertion order.
func (s *GormStore) ListFoodLogs(userID, date string) ([]domain.FoodLog, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	var models []FoodLogModel
	err = s.db.Where("user_id = ? AND log_date = ?", userID, day).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.FoodLog, 0, len(models))
	for _, m := range models {
		res = append(res, foodLogFromModel(m))
	}
	return res, nil
}

// DeleteFoodLog removes an entry. Deleting a missing entry is a no-op.
func (s *GormStore) DeleteFoodLog(id string) error {
	return s.db.Delete(&FoodLogModel{}, "id = ?", id).Error
}

// SumCalories totals logged calories over an inclusive date range.
func (s *GormStore) SumCalories(userID, startDate, endDate string) (float64, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return 0, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return 0, err
	}
	var row struct{ Total float64 }
	err = s.db.Model(&FoodLogModel{}).
		Select("COALESCE(SUM(calories), 0) AS total").
		Where("user_id = ? AND log_date >= ? AND log_date <= ?", userID, start, end).
		Scan(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Total, nil
}

// SumNutrition totals protein/carbs/fat for one user and date by joining
// log entries onto the food catalog. Entries without a catalog reference
// contribute nothing; the store is the single arbiter of the numbers.
func (s *GormStore) SumNutrition(userID, date string) (domain.NutritionTotals, error) {
	day, err := parseDate(date)
	if err != nil {
		return domain.NutritionTotals{}, err
	}
	var row struct{ Protein, Carbs, Fat float64 }
	err = s.db.Model(&FoodLogModel{}).
		Select("COALESCE(SUM(foods.protein), 0) AS protein, COALESCE(SUM(foods.carbs), 0) AS carbs, COALESCE(SUM(foods.fat), 0) AS fat").
		Joins("LEFT JOIN foods ON foods.id = food_logs.food_id").
		Where("food_logs.user_id = ? AND food_logs.log_date = ?", userID, day).
		Scan(&row).Error
	if err != nil {
		return domain.NutritionTotals{}, err
	}
	return domain.NutritionTotals{Protein: row.Protein, Carbs: row.Carbs, Fat: row.Fat}, nil
}

// SaveForum stores a forum post.
func (s *GormStore) SaveForum(f domain.Forum) error {
	model := forumToModel(f)
	return s.db.Create(&model).Error
}

// GetForum retrieves a forum post.
func (s *GormStore) GetForum(id string) (domain.Forum, bool, error) {
	var model ForumModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Forum{}, false, nil
		}
		return domain.Forum{}, false, err
	}
	return forumFromModel(model), true, nil
}

// ListForums returns forums newest first.
func (s *GormStore) ListForums() ([]domain.Forum, error) {
	var models []ForumModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Forum, 0, len(models))
	for _, m := range models {
		res = append(res, forumFromModel(m))
	}
	return res, nil
}

// UpdateForum overwrites title and content.
func (s *GormStore) UpdateForum(f domain.Forum) error {
	return s.db.Model(&ForumModel{}).
		Where("id = ?", f.ID).
		Updates(map[string]any{
			"title":      f.Title,
			"content":    f.Content,
			"updated_at": time.Now().UTC(),
		}).Error
}

// DeleteForum removes a forum and its comments in one transaction.
func (s *GormStore) DeleteForum(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&CommentModel{}, "forum_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&ForumModel{}, "id = ?", id).Error
	})
}

// SaveComment stores a comment.
func (s *GormStore) SaveComment(c domain.ForumComment) error {
	model := commentToModel(c)
	return s.db.Create(&model).Error
}

// GetComment retrieves a comment.
func (s *GormStore) GetComment(id string) (domain.ForumComment, bool, error) {
	var model CommentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ForumComment{}, false, nil
		}
		return domain.ForumComment{}, false, err
	}
	return commentFromModel(model), true, nil
}

// ListCommentsByForum returns a forum's comments oldest first so threads
// read top-down.
func (s *GormStore) ListCommentsByForum(forumID string) ([]domain.ForumComment, error) {
	var models []CommentModel
	err := s.db.Where("forum_id = ?", forumID).Order("created_at ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.ForumComment, 0, len(models))
	for _, m := range models {
		res = append(res, commentFromModel(m))
	}
	return res, nil
}

// UpdateComment overwrites the comment body.
func (s *GormStore) UpdateComment(c domain.ForumComment) error {
	return s.db.Model(&CommentModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"content":    c.Content,
			"updated_at": time.Now().UTC(),
		}).Error
}

// DeleteComment removes a comment and its direct replies.
func (s *GormStore) DeleteComment(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&CommentModel{}, "parent_comment_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&CommentModel{}, "id = ?", id).Error
	})
}

// SaveTestimonial stores a testimonial. Append-only: no update or delete.
func (s *GormStore) SaveTestimonial(tm domain.Testimonial) error {
	model := testimonialToModel(tm)
	return s.db.Create(&model).Error
}

// ListTestimonials returns testimonials newest first.
func (s *GormStore) ListTestimonials() ([]domain.Testimonial, error) {
	var models []TestimonialModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return testimonialsFromModels(models), nil
}

// ListTestimonialsByUser returns one user's testimonials newest first.
func (s *GormStore) ListTestimonialsByUser(userID string) ([]domain.Testimonial, error) {
	var models []TestimonialModel
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	return testimonialsFromModels(models), nil
}

func parseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return datatypes.Date(t), nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:                 u.ID,
		FirebaseUID:        u.SubjectID,
		Email:              u.Email,
		Username:           u.Username,
		Role:               string(u.Role),
		DailyCalorieTarget: u.DailyTarget,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:          m.ID,
		SubjectID:   m.FirebaseUID,
		Email:       m.Email,
		Username:    m.Username,
		Role:        domain.UserRole(m.Role),
		DailyTarget: m.DailyCalorieTarget,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func foodToModel(f domain.Food) FoodModel {
	return FoodModel{
		ID:         f.ID,
		Name:       f.Name,
		Calories:   f.Calories,
		Protein:    f.Protein,
		Carbs:      f.Carbs,
		Fat:        f.Fat,
		ImageURL:   f.ImageURL,
		StorageKey: f.StorageKey,
		CreatedAt:  f.CreatedAt,
	}
}

func foodFromModel(m FoodModel) domain.Food {
	return domain.Food{
		ID:         m.ID,
		Name:       m.Name,
		Calories:   m.Calories,
		Protein:    m.Protein,
		Carbs:      m.Carbs,
		Fat:        m.Fat,
		ImageURL:   m.ImageURL,
		StorageKey: m.StorageKey,
		CreatedAt:  m.CreatedAt,
	}
}

func foodsFromModels(models []FoodModel) []domain.Food {
	res := make([]domain.Food, 0, len(models))
	for _, m := range models {
		res = append(res, foodFromModel(m))
	}
	return res
}

func foodLogToModel(l domain.FoodLog) (FoodLogModel, error) {
	day, err := parseDate(l.Date)
	if err != nil {
		return FoodLogModel{}, err
	}
	return FoodLogModel{
		ID:             l.ID,
		UserID:         l.UserID,
		LogDate:        day,
		FoodNameCustom: l.FoodNameCustom,
		Calories:       l.Calories,
		FoodID:         l.FoodID,
		CreatedAt:      l.CreatedAt,
	}, nil
}

func foodLogFromModel(m FoodLogModel) domain.FoodLog {
	return domain.FoodLog{
		ID:             m.ID,
		UserID:         m.UserID,
		Date:           time.Time(m.LogDate).Format(dateLayout),
		FoodNameCustom: m.FoodNameCustom,
		Calories:       m.Calories,
		FoodID:         m.FoodID,
		CreatedAt:      m.CreatedAt,
	}
}

func forumToModel(f domain.Forum) ForumModel {
	return ForumModel{
		ID:        f.ID,
		UserID:    f.UserID,
		Title:     f.Title,
		Content:   f.Content,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func forumFromModel(m ForumModel) domain.Forum {
	return domain.Forum{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func commentToModel(c domain.ForumComment) CommentModel {
	return CommentModel{
		ID:              c.ID,
		ForumID:         c.ForumID,
		UserID:          c.UserID,
		ParentCommentID: c.ParentCommentID,
		Content:         c.Content,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func commentFromModel(m CommentModel) domain.ForumComment {
	return domain.ForumComment{
		ID:              m.ID,
		ForumID:         m.ForumID,
		UserID:          m.UserID,
		ParentCommentID: m.ParentCommentID,
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func testimonialToModel(t domain.Testimonial) TestimonialModel {
	return TestimonialModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Username:  t.Username,
		Job:       t.Job,
		Message:   t.Message,
		CreatedAt: t.CreatedAt,
	}
}

func testimonialsFromModels(models []TestimonialModel) []domain.Testimonial {
	res := make([]domain.Testimonial, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Testimonial{
			ID:        m.ID,
			UserID:    m.UserID,
			Username:  m.Username,
			Job:       m.Job,
			Message:   m.Message,
			CreatedAt: m.CreatedAt,
		})
	}
	return res
}
