package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"piringsehat/internal/auth"
	"piringsehat/internal/storage"
	"piringsehat/internal/store"
	"piringsehat/pkg/domain"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	Objects        storage.ObjectStore
}

// App wires the resource services over the data store. Every operation is
// one synchronous round-trip; nothing is cached between requests.
type App struct {
	store         store.Store
	objects       storage.ObjectStore
	presignExpiry time.Duration
}

// New constructs the application. When cfg.Store is nil a Postgres-backed
// store is opened from DatabaseURL; when cfg.Objects is nil and a MinIO
// endpoint is configured, image storage is connected too.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	objects := cfg.Objects
	if objects == nil && cfg.MinioEndpoint != "" {
		var err error
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
	}
	return &App{
		store:         dataStore,
		objects:       objects,
		presignExpiry: 15 * time.Minute,
	}, nil
}

// Store exposes the data store so the process entry point can reuse it as
// the auth gate's user directory.
func (a *App) Store() store.Store { return a.store }

// Ping reports data-store reachability for the debug endpoint.
func (a *App) Ping() error { return a.store.Ping() }

// SyncUser provisions or refreshes the local user record for a verified
// identity-provider subject. Empty optional fields leave stored values alone.
func (a *App) SyncUser(subjectID, email, username string) (domain.User, error) {
	if strings.TrimSpace(subjectID) == "" {
		return domain.User{}, Validationf("firebase_uid is required")
	}
	existing, found, err := a.store.GetUserBySubject(subjectID)
	if err != nil {
		return domain.User{}, err
	}
	now := time.Now().UTC()
	if found {
		if email != "" {
			existing.Email = email
		}
		if username != "" {
			existing.Username = username
		}
		return a.store.UpsertUserBySubject(existing)
	}
	user := domain.User{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Email:     email,
		Username:  username,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return a.store.UpsertUserBySubject(user)
}

// UserByID returns the local user record.
func (a *App) UserByID(id string) (domain.User, error) {
	user, found, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

// DailyTarget returns a user's daily calorie target; zero when unset.
func (a *App) DailyTarget(userID string) (int, error) {
	user, err := a.UserByID(userID)
	if err != nil {
		return 0, err
	}
	if user.DailyTarget == nil {
		return 0, nil
	}
	return *user.DailyTarget, nil
}

// SetDailyTarget updates a user's daily calorie target.
func (a *App) SetDailyTarget(userID string, target int) (int, error) {
	if target <= 0 {
		return 0, Validationf("target must be a positive number")
	}
	found, err := a.store.SetDailyTarget(userID, target)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNotFound
	}
	return target, nil
}

// SearchFoods returns catalog foods matching the name fragment. An empty
// query returns unfiltered rows; limit defaults to 10.
func (a *App) SearchFoods(query string, limit int) ([]domain.Food, error) {
	if limit <= 0 {
		limit = 10
	}
	return a.store.SearchFoods(strings.TrimSpace(query), limit)
}

// FirstFood returns the first catalog food matching the name fragment.
func (a *App) FirstFood(query string) (domain.Food, error) {
	food, found, err := a.store.FirstFoodByName(strings.TrimSpace(query))
	if err != nil {
		return domain.Food{}, err
	}
	if !found {
		return domain.Food{}, ErrNotFound
	}
	return food, nil
}

// ListFoods returns the whole catalog.
func (a *App) ListFoods() ([]domain.Food, error) {
	return a.store.ListFoods()
}

// CreateFood adds a catalog food.
func (a *App) CreateFood(f domain.Food) (domain.Food, error) {
	if strings.TrimSpace(f.Name) == "" {
		return domain.Food{}, Validationf("name is required")
	}
	if f.Calories < 0 || f.Protein < 0 || f.Carbs < 0 || f.Fat < 0 {
		return domain.Food{}, Validationf("nutrition values must not be negative")
	}
	f.ID = uuid.NewString()
	f.Name = strings.TrimSpace(f.Name)
	f.CreatedAt = time.Now().UTC()
	if err := a.store.SaveFood(f); err != nil {
		return domain.Food{}, err
	}
	return f, nil
}

// AttachFoodImage stores an uploaded image for a catalog food and records
// a pre-signed URL on the food row.
func (a *App) AttachFoodImage(ctx context.Context, id, filename string, r io.Reader, size int64) (domain.Food, error) {
	food, found, err := a.store.GetFood(id)
	if err != nil {
		return domain.Food{}, err
	}
	if !found {
		return domain.Food{}, ErrNotFound
	}
	if a.objects == nil {
		return domain.Food{}, errors.New("object storage not configured")
	}
	key := buildImageKey(id, filename)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := a.objects.Put(ctx, key, r, size, contentType); err != nil {
		return domain.Food{}, fmt.Errorf("save image: %w", err)
	}
	url, err := a.objects.PresignGet(ctx, key, a.presignExpiry)
	if err != nil {
		return domain.Food{}, fmt.Errorf("presign image: %w", err)
	}
	if err := a.store.SetFoodImage(id, key, url); err != nil {
		return domain.Food{}, err
	}
	food.StorageKey = key
	food.ImageURL = url
	return food, nil
}

// FoodLogs returns a user's entries for one date.
func (a *App) FoodLogs(userID, date string) ([]domain.FoodLog, error) {
	return a.store.ListFoodLogs(userID, date)
}

// CreateFoodLog records a food-log entry.
func (a *App) CreateFoodLog(l domain.FoodLog) (domain.FoodLog, error) {
	l.ID = uuid.NewString()
	l.FoodNameCustom = strings.TrimSpace(l.FoodNameCustom)
	l.CreatedAt = time.Now().UTC()
	if err := a.store.SaveFoodLog(l); err != nil {
		return domain.FoodLog{}, err
	}
	return l, nil
}

// DeleteFoodLog removes an entry. Deleting an already-deleted entry
// succeeds trivially.
func (a *App) DeleteFoodLog(id string) error {
	return a.store.DeleteFoodLog(id)
}

// CalorieTotal sums logged calories over an inclusive date range.
func (a *App) CalorieTotal(userID, startDate, endDate string) (float64, error) {
	return a.store.SumCalories(userID, startDate, endDate)
}

// NutritionSummary sums protein/carbs/fat for one user and date.
func (a *App) NutritionSummary(userID, date string) (domain.NutritionTotals, error) {
	return a.store.SumNutrition(userID, date)
}

// Forums lists all forum posts.
func (a *App) Forums() ([]domain.Forum, error) {
	return a.store.ListForums()
}

// Forum returns one forum post.
func (a *App) Forum(id string) (domain.Forum, error) {
	forum, found, err := a.store.GetForum(id)
	if err != nil {
		return domain.Forum{}, err
	}
	if !found {
		return domain.Forum{}, ErrNotFound
	}
	return forum, nil
}

// CreateForum creates a forum post owned by the principal.
func (a *App) CreateForum(p domain.Principal, title, content string) (domain.Forum, error) {
	now := time.Now().UTC()
	forum := domain.Forum{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		Title:     strings.TrimSpace(title),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveForum(forum); err != nil {
		return domain.Forum{}, err
	}
	return forum, nil
}

// UpdateForum patches title/content after the existence and ownership
// checks, in that order.
func (a *App) UpdateForum(p domain.Principal, id string, title, content *string) (domain.Forum, error) {
	forum, found, err := a.store.GetForum(id)
	if err != nil {
		return domain.Forum{}, err
	}
	if !found {
		return domain.Forum{}, ErrNotFound
	}
	if !auth.CanModify(forum.UserID, p) {
		return domain.Forum{}, ErrForbidden
	}
	if title != nil {
		forum.Title = strings.TrimSpace(*title)
	}
	if content != nil {
		forum.Content = *content
	}
	if err := a.store.UpdateForum(forum); err != nil {
		return domain.Forum{}, err
	}
	forum.UpdatedAt = time.Now().UTC()
	return forum, nil
}

// DeleteForum removes a forum post and its comments.
func (a *App) DeleteForum(p domain.Principal, id string) error {
	forum, found, err := a.store.GetForum(id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	if !auth.CanModify(forum.UserID, p) {
		return ErrForbidden
	}
	return a.store.DeleteForum(id)
}

// Comments lists a forum's comments.
func (a *App) Comments(forumID string) ([]domain.ForumComment, error) {
	return a.store.ListCommentsByForum(forumID)
}

// CreateComment adds a comment, optionally threaded under a parent.
func (a *App) CreateComment(p domain.Principal, forumID, content, parentCommentID string) (domain.ForumComment, error) {
	_, found, err := a.store.GetForum(forumID)
	if err != nil {
		return domain.ForumComment{}, err
	}
	if !found {
		return domain.ForumComment{}, Validationf("unknown forum %s", forumID)
	}
	if parentCommentID != "" {
		parent, found, err := a.store.GetComment(parentCommentID)
		if err != nil {
			return domain.ForumComment{}, err
		}
		if !found || parent.ForumID != forumID {
			return domain.ForumComment{}, Validationf("parent comment does not belong to forum %s", forumID)
		}
	}
	now := time.Now().UTC()
	comment := domain.ForumComment{
		ID:              uuid.NewString(),
		ForumID:         forumID,
		UserID:          p.UserID,
		ParentCommentID: parentCommentID,
		Content:         content,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.store.SaveComment(comment); err != nil {
		return domain.ForumComment{}, err
	}
	return comment, nil
}

// UpdateComment replaces the comment body after existence and ownership
// checks.
func (a *App) UpdateComment(p domain.Principal, id, content string) (domain.ForumComment, error) {
	comment, found, err := a.store.GetComment(id)
	if err != nil {
		return domain.ForumComment{}, err
	}
	if !found {
		return domain.ForumComment{}, ErrNotFound
	}
	if !auth.CanModify(comment.UserID, p) {
		return domain.ForumComment{}, ErrForbidden
	}
	comment.Content = content
	if err := a.store.UpdateComment(comment); err != nil {
		return domain.ForumComment{}, err
	}
	comment.UpdatedAt = time.Now().UTC()
	return comment, nil
}

// DeleteComment removes a comment and its direct replies.
func (a *App) DeleteComment(p domain.Principal, id string) error {
	comment, found, err := a.store.GetComment(id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	if !auth.CanModify(comment.UserID, p) {
		return ErrForbidden
	}
	return a.store.DeleteComment(id)
}

// Testimonials lists all testimonials.
func (a *App) Testimonials() ([]domain.Testimonial, error) {
	return a.store.ListTestimonials()
}

// TestimonialsByUser lists one user's testimonials.
func (a *App) TestimonialsByUser(userID string) ([]domain.Testimonial, error) {
	return a.store.ListTestimonialsByUser(userID)
}

// CreateTestimonial appends a testimonial for the principal.
func (a *App) CreateTestimonial(p domain.Principal, username, job, message string) (domain.Testimonial, error) {
	tm := domain.Testimonial{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		Username:  strings.TrimSpace(username),
		Job:       strings.TrimSpace(job),
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.SaveTestimonial(tm); err != nil {
		return domain.Testimonial{}, err
	}
	return tm, nil
}

func buildImageKey(foodID, filename string) string {
	name := sanitizeFilename(filepath.Base(filename))
	if name == "" {
		name = "image"
	}
	return path.Join("foods", foodID, name)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		if r <= 0x7f {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
				b.WriteRune(r)
				lastUnderscore = false
				continue
			}
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
