package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"piringsehat/pkg/domain"
)

// MemoryStore keeps everything in-process. It exists for tests and mirrors
// the GormStore semantics, including ordering and upsert behavior.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]domain.User // key: local user ID
	subjects     map[string]string      // external subject id -> user ID
	foods        map[string]domain.Food
	foodOrder    []string
	logs         map[string]domain.FoodLog
	logOrder     []string
	forums       map[string]domain.Forum
	forumOrder   []string
	comments     map[string]domain.ForumComment
	commentOrder []string
	testimonials []domain.Testimonial
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		subjects: make(map[string]string),
		foods:    make(map[string]domain.Food),
		logs:     make(map[string]domain.FoodLog),
		forums:   make(map[string]domain.Forum),
		comments: make(map[string]domain.ForumComment),
	}
}

// Ping always succeeds.
func (m *MemoryStore) Ping() error { return nil }

// UpsertUserBySubject creates or refreshes a user keyed by subject id.
func (m *MemoryStore) UpsertUserBySubject(u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.subjects[u.SubjectID]; ok {
		existing := m.users[id]
		existing.Email = u.Email
		existing.Username = u.Username
		existing.UpdatedAt = time.Now().UTC()
		m.users[id] = existing
		return existing, nil
	}
	m.users[u.ID] = u
	m.subjects[u.SubjectID] = u.ID
	return u, nil
}

// GetUserBySubject looks up a user by external subject identifier.
func (m *MemoryStore) GetUserBySubject(subjectID string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.subjects[subjectID]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by local ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// SetDailyTarget updates the daily calorie target.
func (m *MemoryStore) SetDailyTarget(userID string, target int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, nil
	}
	u.DailyTarget = &target
	u.UpdatedAt = time.Now().UTC()
	m.users[userID] = u
	return true, nil
}

// SaveFood stores a catalog food.
func (m *MemoryStore) SaveFood(f domain.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.foods[f.ID]; !exists {
		m.foodOrder = append(m.foodOrder, f.ID)
	}
	m.foods[f.ID] = f
	return nil
}

// GetFood retrieves a catalog food.
func (m *MemoryStore) GetFood(id string) (domain.Food, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.foods[id]
	return f, ok, nil
}

// SearchFoods returns up to limit foods matching the name fragment,
// name-ordered. Empty query matches everything.
func (m *MemoryStore) SearchFoods(query string, limit int) ([]domain.Food, error) {
	matches := m.matchFoods(query)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// FirstFoodByName returns the name-ordered first match.
func (m *MemoryStore) FirstFoodByName(query string) (domain.Food, bool, error) {
	matches := m.matchFoods(query)
	if len(matches) == 0 {
		return domain.Food{}, false, nil
	}
	return matches[0], true, nil
}

// ListFoods returns the whole catalog ordered by name.
func (m *MemoryStore) ListFoods() ([]domain.Food, error) {
	return m.matchFoods(""), nil
}

func (m *MemoryStore) matchFoods(query string) []domain.Food {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(query)
	res := make([]domain.Food, 0, len(m.foods))
	for _, f := range m.foods {
		if needle == "" || strings.Contains(strings.ToLower(f.Name), needle) {
			res = append(res, f)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// SetFoodImage records the storage key and URL of a food image.
func (m *MemoryStore) SetFoodImage(id, storageKey, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.foods[id]
	if !ok {
		return nil
	}
	f.StorageKey = storageKey
	f.ImageURL = imageURL
	m.foods[id] = f
	return nil
}

// SaveFoodLog stores a food-log entry in insertion order.
func (m *MemoryStore) SaveFoodLog(l domain.FoodLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.logs[l.ID]; !exists {
		m.logOrder = append(m.logOrder, l.ID)
	}
	m.logs[l.ID] = l
	return nil
}

// ListFoodLogs returns a user's entries for one date in insertion order.
func (m *MemoryStore) ListFoodLogs(userID, date string) ([]domain.FoodLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.FoodLog, 0)
	for _, id := range m.logOrder {
		l, ok := m.logs[id]
		if ok && l.UserID == userID && l.Date == date {
			res = append(res, l)
		}
	}
	return res, nil
}

// DeleteFoodLog removes an entry; missing entries are a no-op.
func (m *MemoryStore) DeleteFoodLog(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logs, id)
	m.logOrder = removeID(m.logOrder, id)
	return nil
}

// SumCalories totals logged calories over an inclusive date range.
// ISO dates compare correctly as strings.
func (m *MemoryStore) SumCalories(userID, startDate, endDate string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total float64
	for _, l := range m.logs {
		if l.UserID == userID && l.Date >= startDate && l.Date <= endDate {
			total += l.Calories
		}
	}
	return total, nil
}

// SumNutrition totals protein/carbs/fat from catalog-linked entries.
func (m *MemoryStore) SumNutrition(userID, date string) (domain.NutritionTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var totals domain.NutritionTotals
	for _, l := range m.logs {
		if l.UserID != userID || l.Date != date || l.FoodID == "" {
			continue
		}
		f, ok := m.foods[l.FoodID]
		if !ok {
			continue
		}
		totals.Protein += f.Protein
		totals.Carbs += f.Carbs
		totals.Fat += f.Fat
	}
	return totals, nil
}

// SaveForum stores a forum post.
func (m *MemoryStore) SaveForum(f domain.Forum) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.forums[f.ID]; !exists {
		m.forumOrder = append(m.forumOrder, f.ID)
	}
	m.forums[f.ID] = f
	return nil
}

// GetForum retrieves a forum post.
func (m *MemoryStore) GetForum(id string) (domain.Forum, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.forums[id]
	return f, ok, nil
}

// ListForums returns forums newest first.
func (m *MemoryStore) ListForums() ([]domain.Forum, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Forum, 0, len(m.forumOrder))
	for i := len(m.forumOrder) - 1; i >= 0; i-- {
		if f, ok := m.forums[m.forumOrder[i]]; ok {
			res = append(res, f)
		}
	}
	return res, nil
}

// UpdateForum overwrites title and content.
func (m *MemoryStore) UpdateForum(f domain.Forum) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.forums[f.ID]
	if !ok {
		return nil
	}
	existing.Title = f.Title
	existing.Content = f.Content
	existing.UpdatedAt = time.Now().UTC()
	m.forums[f.ID] = existing
	return nil
}

// DeleteForum removes a forum and its comments.
func (m *MemoryStore) DeleteForum(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.forums, id)
	m.forumOrder = removeID(m.forumOrder, id)
	for cid, c := range m.comments {
		if c.ForumID == id {
			delete(m.comments, cid)
			m.commentOrder = removeID(m.commentOrder, cid)
		}
	}
	return nil
}

// SaveComment stores a comment in insertion order.
func (m *MemoryStore) SaveComment(c domain.ForumComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.comments[c.ID]; !exists {
		m.commentOrder = append(m.commentOrder, c.ID)
	}
	m.comments[c.ID] = c
	return nil
}

// GetComment retrieves a comment.
func (m *MemoryStore) GetComment(id string) (domain.ForumComment, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[id]
	return c, ok, nil
}

// ListCommentsByForum returns a forum's comments oldest first.
func (m *MemoryStore) ListCommentsByForum(forumID string) ([]domain.ForumComment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ForumComment, 0)
	for _, id := range m.commentOrder {
		if c, ok := m.comments[id]; ok && c.ForumID == forumID {
			res = append(res, c)
		}
	}
	return res, nil
}

// UpdateComment overwrites the comment body.
func (m *MemoryStore) UpdateComment(c domain.ForumComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.comments[c.ID]
	if !ok {
		return nil
	}
	existing.Content = c.Content
	existing.UpdatedAt = time.Now().UTC()
	m.comments[c.ID] = existing
	return nil
}

// DeleteComment removes a comment and its direct replies.
func (m *MemoryStore) DeleteComment(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cid, c := range m.comments {
		if c.ParentCommentID == id {
			delete(m.comments, cid)
			m.commentOrder = removeID(m.commentOrder, cid)
		}
	}
	delete(m.comments, id)
	m.commentOrder = removeID(m.commentOrder, id)
	return nil
}

// SaveTestimonial appends a testimonial.
func (m *MemoryStore) SaveTestimonial(t domain.Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.testimonials = append(m.testimonials, t)
	return nil
}

// ListTestimonials returns testimonials newest first.
func (m *MemoryStore) ListTestimonials() ([]domain.Testimonial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Testimonial, 0, len(m.testimonials))
	for i := len(m.testimonials) - 1; i >= 0; i-- {
		res = append(res, m.testimonials[i])
	}
	return res, nil
}

// ListTestimonialsByUser returns one user's testimonials newest first.
func (m *MemoryStore) ListTestimonialsByUser(userID string) ([]domain.Testimonial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Testimonial, 0)
	for i := len(m.testimonials) - 1; i >= 0; i-- {
		if m.testimonials[i].UserID == userID {
			res = append(res, m.testimonials[i])
		}
	}
	return res, nil
}

func removeID(ids []string, id string) []string {
	filtered := ids[:0]
	for _, item := range ids {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
