// Package testutil provides in-memory repository implementations mirroring
// the Mongo-backed ones closely enough for use-case and handler tests: email
// uniqueness, set-semantics pending updates, and simple equality filters.
package testutil

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/repository"
)

// Repair records a flagged reference repair.
type Repair struct {
	Action string
	UserID string
	TaskID string
}

// RepairRecorder implements usecase.RepairQueue by recording entries.
type RepairRecorder struct {
	mu      sync.Mutex
	Repairs []Repair
	Err     error
}

func (r *RepairRecorder) Flag(_ context.Context, action, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Repairs = append(r.Repairs, Repair{Action: action, UserID: userID, TaskID: taskID})
	return nil
}

// UserRepo is an in-memory repository.UserRepository. The error fields inject
// failures into specific operations.
type UserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	AddPendingErr    error
	RemovePendingErr error
	SaveErr          error
	DeleteErr        error
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*domain.User)}
}

// Put seeds a user directly, bypassing uniqueness checks.
func (r *UserRepo) Put(user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = cloneUser(user)
}

func (r *UserRepo) Find(_ context.Context, q repository.Query) ([]map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := []map[string]interface{}{}
	for _, u := range r.users {
		doc := toDoc(u)
		if matches(doc, q.Filter) {
			docs = append(docs, doc)
		}
	}
	sortDocs(docs, q.Sort)
	for i, doc := range docs {
		docs[i] = project(doc, q.Projection)
	}
	return clip(docs, q.Skip, q.Limit), nil
}

func (r *UserRepo) Count(_ context.Context, filter map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if matches(toDoc(u), filter) {
			n++
		}
	}
	return n, nil
}

func (r *UserRepo) FindByID(_ context.Context, id string, projection map[string]interface{}) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return project(toDoc(u), projection), nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	normalized := domain.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == normalized {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}
	r.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *UserRepo) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepo) AddPendingTask(_ context.Context, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.AddPendingErr != nil {
		return r.AddPendingErr
	}
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.AddPendingTask(taskID)
	return nil
}

func (r *UserRepo) RemovePendingTask(_ context.Context, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RemovePendingErr != nil {
		return r.RemovePendingErr
	}
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RemovePendingTask(taskID)
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// TaskRepo is an in-memory repository.TaskRepository. SaveErr fails every
// Save; SaveErrAfter delays the failure until that many saves have succeeded,
// for exercising mid-loop error paths.
type TaskRepo struct {
	mu        sync.Mutex
	tasks     map[string]*domain.Task
	saveCalls int

	SaveErr      error
	SaveErrAfter int
	DeleteErr    error
	ClearErr     error
}

func NewTaskRepo() *TaskRepo {
	return &TaskRepo{tasks: make(map[string]*domain.Task)}
}

// Put seeds a task directly.
func (r *TaskRepo) Put(task *domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	r.tasks[task.ID] = cloneTask(task)
}

func (r *TaskRepo) Find(_ context.Context, q repository.Query) ([]map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := []map[string]interface{}{}
	for _, t := range r.tasks {
		doc := toDoc(t)
		if matches(doc, q.Filter) {
			docs = append(docs, doc)
		}
	}
	sortDocs(docs, q.Sort)
	for i, doc := range docs {
		docs[i] = project(doc, q.Projection)
	}
	return clip(docs, q.Skip, q.Limit), nil
}

func (r *TaskRepo) Count(_ context.Context, filter map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tasks {
		if matches(toDoc(t), filter) {
			n++
		}
	}
	return n, nil
}

func (r *TaskRepo) FindByID(_ context.Context, id string, projection map[string]interface{}) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return project(toDoc(t), projection), nil
}

func (r *TaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *TaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.AssignedUserName == "" {
		task.AssignedUserName = domain.UnassignedName
	}
	r.tasks[task.ID] = cloneTask(task)
	return task, nil
}

func (r *TaskRepo) Save(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.SaveErr != nil && r.saveCalls > r.SaveErrAfter {
		return r.SaveErr
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *TaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *TaskRepo) ClearAssignmentsByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ClearErr != nil {
		return r.ClearErr
	}
	for _, t := range r.tasks {
		if t.Assignee() == userID {
			t.Unassign()
		}
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.PendingTasks = append([]string(nil), u.PendingTasks...)
	return &c
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.AssignedUser != nil {
		v := *t.AssignedUser
		c.AssignedUser = &v
	}
	return &c
}

func toDoc(v interface{}) map[string]interface{} {
	raw, _ := json.Marshal(v)
	var doc map[string]interface{}
	_ = json.Unmarshal(raw, &doc)
	return doc
}

// matches supports top-level equality filters, which is all the tests use.
func matches(doc, filter map[string]interface{}) bool {
	for k, want := range filter {
		if doc[k] != want {
			return false
		}
	}
	return true
}

// project applies a naive inclusion/exclusion projection.
func project(doc, projection map[string]interface{}) map[string]interface{} {
	if len(projection) == 0 {
		return doc
	}
	include := false
	for _, v := range projection {
		if isTruthy(v) {
			include = true
			break
		}
	}
	out := map[string]interface{}{}
	if include {
		out["_id"] = doc["_id"]
		for k, v := range projection {
			if isTruthy(v) {
				if val, ok := doc[k]; ok {
					out[k] = val
				}
			}
		}
		return out
	}
	for k, v := range doc {
		if _, excluded := projection[k]; !excluded {
			out[k] = v
		}
	}
	return out
}

// sortDocs orders by a single sort key, ascending for positive directions.
// Multi-key sorts are not supported here.
func sortDocs(docs []map[string]interface{}, order map[string]interface{}) {
	if len(order) != 1 {
		return
	}
	var key string
	asc := true
	for k, dir := range order {
		key = k
		if n, ok := dir.(float64); ok && n < 0 {
			asc = false
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		less := docLess(docs[i][key], docs[j][key])
		if asc {
			return less
		}
		return docLess(docs[j][key], docs[i][key])
	})
}

func docLess(a, b interface{}) bool {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return av < bv
	case float64:
		bv, _ := b.(float64)
		return av < bv
	default:
		return false
	}
}

func isTruthy(v interface{}) bool {
	switch n := v.(type) {
	case bool:
		return n
	case float64:
		return n != 0
	case int:
		return n != 0
	default:
		return false
	}
}

func clip(docs []map[string]interface{}, skip, limit int64) []map[string]interface{} {
	if skip > 0 {
		if skip >= int64(len(docs)) {
			return []map[string]interface{}{}
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}
