package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/internal/testutil"
	refsync "github.com/jw164/MP3/usecase/sync"
	taskUC "github.com/jw164/MP3/usecase/task"
	userUC "github.com/jw164/MP3/usecase/user"
)

type handlerFixture struct {
	user  *UserHandler
	task  *TaskHandler
	users *testutil.UserRepo
	tasks *testutil.TaskRepo
}

func newHandlerFixture() *handlerFixture {
	users := testutil.NewUserRepo()
	tasks := testutil.NewTaskRepo()
	sync := refsync.New(users, tasks, &testutil.RepairRecorder{}, nil)
	return &handlerFixture{
		user:  NewUserHandler(userUC.New(users, sync, nil), nil, nil),
		task:  NewTaskHandler(taskUC.New(tasks, sync, nil), nil, nil),
		users: users,
		tasks: tasks,
	}
}

func newRequestCtx(method, uri, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	return ctx
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestCreateUserHandler(t *testing.T) {
	f := newHandlerFixture()
	ctx := newRequestCtx("POST", "/api/users", `{"name":"Alice","email":"alice@x.com"}`)

	f.user.CreateUser(ctx)

	assert.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	assert.Equal(t, http.StatusText(http.StatusCreated), env.Message)

	var created domain.User
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice@x.com", created.Email)
	assert.Equal(t, []string{}, created.PendingTasks)
}

func TestCreateUserHandler_BadRequests(t *testing.T) {
	f := newHandlerFixture()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed json", `{"name":`, "invalid request body"},
		{"missing email", `{"name":"Alice"}`, "name and email are required"},
		{"missing name", `{"email":"a@x.com"}`, "name and email are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newRequestCtx("POST", "/api/users", tt.body)
			f.user.CreateUser(ctx)
			assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
			assert.Equal(t, tt.message, decodeEnvelope(t, ctx).Message)
		})
	}
}

func TestCreateUserHandler_DuplicateEmail(t *testing.T) {
	f := newHandlerFixture()
	f.users.Put(&domain.User{Name: "Alice", Email: "alice@x.com", PendingTasks: []string{}})

	ctx := newRequestCtx("POST", "/api/users", `{"name":"Dup","email":"Alice@X.com"}`)
	f.user.CreateUser(ctx)

	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "email already exists", decodeEnvelope(t, ctx).Message)
}

func TestGetUsersHandler(t *testing.T) {
	f := newHandlerFixture()
	f.users.Put(&domain.User{Name: "Alice", Email: "alice@x.com", PendingTasks: []string{}})
	f.users.Put(&domain.User{Name: "Bob", Email: "bob@x.com", PendingTasks: []string{}})

	ctx := newRequestCtx("GET", "/api/users", "")
	f.user.GetUsers(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var docs []map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &docs))
	assert.Len(t, docs, 2)
}

func TestGetUsersHandler_Count(t *testing.T) {
	f := newHandlerFixture()
	f.users.Put(&domain.User{Name: "Alice", Email: "alice@x.com", PendingTasks: []string{}})

	ctx := newRequestCtx("GET", "/api/users?count=true", "")
	f.user.GetUsers(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var n int64
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &n))
	assert.Equal(t, int64(1), n)
}

func TestGetUsersHandler_InvalidWhere(t *testing.T) {
	f := newHandlerFixture()
	ctx := newRequestCtx("GET", "/api/users?where={bad}", "")
	f.user.GetUsers(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestGetUserHandler(t *testing.T) {
	f := newHandlerFixture()
	u := &domain.User{Name: "Alice", Email: "alice@x.com", PendingTasks: []string{}}
	f.users.Put(u)

	ctx := newRequestCtx("GET", "/api/users/"+u.ID, "")
	ctx.SetUserValue("id", u.ID)
	f.user.GetUser(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &doc))
	assert.Equal(t, u.ID, doc["_id"])
}

func TestGetUserHandler_Projection(t *testing.T) {
	f := newHandlerFixture()
	u := &domain.User{Name: "Alice", Email: "alice@x.com", PendingTasks: []string{}}
	f.users.Put(u)

	ctx := newRequestCtx("GET", `/api/users/`+u.ID+`?select={"name":1}`, "")
	ctx.SetUserValue("id", u.ID)
	f.user.GetUser(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &doc))
	assert.Equal(t, "Alice", doc["name"])
	assert.NotContains(t, doc, "email")
}

func TestGetUserHandler_NotFound(t *testing.T) {
	f := newHandlerFixture()
	ctx := newRequestCtx("GET", "/api/users/missing", "")
	ctx.SetUserValue("id", "missing")
	f.user.GetUser(ctx)

	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "user not found", decodeEnvelope(t, ctx).Message)
}

func TestUpdateUserHandler(t *testing.T) {
	f := newHandlerFixture()
	u := &domain.User{Name: "Alice", Email: "alice@x.com", PendingTasks: []string{}}
	f.users.Put(u)

	ctx := newRequestCtx("PUT", "/api/users/"+u.ID, `{"name":"Alicia"}`)
	ctx.SetUserValue("id", u.ID)
	f.user.UpdateUser(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	stored, _ := f.users.GetByID(ctx, u.ID)
	assert.Equal(t, "Alicia", stored.Name)
	assert.Equal(t, "alice@x.com", stored.Email)
}

func TestDeleteUserHandler(t *testing.T) {
	f := newHandlerFixture()
	u := &domain.User{Name: "Alice", Email: "alice@x.com", PendingTasks: []string{}}
	f.users.Put(u)

	ctx := newRequestCtx("DELETE", "/api/users/"+u.ID, "")
	ctx.SetUserValue("id", u.ID)
	f.user.DeleteUser(ctx)

	assert.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())
	assert.Empty(t, ctx.Response.Body())

	_, err := f.users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreateTaskHandler(t *testing.T) {
	f := newHandlerFixture()
	ctx := newRequestCtx("POST", "/api/tasks", `{"name":"T1","deadline":"2025-06-01T00:00:00Z"}`)

	f.task.CreateTask(ctx)

	assert.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	var created domain.Task
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.UnassignedName, created.AssignedUserName)
	assert.False(t, created.Completed)
}

func TestCreateTaskHandler_BadRequests(t *testing.T) {
	f := newHandlerFixture()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing deadline", `{"name":"T1"}`, "name and deadline are required"},
		{"missing name", `{"deadline":"2025-06-01"}`, "name and deadline are required"},
		{"bad deadline", `{"name":"T1","deadline":"soon"}`, "deadline must be a valid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newRequestCtx("POST", "/api/tasks", tt.body)
			f.task.CreateTask(ctx)
			assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
			assert.Equal(t, tt.message, decodeEnvelope(t, ctx).Message)
		})
	}
}

func TestCreateTaskHandler_UnknownAssignee(t *testing.T) {
	f := newHandlerFixture()
	ctx := newRequestCtx("POST", "/api/tasks", `{"name":"T1","deadline":"2025-06-01","assignedUser":"missing"}`)

	f.task.CreateTask(ctx)

	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "assignedUser not found", decodeEnvelope(t, ctx).Message)
}

func TestGetTasksHandler_FilterAndSort(t *testing.T) {
	f := newHandlerFixture()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"c", "a", "b"} {
		task := &domain.Task{Name: name, Deadline: base.AddDate(0, 0, i)}
		task.Unassign()
		f.tasks.Put(task)
	}
	done := &domain.Task{Name: "done", Deadline: base, Completed: true}
	done.Unassign()
	f.tasks.Put(done)

	ctx := newRequestCtx("GET", `/api/tasks?where={"completed":false}&sort={"name":1}&limit=2`, "")
	f.task.GetTasks(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var docs []map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0]["name"])
	assert.Equal(t, "b", docs[1]["name"])
}

func TestUpdateTaskHandler_NullDeadlineRejected(t *testing.T) {
	f := newHandlerFixture()
	task := &domain.Task{Name: "T1", Deadline: time.Now()}
	task.Unassign()
	f.tasks.Put(task)

	ctx := newRequestCtx("PUT", "/api/tasks/"+task.ID, `{"deadline":""}`)
	ctx.SetUserValue("id", task.ID)
	f.task.UpdateTask(ctx)

	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestUpdateTaskHandler_ClearAssignment(t *testing.T) {
	f := newHandlerFixture()
	u := &domain.User{Name: "Alice", Email: "alice@x.com", PendingTasks: []string{}}
	f.users.Put(u)
	task := &domain.Task{Name: "T1", Deadline: time.Now()}
	task.Assign(u.ID, u.Name)
	f.tasks.Put(task)

	ctx := newRequestCtx("PUT", "/api/tasks/"+task.ID, `{"assignedUser":""}`)
	ctx.SetUserValue("id", task.ID)
	f.task.UpdateTask(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	stored, _ := f.tasks.GetByID(ctx, task.ID)
	assert.False(t, stored.Assigned())
}

func TestDeleteTaskHandler_NotFound(t *testing.T) {
	f := newHandlerFixture()
	ctx := newRequestCtx("DELETE", "/api/tasks/missing", "")
	ctx.SetUserValue("id", "missing")
	f.task.DeleteTask(ctx)

	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "task not found", decodeEnvelope(t, ctx).Message)
}
