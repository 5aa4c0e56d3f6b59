package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grumnuts/the-nest/internal/config"
	"github.com/grumnuts/the-nest/internal/database"
	"github.com/grumnuts/the-nest/internal/routes"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := &config.Config{DatabaseURL: ":memory:"}
	require.NoError(t, database.Connect(cfg))
	require.NoError(t, database.Migrate())

	app := fiber.New()
	routes.Setup(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

// register creates an account and returns its token and user ID. The first
// account in a fresh database becomes the site owner.
func register(t *testing.T, app *fiber.App, username string) (string, string) {
	t.Helper()

	resp, raw := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@nest.test",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Token, body.User.ID
}

func createList(t *testing.T, app *fiber.App, token, name, resetPeriod string) string {
	t.Helper()

	resp, raw := doJSON(t, app, "POST", "/api/lists", token, fiber.Map{
		"name":        name,
		"resetPeriod": resetPeriod,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var list struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	return list.ID
}

func createTask(t *testing.T, app *fiber.App, token, listID string, body fiber.Map) string {
	t.Helper()

	resp, raw := doJSON(t, app, "POST", "/api/lists/"+listID+"/tasks", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var task struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &task))
	return task.ID
}

func taskCompletionCount(t *testing.T, app *fiber.App, token, listID, taskID string) int {
	t.Helper()

	resp, raw := doJSON(t, app, "GET", "/api/lists/"+listID+"/tasks", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var statuses []struct {
		Task struct {
			ID string `json:"id"`
		} `json:"task"`
		CompletionCount int `json:"completionCount"`
	}
	require.NoError(t, json.Unmarshal(raw, &statuses))
	for _, s := range statuses {
		if s.Task.ID == taskID {
			return s.CompletionCount
		}
	}
	t.Fatalf("task %s not in list response", taskID)
	return 0
}

func TestRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	token, _ := register(t, app, "alice")
	assert.NotEmpty(t, token)

	// Duplicate username is rejected
	resp, _ := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": "alice",
		"email":    "other@nest.test",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw := doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

func TestRegisterValidationListsFields(t *testing.T) {
	app := setupApp(t)

	resp, raw := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": "alice",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.ElementsMatch(t, []string{"email", "password"}, body.Fields)
}

func TestPermissionGate(t *testing.T) {
	app := setupApp(t)

	ownerToken, _ := register(t, app, "alice")
	memberToken, memberID := register(t, app, "bob")

	listID := createList(t, app, ownerToken, "Kitchen", "weekly")

	// No permission row: the list does not exist as far as bob can tell
	resp, _ := doJSON(t, app, "GET", "/api/lists/"+listID, memberToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Grant user level; bob can now read but not manage tasks
	resp, raw := doJSON(t, app, "PUT",
		fmt.Sprintf("/api/lists/%s/permissions/%s", listID, memberID),
		ownerToken, fiber.Map{"permissionLevel": "user"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, _ = doJSON(t, app, "GET", "/api/lists/"+listID, memberToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/lists/"+listID+"/tasks", memberToken, fiber.Map{
		"title": "Dishes",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, "PATCH", "/api/lists/"+listID, memberToken, fiber.Map{
		"name": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin level unlocks task management but not list management
	resp, _ = doJSON(t, app, "PUT",
		fmt.Sprintf("/api/lists/%s/permissions/%s", listID, memberID),
		ownerToken, fiber.Map{"permissionLevel": "admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/lists/"+listID+"/tasks", memberToken, fiber.Map{
		"title": "Dishes",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, "PATCH", "/api/lists/"+listID, memberToken, fiber.Map{
		"name": "Still hijacked",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Only owners manage the permission set itself
	resp, _ = doJSON(t, app, "GET", "/api/lists/"+listID+"/permissions", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCompleteAndUndo(t *testing.T) {
	app := setupApp(t)

	ownerToken, _ := register(t, app, "alice")
	memberToken, memberID := register(t, app, "bob")

	listID := createList(t, app, ownerToken, "Kitchen", "weekly")
	taskID := createTask(t, app, ownerToken, listID, fiber.Map{"title": "Dishes"})

	resp, _ := doJSON(t, app, "PUT",
		fmt.Sprintf("/api/lists/%s/permissions/%s", listID, memberID),
		ownerToken, fiber.Map{"permissionLevel": "user"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Owner completes; a second completion in the same period conflicts
	resp, _ = doJSON(t, app, "POST", "/api/tasks/"+taskID+"/complete", ownerToken, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/api/tasks/"+taskID+"/complete", ownerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Bob did not author the completion and is not a list admin
	resp, raw := doJSON(t, app, "POST", "/api/tasks/"+taskID+"/undo", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(raw))
	assert.Equal(t, 1, taskCompletionCount(t, app, ownerToken, listID, taskID))

	// The author may undo; a second undo finds nothing
	resp, _ = doJSON(t, app, "POST", "/api/tasks/"+taskID+"/undo", ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, taskCompletionCount(t, app, ownerToken, listID, taskID))

	resp, _ = doJSON(t, app, "POST", "/api/tasks/"+taskID+"/undo", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMultipleCompletions(t *testing.T) {
	app := setupApp(t)

	token, _ := register(t, app, "alice")
	listID := createList(t, app, token, "Health", "daily")
	taskID := createTask(t, app, token, listID, fiber.Map{
		"title":                    "Drink water",
		"allowMultipleCompletions": true,
	})

	for i := 0; i < 3; i++ {
		resp, _ := doJSON(t, app, "POST", "/api/tasks/"+taskID+"/complete", token, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	assert.Equal(t, 3, taskCompletionCount(t, app, token, listID, taskID))
}

func TestStaticListCompletions(t *testing.T) {
	app := setupApp(t)

	token, _ := register(t, app, "alice")
	listID := createList(t, app, token, "Projects", "static")
	taskID := createTask(t, app, token, listID, fiber.Map{"title": "Paint fence"})

	// Static lists never reset: one completion occupies the task forever
	resp, _ := doJSON(t, app, "POST", "/api/tasks/"+taskID+"/complete", token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/api/tasks/"+taskID+"/complete", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, 1, taskCompletionCount(t, app, token, listID, taskID))

	resp, _ = doJSON(t, app, "POST", "/api/tasks/"+taskID+"/undo", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, taskCompletionCount(t, app, token, listID, taskID))
}

func TestHideCompletedTasksPreference(t *testing.T) {
	app := setupApp(t)

	token, _ := register(t, app, "alice")
	listID := createList(t, app, token, "Kitchen", "weekly")
	dishes := createTask(t, app, token, listID, fiber.Map{"title": "Dishes"})
	sweep := createTask(t, app, token, listID, fiber.Map{"title": "Sweep"})

	resp, _ := doJSON(t, app, "POST", "/api/tasks/"+dishes+"/complete", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := doJSON(t, app, "PUT", "/api/me", token, fiber.Map{
		"hideCompletedTasks": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	// Only the open task is listed while the preference is on
	resp, raw = doJSON(t, app, "GET", "/api/lists/"+listID+"/tasks", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var statuses []struct {
		Task struct {
			ID string `json:"id"`
		} `json:"task"`
	}
	require.NoError(t, json.Unmarshal(raw, &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, sweep, statuses[0].Task.ID)

	resp, _ = doJSON(t, app, "PUT", "/api/me", token, fiber.Map{
		"hideCompletedTasks": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = doJSON(t, app, "GET", "/api/lists/"+listID+"/tasks", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &statuses))
	assert.Len(t, statuses, 2)
}

func TestGoalProgress(t *testing.T) {
	app := setupApp(t)

	token, _ := register(t, app, "alice")
	listID := createList(t, app, token, "Kitchen", "weekly")

	taskA := createTask(t, app, token, listID, fiber.Map{"title": "Dishes", "durationMinutes": 20})
	taskB := createTask(t, app, token, listID, fiber.Map{"title": "Sweep", "durationMinutes": 25})

	for _, id := range []string{taskA, taskB} {
		resp, _ := doJSON(t, app, "POST", "/api/tasks/"+id+"/complete", token, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, raw := doJSON(t, app, "POST", "/api/goals", token, fiber.Map{
		"name":            "45 minutes of chores",
		"calculationType": "fixed_time",
		"targetValue":     60,
		"periodType":      "weekly",
		"listIds":         []string{listID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var goal struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &goal))

	resp, raw = doJSON(t, app, "GET", "/api/goals/"+goal.ID+"/progress", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var body struct {
		Progress struct {
			Completed  int  `json:"completed"`
			Required   int  `json:"required"`
			Percentage int  `json:"percentage"`
			IsAchieved bool `json:"isAchieved"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, 45, body.Progress.Completed)
	assert.Equal(t, 60, body.Progress.Required)
	assert.Equal(t, 75, body.Progress.Percentage)
	assert.False(t, body.Progress.IsAchieved)
}

func TestAllGoalsRequiresAdmin(t *testing.T) {
	app := setupApp(t)

	// First account is the site owner, second is a plain user
	ownerToken, _ := register(t, app, "alice")
	memberToken, _ := register(t, app, "bob")

	resp, _ := doJSON(t, app, "GET", "/api/goals/all-goals", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/goals/all-goals", ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGoalSnapshotSurvivesListDeletion(t *testing.T) {
	app := setupApp(t)

	token, _ := register(t, app, "alice")
	kitchen := createList(t, app, token, "Kitchen", "weekly")
	garden := createList(t, app, token, "Garden", "weekly")

	taskA := createTask(t, app, token, kitchen, fiber.Map{"title": "Dishes", "durationMinutes": 30})
	createTask(t, app, token, garden, fiber.Map{"title": "Water plants", "durationMinutes": 30})

	resp, _ := doJSON(t, app, "POST", "/api/tasks/"+taskA+"/complete", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := doJSON(t, app, "POST", "/api/goals", token, fiber.Map{
		"name":            "Chores everywhere",
		"calculationType": "fixed_time",
		"targetValue":     30,
		"periodType":      "weekly",
		"listIds":         []string{kitchen, garden},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var goal struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &goal))

	// Deleting a referenced list stops its contribution without breaking the goal
	resp, _ = doJSON(t, app, "DELETE", "/api/lists/"+garden, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = doJSON(t, app, "GET", "/api/goals/"+goal.ID+"/progress", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var body struct {
		Progress struct {
			Completed  int  `json:"completed"`
			IsAchieved bool `json:"isAchieved"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, 30, body.Progress.Completed)
	assert.True(t, body.Progress.IsAchieved)
}
