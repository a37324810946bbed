package controller_test

import (
	"net/http"
	"testing"
	"time"

	"estatecrm/models"
)

func TestCreateTaskLogsActivityWhenRelated(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t, env.Agent, models.ClientActive)

	var created models.Task
	status := env.request(t, http.MethodPost, "/tasks", env.token(t, env.Agent), map[string]interface{}{
		"title":           "Schedule viewing",
		"dueAt":           time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"relatedClientId": client.ID,
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if created.Priority != models.PriorityMedium || created.Status != models.TaskTodo {
		t.Fatalf("defaults = %s/%s, want MEDIUM/TODO", created.Priority, created.Status)
	}
	if created.AssignedTo != env.Agent.ID {
		t.Fatalf("assignedTo = %q, want caller", created.AssignedTo)
	}

	var activity models.Activity
	if err := env.DB.Where("client_id = ? AND type = ?", client.ID, models.ActivityTaskCreated).
		First(&activity).Error; err != nil {
		t.Fatalf("expected a TASK_CREATED activity: %v", err)
	}
	if activity.Content != `Task created: "Schedule viewing"` {
		t.Fatalf("activity content = %q", activity.Content)
	}
}

func TestCreateUnrelatedTaskLogsNothing(t *testing.T) {
	env := newTestEnv(t)

	status := env.request(t, http.MethodPost, "/tasks", env.token(t, env.Agent), map[string]interface{}{
		"title": "Standalone errand",
		"dueAt": time.Now().Add(time.Hour).Format(time.RFC3339),
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}

	var count int64
	env.DB.Model(&models.Activity{}).Count(&count)
	if count != 0 {
		t.Fatalf("activities = %d, want 0", count)
	}
}

func TestCreateTaskRequiresDueAt(t *testing.T) {
	env := newTestEnv(t)

	status := env.request(t, http.MethodPost, "/tasks", env.token(t, env.Agent), map[string]interface{}{
		"title": "No deadline",
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestTaskDueFilters(t *testing.T) {
	env := newTestEnv(t)

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	seed := []models.Task{
		{Title: "overdue", DueAt: now.Add(-2 * time.Hour), Status: models.TaskTodo, Priority: models.PriorityMedium, AssignedTo: env.Agent.ID},
		{Title: "overdue but done", DueAt: now.Add(-2 * time.Hour), Status: models.TaskDone, Priority: models.PriorityMedium, AssignedTo: env.Agent.ID},
		{Title: "tomorrow", DueAt: todayStart.Add(36 * time.Hour), Status: models.TaskTodo, Priority: models.PriorityMedium, AssignedTo: env.Agent.ID},
		{Title: "window edge", DueAt: todayStart.AddDate(0, 0, 2), Status: models.TaskTodo, Priority: models.PriorityMedium, AssignedTo: env.Agent.ID},
		{Title: "past the window", DueAt: todayStart.Add(60 * time.Hour), Status: models.TaskTodo, Priority: models.PriorityMedium, AssignedTo: env.Agent.ID},
		{Title: "next month", DueAt: now.AddDate(0, 1, 0), Status: models.TaskTodo, Priority: models.PriorityMedium, AssignedTo: env.Agent.ID},
	}
	for i := range seed {
		if err := env.DB.Create(&seed[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	var list struct {
		Data  []models.Task `json:"data"`
		Total int64         `json:"total"`
	}
	env.request(t, http.MethodGet, "/tasks?due=overdue", env.token(t, env.Agent), nil, &list)
	if list.Total != 1 || list.Data[0].Title != "overdue" {
		t.Fatalf("due=overdue returned %d tasks", list.Total)
	}

	// The 48h window keeps its inclusive upper edge but nothing beyond it.
	env.request(t, http.MethodGet, "/tasks?due=upcoming", env.token(t, env.Agent), nil, &list)
	if list.Total != 2 {
		t.Fatalf("due=upcoming returned %d tasks, want 2", list.Total)
	}
	for _, task := range list.Data {
		if task.Title == "past the window" {
			t.Fatal("due=upcoming includes a task due 60h out")
		}
	}
}

func TestAgentCanDeleteOwnTask(t *testing.T) {
	env := newTestEnv(t)

	task := models.Task{
		Title:      "mine",
		DueAt:      time.Now().Add(time.Hour),
		Status:     models.TaskTodo,
		Priority:   models.PriorityMedium,
		AssignedTo: env.Agent.ID,
	}
	if err := env.DB.Create(&task).Error; err != nil {
		t.Fatal(err)
	}
	other := models.Task{
		Title:      "not mine",
		DueAt:      time.Now().Add(time.Hour),
		Status:     models.TaskTodo,
		Priority:   models.PriorityMedium,
		AssignedTo: env.OtherAgent.ID,
	}
	if err := env.DB.Create(&other).Error; err != nil {
		t.Fatal(err)
	}

	if status := env.request(t, http.MethodDelete, "/tasks/"+other.ID, env.token(t, env.Agent), nil, nil); status != http.StatusForbidden {
		t.Fatalf("foreign task: status = %d, want 403", status)
	}
	if status := env.request(t, http.MethodDelete, "/tasks/"+task.ID, env.token(t, env.Agent), nil, nil); status != http.StatusNoContent {
		t.Fatalf("own task: status = %d, want 204", status)
	}
}

func TestUpdateTaskReschedulesReminder(t *testing.T) {
	env := newTestEnv(t)

	sent := time.Now().Add(-time.Hour)
	reminder := time.Now().Add(-2 * time.Hour)
	task := models.Task{
		Title:          "follow up",
		DueAt:          time.Now().Add(time.Hour),
		Status:         models.TaskTodo,
		Priority:       models.PriorityMedium,
		AssignedTo:     env.Agent.ID,
		ReminderAt:     &reminder,
		ReminderSentAt: &sent,
	}
	if err := env.DB.Create(&task).Error; err != nil {
		t.Fatal(err)
	}

	status := env.request(t, http.MethodPut, "/tasks/"+task.ID, env.token(t, env.Agent), map[string]interface{}{
		"reminderAt": time.Now().Add(3 * time.Hour).Format(time.RFC3339),
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	var fresh models.Task
	env.DB.First(&fresh, "id = ?", task.ID)
	if fresh.ReminderSentAt != nil {
		t.Fatal("reminder_sent_at should reset on reschedule")
	}
}
