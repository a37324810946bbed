package worker

import (
	"context"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"estatecrm/models"
	"estatecrm/utils"
)

const pollInterval = time.Minute

// ReminderWorker emails agents about tasks whose reminder time has passed.
// Each reminder fires once; sending stamps reminder_sent_at.
type ReminderWorker struct {
	DB     *gorm.DB
	Mailer *utils.Mailer
	Logger *log.Logger
}

func NewReminderWorker(db *gorm.DB, mailer *utils.Mailer) *ReminderWorker {
	return &ReminderWorker{
		DB:     db,
		Mailer: mailer,
		Logger: log.New(os.Stdout, "REMINDER: ", log.LstdFlags),
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	w.Logger.Println("reminder worker started")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Logger.Println("reminder worker stopped")
			return
		case <-ticker.C:
			w.processDue()
		}
	}
}

func (w *ReminderWorker) processDue() {
	var tasks []models.Task
	err := w.DB.
		Preload("Agent").
		Where("reminder_at IS NOT NULL AND reminder_at <= ? AND reminder_sent_at IS NULL AND status <> ?",
			time.Now(), models.TaskDone).
		Find(&tasks).Error
	if err != nil {
		w.Logger.Printf("failed to load due reminders: %v", err)
		return
	}

	for i := range tasks {
		task := &tasks[i]
		if task.Agent == nil || task.Agent.Email == "" {
			continue
		}

		if err := w.Mailer.SendTaskReminder(task.Agent.Email, task.Agent.Name, task); err != nil {
			w.Logger.Printf("failed to send reminder for task %s: %v", task.ID, err)
			continue
		}

		now := time.Now()
		if err := w.DB.Model(task).Update("reminder_sent_at", now).Error; err != nil {
			w.Logger.Printf("failed to mark reminder sent for task %s: %v", task.ID, err)
		}
	}
}
