// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
	"gorm.io/gorm"

	a2aserver "github.com/go-a2a/a2a-server"
)

// TaskModel is the GORM row shape for a persisted task. The full task
// record is stored as a JSON document; session and state are lifted into
// indexed columns for filtering.
type TaskModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	SessionID string    `gorm:"index;size:64"`
	State     string    `gorm:"index;size:32"`
	Data      []byte    `gorm:"type:json"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName implements the GORM table naming convention.
func (TaskModel) TableName() string {
	return "tasks"
}

// newTaskModel converts a task into its row shape.
func newTaskModel(task *a2aserver.Task) (*TaskModel, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("marshal task: %w", err)
	}
	return &TaskModel{
		ID:        task.ID,
		SessionID: task.SessionID,
		State:     string(task.Status.State),
		Data:      data,
	}, nil
}

// toTask converts a row back into a task.
func (m *TaskModel) toTask() (*a2aserver.Task, error) {
	var task a2aserver.Task
	if err := json.Unmarshal(m.Data, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task %s: %w", m.ID, err)
	}
	return &task, nil
}

// DatabaseStore is a database implementation of Store using GORM.
type DatabaseStore struct {
	db          *gorm.DB
	createTable bool
}

var _ Store = (*DatabaseStore)(nil)

// DatabaseStoreConfig holds configuration for DatabaseStore.
type DatabaseStoreConfig struct {
	DB *gorm.DB

	// CreateTable controls whether Initialize runs AutoMigrate.
	CreateTable bool
}

// NewDatabaseStore creates a new DatabaseStore.
func NewDatabaseStore(config DatabaseStoreConfig) (*DatabaseStore, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	return &DatabaseStore{
		db:          config.DB,
		createTable: config.CreateTable,
	}, nil
}

// Save persists a task to the database.
func (s *DatabaseStore) Save(ctx context.Context, task *a2aserver.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return NewValidationError(task.ID, err)
	}

	model, err := newTaskModel(task)
	if err != nil {
		return NewStoreError("save", task.ID, err)
	}
	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return NewStoreError("save", task.ID, err)
	}
	return nil
}

// Get retrieves a task by its ID from the database.
func (s *DatabaseStore) Get(ctx context.Context, taskID string) (*a2aserver.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	var model TaskModel
	if err := s.db.WithContext(ctx).Where("id = ?", taskID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &a2aserver.TaskNotFoundError{TaskID: taskID}
		}
		return nil, NewStoreError("get", taskID, err)
	}

	task, err := model.toTask()
	if err != nil {
		return nil, NewStoreError("get", taskID, err)
	}
	return task, nil
}

// Delete removes a task from the database.
func (s *DatabaseStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	result := s.db.WithContext(ctx).Where("id = ?", taskID).Delete(&TaskModel{})
	if result.Error != nil {
		return NewStoreError("delete", taskID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &a2aserver.TaskNotFoundError{TaskID: taskID}
	}
	return nil
}

// List retrieves tasks with optional session filtering, ordered by ID.
func (s *DatabaseStore) List(ctx context.Context, sessionID string, limit, offset int) ([]*a2aserver.Task, error) {
	db := s.db.WithContext(ctx)
	if sessionID != "" {
		db = db.Where("session_id = ?", sessionID)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}

	var models []TaskModel
	if err := db.Order("id").Find(&models).Error; err != nil {
		return nil, NewStoreError("list", "", err)
	}
	return modelsToTasks(models, "list")
}

// ListByState retrieves all tasks currently in the given state.
func (s *DatabaseStore) ListByState(ctx context.Context, state a2aserver.TaskState) ([]*a2aserver.Task, error) {
	var models []TaskModel
	if err := s.db.WithContext(ctx).Where("state = ?", string(state)).Order("id").Find(&models).Error; err != nil {
		return nil, NewStoreError("list_by_state", "", err)
	}
	return modelsToTasks(models, "list_by_state")
}

// Count returns the number of stored tasks.
func (s *DatabaseStore) Count(ctx context.Context, sessionID string) (int64, error) {
	query := s.db.WithContext(ctx).Model(&TaskModel{})
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, NewStoreError("count", "", err)
	}
	return count, nil
}

// Initialize creates the tasks table when configured to do so.
func (s *DatabaseStore) Initialize(ctx context.Context) error {
	if !s.createTable {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&TaskModel{}); err != nil {
		return NewStoreError("initialize", "", err)
	}
	return nil
}

// Close shuts the database store down. The underlying connection is
// managed by GORM.
func (s *DatabaseStore) Close(ctx context.Context) error {
	return nil
}

// Transaction executes fn within a database transaction.
func (s *DatabaseStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DatabaseStore{db: tx, createTable: s.createTable})
	})
}

func modelsToTasks(models []TaskModel, op string) ([]*a2aserver.Task, error) {
	tasks := make([]*a2aserver.Task, len(models))
	for i, model := range models {
		task, err := model.toTask()
		if err != nil {
			return nil, NewStoreError(op, model.ID, err)
		}
		tasks[i] = task
	}
	return tasks, nil
}
