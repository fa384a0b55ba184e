// Package sqlstore keeps tasks in a SQLite table through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todo-board/internal/model"
	"todo-board/internal/repository"
)

// todoRow is the table layout of a task.
type todoRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"not null"`
	Description string
	Deadline    string    `gorm:"size:10"`
	Completed   bool      `gorm:"default:false"`
	CreatedAt   time.Time `gorm:"index"`
}

// Store implements repository.Backend on a gorm connection.
type Store struct {
	db    *gorm.DB
	table string
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens a SQLite database and migrates the task table.
func Open(dsn, table string, lg *log.Logger, opts ...Option) (*Store, error) {
	if dsn == "" {
		dsn = "todos.db"
	}
	if table == "" {
		table = repository.DefaultCollection
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	cfg := &gorm.Config{Logger: logger.Discard}
	if lg != nil {
		cfg.Logger = logger.New(
			lg,
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		)
	}

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Table(table).AutoMigrate(&todoRow{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	s := &Store{db: db, table: table, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) scoped(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}

func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	var rows []todoRow
	if err := s.scoped(ctx).Order("created_at DESC").Order("rowid DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, model.Task{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Deadline:    row.Deadline,
			Completed:   row.Completed,
			CreatedAt:   row.CreatedAt,
		})
	}
	return tasks, nil
}

func (s *Store) Insert(ctx context.Context, input model.TaskInput) (string, error) {
	row := todoRow{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		CreatedAt:   s.now(),
	}
	if input.Completed != nil {
		row.Completed = *input.Completed
	}
	if err := s.scoped(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	return row.ID, nil
}

func (s *Store) Merge(ctx context.Context, id string, patch model.TaskPatch) error {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Deadline != nil {
		updates["deadline"] = *patch.Deadline
	}
	if patch.Completed != nil {
		updates["completed"] = *patch.Completed
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.scoped(ctx).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("update task %s: %w", id, repository.ErrNotFound)
		}
		return fmt.Errorf("update task %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update task %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// Remove deletes a task. Deleting an unknown id succeeds.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.scoped(ctx).Where("id = ?", id).Delete(&todoRow{}).Error; err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	// Ignore DSNs with explicit mode=memory or network.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	// Strip file: prefix if present.
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
