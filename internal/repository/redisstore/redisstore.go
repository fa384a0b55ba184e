// Package redisstore keeps tasks as Redis hashes indexed by a sorted set of
// creation times.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"todo-board/internal/model"
	"todo-board/internal/repository"
)

const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldDeadline    = "deadline"
	fieldCompleted   = "completed"
	fieldCreatedAt   = "createdAt"
)

// Store implements repository.Backend on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps client. Keys are namespaced by collection.
func New(client *redis.Client, collection string) *Store {
	if collection == "" {
		collection = repository.DefaultCollection
	}
	return &Store{client: client, prefix: collection}
}

// Open connects using a URL or connection string and pings the server.
func Open(ctx context.Context, conn, collection string) (*Store, error) {
	client := redis.NewClient(ParseOptions(conn))
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", classify(err))
	}
	return New(client, collection), nil
}

func (s *Store) taskKey(id string) string {
	return s.prefix + ":" + id
}

func (s *Store) indexKey() string {
	return s.prefix + ":by_created"
}

func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", classify(err))
	}
	if len(ids) == 0 {
		return []model.Task{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.taskKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", classify(err))
	}

	tasks := make([]model.Task, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		tasks = append(tasks, decodeTask(ids[i], fields))
	}
	return tasks, nil
}

// Insert stamps the task with the server clock.
func (s *Store) Insert(ctx context.Context, input model.TaskInput) (string, error) {
	now, err := s.client.Time(ctx).Result()
	if err != nil {
		return "", fmt.Errorf("create task: %w", classify(err))
	}
	id := uuid.NewString()
	fields := encodeInput(input, now)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.taskKey(id), fields)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(now.UnixMicro()), Member: id})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create task: %w", classify(err))
	}
	return id, nil
}

func (s *Store) Merge(ctx context.Context, id string, patch model.TaskPatch) error {
	fields := encodePatch(patch)
	if len(fields) == 0 {
		return nil
	}
	key := s.taskKey(id)
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			return nil
		})
		return err
	}

	// A concurrent write to the hash aborts EXEC with redis.TxFailedErr,
	// which is returned like any other failure.
	if err := s.client.Watch(ctx, txf, key); err != nil {
		return fmt.Errorf("update task %s: %w", id, classify(err))
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.taskKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, classify(err))
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return s.client.Close()
}

func encodeInput(input model.TaskInput, createdAt time.Time) map[string]interface{} {
	completed := false
	if input.Completed != nil {
		completed = *input.Completed
	}
	return map[string]interface{}{
		fieldTitle:       input.Title,
		fieldDescription: input.Description,
		fieldDeadline:    input.Deadline,
		fieldCompleted:   strconv.FormatBool(completed),
		fieldCreatedAt:   strconv.FormatInt(createdAt.UnixMicro(), 10),
	}
}

func encodePatch(patch model.TaskPatch) map[string]interface{} {
	fields := map[string]interface{}{}
	if patch.Title != nil {
		fields[fieldTitle] = *patch.Title
	}
	if patch.Description != nil {
		fields[fieldDescription] = *patch.Description
	}
	if patch.Deadline != nil {
		fields[fieldDeadline] = *patch.Deadline
	}
	if patch.Completed != nil {
		fields[fieldCompleted] = strconv.FormatBool(*patch.Completed)
	}
	return fields
}

func decodeTask(id string, fields map[string]string) model.Task {
	task := model.Task{
		ID:          id,
		Title:       fields[fieldTitle],
		Description: fields[fieldDescription],
		Deadline:    fields[fieldDeadline],
	}
	task.Completed, _ = strconv.ParseBool(fields[fieldCompleted])
	if micros, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		task.CreatedAt = time.UnixMicro(micros).UTC()
	}
	return task
}

func classify(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	}
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		msg := redisErr.Error()
		if strings.HasPrefix(msg, "NOAUTH") || strings.HasPrefix(msg, "NOPERM") || strings.HasPrefix(msg, "WRONGPASS") {
			return fmt.Errorf("%w: %w", repository.ErrPermission, err)
		}
		return err
	}
	if errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return err
}
