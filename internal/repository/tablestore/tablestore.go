// Package tablestore keeps tasks in an Azure Storage table.
package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"todo-board/internal/model"
	"todo-board/internal/repository"
)

// Store implements repository.Backend on a single table partition.
type Store struct {
	table *aztables.Client
	now   func() time.Time
}

// Open connects to the table service and creates the table when missing.
func Open(ctx context.Context, connStr, tableName string) (*Store, error) {
	if tableName == "" {
		tableName = repository.DefaultCollection
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, clientOptions())
	if err != nil {
		return nil, fmt.Errorf("table client: %w", err)
	}
	client := svc.NewClient(tableName)
	if _, err := client.CreateTable(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return nil, fmt.Errorf("create table %s: %w", tableName, classify(err))
		}
	}
	return &Store{table: client, now: time.Now}, nil
}

// clientOptions disables the SDK retry policy: every store call is
// attempted once.
func clientOptions() *aztables.ClientOptions {
	return &aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries: -1,
				TryTimeout: 30 * time.Second,
			},
		},
	}
}

func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	filter := "PartitionKey eq '" + partitionKey + "'"
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []model.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", classify(err))
		}
		for _, raw := range resp.Entities {
			task, err := decodeTask(raw)
			if err != nil {
				return nil, fmt.Errorf("decode task: %w", err)
			}
			tasks = append(tasks, task)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *Store) Insert(ctx context.Context, input model.TaskInput) (string, error) {
	id := uuid.NewString()
	payload, err := json.Marshal(newTodoEntity(id, input, s.now()))
	if err != nil {
		return "", err
	}
	if _, err := s.table.AddEntity(ctx, payload, nil); err != nil {
		return "", fmt.Errorf("create task: %w", classify(err))
	}
	return id, nil
}

func (s *Store) Merge(ctx context.Context, id string, patch model.TaskPatch) error {
	payload, err := json.Marshal(newTodoUpdate(id, patch))
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, classify(err))
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.table.DeleteEntity(ctx, partitionKey, id, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("delete task %s: %w", id, classify(err))
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return nil
}

// classify attaches a repository sentinel to service errors.
func classify(err error) error {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	switch {
	case respErr.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	case respErr.StatusCode == http.StatusUnauthorized || respErr.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", repository.ErrPermission, err)
	case respErr.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %w", repository.ErrInvalid, err)
	case respErr.StatusCode == http.StatusRequestTimeout || respErr.StatusCode == http.StatusTooManyRequests || respErr.StatusCode >= 500:
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return err
}
