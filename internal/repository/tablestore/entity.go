package tablestore

import (
	"encoding/json"
	"time"

	"todo-board/internal/model"
)

const (
	partitionKey = "todos"

	edmBoolean  = "Edm.Boolean"
	edmDateTime = "Edm.DateTime"
)

// entity holds the table keys.
type entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

// todoEntity is a task as stored in the table.
type todoEntity struct {
	entity
	Title         string `json:"Title"`
	Description   string `json:"Description"`
	Deadline      string `json:"Deadline"`
	Completed     bool   `json:"Completed"`
	CompletedType string `json:"Completed@odata.type,omitempty"`
	CreatedAt     string `json:"CreatedAt"`
	CreatedAtType string `json:"CreatedAt@odata.type,omitempty"`
}

// todoUpdate carries the fields of a merge.
type todoUpdate struct {
	entity
	Title         *string `json:"Title,omitempty"`
	Description   *string `json:"Description,omitempty"`
	Deadline      *string `json:"Deadline,omitempty"`
	Completed     *bool   `json:"Completed,omitempty"`
	CompletedType *string `json:"Completed@odata.type,omitempty"`
}

func newTodoEntity(id string, input model.TaskInput, createdAt time.Time) todoEntity {
	ent := todoEntity{
		entity:        entity{PartitionKey: partitionKey, RowKey: id},
		Title:         input.Title,
		Description:   input.Description,
		Deadline:      input.Deadline,
		CompletedType: edmBoolean,
		CreatedAt:     formatTimestamp(createdAt),
		CreatedAtType: edmDateTime,
	}
	if input.Completed != nil {
		ent.Completed = *input.Completed
	}
	return ent
}

func newTodoUpdate(id string, patch model.TaskPatch) todoUpdate {
	upd := todoUpdate{
		entity:      entity{PartitionKey: partitionKey, RowKey: id},
		Title:       patch.Title,
		Description: patch.Description,
		Deadline:    patch.Deadline,
		Completed:   patch.Completed,
	}
	if patch.Completed != nil {
		t := edmBoolean
		upd.CompletedType = &t
	}
	return upd
}

func decodeTask(data []byte) (model.Task, error) {
	var ent todoEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return model.Task{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ent.CreatedAt)
	if err != nil {
		return model.Task{}, err
	}
	return model.Task{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		Deadline:    ent.Deadline,
		Completed:   ent.Completed,
		CreatedAt:   createdAt,
	}, nil
}

// formatTimestamp truncates to microseconds, the precision the table keeps.
func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Microsecond).Format("2006-01-02T15:04:05.000000Z")
}
