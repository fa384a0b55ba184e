// Package mongostore keeps tasks in a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"todo-board/internal/model"
	"todo-board/internal/repository"
)

const unauthorizedCode = 13

type todoDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Deadline    string             `bson:"deadline"`
	Completed   bool               `bson:"completed"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d todoDocument) task() model.Task {
	return model.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Deadline:    d.Deadline,
		Completed:   d.Completed,
		CreatedAt:   d.CreatedAt,
	}
}

// Store implements repository.Backend on a mongo collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to uri and selects database.collection.
func Open(ctx context.Context, uri, database, collection string) (*Store, error) {
	if database == "" {
		database = "todo_board"
	}
	if collection == "" {
		collection = repository.DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", classify(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", classify(err))
	}
	return &Store{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", classify(err))
	}
	defer cur.Close(ctx)

	var docs []todoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list tasks: %w", classify(err))
	}
	tasks := make([]model.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, doc.task())
	}
	return tasks, nil
}

// Insert upserts a fresh document and lets the server stamp createdAt.
func (s *Store) Insert(ctx context.Context, input model.TaskInput) (string, error) {
	id := primitive.NewObjectID()
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		insertDocument(input),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return "", fmt.Errorf("create task: %w", classify(err))
	}
	return id.Hex(), nil
}

func (s *Store) Merge(ctx context.Context, id string, patch model.TaskPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, repository.ErrNotFound)
	}
	set := patchDocument(patch)
	if len(set) == 0 {
		return nil
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, classify(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update task %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete task %s: %w", id, classify(err))
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func insertDocument(input model.TaskInput) bson.M {
	completed := false
	if input.Completed != nil {
		completed = *input.Completed
	}
	return bson.M{
		"$set": bson.M{
			"title":       input.Title,
			"description": input.Description,
			"deadline":    input.Deadline,
			"completed":   completed,
		},
		"$currentDate": bson.M{"createdAt": true},
	}
}

func patchDocument(patch model.TaskPatch) bson.M {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Deadline != nil {
		set["deadline"] = *patch.Deadline
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	return set
}

func classify(err error) error {
	var serverErr mongo.ServerError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	case errors.As(err, &serverErr) && serverErr.HasErrorCode(unauthorizedCode):
		return fmt.Errorf("%w: %w", repository.ErrPermission, err)
	}
	return err
}
