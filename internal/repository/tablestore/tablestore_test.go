package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	"todo-board/internal/model"
	"todo-board/internal/repository"
)

func TestNewTodoEntityPayload(t *testing.T) {
	created := time.Date(2024, 3, 5, 9, 30, 0, 123456789, time.FixedZone("KST", 9*60*60))
	ent := newTodoEntity("abc", model.TaskInput{Title: "Buy milk", Deadline: "2024-03-05"}, created)

	data, err := json.Marshal(ent)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	want := map[string]interface{}{
		"PartitionKey":         "todos",
		"RowKey":               "abc",
		"Title":                "Buy milk",
		"Description":          "",
		"Deadline":             "2024-03-05",
		"Completed":            false,
		"Completed@odata.type": "Edm.Boolean",
		"CreatedAt":            "2024-03-05T00:30:00.123456Z",
		"CreatedAt@odata.type": "Edm.DateTime",
	}
	for key, value := range want {
		if raw[key] != value {
			t.Errorf("%s: expected %v, got %v", key, value, raw[key])
		}
	}
}

func TestNewTodoUpdateOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(newTodoUpdate("abc", model.TaskPatch{Deadline: model.Ptr("")}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := raw["Title"]; ok {
		t.Errorf("expected Title to be omitted")
	}
	if _, ok := raw["Completed@odata.type"]; ok {
		t.Errorf("expected Completed type to be omitted")
	}
	if v, ok := raw["Deadline"]; !ok || v != "" {
		t.Errorf("expected empty Deadline to be sent, got %v", v)
	}

	data, _ = json.Marshal(newTodoUpdate("abc", model.TaskPatch{Completed: model.Ptr(true)}))
	raw = map[string]interface{}{}
	json.Unmarshal(data, &raw)
	if raw["Completed@odata.type"] != "Edm.Boolean" || raw["Completed"] != true {
		t.Errorf("expected typed completed flag, got %v", raw)
	}
}

func TestDecodeTask(t *testing.T) {
	raw := []byte(`{"PartitionKey":"todos","RowKey":"r1","Title":"Pay rent","Description":"by card","Deadline":"2024-04-01","Completed":true,"CreatedAt":"2024-03-05T00:30:00.123456Z","Timestamp":"2024-03-05T00:30:01Z"}`)
	task, err := decodeTask(raw)
	if err != nil {
		t.Fatalf("decodeTask failed: %v", err)
	}
	want := model.Task{
		ID:          "r1",
		Title:       "Pay rent",
		Description: "by card",
		Deadline:    "2024-04-01",
		Completed:   true,
		CreatedAt:   time.Date(2024, 3, 5, 0, 30, 0, 123456000, time.UTC),
	}
	if !task.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("expected created %v, got %v", want.CreatedAt, task.CreatedAt)
	}
	task.CreatedAt = want.CreatedAt
	if task != want {
		t.Errorf("expected %+v, got %+v", want, task)
	}

	if _, err := decodeTask([]byte(`{"RowKey":"r1","CreatedAt":"yesterday"}`)); err == nil {
		t.Errorf("expected error for bad timestamp")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, repository.ErrNotFound},
		{http.StatusForbidden, repository.ErrPermission},
		{http.StatusUnauthorized, repository.ErrPermission},
		{http.StatusBadRequest, repository.ErrInvalid},
		{http.StatusServiceUnavailable, repository.ErrUnavailable},
		{http.StatusTooManyRequests, repository.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := classify(&azcore.ResponseError{StatusCode: tt.status})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var respErr *azcore.ResponseError
			if !errors.As(err, &respErr) {
				t.Errorf("expected the response error to stay reachable")
			}
		})
	}

	plain := errors.New("boom")
	if classify(plain) != plain {
		t.Errorf("expected non-service errors to pass through")
	}
}

// unavailableTransport answers every request with 503.
type unavailableTransport struct {
	calls int
}

func (u *unavailableTransport) Do(req *http.Request) (*http.Response, error) {
	u.calls++
	return &http.Response{
		StatusCode: http.StatusServiceUnavailable,
		Status:     "503 Service Unavailable",
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func TestClientOptionsSendEachRequestOnce(t *testing.T) {
	transport := &unavailableTransport{}
	opts := clientOptions().ClientOptions
	opts.Transport = transport

	pl := runtime.NewPipeline("tablestore", "test", runtime.PipelineOptions{}, &opts)
	req, err := runtime.NewRequest(context.Background(), http.MethodGet, "https://account.table.core.windows.net/todos()")
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	resp, err := pl.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
	if transport.calls != 1 {
		t.Errorf("expected a single attempt, got %d", transport.calls)
	}
}
