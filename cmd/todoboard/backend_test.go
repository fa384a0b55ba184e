package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"

	"todo-board/internal/config"
	"todo-board/internal/model"
	"todo-board/internal/repository"
)

func TestOpenBackendDrivers(t *testing.T) {
	mr := miniredis.RunT(t)
	log, _ := test.NewNullLogger()

	tests := []struct {
		name string
		cfg  config.StoreConfig
	}{
		{"memory", config.StoreConfig{Driver: config.DriverMemory}},
		{"sqlite", config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "todos.db"), Collection: "todos"}},
		{"redis", config.StoreConfig{Driver: config.DriverRedis, RedisURL: "redis://" + mr.Addr() + "/0", Collection: "todos"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend, err := openBackend(ctx, tt.cfg, true, log)
			if err != nil {
				t.Fatalf("openBackend: %v", err)
			}
			repo := repository.NewTaskRepository(backend)
			defer repo.Close(ctx)

			id, err := repo.Create(ctx, model.TaskInput{Title: "Buy milk", Deadline: "2024-03-05"})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			tasks, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(tasks) != 1 || tasks[0].ID != id {
				t.Fatalf("tasks = %+v", tasks)
			}
		})
	}
}

func TestOpenBackendUnknownDriver(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := openBackend(context.Background(), config.StoreConfig{Driver: "postgres"}, false, log)
	if !errors.Is(err, config.ErrUnknownDriver) {
		t.Fatalf("err = %v, want ErrUnknownDriver", err)
	}
}

func TestDigestCommand(t *testing.T) {
	chdir(t, t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"digest", "--driver", "memory", "--log-level", "error"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.String(); !strings.HasPrefix(got, "Deadline digest for") {
		t.Errorf("output = %q", got)
	}
}

func TestBotCommandRequiresToken(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv(config.EnvTelegramToken, "")

	root := newRootCmd()
	root.SetArgs([]string{"bot", "--driver", "memory", "--log-level", "error"})
	root.SetErr(&bytes.Buffer{})

	err := root.ExecuteContext(context.Background())
	if !errors.Is(err, config.ErrMissingValue) {
		t.Fatalf("err = %v, want ErrMissingValue", err)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
