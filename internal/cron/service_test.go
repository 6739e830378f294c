package cron

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempStore(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "jobs.json")
}

func TestAddAndListJobs(t *testing.T) {
	s := NewService(tempStore(t))

	job, err := s.AddJob("hourly check", Schedule{Kind: "cron", Expr: "0 0 * * * *"}, Payload{Message: "check"})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if job.ID == "" || !job.Enabled {
		t.Errorf("job = %+v", job)
	}

	jobs := s.ListJobs()
	if len(jobs) != 1 || jobs[0].Name != "hourly check" {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestRemoveJob(t *testing.T) {
	s := NewService(tempStore(t))

	job, err := s.AddJob("temp", Schedule{Kind: "cron", Expr: "0 0 * * * *"}, Payload{})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if !s.RemoveJob(job.ID) {
		t.Fatal("RemoveJob returned false")
	}
	if len(s.ListJobs()) != 0 {
		t.Error("job still listed after removal")
	}
	if s.RemoveJob("nonexistent") {
		t.Error("RemoveJob returned true for unknown id")
	}
}

func TestJobsPersistAcrossRestart(t *testing.T) {
	store := tempStore(t)

	s1 := NewService(store)
	if _, err := s1.AddJob("persisted", Schedule{Kind: "cron", Expr: "0 0 * * * *"}, Payload{Message: "hi"}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	s2 := NewService(store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s2.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s2.Stop()

	jobs := s2.ListJobs()
	if len(jobs) != 1 || jobs[0].Name != "persisted" || jobs[0].Payload.Message != "hi" {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestLoadMissingStore(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "absent", "jobs.json"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start with missing store: %v", err)
	}
	s.Stop()
}

func TestExecuteJobUpdatesState(t *testing.T) {
	store := tempStore(t)
	s := NewService(store)

	job, err := s.AddJob("check", Schedule{Kind: "cron", Expr: "0 0 * * * *"}, Payload{})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	s.OnJob = func(j Job) error { return nil }
	s.executeJob(*job)

	jobs := s.ListJobs()
	if jobs[0].State.LastStatus != "ok" || jobs[0].State.LastRunAtMs == 0 {
		t.Errorf("state = %+v", jobs[0].State)
	}

	s.OnJob = func(j Job) error { return fmt.Errorf("handler failed") }
	s.executeJob(*job)

	jobs = s.ListJobs()
	if jobs[0].State.LastStatus != "error" || jobs[0].State.LastError != "handler failed" {
		t.Errorf("state = %+v", jobs[0].State)
	}

	// State changes reach the store
	if _, err := os.Stat(store); err != nil {
		t.Errorf("store not written: %v", err)
	}
}

func TestIntervalJobFires(t *testing.T) {
	s := NewService(tempStore(t))

	fired := make(chan Job, 10)
	s.OnJob = func(j Job) error {
		fired <- j
		return nil
	}

	if _, err := s.AddJob("fast", Schedule{Kind: "every", EveryMs: 500}, Payload{Message: "tick"}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case job := <-fired:
		if job.Payload.Message != "tick" {
			t.Errorf("job = %+v", job)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("interval job never fired")
	}
}

func TestNewJobDefaults(t *testing.T) {
	job := NewJob("check", Schedule{Kind: "cron", Expr: "0 0 * * * *"}, Payload{Message: "x"})
	if job.ID == "" {
		t.Error("missing id")
	}
	if !job.Enabled {
		t.Error("new jobs must start enabled")
	}
}
