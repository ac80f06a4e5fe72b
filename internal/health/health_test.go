package health

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry(0)
	healthy, statuses := r.CheckAll(context.Background())
	if !healthy {
		t.Fatal("empty registry should be healthy")
	}
	if len(statuses) != 0 {
		t.Fatalf("expected 0 statuses, got %d", len(statuses))
	}
}

func TestRegistryAllHealthy(t *testing.T) {
	r := NewRegistry(time.Second)
	r.Register("forensiq", func(_ context.Context) Status {
		return Status{Name: "forensiq", Healthy: true}
	})
	r.Register("pool", func(_ context.Context) Status {
		return Status{Healthy: true, Detail: "ok"}
	})

	healthy, statuses := r.CheckAll(context.Background())
	if !healthy {
		t.Fatal("all-healthy registry should report healthy")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[1].Name != "pool" {
		t.Fatalf("expected blank name to default to registered name, got %q", statuses[1].Name)
	}
}

func TestRegistryOneUnhealthy(t *testing.T) {
	r := NewRegistry(time.Second)
	r.Register("pool", func(_ context.Context) Status {
		return Status{Name: "pool", Healthy: true}
	})
	r.Register("forensiq", func(_ context.Context) Status {
		return Status{Name: "forensiq", Healthy: false, Detail: "circuit open"}
	})

	healthy, statuses := r.CheckAll(context.Background())
	if healthy {
		t.Fatal("registry with unhealthy checker should report unhealthy")
	}
	if statuses[1].Detail != "circuit open" {
		t.Fatalf("expected detail 'circuit open', got %q", statuses[1].Detail)
	}
}

func TestRegistryTimeout(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	r.Register("slow", func(_ context.Context) Status {
		<-release
		return Status{Healthy: true}
	})

	start := time.Now()
	healthy, statuses := r.CheckAll(context.Background())
	if healthy {
		t.Fatal("timed-out checker should be unhealthy")
	}
	if statuses[0].Detail != "check timed out" {
		t.Fatalf("expected timeout detail, got %q", statuses[0].Detail)
	}
	if time.Since(start) > time.Second {
		t.Fatal("CheckAll should not wait for a stuck checker")
	}
}

func TestRegistryConcurrentRegisterAndCheck(t *testing.T) {
	r := NewRegistry(time.Second)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Register("checker", func(_ context.Context) Status {
				return Status{Name: "checker", Healthy: true}
			})
		}()
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.CheckAll(context.Background())
		}()
	}

	wg.Wait()
}
