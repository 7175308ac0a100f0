package inspect_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modhub/repoindex/internal/inspect"
	"github.com/modhub/repoindex/internal/inspect/inspecttest"
)

func TestWithTimeout_SlowCallFails(t *testing.T) {
	fake := inspecttest.NewFake().Block("example/slow")
	i := inspect.WithTimeout(fake, 20*time.Millisecond)

	start := time.Now()
	_, err := i.Inspect(context.Background(), "example/slow")
	if !errors.Is(err, inspect.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestWithTimeout_IgnoredContextStillBounded(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stubborn := inspect.InspectorFunc(func(context.Context, string) (*inspect.Image, error) {
		<-release
		return &inspect.Image{}, nil
	})

	_, err := inspect.WithTimeout(stubborn, 20*time.Millisecond).Inspect(context.Background(), "x")
	if !errors.Is(err, inspect.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestWithTimeout_FastCallPasses(t *testing.T) {
	fake := inspecttest.NewFake().AddRepo("example/fast", "1.0.0")
	img, err := inspect.WithTimeout(fake, time.Second).Inspect(context.Background(), "example/fast")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(img.RepoTags) != 1 {
		t.Errorf("RepoTags = %v", img.RepoTags)
	}
}

func TestWithRetry_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	flaky := inspect.InspectorFunc(func(context.Context, string) (*inspect.Image, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("connection reset by peer")
		}
		return &inspect.Image{RepoTags: []string{"1.0.0"}}, nil
	})

	img, err := inspect.WithRetry(flaky, 3, time.Millisecond, nil).Inspect(context.Background(), "example/flaky")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	if len(img.RepoTags) != 1 {
		t.Errorf("RepoTags = %v", img.RepoTags)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	var calls atomic.Int32
	broken := inspect.InspectorFunc(func(context.Context, string) (*inspect.Image, error) {
		calls.Add(1)
		return nil, errors.New("registry unavailable")
	})

	_, err := inspect.WithRetry(broken, 2, time.Millisecond, nil).Inspect(context.Background(), "example/down")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", got)
	}
}

func TestWithRetry_PermanentErrorsNotRetried(t *testing.T) {
	for _, permanent := range []error{inspect.ErrToolNotFound, inspect.ErrMalformedOutput, inspect.ErrNotFound} {
		t.Run(permanent.Error(), func(t *testing.T) {
			var calls atomic.Int32
			i := inspect.InspectorFunc(func(context.Context, string) (*inspect.Image, error) {
				calls.Add(1)
				return nil, permanent
			})
			_, err := inspect.WithRetry(i, 5, time.Millisecond, nil).Inspect(context.Background(), "x")
			if !errors.Is(err, permanent) {
				t.Errorf("err = %v, want %v", err, permanent)
			}
			if got := calls.Load(); got != 1 {
				t.Errorf("calls = %d, want 1", got)
			}
		})
	}
}

func TestWithRetry_RetriesTimeouts(t *testing.T) {
	fake := inspecttest.NewFake().Block("example/slow")
	i := inspect.WithRetry(inspect.WithTimeout(fake, 5*time.Millisecond), 1, time.Millisecond, nil)

	_, err := i.Inspect(context.Background(), "example/slow")
	if !errors.Is(err, inspect.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if got := len(fake.Calls()); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := inspect.New("crane", inspect.Options{}).Inspect(context.Background(), "x")
	if !errors.Is(err, inspect.ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestNew_Kinds(t *testing.T) {
	if _, ok := inspect.New(inspect.KindSkopeo, inspect.Options{}).(*inspect.Skopeo); !ok {
		t.Error("New(skopeo) without decorators should return *Skopeo")
	}
	if _, ok := inspect.New(inspect.KindOCI, inspect.Options{}).(*inspect.OCI); !ok {
		t.Error("New(oci) without decorators should return *OCI")
	}
}

func TestTagged(t *testing.T) {
	if got := inspect.Tagged("ghcr.io/example/mail", "1.2.0"); got != "ghcr.io/example/mail:1.2.0" {
		t.Errorf("Tagged = %q", got)
	}
}
