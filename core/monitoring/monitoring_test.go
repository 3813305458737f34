package monitoring

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	errs   []error
	tags   []map[string]string
	panics []any
	done   chan struct{}
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}

func (r *recorder) CapturePanic(v any) {
	r.mu.Lock()
	r.panics = append(r.panics, v)
	r.mu.Unlock()
	close(r.done)
}

func (r *recorder) Flush(time.Duration) {}

func TestCaptureAndGo(t *testing.T) {
	rec := &recorder{done: make(chan struct{})}
	Init(rec)
	defer Init(NopMonitor{})

	CaptureException(nil, nil)
	CaptureException(errors.New("disk full"), map[string]string{"op": "save"})
	if len(rec.errs) != 1 || rec.tags[0]["op"] != "save" {
		t.Fatalf("unexpected captures: %v %v", rec.errs, rec.tags)
	}

	Go("crawl", func() { panic("boom") })
	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("panic not captured")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if err, ok := rec.panics[0].(error); !ok || !strings.Contains(err.Error(), "crawl: panic: boom") {
		t.Fatalf("unexpected panic report: %v", rec.panics[0])
	}
}
