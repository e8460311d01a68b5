package connection

import (
	"context"
	"testing"
	"time"
)

func TestTaskQueue_FIFO(t *testing.T) {
	q := newTaskQueue()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		q.push(func() { got = append(got, i) })
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		task, ok := q.pop(ctx)
		if !ok {
			t.Fatalf("pop() ok = false at %d", i)
		}
		task()
	}

	for i, v := range got {
		if v != i {
			t.Errorf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestTaskQueue_PopBlocksUntilPush(t *testing.T) {
	q := newTaskQueue()
	done := make(chan struct{})

	go func() {
		task, ok := q.pop(context.Background())
		if ok {
			task()
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.push(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task not run after push")
	}
}

func TestTaskQueue_PopCanceled(t *testing.T) {
	q := newTaskQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := q.pop(ctx); ok {
		t.Error("pop() on canceled context ok = true, want false")
	}
}

func TestTaskQueue_Closed(t *testing.T) {
	q := newTaskQueue()
	q.push(func() {})
	q.close()

	if q.push(func() {}) {
		t.Error("push() after close = true, want false")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, ok := q.pop(ctx); ok {
		t.Error("pop() after close returned a dropped task")
	}
}

func TestTaskQueue_CloseWakesPop(t *testing.T) {
	q := newTaskQueue()
	done := make(chan bool, 1)

	go func() {
		_, ok := q.pop(context.Background())
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.close()

	select {
	case ok := <-done:
		if ok {
			t.Error("pop() after close ok = true, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("pop() still blocked after close")
	}
}
