package gpuarena

import (
	"testing"
	"time"
)

func TestDrainRunsJobsInFIFOOrder(t *testing.T) {
	a := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		a.Dispatch(func(GPUState) { order = append(order, i) })
	}
	a.Drain(time.Second)

	if len(order) != 5 {
		t.Fatalf("expected 5 jobs run, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("jobs ran out of FIFO order: %v", order)
		}
	}
	if a.Len() != 0 {
		t.Fatalf("expected empty queue after drain, got %d", a.Len())
	}
}

func TestDrainStopsAtTimeSlice(t *testing.T) {
	a := New()
	for i := 0; i < 100; i++ {
		a.Dispatch(func(GPUState) { time.Sleep(time.Millisecond) })
	}
	a.Drain(5 * time.Millisecond)

	if a.Len() == 0 {
		t.Fatal("expected jobs still queued after a short time slice")
	}
}

func TestAbandonSkipsExecution(t *testing.T) {
	a := New()
	ran := false
	ticket := a.Dispatch(func(GPUState) { ran = true })
	ticket.Abandon()

	a.Drain(time.Second)

	if ran {
		t.Fatal("abandoned job should not run")
	}
	if !ticket.Done() {
		t.Fatal("abandoned ticket should report done")
	}
}

func TestWaitUnblocksAfterRun(t *testing.T) {
	a := New()
	ticket := a.Dispatch(func(GPUState) {})
	go a.Drain(time.Second)
	ticket.Wait()
	if !ticket.Done() {
		t.Fatal("ticket should be done after Wait returns")
	}
}
