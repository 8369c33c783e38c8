package pacer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTicketWaitContext(t *testing.T) {
	t.Parallel()
	tk := newTicket()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := tk.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait err = %v, want deadline exceeded", err)
	}

	// A ctx error does not settle the ticket.
	select {
	case <-tk.Done():
		t.Fatal("ticket must stay unresolved")
	default:
	}

	tk.resolve(42, nil)
	v, err := tk.Wait(context.Background())
	if err != nil || v != 42 {
		t.Fatalf("Wait = (%v, %v), want (42, nil)", v, err)
	}
	if tk.Value() != 42 || tk.Err() != nil {
		t.Fatalf("Value/Err = (%v, %v)", tk.Value(), tk.Err())
	}
}
