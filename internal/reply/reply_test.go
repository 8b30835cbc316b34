package reply_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tmazur/personabot/internal/reply"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Three sentences",
			input:    "Hi there! How are you? I'm fine.",
			expected: []string{"Hi there!", "How are you?", "I'm fine."},
		},
		{
			name:     "Single sentence without trailing space",
			input:    "Just one sentence.",
			expected: []string{"Just one sentence."},
		},
		{
			name:     "No terminal punctuation",
			input:    "no punctuation at all",
			expected: []string{"no punctuation at all"},
		},
		{
			name:     "Stacked terminals split once",
			input:    "What?! Really.",
			expected: []string{"What?!", "Really."},
		},
		{
			name:     "Terminal without following space keeps going",
			input:    "v1.2 is out. Enjoy!",
			expected: []string{"v1.2 is out.", "Enjoy!"},
		},
		{
			name:     "Newline counts as boundary whitespace",
			input:    "First line.\nSecond line.",
			expected: []string{"First line.", "Second line."},
		},
		{
			name:     "Extra whitespace between sentences",
			input:    "One.   Two.",
			expected: []string{"One.", "Two."},
		},
		{
			name:     "Whitespace only",
			input:    "   \n\t ",
			expected: nil,
		},
		{
			name:     "Empty input",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := reply.Split(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Split(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPacerSend_DeliversAllChunks(t *testing.T) {
	t.Parallel()

	var sent []string
	pacer := reply.Pacer{Delay: 0}

	err := pacer.Send(context.Background(), []string{"one", "two", "three"}, func(_ context.Context, chunk string) error {
		sent = append(sent, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if want := []string{"one", "two", "three"}; !reflect.DeepEqual(sent, want) {
		t.Errorf("sent = %v, want %v", sent, want)
	}
}

func TestPacerSend_StopsOnSendError(t *testing.T) {
	t.Parallel()

	sendErr := errors.New("network down")
	var calls int
	pacer := reply.Pacer{Delay: 0}

	err := pacer.Send(context.Background(), []string{"one", "two", "three"}, func(_ context.Context, _ string) error {
		calls++
		if calls == 2 {
			return sendErr
		}
		return nil
	})
	if !errors.Is(err, sendErr) {
		t.Fatalf("Send() error = %v, want %v", err, sendErr)
	}
	if calls != 2 {
		t.Errorf("send calls = %d, want 2", calls)
	}
}

func TestPacerSend_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	pacer := reply.Pacer{Delay: time.Hour}

	var calls int
	errCh := make(chan error, 1)
	go func() {
		errCh <- pacer.Send(ctx, []string{"one", "two"}, func(_ context.Context, _ string) error {
			calls++
			return nil
		})
	}()

	// Let the first chunk through, then cancel during the pause.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Send() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Send() did not return after context cancellation")
	}
	if calls != 1 {
		t.Errorf("send calls = %d, want 1", calls)
	}
}
