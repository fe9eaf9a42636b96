package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// --- Test helpers ---

type fakeChat struct {
	calls int
	last  openai.ChatCompletionRequest
	fn    func(ctx context.Context) (openai.ChatCompletionResponse, error)
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.last = req
	return f.fn(ctx)
}

func reply(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: text}}},
	}
}

// --- OpenAI ---

func TestOpenAI_Complete(t *testing.T) {
	fc := &fakeChat{fn: func(context.Context) (openai.ChatCompletionResponse, error) {
		return reply("  RequirementRefiner \n"), nil
	}}
	o := NewOpenAIWithClient(fc, "gpt-test", time.Second, 0.2)

	got, err := o.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "RequirementRefiner" {
		t.Errorf("Complete = %q", got)
	}
	if fc.last.Model != "gpt-test" {
		t.Errorf("model = %q", fc.last.Model)
	}
	if len(fc.last.Messages) != 2 || fc.last.Messages[0].Role != openai.ChatMessageRoleSystem || fc.last.Messages[1].Role != openai.ChatMessageRoleUser {
		t.Errorf("messages = %+v", fc.last.Messages)
	}
}

func TestOpenAI_Timeout(t *testing.T) {
	fc := &fakeChat{fn: func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		<-ctx.Done()
		return openai.ChatCompletionResponse{}, ctx.Err()
	}}
	o := NewOpenAIWithClient(fc, "slow", 10*time.Millisecond, 0)

	_, err := o.Complete(context.Background(), Prompt("hi"))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if !IsFailure(err) {
		t.Error("IsFailure(timeout) = false")
	}
}

func TestOpenAI_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		resp openai.ChatCompletionResponse
		err  error
	}{
		{"api error", openai.ChatCompletionResponse{}, &openai.APIError{Code: "rate_limit", Message: "slow down"}},
		{"no choices", openai.ChatCompletionResponse{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeChat{fn: func(context.Context) (openai.ChatCompletionResponse, error) { return tt.resp, tt.err }}
			_, err := NewOpenAIWithClient(fc, "m", 0, 0).Complete(context.Background(), Prompt("hi"))
			if !errors.Is(err, ErrProvider) {
				t.Errorf("err = %v, want ErrProvider", err)
			}
		})
	}
}

func TestNewOpenAI_RequiresModel(t *testing.T) {
	if _, err := NewOpenAI(OpenAIOptions{APIKey: "k"}); err == nil {
		t.Error("NewOpenAI without model: want error")
	}
	o, err := NewOpenAI(OpenAIOptions{APIKey: "k", BaseURL: "http://localhost:1234/v1", Model: "local"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	if o.Model() != "local" {
		t.Errorf("Model = %q", o.Model())
	}
}

// --- Chain ---

func TestChain_FallsBackAfterRetries(t *testing.T) {
	primaryCalls, fallbackCalls := 0, 0
	primary := Func(func(context.Context, []Message) (string, error) {
		primaryCalls++
		return "", ErrTimeout
	})
	fallback := Func(func(context.Context, []Message) (string, error) {
		fallbackCalls++
		return "from fallback", nil
	})

	c := NewChain(nil, 2, []Completer{primary, fallback}, "primary", "fallback")
	got, err := c.Complete(context.Background(), Prompt("x"))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "from fallback" {
		t.Errorf("got %q", got)
	}
	if primaryCalls != 3 || fallbackCalls != 1 {
		t.Errorf("calls primary=%d fallback=%d, want 3 and 1", primaryCalls, fallbackCalls)
	}
}

func TestChain_Exhausted(t *testing.T) {
	fail := Func(func(context.Context, []Message) (string, error) {
		return "", errors.New("boom")
	})
	_, err := NewChain(nil, 0, []Completer{fail, fail}).Complete(context.Background(), Prompt("x"))
	if !errors.Is(err, ErrProvider) {
		t.Errorf("err = %v, want ErrProvider", err)
	}
}

func TestChain_Empty(t *testing.T) {
	if _, err := NewChain(nil, 0, nil).Complete(context.Background(), Prompt("x")); !errors.Is(err, ErrProvider) {
		t.Errorf("err = %v, want ErrProvider", err)
	}
}

func TestChain_StopsOnCancelledContext(t *testing.T) {
	calls := 0
	fail := Func(func(context.Context, []Message) (string, error) {
		calls++
		return "", ErrTimeout
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewChain(nil, 3, []Completer{fail}).Complete(ctx, Prompt("x")); err == nil {
		t.Fatal("want error on cancelled context")
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestChain_ContextErrorKinds(t *testing.T) {
	never := Func(func(context.Context, []Message) (string, error) {
		t.Error("completer called with a finished context")
		return "", nil
	})

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		want    error
		wantNot error
	}{
		{"deadline passed", expired, ErrTimeout, ErrProvider},
		{"cancelled", cancelled, ErrProvider, ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChain(nil, 1, []Completer{never}).Complete(tt.ctx, Prompt("x"))
			if !errors.Is(err, tt.want) || errors.Is(err, tt.wantNot) {
				t.Errorf("err = %v, want %v and not %v", err, tt.want, tt.wantNot)
			}
			if !IsFailure(err) {
				t.Errorf("IsFailure(%v) = false", err)
			}
		})
	}
}
