package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := ValidationError("payload text must not be empty")
	if !errors.Is(err, ErrValidation) {
		t.Error("expected a built validation error to match the sentinel")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("expected codes not to cross-match")
	}
}

func TestAppError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFoundError("conversation"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected sentinel match through fmt.Errorf wrapping")
	}
}

func TestInternalError_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := InternalError(cause)
	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable via Unwrap")
	}
}

func TestTransitionError_Message(t *testing.T) {
	err := TransitionError("read", "sent")
	if err.Code != CodeInvalidTransition {
		t.Errorf("expected code %s, got %s", CodeInvalidTransition, err.Code)
	}
	want := "cannot transition from read to sent"
	if err.Message != want {
		t.Errorf("expected message %q, got %q", want, err.Message)
	}
}

func TestTimeoutError_MatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := TimeoutError("transport send", cause)
	if !errors.Is(err, ErrTimeout) {
		t.Error("expected timeout sentinel match")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be wrapped")
	}
}
