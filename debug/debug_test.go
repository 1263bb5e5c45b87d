package debug

import (
	"errors"
	"io"
	"os"
	"testing"
)

// captureStderr swaps os.Stderr for a pipe while fn runs.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	fn()
	_ = w.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	return string(out)
}

func TestDropError_WithError(t *testing.T) {
	got := captureStderr(t, func() {
		DropError("pin coordinator", errors.New("operation not permitted"))
	})
	if want := "pin coordinator: operation not permitted\n"; got != want {
		t.Errorf("DropError output = %q, want %q", got, want)
	}
}

func TestDropError_NilError(t *testing.T) {
	got := captureStderr(t, func() {
		DropError("[run] aborted", nil)
	})
	if want := "[run] aborted\n"; got != want {
		t.Errorf("DropError output = %q, want %q", got, want)
	}
}

func TestDropMessage(t *testing.T) {
	got := captureStderr(t, func() {
		DropMessage("kfetch", "device not present")
	})
	if want := "kfetch: device not present\n"; got != want {
		t.Errorf("DropMessage output = %q, want %q", got, want)
	}
}
