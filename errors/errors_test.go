package errors

import (
	"errors"
	"testing"
)

func TestErrorMessageFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindInvalidData,
				Path:   []string{"code", "consts", "3"},
				Detail: "unknown tag byte",
			},
			contains: []string{"[decode]", "invalid_data", "code.consts.3", "unknown tag byte"},
		},
		{
			name: "minimal error",
			err:  &Error{Phase: PhaseGC, Kind: KindAllocation},
			contains: []string{"[gc]", "allocation"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseImport,
				Kind:   KindUnhandled,
				Detail: "loader failed",
				Cause:  errors.New("file not found"),
			},
			contains: []string{"[import]", "unhandled_exception", "loader failed", "caused by", "file not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Phase: PhaseDecode, Kind: KindInvalidData, Cause: cause}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestIsMatchesPhaseAndKind(t *testing.T) {
	err := &Error{Phase: PhaseDecode, Kind: KindInvalidData, Path: []string{"foo"}}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindInvalidData}) {
		t.Error("Is should match same phase and kind regardless of path")
	}
	if err.Is(&Error{Phase: PhaseGC, Kind: KindInvalidData}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseDecode, Kind: KindInvalidData}
	if !errors.Is(err, target) {
		t.Error("errors.Is should delegate to Error.Is")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseInterp, KindRecursion).
		Path("thread", "frame").
		Cause(cause).
		Detail("exceeded %d frames", 1000).
		Build()

	if err.Phase != PhaseInterp {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseInterp)
	}
	if err.Kind != KindRecursion {
		t.Errorf("Kind = %v, want %v", err.Kind, KindRecursion)
	}
	if len(err.Path) != 2 || err.Path[0] != "thread" || err.Path[1] != "frame" {
		t.Errorf("Path = %v, want [thread frame]", err.Path)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "exceeded 1000 frames" {
		t.Errorf("Detail = %v, want 'exceeded 1000 frames'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("InvalidData", func(t *testing.T) {
		err := InvalidData(PhaseDecode, []string{"field"}, "bad tag")
		if err.Kind != KindInvalidData {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidData)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseInterp, []string{"locals"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if !containsSubstring(err.Detail, "10") || !containsSubstring(err.Detail, "5") {
			t.Errorf("Detail = %v, should mention both index and length", err.Detail)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseImport, "module", "os")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
	})

	t.Run("NotInitialized", func(t *testing.T) {
		err := NotInitialized(PhaseGC, "root provider")
		if err.Kind != KindNotInitialized {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotInitialized)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseInterp, "complex division")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseGC, 1024, 512)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !containsSubstring(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseInterp, "small int promotion")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("bad read")
		err := Wrap(PhaseDecode, KindInvalidData, cause, "decoding header")
		if !errors.Is(err, cause) {
			t.Errorf("Wrap should chain to cause")
		}
	})

	t.Run("Unhandled", func(t *testing.T) {
		err := Unhandled(PhaseInterp, "uncaught exception propagated to Call")
		if err.Kind != KindUnhandled {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnhandled)
		}
	})
}

func containsSubstring(s, substr string) bool {
	if substr == "" {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
