package shader

import (
	"errors"
	"testing"
)

func TestCompileSPIRVInvalidSource(t *testing.T) {
	_, err := CompileSPIRV("this is not wgsl {")
	if err == nil {
		t.Fatal("CompileSPIRV(invalid) error = nil")
	}
	if !errors.Is(err, ErrCompile) {
		t.Errorf("CompileSPIRV(invalid) error = %v, want ErrCompile", err)
	}
}
