package computegrid

import (
	"errors"
	"fmt"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/internal/bind"
	"github.com/gogpu/computegrid/internal/lifecycle"
	"github.com/gogpu/computegrid/shader"
)

// Orchestrator errors.
var (
	// ErrNilAdapter is returned by New without a GPU adapter.
	ErrNilAdapter = errors.New("computegrid: adapter is nil")

	// ErrNilCache is returned by New without a pipeline cache.
	ErrNilCache = errors.New("computegrid: pipeline cache is nil")

	// ErrNilSurfaces is returned by New without a surface provider.
	ErrNilSurfaces = errors.New("computegrid: surface provider is nil")

	// ErrNoCompute is returned by New when the adapter cannot run compute shaders.
	ErrNoCompute = errors.New("computegrid: adapter does not support compute")

	// ErrWorkgroupSize is returned by New when the workgroup size is not
	// supported by the adapter.
	ErrWorkgroupSize = errors.New("computegrid: unsupported workgroup size")

	// ErrInvalidSurface is returned by SetSurface for a zero ID, an empty
	// size or a size the adapter cannot dispatch.
	ErrInvalidSurface = errors.New("computegrid: invalid surface")

	// ErrSurfaceImmutable is returned by SetSurface when the size or
	// program of a known surface changes. Remove the surface first.
	ErrSurfaceImmutable = errors.New("computegrid: surface size and program are fixed")

	// ErrUnknownSurface is returned by SetParams for a surface never set.
	ErrUnknownSurface = errors.New("computegrid: unknown surface")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("computegrid: orchestrator closed")
)

// Errors a Failure may wrap.
var (
	// ErrPipelineFailed is wrapped by compile failures.
	ErrPipelineFailed = lifecycle.ErrPipelineFailed

	// ErrLayoutMismatch is wrapped when a program's group 0 does not match
	// the surface binding layout.
	ErrLayoutMismatch = bind.ErrLayoutMismatch

	// ErrEntryPointMissing is wrapped when a program lacks init or update.
	ErrEntryPointMissing = bind.ErrEntryPointMissing

	// ErrWorkgroupMismatch is wrapped when a program's workgroup size
	// differs from the orchestrator's.
	ErrWorkgroupMismatch = bind.ErrWorkgroupMismatch

	// ErrProgramInvalid is wrapped when naga cannot parse or lower a
	// program, or two of its resources share a binding slot.
	ErrProgramInvalid = shader.ErrReflect
)

// LayoutMismatchError describes the binding slot a program got wrong.
type LayoutMismatchError = bind.LayoutMismatchError

// FailureKind classifies a Failure.
type FailureKind uint8

// Failure kinds.
const (
	// FailureCompile is a pipeline that failed to compile. The surface
	// stays failed.
	FailureCompile FailureKind = iota + 1

	// FailureLayout is a program that naga cannot reflect or that does
	// not fit the binding layout, entry points or workgroup size. The
	// surface stays failed.
	FailureLayout

	// FailureBind is a device error while building bind resources. The
	// surface is skipped for the frame and retried.
	FailureBind
)

// String returns the string representation of FailureKind.
func (k FailureKind) String() string {
	switch k {
	case FailureCompile:
		return "compile"
	case FailureLayout:
		return "layout"
	case FailureBind:
		return "bind"
	default:
		return fmt.Sprintf("FailureKind(%d)", uint8(k))
	}
}

// Permanent reports whether the surface never recovers from the failure.
func (k FailureKind) Permanent() bool {
	return k == FailureCompile || k == FailureLayout
}

// Failure reports a surface that could not be dispatched.
type Failure struct {
	Surface gpucore.SurfaceID
	Kind    FailureKind

	// EntryPoint is the pipeline that failed, for FailureCompile.
	EntryPoint string

	Err error
}

func (f *Failure) Error() string {
	if f.EntryPoint != "" {
		return fmt.Sprintf("computegrid: %v: %v failure in %q: %v", f.Surface, f.Kind, f.EntryPoint, f.Err)
	}
	return fmt.Sprintf("computegrid: %v: %v failure: %v", f.Surface, f.Kind, f.Err)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Reporter receives failures. It is called from Frame and must not call
// back into the orchestrator's Frame or Close.
type Reporter func(*Failure)
