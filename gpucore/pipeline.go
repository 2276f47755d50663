package gpucore

// PipelineHandle identifies an asynchronous compute pipeline request.
// Handles are issued by a PipelineCache and stay valid for its lifetime.
type PipelineHandle uint64

// PipelineStatus is the compilation status of a requested pipeline.
type PipelineStatus uint8

// Pipeline statuses.
const (
	// PipelineStatusPending means compilation has not finished yet.
	PipelineStatusPending PipelineStatus = iota

	// PipelineStatusReady means the pipeline can be dispatched.
	PipelineStatusReady

	// PipelineStatusFailed means compilation failed. The failure is final.
	PipelineStatusFailed
)

// String returns the string representation of PipelineStatus.
func (s PipelineStatus) String() string {
	switch s {
	case PipelineStatusPending:
		return "pending"
	case PipelineStatusReady:
		return "ready"
	case PipelineStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ComputePipelineRequest describes a compute pipeline to compile.
type ComputePipelineRequest struct {
	// Label is an optional debug label.
	Label string

	// ShaderName identifies the program source, e.g. "mandelbrot".
	ShaderName string

	// WGSL is the program source text.
	WGSL string

	// EntryPoint is the compute entry point to build the pipeline from.
	EntryPoint string

	// Layout is the group-0 bind group layout of the pipeline.
	Layout *BindGroupLayoutDesc
}

// PipelineCache compiles compute pipelines in the background.
//
// RequestCompute never blocks on compilation: it returns a handle
// immediately and completion is observed by polling PipelineStatus.
type PipelineCache interface {
	// RequestCompute queues a compilation and returns its handle.
	RequestCompute(req *ComputePipelineRequest) PipelineHandle

	// PipelineStatus reports the current status of h. Unknown handles
	// are reported as pending.
	PipelineStatus(h PipelineHandle) PipelineStatus

	// ComputePipeline returns the compiled pipeline when h is ready.
	ComputePipeline(h PipelineHandle) (ComputePipelineID, bool)

	// PipelineError returns the compilation error when h failed.
	PipelineError(h PipelineHandle) error
}
