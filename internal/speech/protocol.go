package speech

// JSON-RPC 2.0 protocol types for the external speech service

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"` // Always "2.0"
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"` // Always "2.0"
	ID      int         `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Speech service JSON-RPC methods
const (
	MethodDescribe   = "speech/describe"
	MethodRecognize  = "speech/recognize"
	MethodSynthesize = "speech/synthesize"
	MethodCancel     = "speech/cancel"
)

// Service error codes, mapped onto the bridge's sentinel errors.
const (
	CodePermissionDenied  = -32001
	CodeRecognitionFailed = -32002
	CodeCancelled         = -32003
)

// Cancel targets
const (
	TargetRecognition = "recognition"
	TargetSynthesis   = "synthesis"
)

// DescribeResult reports the service's capabilities.
type DescribeResult struct {
	ServiceName string  `json:"serviceName"`
	Version     string  `json:"version"`
	Support     Support `json:"support"`
}

// RecognizeResult carries a completed transcription.
type RecognizeResult struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence,omitempty"`
}

// SynthesizeParams asks the service to vocalize text.
type SynthesizeParams struct {
	Text   string  `json:"text"`
	Rate   float64 `json:"rate,omitempty"`
	Pitch  float64 `json:"pitch,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

// SynthesizeResult reports finished playback.
type SynthesizeResult struct {
	Done bool `json:"done"`
}

// CancelParams names which in-flight operation to cancel.
type CancelParams struct {
	Target string `json:"target"`
}
