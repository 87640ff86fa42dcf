package regressor

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig describes an exported ONNX regression graph.
type ONNXConfig struct {
	// SharedLibrary is the path to the onnxruntime shared library. Empty uses
	// the platform default lookup.
	SharedLibrary string
	InputName     string
	OutputName    string
	Width         int
}

var ortEnv struct {
	sync.Mutex
	ready bool
}

func initRuntime(lib string) error {
	ortEnv.Lock()
	defer ortEnv.Unlock()
	if ortEnv.ready || ort.IsInitialized() {
		ortEnv.ready = true
		return nil
	}
	if lib != "" {
		ort.SetSharedLibraryPath(lib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	ortEnv.ready = true
	return nil
}

// ONNXModel runs a float32 [1, Width] -> [1, 1] graph. Each Predict call uses
// its own tensors so the session can be shared across goroutines.
type ONNXModel struct {
	session *ort.DynamicAdvancedSession
	width   int
}

// NewONNXModel creates a session from the serialized graph.
func NewONNXModel(graph []byte, cfg ONNXConfig) (*ONNXModel, error) {
	if cfg.Width <= 0 {
		return nil, fmt.Errorf("onnx model width must be positive")
	}
	if cfg.InputName == "" || cfg.OutputName == "" {
		return nil, fmt.Errorf("onnx model input and output names are required")
	}
	if err := initRuntime(cfg.SharedLibrary); err != nil {
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSessionWithONNXData(graph,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &ONNXModel{session: session, width: cfg.Width}, nil
}

func (m *ONNXModel) Predict(features []float64) (float64, error) {
	if err := checkShape(features, m.width); err != nil {
		return 0, err
	}
	data := make([]float32, m.width)
	for i, f := range features {
		data[i] = float32(f)
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(m.width)), data)
	if err != nil {
		return 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return 0, fmt.Errorf("run onnx session: %w", err)
	}
	out := output.GetData()
	if len(out) != 1 {
		return 0, fmt.Errorf("%w: model returned %d outputs", ErrShape, len(out))
	}
	return float64(out[0]), nil
}

// Close releases the session. The shared runtime environment stays up for the
// life of the process.
func (m *ONNXModel) Close() error {
	return m.session.Destroy()
}
