/*
Package onnx runs models through ONNX Runtime using onnxruntime_go.

Initialize must be called once with the path to the onnxruntime shared
library before loading any Model.
*/
package onnx

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/swdee/go-scrfd/inference"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	// ErrNotInitialized is returned when loading a model before Initialize
	ErrNotInitialized = errors.New("onnx runtime not initialized, call Initialize() first")
	// ErrSessionClosed is returned when running on a closed session
	ErrSessionClosed = errors.New("session is closed")
)

var (
	initialized bool
	initMu      sync.Mutex
)

// Initialize loads the onnxruntime shared library and sets up the runtime
// environment.  Calling it again is a no-op.
func Initialize(sharedLibraryPath string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}

	if sharedLibraryPath != "" {
		ort.SetSharedLibraryPath(sharedLibraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	initialized = true
	return nil
}

// Shutdown destroys the runtime environment
func Shutdown() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return err
	}

	initialized = false
	return nil
}

// Options configures the sessions of a Model
type Options struct {
	// IntraOpThreads limits the threads used within an operator, zero leaves
	// the runtime default
	IntraOpThreads int
	// Aliases maps node names used by callers to the node names in the
	// graph, for exports whose outputs are numbered rather than named
	Aliases map[string]string
}

// Model is an inference.Model over an ONNX file
type Model struct {
	path string
	opts Options
}

// Load returns a Model for the ONNX file at path
func Load(path string, opts Options) (*Model, error) {

	initMu.Lock()
	ready := initialized
	initMu.Unlock()

	if !ready {
		return nil, ErrNotInitialized
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("error reading model file: %w", err)
	}

	return &Model{path: path, opts: opts}, nil
}

// NewSession returns a Session on the model.  The underlying runtime session
// is created on first Run as its input and output names are fixed then.
func (m *Model) NewSession() (inference.Session, error) {
	return &Session{model: m}, nil
}

// Close the model
func (m *Model) Close() error {
	return nil
}

// alias resolves a caller node name to the graph node name
func (m *Model) alias(name string) string {
	if a, ok := m.opts.Aliases[name]; ok {
		return a
	}

	return name
}

// Session wraps an ONNX Runtime session for one set of input and output
// names
type Session struct {
	mu      sync.Mutex
	model   *Model
	session *ort.DynamicAdvancedSession
	// key identifies the node names session was created for
	key    string
	closed bool
}

// open creates the runtime session for the given node names, replacing any
// session created for different names
func (s *Session) open(inputName string, outputNames []string) error {

	key := inputName + "|" + strings.Join(outputNames, ",")

	if s.session != nil && s.key == key {
		return nil
	}

	if s.session != nil {
		_ = s.session.Destroy()
		s.session = nil
	}

	options, err := ort.NewSessionOptions()

	if err != nil {
		return fmt.Errorf("failed to create session options: %w", err)
	}

	defer options.Destroy()

	if s.model.opts.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(s.model.opts.IntraOpThreads); err != nil {
			return fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	outputs := make([]string, len(outputNames))

	for i, name := range outputNames {
		outputs[i] = s.model.alias(name)
	}

	session, err := ort.NewDynamicAdvancedSession(s.model.path,
		[]string{s.model.alias(inputName)}, outputs, options)

	if err != nil {
		return fmt.Errorf("failed to create session for %s: %w", s.model.path, err)
	}

	s.session = session
	s.key = key

	return nil
}

// Run executes inference with a 1 x C x H x W input tensor
func (s *Session) Run(inputName string, input inference.Tensor,
	outputNames []string) ([]inference.Tensor, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	if err := s.open(inputName, outputNames); err != nil {
		return nil, err
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(input.C), int64(input.H),
		int64(input.W)), input.Data)

	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	defer in.Destroy()

	// nil outputs are allocated by the runtime
	outs := make([]ort.Value, len(outputNames))

	if err := s.session.Run([]ort.Value{in}, outs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	defer func() {
		for _, o := range outs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	results := make([]inference.Tensor, len(outs))

	for i, o := range outs {
		t, ok := o.(*ort.Tensor[float32])

		if !ok {
			return nil, fmt.Errorf("%w: output %s is not a float32 tensor",
				inference.ErrTensorShape, outputNames[i])
		}

		data := t.GetData()
		buf := make([]float32, len(data))
		copy(buf, data)

		results[i], err = inference.FromShape(t.GetShape(), buf)

		if err != nil {
			return nil, fmt.Errorf("output %s: %w", outputNames[i], err)
		}
	}

	return results, nil
}

// Close destroys the runtime session
func (s *Session) Close() error {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if s.session == nil {
		return nil
	}

	return s.session.Destroy()
}
