/*
Package dnn runs models through the OpenCV DNN module using gocv.  Any format
gocv.ReadNet understands can be loaded, such as ONNX exports of the SCRFD
and 2d106det models.
*/
package dnn

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/swdee/go-scrfd/inference"
	"gocv.io/x/gocv"
)

var (
	// ErrModelEmpty is returned when OpenCV fails to load a network
	ErrModelEmpty = errors.New("network failed to load")
	// ErrSessionClosed is returned when running on a closed session
	ErrSessionClosed = errors.New("session is closed")
)

// Options sets the OpenCV backend and target device networks run on
type Options struct {
	Backend gocv.NetBackendType
	Target  gocv.NetTargetType
}

// DefaultOptions runs on the CPU with the default OpenCV backend
func DefaultOptions() Options {
	return Options{
		Backend: gocv.NetBackendDefault,
		Target:  gocv.NetTargetCPU,
	}
}

// Model is an inference.Model over a network file.  Each Session reads its
// own copy of the network as a gocv.Net can not run concurrent forward
// passes.
type Model struct {
	path   string
	config string
	opts   Options
}

// Load checks the network at path can be read and returns a Model for it.
// config is an optional network description file for formats that need one.
func Load(path, config string, opts Options) (*Model, error) {

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("error reading model file: %w", err)
	}

	m := &Model{path: path, config: config, opts: opts}

	// check the network parses before handing out sessions
	net, err := m.readNet()

	if err != nil {
		return nil, err
	}

	net.Close()

	return m, nil
}

// readNet reads a fresh copy of the network
func (m *Model) readNet() (gocv.Net, error) {

	net := gocv.ReadNet(m.path, m.config)

	if net.Empty() {
		net.Close()
		return gocv.Net{}, fmt.Errorf("%w: %s", ErrModelEmpty, m.path)
	}

	if err := net.SetPreferableBackend(m.opts.Backend); err != nil {
		net.Close()
		return gocv.Net{}, fmt.Errorf("error setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(m.opts.Target); err != nil {
		net.Close()
		return gocv.Net{}, fmt.Errorf("error setting target: %w", err)
	}

	return net, nil
}

// NewSession reads a network for exclusive use by the returned Session
func (m *Model) NewSession() (inference.Session, error) {

	net, err := m.readNet()

	if err != nil {
		return nil, err
	}

	return &Session{net: net}, nil
}

// Close the model.  Networks are owned by their Sessions so there is
// nothing to release.
func (m *Model) Close() error {
	return nil
}

// Session runs forward passes on a single gocv.Net
type Session struct {
	mu     sync.Mutex
	net    gocv.Net
	closed bool
}

// Run sets the input blob and forwards the network to the named outputs
func (s *Session) Run(inputName string, input inference.Tensor,
	outputNames []string) ([]inference.Tensor, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	blob, err := toBlob(input)

	if err != nil {
		return nil, err
	}

	defer blob.Close()

	s.net.SetInput(blob, inputName)

	mats := s.net.ForwardLayers(outputNames)

	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()

	if len(mats) != len(outputNames) {
		return nil, fmt.Errorf("%w: expected %d outputs, got %d",
			inference.ErrTensorShape, len(outputNames), len(mats))
	}

	outputs := make([]inference.Tensor, len(mats))

	for i, m := range mats {
		outputs[i], err = fromBlob(m)

		if err != nil {
			return nil, fmt.Errorf("output %s: %w", outputNames[i], err)
		}
	}

	return outputs, nil
}

// Close releases the network
func (s *Session) Close() error {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.net.Close()
}

// toBlob copies a tensor into a 1 x C x H x W float32 Mat
func toBlob(t inference.Tensor) (gocv.Mat, error) {

	blob := gocv.NewMatWithSizes([]int{1, t.C, t.H, t.W}, gocv.MatTypeCV32F)

	data, err := blob.DataPtrFloat32()

	if err != nil {
		blob.Close()
		return gocv.Mat{}, fmt.Errorf("error getting data pointer to blob: %w", err)
	}

	if len(data) != len(t.Data) {
		blob.Close()
		return gocv.Mat{}, fmt.Errorf("%w: blob holds %d values, tensor %d",
			inference.ErrTensorShape, len(data), len(t.Data))
	}

	copy(data, t.Data)

	return blob, nil
}

// fromBlob copies a network output Mat into a Tensor
func fromBlob(m gocv.Mat) (inference.Tensor, error) {

	if !m.IsContinuous() {
		m = m.Clone()
		defer m.Close()
	}

	data, err := m.DataPtrFloat32()

	if err != nil {
		return inference.Tensor{}, fmt.Errorf("error getting data pointer to output: %w", err)
	}

	sizes := m.Size()
	shape := make([]int64, len(sizes))

	for i, s := range sizes {
		shape[i] = int64(s)
	}

	buf := make([]float32, len(data))
	copy(buf, data)

	return inference.FromShape(shape, buf)
}
