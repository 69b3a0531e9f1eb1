/*
Package backend selects and loads the inference backend models run on.
*/
package backend

import (
	"fmt"
	"strings"

	scrfd "github.com/swdee/go-scrfd"
	"github.com/swdee/go-scrfd/backend/dnn"
	"github.com/swdee/go-scrfd/backend/onnx"
	"github.com/swdee/go-scrfd/inference"
	"gocv.io/x/gocv"
)

// Kind names an inference backend
type Kind string

const (
	// DNN runs models with the OpenCV DNN module
	DNN Kind = "dnn"
	// ONNX runs models with ONNX Runtime
	ONNX Kind = "onnx"
)

// ParseKind returns the Kind for name, case insensitive
func ParseKind(name string) (Kind, error) {

	switch k := Kind(strings.ToLower(name)); k {
	case DNN, ONNX:
		return k, nil
	}

	return "", fmt.Errorf("unknown backend %q, must be one of [dnn|onnx]", name)
}

// Options configures model loading
type Options struct {
	Kind Kind
	// DNNBackend and DNNTarget select the OpenCV backend and device for the
	// DNN backend, the zero values run on the CPU with the default backend
	DNNBackend gocv.NetBackendType
	DNNTarget  gocv.NetTargetType
	// ORTLibrary is the path to the onnxruntime shared library, used by the
	// ONNX backend
	ORTLibrary string
	// Threads limits ONNX Runtime intra op threads, zero for the default
	Threads int
	// Aliases maps node names to ONNX graph node names
	Aliases map[string]string
}

// dnnOptions returns the OpenCV network settings
func (o Options) dnnOptions() dnn.Options {
	return dnn.Options{
		Backend: o.DNNBackend,
		Target:  o.DNNTarget,
	}
}

// Shutdown releases runtime state held by the backend, after all of its
// models and sessions are closed
func Shutdown(kind Kind) error {
	if kind == ONNX {
		return onnx.Shutdown()
	}

	return nil
}

// Load loads the model file at path with the chosen backend
func Load(path string, opts Options) (inference.Model, error) {

	switch opts.Kind {
	case DNN:
		return dnn.Load(path, "", opts.dnnOptions())

	case ONNX:
		if err := onnx.Initialize(opts.ORTLibrary); err != nil {
			return nil, err
		}

		return onnx.Load(path, onnx.Options{
			IntraOpThreads: opts.Threads,
			Aliases:        opts.Aliases,
		})
	}

	return nil, fmt.Errorf("unknown backend %q", opts.Kind)
}

// LoadModels loads the detector and landmark ONNX models named by the
// Config from its ModelDir
func LoadModels(cfg scrfd.Config, opts Options) (detector, landmark inference.Model, err error) {

	detPath, lmkPath := cfg.ModelPaths("onnx")

	detector, err = Load(detPath, opts)

	if err != nil {
		return nil, nil, fmt.Errorf("error loading detector model: %w", err)
	}

	landmark, err = Load(lmkPath, opts)

	if err != nil {
		detector.Close()
		return nil, nil, fmt.Errorf("error loading landmark model: %w", err)
	}

	return detector, landmark, nil
}
