package scrfd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Variant names a pretrained SCRFD detector model
type Variant string

// SCRFD variants.  Variants with the _kps suffix also regress five facial
// keypoints per face.
const (
	Variant500M    Variant = "500m"
	Variant500MKps Variant = "500m_kps"
	Variant1G      Variant = "1g"
	Variant2_5G    Variant = "2.5g"
	Variant2_5GKps Variant = "2.5g_kps"
	Variant10G     Variant = "10g"
	Variant10GKps  Variant = "10g_kps"
	Variant34G     Variant = "34g"
)

// LandmarkModel is the resource name of the 106 point landmark model
const LandmarkModel = "2d106det"

// Variants returns all known detector variants
func Variants() []Variant {
	return []Variant{
		Variant500M, Variant500MKps, Variant1G, Variant2_5G,
		Variant2_5GKps, Variant10G, Variant10GKps, Variant34G,
	}
}

// Valid reports whether v is a known variant
func (v Variant) Valid() bool {
	for _, known := range Variants() {
		if v == known {
			return true
		}
	}

	return false
}

// HasKeyPoints reports whether the variant outputs facial keypoints
func (v Variant) HasKeyPoints() bool {
	return strings.Contains(string(v), "_kps")
}

// File returns the model resource name for the variant with the given file
// extension, eg: scrfd_500m_kps-opt2.onnx
func (v Variant) File(ext string) string {
	return fmt.Sprintf("scrfd_%s-opt2.%s", v, strings.TrimPrefix(ext, "."))
}

// LandmarkFile returns the landmark model resource name with the given file
// extension
func LandmarkFile(ext string) string {
	return fmt.Sprintf("%s.%s", LandmarkModel, strings.TrimPrefix(ext, "."))
}

// Config defines the Detector settings
type Config struct {
	// Variant is the detector model variant, it decides whether keypoint
	// outputs are read
	Variant Variant `validate:"required,scrfd_variant"`
	// ModelDir is the directory model files are resolved against by
	// ModelPaths
	ModelDir string
	// TargetSize is the length the longer image side is scaled to before
	// padding
	TargetSize int `validate:"gt=0"`
	// CropSize is the side length of the square landmark model input
	CropSize int `validate:"gt=0"`
	// ProbThreshold is the default minimum face score used by
	// DetectDefault
	ProbThreshold float32 `validate:"gt=0,lte=1"`
	// NMSThreshold is the default IoU above which overlapping faces are
	// suppressed by DetectDefault
	NMSThreshold float32 `validate:"gt=0,lte=1"`
	// Sessions is the number of inference sessions opened per model, the
	// number of Detect calls that can run at the same time
	Sessions int `validate:"gte=1"`
	// Logger receives debug output, defaults to the logrus standard logger
	Logger logrus.FieldLogger `validate:"-"`
}

// DefaultConfig returns a Config featuring:
// - Variant: 500m_kps
// - TargetSize: 120
// - CropSize: 192
// - ProbThreshold: 0.5
// - NMSThreshold: 0.45
// - Sessions: 1
func DefaultConfig() Config {
	return Config{
		Variant:       Variant500MKps,
		TargetSize:    120,
		CropSize:      192,
		ProbThreshold: 0.5,
		NMSThreshold:  0.45,
		Sessions:      1,
		Logger:        logrus.StandardLogger(),
	}
}

// ModelPaths returns the detector and landmark model file paths under
// ModelDir for the given file extension
func (c Config) ModelPaths(ext string) (detector, landmark string) {
	return filepath.Join(c.ModelDir, c.Variant.File(ext)),
		filepath.Join(c.ModelDir, LandmarkFile(ext))
}

// Validate checks the Config values
func (c Config) Validate() error {

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

// thresholds holds the per call Detect parameters
type thresholds struct {
	Prob float32 `validate:"gt=0,lte=1"`
	NMS  float32 `validate:"gt=0,lte=1"`
}

// checkThresholds rejects probability and NMS thresholds outside of (0, 1]
func checkThresholds(prob, nms float32) error {

	err := validate.Struct(thresholds{Prob: prob, NMS: nms})

	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors

	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s threshold %v", ErrInvalidThreshold,
			strings.ToLower(verrs[0].Field()), verrs[0].Value())
	}

	return fmt.Errorf("%w: %v", ErrInvalidThreshold, err)
}

var validate = newValidator()

// newValidator returns a validator with the custom Config rules registered
func newValidator() *validator.Validate {

	v := validator.New()

	_ = v.RegisterValidation("scrfd_variant", func(fl validator.FieldLevel) bool {
		return Variant(fl.Field().String()).Valid()
	})

	return v
}
