package scrfd

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/swdee/go-scrfd/geometry"
	"github.com/swdee/go-scrfd/inference"
	"github.com/swdee/go-scrfd/postprocess"
	"github.com/swdee/go-scrfd/preprocess"
	"gocv.io/x/gocv"
)

// model node names
const (
	DetectorInput  = "input.1"
	LandmarkInput  = "data"
	LandmarkOutput = "fc1"
)

// NumLandmarks is the number of points located by the landmark model
const NumLandmarks = 106

// Face is a detected face in the original image frame
type Face struct {
	// ID is a unique ID assigned to the detection
	ID int64
	// Rect is the face bounding box
	Rect geometry.ImageRect
	// Landmarks are the five detector keypoints, nil when the detector
	// variant does not output them
	Landmarks []geometry.ImagePoint
	// Prob is the face confidence score
	Prob float32
}

// Landmarks106 are the dense facial landmarks of a single face in the
// original image frame
type Landmarks106 [NumLandmarks]geometry.ImagePoint

// level is a detector output stride with its precomputed anchors
type level struct {
	postprocess.StrideConfig
	anchors []postprocess.Anchor
}

// Detector runs face detection followed by 106 point landmark location
type Detector struct {
	cfg Config
	log logrus.FieldLogger
	// detector and landmark model session pools
	detPool *inference.Pool
	lmkPool *inference.Pool
	levels  []level
	// outputNames are the detector outputs in the order score, bbox, kps
	// with each group ordered by stride
	outputNames []string
	idGen       *idGenerator
	closeOnce   sync.Once
}

// New returns a Detector over the two loaded models.  Config.Sessions
// sessions are opened on each model.  The models remain owned by the caller
// and must outlive the Detector.
func New(cfg Config, detector, landmark inference.Model) (*Detector, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if detector == nil || landmark == nil {
		return nil, fmt.Errorf("%w: detector and landmark models are required",
			ErrInvalidConfig)
	}

	log := cfg.Logger

	if log == nil {
		log = logrus.StandardLogger()
	}

	d := &Detector{
		cfg:   cfg,
		log:   log,
		idGen: newIDGenerator(),
	}

	for _, s := range postprocess.DefaultStrides() {
		d.levels = append(d.levels, level{StrideConfig: s, anchors: s.Anchors()})
	}

	kinds := []string{"score", "bbox"}

	if cfg.Variant.HasKeyPoints() {
		kinds = append(kinds, "kps")
	}

	for _, kind := range kinds {
		for _, l := range d.levels {
			d.outputNames = append(d.outputNames, fmt.Sprintf("%s_%d", kind, l.Stride))
		}
	}

	var err error

	d.detPool, err = inference.NewPool(cfg.Sessions, detector)

	if err != nil {
		return nil, fmt.Errorf("error creating detector sessions: %w", err)
	}

	d.lmkPool, err = inference.NewPool(cfg.Sessions, landmark)

	if err != nil {
		d.detPool.Close()
		return nil, fmt.Errorf("error creating landmark sessions: %w", err)
	}

	return d, nil
}

// Config returns the Detector configuration
func (d *Detector) Config() Config {
	return d.cfg
}

// Close the session pools.  The models themselves are closed by their owner.
func (d *Detector) Close() error {
	d.closeOnce.Do(func() {
		d.detPool.Close()
		d.lmkPool.Close()
	})

	return nil
}

// DetectDefault runs Detect with the thresholds from the Config
func (d *Detector) DetectDefault(img gocv.Mat) ([]Face, []Landmarks106, error) {
	return d.Detect(img, d.cfg.ProbThreshold, d.cfg.NMSThreshold)
}

// Detect finds the faces in an 8 bit 3 channel RGB image, then locates 106
// landmarks on each.  The returned lists are index aligned and ordered by
// descending confidence.  An image without faces returns two empty lists.
// The image is not modified.
func (d *Detector) Detect(img gocv.Mat, probThreshold,
	nmsThreshold float32) ([]Face, []Landmarks106, error) {

	if err := checkThresholds(probThreshold, nmsThreshold); err != nil {
		return nil, nil, err
	}

	if img.Empty() {
		return nil, nil, ErrEmptyImage
	}

	if img.Type() != gocv.MatTypeCV8UC3 {
		return nil, nil, fmt.Errorf("%w: got type %v", ErrImageFormat, img.Type())
	}

	log := d.log.WithField("call_id", uuid.NewString())
	start := time.Now()

	faces, err := d.detectFaces(img, probThreshold, nmsThreshold, log)

	if err != nil {
		return nil, nil, err
	}

	detected := time.Now()

	landmarks, err := d.locateLandmarks(img, faces)

	if err != nil {
		return nil, nil, err
	}

	log.WithFields(logrus.Fields{
		"faces":          len(faces),
		"detect_time":    detected.Sub(start),
		"landmarks_time": time.Since(detected),
	}).Debug("detect complete")

	return faces, landmarks, nil
}

// detectFaces runs the detector model and returns the faces that survive
// suppression in the original image frame
func (d *Detector) detectFaces(img gocv.Mat, probThreshold, nmsThreshold float32,
	log logrus.FieldLogger) ([]Face, error) {

	resizer, err := preprocess.NewResizer(img.Cols(), img.Rows(), d.cfg.TargetSize)

	if err != nil {
		return nil, fmt.Errorf("error creating resizer: %w", err)
	}

	defer resizer.Close()

	padded := gocv.NewMat()
	defer padded.Close()

	resizer.LetterBoxResize(img, &padded, preprocess.Black)

	input, err := preprocess.ToTensor(padded, preprocess.DetectorNorm)

	if err != nil {
		return nil, fmt.Errorf("error converting image to tensor: %w", err)
	}

	outputs, err := d.run(d.detPool, DetectorInput, input, d.outputNames)

	if err != nil {
		return nil, fmt.Errorf("detector inference failed: %w", err)
	}

	lb := resizer.Letterbox()
	props := make([]postprocess.Proposal, 0)
	n := len(d.levels)

	for i, l := range d.levels {

		h := lb.Height / l.Stride
		w := lb.Width / l.Stride
		numAnchors := len(l.anchors)

		score, err := outputs[i].FeatureMap(h, w, numAnchors, 1)

		if err != nil {
			return nil, fmt.Errorf("output %s: %w", d.outputNames[i], err)
		}

		bbox, err := outputs[n+i].FeatureMap(h, w, numAnchors, 4)

		if err != nil {
			return nil, fmt.Errorf("output %s: %w", d.outputNames[n+i], err)
		}

		var kps *inference.Tensor

		if d.cfg.Variant.HasKeyPoints() {
			k, err := outputs[2*n+i].FeatureMap(h, w, numAnchors, postprocess.NumKeyPoints*2)

			if err != nil {
				return nil, fmt.Errorf("output %s: %w", d.outputNames[2*n+i], err)
			}

			kps = &k
		}

		p, err := postprocess.GenerateProposals(l.anchors, l.Stride, score, bbox,
			kps, probThreshold)

		if err != nil {
			return nil, fmt.Errorf("stride %d: %w", l.Stride, err)
		}

		props = append(props, p...)
	}

	keep := postprocess.NMS(props, nmsThreshold)

	faces := make([]Face, 0, len(keep))

	for _, k := range keep {
		p := props[k]

		rect := lb.ToImageRect(p.Rect)

		// entirely within the letterbox padding
		if rect.Empty() {
			continue
		}

		face := Face{
			ID:   d.idGen.GetNext(),
			Rect: rect,
			Prob: p.Prob,
		}

		if p.HasLandmarks {
			face.Landmarks = make([]geometry.ImagePoint, len(p.Landmarks))

			for j, lm := range p.Landmarks {
				face.Landmarks[j] = lb.ToImage(lm)
			}
		}

		faces = append(faces, face)
	}

	log.WithFields(logrus.Fields{
		"width":     img.Cols(),
		"height":    img.Rows(),
		"input":     fmt.Sprintf("%dx%d", lb.Width, lb.Height),
		"proposals": len(props),
		"kept":      len(keep),
	}).Debug("faces detected")

	return faces, nil
}

// locateLandmarks crops each face and runs the landmark model on it
func (d *Detector) locateLandmarks(img gocv.Mat, faces []Face) ([]Landmarks106, error) {

	landmarks := make([]Landmarks106, len(faces))

	if len(faces) == 0 {
		return landmarks, nil
	}

	sess, err := d.lmkPool.Get()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClosed, err)
	}

	defer d.lmkPool.Return(sess)

	aligner := preprocess.NewAligner()
	defer aligner.Close()

	crop := gocv.NewMat()
	defer crop.Close()

	outputNames := []string{LandmarkOutput}

	for i, face := range faces {

		ct, err := geometry.NewCropTransform(face.Rect, d.cfg.CropSize)

		if err != nil {
			return nil, fmt.Errorf("face %d: %w", face.ID, err)
		}

		inv, err := ct.Inverse()

		if err != nil {
			return nil, fmt.Errorf("face %d: %w", face.ID, err)
		}

		aligner.Crop(img, &crop, ct)

		input, err := preprocess.ToTensor(crop, preprocess.LandmarkNorm)

		if err != nil {
			return nil, fmt.Errorf("face %d: error converting crop to tensor: %w", face.ID, err)
		}

		outputs, err := sess.Run(LandmarkInput, input, outputNames)

		if err != nil {
			return nil, fmt.Errorf("landmark inference failed: %w", err)
		}

		if len(outputs) != 1 || len(outputs[0].Data) != NumLandmarks*2 {
			return nil, fmt.Errorf("%w: expected %d values", ErrLandmarkOutput, NumLandmarks*2)
		}

		pts, err := inv.Landmarks(outputs[0].Data)

		if err != nil {
			return nil, fmt.Errorf("face %d: %w", face.ID, err)
		}

		copy(landmarks[i][:], pts)
	}

	return landmarks, nil
}

// run takes a session from the pool for the duration of a single inference
func (d *Detector) run(pool *inference.Pool, inputName string, input inference.Tensor,
	outputNames []string) ([]inference.Tensor, error) {

	sess, err := pool.Get()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClosed, err)
	}

	defer pool.Return(sess)

	outputs, err := sess.Run(inputName, input, outputNames)

	if err != nil {
		return nil, err
	}

	if len(outputs) != len(outputNames) {
		return nil, fmt.Errorf("%w: expected %d outputs, got %d",
			inference.ErrTensorShape, len(outputNames), len(outputs))
	}

	return outputs, nil
}
