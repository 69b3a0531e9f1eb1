package scrfd

import "errors"

var (
	// ErrInvalidThreshold is returned when a probability or NMS threshold is
	// outside of the range (0, 1]
	ErrInvalidThreshold = errors.New("threshold must be in the range (0, 1]")
	// ErrInvalidConfig is returned by New for a Config that fails validation
	ErrInvalidConfig = errors.New("invalid detector config")
	// ErrEmptyImage is returned when detecting on an empty image
	ErrEmptyImage = errors.New("image is empty")
	// ErrImageFormat is returned when detecting on an image that is not 3
	// channel 8 bit
	ErrImageFormat = errors.New("image must be 3 channel 8 bit RGB")
	// ErrLandmarkOutput is returned when the landmark model does not produce
	// 106 x,y pairs
	ErrLandmarkOutput = errors.New("unexpected landmark model output")
	// ErrClosed is returned when using a Detector after Close
	ErrClosed = errors.New("detector is closed")
)
