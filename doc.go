/*
go-scrfd detects faces in images with the SCRFD family of detectors and then
locates 106 landmark points on each face with the 2d106det model.

Models are loaded through a backend, either OpenCV DNN or ONNX Runtime, and
handed to New along with a Config.  Detect accepts an 8 bit RGB gocv.Mat and
returns the faces and their landmarks in the coordinate frame of that image.

	det, lmk, err := backend.LoadModels(cfg, backend.Options{Kind: backend.DNN})
	detector, err := scrfd.New(cfg, det, lmk)
	faces, landmarks, err := detector.Detect(img, 0.5, 0.45)

A Detector is safe for concurrent use, Config.Sessions bounds how many
detections run in parallel.

See example code and usage in the examples subdirectory.
*/
package scrfd
