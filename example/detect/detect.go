/*
Example code showing how to detect faces and their 106 point landmarks in an
image file.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	scrfd "github.com/swdee/go-scrfd"
	"github.com/swdee/go-scrfd/backend"
	"github.com/swdee/go-scrfd/example/internal/logger"
	"github.com/swdee/go-scrfd/example/internal/report"
	"github.com/swdee/go-scrfd/render"
	"gocv.io/x/gocv"
)

func main() {

	// settings in a .env file become the flag defaults
	_ = godotenv.Load()

	// read in cli flags
	modelDir := flag.String("d", logger.Env("SCRFD_MODEL_DIR", "../data/models"), "Directory holding the detector and landmark ONNX models")
	variant := flag.String("v", logger.Env("SCRFD_VARIANT", string(scrfd.Variant500MKps)), "SCRFD model variant [500m|500m_kps|1g|2.5g|2.5g_kps|10g|10g_kps|34g]")
	backendName := flag.String("b", logger.Env("SCRFD_BACKEND", "dnn"), "Inference backend [dnn|onnx]")
	dnnBackend := flag.String("dnn-backend", logger.Env("SCRFD_DNN_BACKEND", "default"), "OpenCV DNN backend [default|openvino|opencv|vulkan|cuda]")
	dnnTarget := flag.String("dnn-target", logger.Env("SCRFD_DNN_TARGET", "cpu"), "OpenCV DNN target [cpu|fp32|fp16|vpu|vulkan|fpga|cuda|cudafp16]")
	ortLib := flag.String("ort", logger.Env("ORT_LIBRARY", ""), "Path to the onnxruntime shared library for the onnx backend")
	imgFile := flag.String("i", "../data/face.jpg", "Image file to run inference on")
	saveFile := flag.String("o", "../data/face-out.jpg", "The output JPG file with face detection markers")
	targetSize := flag.Int("t", 120, "Size the longer image side is scaled to for detection")
	probThreshold := flag.Float64("p", 0.5, "Minimum face probability (0,1]")
	nmsThreshold := flag.Float64("n", 0.45, "Non-Maximum Suppression IoU threshold (0,1]")
	jsonOut := flag.Bool("json", false, "Print results as JSON instead of text")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logFile := flag.String("log", logger.Env("SCRFD_LOG_FILE", ""), "Optional log file, rotated when large")

	flag.Parse()

	log := logger.New(*debug, *logFile)

	kind, err := backend.ParseKind(*backendName)

	if err != nil {
		log.Fatal(err)
	}

	cfg := scrfd.DefaultConfig()
	cfg.ModelDir = *modelDir
	cfg.Variant = scrfd.Variant(*variant)
	cfg.TargetSize = *targetSize
	cfg.Logger = log

	detModel, lmkModel, err := backend.LoadModels(cfg, backend.Options{
		Kind:       kind,
		DNNBackend: gocv.ParseNetBackend(*dnnBackend),
		DNNTarget:  gocv.ParseNetTarget(*dnnTarget),
		ORTLibrary: *ortLib,
	})

	if err != nil {
		log.Fatal("Error loading models: ", err)
	}

	defer func() {
		if err := backend.Shutdown(kind); err != nil {
			log.Error("Error shutting down backend: ", err)
		}
	}()

	defer detModel.Close()
	defer lmkModel.Close()

	detector, err := scrfd.New(cfg, detModel, lmkModel)

	if err != nil {
		log.Fatal("Error creating detector: ", err)
	}

	defer detector.Close()

	// load image
	img := gocv.IMRead(*imgFile, gocv.IMReadColor)

	if img.Empty() {
		log.Fatal("Error reading image from: ", *imgFile)
	}

	defer img.Close()

	// the detector works on RGB images
	rgbImg := gocv.NewMat()
	defer rgbImg.Close()

	gocv.CvtColor(img, &rgbImg, gocv.ColorBGRToRGB)

	start := time.Now()

	faces, landmarks, err := detector.Detect(rgbImg, float32(*probThreshold),
		float32(*nmsThreshold))

	if err != nil {
		log.Fatal("Detection failed with error: ", err)
	}

	endDetect := time.Now()

	render.FaceBoxes(&img, faces, render.DefaultFont(), 2)
	render.FaceLandmarks(&img, landmarks, render.DefaultLandmarkStyle())
	render.FaceKeyPoints(&img, faces, 2)

	endRendering := time.Now()

	if *jsonOut {
		out, err := report.New(img.Cols(), img.Rows(), faces, landmarks).Marshal()

		if err != nil {
			log.Fatal("Error encoding results: ", err)
		}

		fmt.Fprintln(os.Stdout, string(out))

	} else {
		// output detection boxes to stdout
		for _, f := range faces {
			fmt.Printf("face @ (%.0f %.0f %.0f %.0f) %f\n", f.Rect.X, f.Rect.Y,
				f.Rect.Right(), f.Rect.Bottom(), f.Prob)
		}
	}

	log.Infof("Model first run speed: detect=%s, rendering=%s, total time=%s",
		endDetect.Sub(start).String(),
		endRendering.Sub(endDetect).String(),
		endRendering.Sub(start).String(),
	)

	// Save the result
	if ok := gocv.IMWrite(*saveFile, img); !ok {
		log.Fatal("Failed to save the image")
	}

	log.Infof("Saved face detection result to %s", *saveFile)
}
