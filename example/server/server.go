/*
Example HTTP service detecting faces in images posted to it.

	curl -F image=@face.jpg http://localhost:8080/detect?prob=0.5&nms=0.45
*/
package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	scrfd "github.com/swdee/go-scrfd"
	"github.com/swdee/go-scrfd/backend"
	"github.com/swdee/go-scrfd/example/internal/logger"
	"github.com/swdee/go-scrfd/example/internal/report"
	"gocv.io/x/gocv"
)

// handler serves detection requests
type handler struct {
	log      logrus.FieldLogger
	detector *scrfd.Detector
}

func main() {

	_ = godotenv.Load()

	modelDir := flag.String("d", logger.Env("SCRFD_MODEL_DIR", "../data/models"), "Directory holding the detector and landmark ONNX models")
	variant := flag.String("v", logger.Env("SCRFD_VARIANT", string(scrfd.Variant500MKps)), "SCRFD model variant")
	backendName := flag.String("b", logger.Env("SCRFD_BACKEND", "dnn"), "Inference backend [dnn|onnx]")
	dnnBackend := flag.String("dnn-backend", logger.Env("SCRFD_DNN_BACKEND", "default"), "OpenCV DNN backend [default|openvino|opencv|vulkan|cuda]")
	dnnTarget := flag.String("dnn-target", logger.Env("SCRFD_DNN_TARGET", "cpu"), "OpenCV DNN target [cpu|fp32|fp16|vpu|vulkan|fpga|cuda|cudafp16]")
	ortLib := flag.String("ort", logger.Env("ORT_LIBRARY", ""), "Path to the onnxruntime shared library for the onnx backend")
	addr := flag.String("a", logger.Env("SCRFD_ADDR", ":8080"), "Address to listen on")
	sessions := flag.Int("s", 2, "Number of concurrent detections")
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
	cfg.Sessions = *sessions
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

	detector, err := scrfd.New(cfg, detModel, lmkModel)

	if err != nil {
		log.Fatal("Error creating detector: ", err)
	}

	app := newApp(&handler{log: log, detector: detector})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(*addr); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	log.Info("Server started successfully")

	<-sigChan
	log.Info("Shutting down server...")

	_ = app.Shutdown()
	detector.Close()
	detModel.Close()
	lmkModel.Close()

	if err := backend.Shutdown(kind); err != nil {
		log.Error("Error shutting down backend: ", err)
	}
}

// newApp returns the fiber app with the routes registered
func newApp(h *handler) *fiber.App {

	app := fiber.New(fiber.Config{
		AppName:      "scrfd",
		BodyLimit:    20 * 1024 * 1024,
		JSONEncoder:  jsoniter.Marshal,
		JSONDecoder:  jsoniter.Unmarshal,
		ErrorHandler: errorHandler,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Post("/detect", h.detect)

	return app
}

// errorHandler returns errors as JSON documents
func errorHandler(c *fiber.Ctx, err error) error {

	code := fiber.StatusInternalServerError

	var ferr *fiber.Error

	if errors.As(err, &ferr) {
		code = ferr.Code
	}

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// detect decodes the posted image, runs detection and returns the faces
func (h *handler) detect(c *fiber.Ctx) error {

	cfg := h.detector.Config()

	prob, err := queryFloat(c, "prob", cfg.ProbThreshold)

	if err != nil {
		return err
	}

	nms, err := queryFloat(c, "nms", cfg.NMSThreshold)

	if err != nil {
		return err
	}

	file, err := c.FormFile("image")

	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field image is required")
	}

	f, err := file.Open()

	if err != nil {
		return err
	}

	defer f.Close()

	buf, err := io.ReadAll(f)

	if err != nil {
		return err
	}

	img, err := gocv.IMDecode(buf, gocv.IMReadColor)

	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not decode image")
	}

	defer img.Close()

	if img.Empty() {
		return fiber.NewError(fiber.StatusBadRequest, "could not decode image")
	}

	rgbImg := gocv.NewMat()
	defer rgbImg.Close()

	gocv.CvtColor(img, &rgbImg, gocv.ColorBGRToRGB)

	faces, landmarks, err := h.detector.Detect(rgbImg, prob, nms)

	if err != nil {
		if errors.Is(err, scrfd.ErrInvalidThreshold) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		h.log.WithError(err).Error("detection failed")
		return err
	}

	return c.JSON(report.New(img.Cols(), img.Rows(), faces, landmarks))
}

// queryFloat parses an optional float query parameter
func queryFloat(c *fiber.Ctx, key string, def float32) (float32, error) {

	v := c.Query(key)

	if v == "" {
		return def, nil
	}

	f, err := strconv.ParseFloat(v, 32)

	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}

	return float32(f), nil
}
