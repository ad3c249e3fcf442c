// Package classifier wraps the TensorFlow Lite waste classification model.
// The model is a MobileNetV3 fine-tuned on four waste categories with a
// bare linear head, so its output tensor holds raw logits; softmax is
// applied here to obtain the category probabilities.
package classifier

import (
	"fmt"
	"image"
	_ "image/jpeg" // detection images are captured as JPEG
	_ "image/png"
	"os"
	"sync"

	tflite "github.com/tphakala/go-tflite"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/errors"
)

// Model input dimensions for MobileNetV3.
const (
	InputWidth  = 224
	InputHeight = 224
)

// Result is a single classification outcome.
type Result struct {
	Index      int     // index into the label list
	Label      string  // machine readable category label
	Confidence float32 // probability in [0,1]
}

// WasteNet holds the TFLite interpreter and its configuration. Construct
// with New so the model lifecycle is explicit; the zero value is not usable.
type WasteNet struct {
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	labels      []string
	modelPath   string
	mu          sync.Mutex
}

// New loads the TFLite model from settings and prepares an interpreter.
func New(settings *conf.Settings) (*WasteNet, error) {
	cs := &settings.Realtime.Classifier

	model := tflite.NewModelFromFile(cs.ModelPath)
	if model == nil {
		return nil, errors.Newf("cannot load model from %s", cs.ModelPath).
			Component("classifier").
			Category(errors.CategoryModelInit).
			ModelContext(cs.ModelPath).
			Build()
	}

	options := tflite.NewInterpreterOptions()
	if cs.Threads > 0 {
		options.SetNumThread(cs.Threads)
	}

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, errors.Newf("cannot create interpreter").
			Component("classifier").
			Category(errors.CategoryModelInit).
			ModelContext(cs.ModelPath).
			Build()
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, errors.Newf("tensor allocation failed: %v", status).
			Component("classifier").
			Category(errors.CategoryModelInit).
			ModelContext(cs.ModelPath).
			Build()
	}

	return &WasteNet{
		model:       model,
		options:     options,
		interpreter: interpreter,
		labels:      cs.Labels,
		modelPath:   cs.ModelPath,
	}, nil
}

// Labels returns the category labels in model output order.
func (wn *WasteNet) Labels() []string {
	return wn.labels
}

// Predict runs inference on an image and returns the best category.
func (wn *WasteNet) Predict(img image.Image) (Result, error) {
	// the interpreter is not safe for concurrent invocation
	wn.mu.Lock()
	defer wn.mu.Unlock()

	inputTensor := wn.interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return Result{}, fmt.Errorf("cannot get input tensor")
	}

	sample := imageToTensor(img, InputWidth, InputHeight)
	copy(inputTensor.Float32s(), sample)

	if status := wn.interpreter.Invoke(); status != tflite.OK {
		return Result{}, errors.Newf("tensor invoke failed: %v", status).
			Component("classifier").
			Category(errors.CategoryModelInference).
			ModelContext(wn.modelPath).
			Build()
	}

	outputTensor := wn.interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return Result{}, fmt.Errorf("cannot get output tensor")
	}

	logits := make([]float32, len(outputTensor.Float32s()))
	copy(logits, outputTensor.Float32s())

	if len(logits) != len(wn.labels) {
		return Result{}, fmt.Errorf("model produced %d outputs for %d labels",
			len(logits), len(wn.labels))
	}

	probabilities := softmax(logits)
	best := argmax(probabilities)
	return Result{
		Index:      best,
		Label:      wn.labels[best],
		Confidence: probabilities[best],
	}, nil
}

// PredictFile decodes the image at path and runs Predict on it.
func (wn *WasteNet) PredictFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, errors.New(err).
			Component("classifier").
			Category(errors.CategoryImageProcessing).
			Context("path", path).
			Build()
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Result{}, errors.New(fmt.Errorf("decoding %s: %w", path, err)).
			Component("classifier").
			Category(errors.CategoryImageProcessing).
			Context("path", path).
			Build()
	}

	return wn.Predict(img)
}

// Close releases the interpreter and model resources.
func (wn *WasteNet) Close() {
	wn.mu.Lock()
	defer wn.mu.Unlock()

	if wn.interpreter != nil {
		wn.interpreter.Delete()
		wn.interpreter = nil
	}
	if wn.options != nil {
		wn.options.Delete()
		wn.options = nil
	}
	if wn.model != nil {
		wn.model.Delete()
		wn.model = nil
	}
}
