// Package reporter runs the edge detection cycle: wait for the hardware
// trigger, capture a still, classify it, answer the microcontroller with
// the label, and submit the detection to the backend. The physical sorting
// action and the digital record are decoupled on purpose, a failed
// submission never blocks the next cycle.
package reporter

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg" // stills from the capture tool are JPEG
	"log/slog"
	"math"
	"time"

	"github.com/hqnguyen/wastenet-go/internal/classifier"
	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/logging"
	"github.com/hqnguyen/wastenet-go/internal/observability"
)

// Classifier predicts the waste category of a captured image.
type Classifier interface {
	Predict(img image.Image) (classifier.Result, error)
}

// StillCapturer acquires one still image under the shared camera lock.
type StillCapturer interface {
	AcquireStill(ctx context.Context) ([]byte, error)
}

// TriggerLink is the line protocol with the sorting microcontroller.
type TriggerLink interface {
	SendReady() error
	WaitTrigger() error
	SendLabel(label string) error
}

// Submitter delivers a detection to the backend.
type Submitter interface {
	Submit(ctx context.Context, typeID uint, confidence float64, image []byte) error
	FetchTypes(ctx context.Context) (map[string]uint, error)
}

// Reporter orchestrates the detection cycle.
type Reporter struct {
	link         TriggerLink
	camera       StillCapturer
	classifier   Classifier
	client       Submitter
	settleDelay  time.Duration
	typeIDs      map[string]uint // label -> backend type id
	log          *slog.Logger
	metrics      *observability.Metrics
	droppedCount int64
}

// Option is a functional option for configuring the Reporter.
type Option func(*Reporter)

// WithMetrics records dropped submissions on the given metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(r *Reporter) {
		r.metrics = metrics
	}
}

// New creates a Reporter wired to the given collaborators.
func New(settings *conf.Settings, link TriggerLink, cam StillCapturer, cls Classifier, client Submitter, options ...Option) *Reporter {
	r := &Reporter{
		link:        link,
		camera:      cam,
		classifier:  cls,
		client:      client,
		settleDelay: settings.Realtime.SettleDelay,
		log:         logging.ForService("reporter"),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Run executes detection cycles until the context is cancelled. Closing
// the serial port unblocks a pending trigger wait. Any panic inside a
// cycle is recovered here so a single bad cycle never ends the loop.
func (r *Reporter) Run(ctx context.Context) error {
	if err := r.link.SendReady(); err != nil {
		return err
	}
	r.logInfo("reporter started, awaiting triggers")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r.runCycle(ctx)
	}
}

// runCycle performs one trigger-to-submission cycle, recovering panics.
func (r *Reporter) runCycle(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logError("detection cycle panicked", "panic", rec)
		}
	}()

	if err := r.link.WaitTrigger(); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logError("trigger wait failed", "error", err)
		// avoid a tight loop on a persistently broken link
		r.sleep(ctx, time.Second)
		return
	}

	r.logInfo("item detected, capturing image")

	// let the item settle in front of the camera before capturing
	if !r.sleep(ctx, r.settleDelay) {
		return
	}

	still, err := r.camera.AcquireStill(ctx)
	if err != nil {
		r.logError("still capture failed", "error", err)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(still))
	if err != nil {
		r.logError("decoding captured image failed", "error", err)
		return
	}

	result, err := r.classifier.Predict(img)
	if err != nil {
		r.logError("classification failed", "error", err)
		return
	}

	// drive the physical sort first; the backend record is best effort
	if err := r.link.SendLabel(result.Label); err != nil {
		r.logError("label write-back failed", "error", err, "label", result.Label)
	}

	confidence := roundPercent(result.Confidence)
	r.logInfo("item classified", "label", result.Label, "confidence", confidence)

	typeID, ok := r.resolveTypeID(ctx, result.Label)
	if !ok {
		r.dropDetection("no backend id for label, detection dropped", result.Label)
		return
	}
	if err := r.client.Submit(ctx, typeID, confidence, still); err != nil {
		r.dropDetection("submission failed, detection dropped", result.Label, "error", err)
	}
}

// resolveTypeID maps the classifier label to the backend's type id. The
// mapping is fetched from the backend and cached; while the fetch keeps
// failing it is retried on later cycles. The model's label order
// does not match the seeded category ids, so a detection without a
// resolved id is dropped rather than submitted mislabeled.
func (r *Reporter) resolveTypeID(ctx context.Context, label string) (uint, bool) {
	if r.typeIDs == nil {
		types, err := r.client.FetchTypes(ctx)
		if err != nil {
			r.logError("fetching waste types failed", "error", err)
		} else {
			r.typeIDs = types
		}
	}

	id, ok := r.typeIDs[label]
	return id, ok
}

// dropDetection counts and logs one lost detection.
func (r *Reporter) dropDetection(msg, label string, args ...any) {
	r.droppedCount++
	if r.metrics != nil {
		r.metrics.SubmissionsDropped.Inc()
	}
	args = append(args, "label", label, "dropped_total", r.droppedCount)
	r.logError(msg, args...)
}

// sleep waits for d or until the context is cancelled. Returns false when
// cancelled.
func (r *Reporter) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (r *Reporter) logInfo(msg string, args ...any) {
	if r.log != nil {
		r.log.Info(msg, args...)
	}
}

func (r *Reporter) logError(msg string, args ...any) {
	if r.log != nil {
		r.log.Error(msg, args...)
	}
}

// roundPercent converts a fraction in [0,1] to a percentage rounded to two
// decimals, the convention stored by the backend.
func roundPercent(fraction float32) float64 {
	return math.Round(float64(fraction)*100*100) / 100
}
