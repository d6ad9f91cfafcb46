// Package langdetect decides whether a message is written in the
// configured regional language. Detection is best effort: every failure
// is logged, counted and treated as "not regional".
package langdetect

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"

	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
	"github.com/garyellow/codered-bot-go/internal/logger"
	"github.com/garyellow/codered-bot-go/internal/metrics"
)

// Identifier identifies the language of a text.
type Identifier interface {
	// Identify returns an ISO 639-1 code and a confidence in [0, 1].
	Identify(text string) (code string, confidence float64, err error)
}

// Detection results recorded in metrics.
const (
	ResultRegional = "regional"
	ResultOther    = "other"
	ResultFallback = "fallback"
)

// Result describes one detection.
type Result struct {
	Code       string
	Confidence float64
	Regional   bool
	// Fallback is set when the identifier failed; Regional is then false.
	Fallback error
}

// Detector maps identifier output to a regional/non-regional decision.
// Safe for concurrent use when the Identifier is.
type Detector struct {
	identifier    Identifier
	regional      string
	minConfidence float64
	log           *logger.Logger
	metrics       *metrics.Metrics
}

// Option configures a Detector.
type Option func(*Detector)

// WithIdentifier replaces the whatlanggo identifier.
func WithIdentifier(id Identifier) Option {
	return func(d *Detector) { d.identifier = id }
}

// WithMinConfidence rejects identifications below the threshold.
func WithMinConfidence(v float64) Option {
	return func(d *Detector) { d.minConfidence = v }
}

// WithLogger sets the logger used for fallback reports.
func WithLogger(l *logger.Logger) Option {
	return func(d *Detector) { d.log = l }
}

// WithMetrics enables detection counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Detector) { d.metrics = m }
}

// New creates a detector for the regional ISO 639-1 code.
func New(regional string, opts ...Option) *Detector {
	d := &Detector{
		identifier: WhatlangIdentifier{},
		regional:   strings.ToLower(strings.TrimSpace(regional)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Regional returns the configured regional language code.
func (d *Detector) Regional() string {
	return d.regional
}

// IsRegional reports whether text is in the regional language.
// It never fails; any detection problem yields false.
func (d *Detector) IsRegional(ctx context.Context, text string) bool {
	return d.Detect(ctx, text).Regional
}

// Detect runs detection and returns the details behind the decision.
func (d *Detector) Detect(ctx context.Context, text string) Result {
	res := d.detect(ctx, text)

	switch {
	case res.Fallback != nil:
		d.metrics.RecordLanguageDetection(ResultFallback)
		if d.log != nil {
			d.log.WithError(res.Fallback).DebugContext(ctx, "Language detection fell back to default language")
		}
	case res.Regional:
		d.metrics.RecordLanguageDetection(ResultRegional)
	default:
		d.metrics.RecordLanguageDetection(ResultOther)
	}
	return res
}

func (d *Detector) detect(ctx context.Context, text string) (res Result) {
	if strings.TrimSpace(text) == "" {
		return Result{}
	}
	if err := ctx.Err(); err != nil {
		return Result{Fallback: apperrors.NewDetectionError("canceled", err)}
	}
	if usesDevanagari(d.regional) && hasDevanagari(text) {
		return Result{Code: d.regional, Confidence: 1, Regional: true}
	}

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewDetectionError("panic", fmt.Errorf("%v", r))
			if d.log != nil {
				d.log.WithError(err).WarnContext(ctx, "Language identifier panicked")
			}
			res = Result{Fallback: err}
		}
	}()

	code, confidence, err := d.identifier.Identify(text)
	if err != nil {
		return Result{Fallback: apperrors.NewDetectionError("identify", err)}
	}
	if confidence < d.minConfidence {
		return Result{
			Code:       code,
			Confidence: confidence,
			Fallback:   apperrors.NewDetectionError(fmt.Sprintf("confidence %.2f below %.2f", confidence, d.minConfidence), nil),
		}
	}
	return Result{
		Code:       code,
		Confidence: confidence,
		Regional:   strings.EqualFold(code, d.regional),
	}
}

// Languages whose native script is Devanagari.
func usesDevanagari(code string) bool {
	switch code {
	case "hi", "mr", "ne":
		return true
	}
	return false
}

func hasDevanagari(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// WhatlangIdentifier identifies languages with trigram models from whatlanggo.
type WhatlangIdentifier struct{}

// Identify implements Identifier.
func (WhatlangIdentifier) Identify(text string) (string, float64, error) {
	info := whatlanggo.Detect(text)
	if info.Lang < 0 {
		return "", 0, fmt.Errorf("language undetermined")
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", info.Confidence, fmt.Errorf("no ISO 639-1 code for %s", info.Lang.String())
	}
	return code, info.Confidence, nil
}
