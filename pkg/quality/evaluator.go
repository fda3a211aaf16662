package quality

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"math"
)

// Evaluator runs the read, provision, decode, score sequence for one input.
type Evaluator struct {
	decoder      Decoder
	scorer       Scorer
	assets       Provisioner
	cache        Cache
	maxDimension int
}

// NewEvaluator returns an Evaluator that decodes and scores with engine using
// the files provided by p.
func NewEvaluator(engine Engine, p Provisioner, opts ...Option) *Evaluator {
	e := &Evaluator{
		decoder: engine,
		scorer:  engine,
		assets:  p,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate reads base64 image data from r and returns its score.
// Steps run in a fixed order and the first failure is returned as is.
func (e *Evaluator) Evaluate(ctx context.Context, r io.Reader) (float64, error) {
	in, err := ReadInput(r)
	if err != nil {
		return 0, err
	}
	slog.Debug("input read", "chars", len(in))

	modelPath, rangePath, err := e.assets.Provision(ctx)
	if err != nil {
		return 0, newError(ErrAssetProvisioning, err, "%v", err)
	}

	b, err := DecodeBase64(in)
	if err != nil {
		return 0, err
	}

	key := e.cacheKey(b)
	if score, ok := e.cached(key); ok {
		return score, nil
	}

	img, err := e.decode(b)
	if err != nil {
		return 0, err
	}
	defer img.Close()

	score, err := e.score(ctx, img, modelPath, rangePath)
	if err != nil {
		return 0, err
	}

	e.store(key, score)
	return score, nil
}

// decode hands b to the decoder and applies the max dimension limit.
func (e *Evaluator) decode(b []byte) (Image, error) {
	img, err := e.decoder.Decode(b)
	if err != nil {
		return nil, newError(ErrImageDecode, err, "Could not decode image buffer")
	}

	w, h := img.Size()
	if w == 0 || h == 0 {
		img.Close()
		return nil, newError(ErrImageDecode, nil, "Could not decode image buffer")
	}
	slog.Debug("image decoded", "width", w, "height", h)

	nw, nh, ok := fitWithin(w, h, e.maxDimension)
	if !ok {
		return img, nil
	}

	small, err := e.decoder.Resize(img, nw, nh)
	img.Close()
	if err != nil {
		return nil, newError(ErrImageDecode, err, "Could not resize image: %v", err)
	}
	slog.Debug("image downscaled", "width", nw, "height", nh)
	return small, nil
}

func (e *Evaluator) score(ctx context.Context, img Image, modelPath, rangePath string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, newError(ErrScoreComputation, err, "BRISQUE failed: %v", err)
	}

	res, err := e.scorer.Score(ctx, img, modelPath, rangePath)
	if err != nil {
		return 0, newError(ErrScoreComputation, err, "BRISQUE failed: %v", err)
	}

	score, err := res.Float64()
	if err != nil {
		return 0, newError(ErrScoreComputation, err, "BRISQUE failed: %v", err)
	}

	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, newError(ErrScoreComputation, nil, "BRISQUE failed: non-finite score %v", score)
	}

	return score, nil
}

func (e *Evaluator) cacheKey(b []byte) string {
	if e.cache == nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return fmt.Sprintf("%s:%d", hex.EncodeToString(sum[:]), e.maxDimension)
}

// Cache errors are logged and otherwise ignored.
func (e *Evaluator) cached(key string) (float64, bool) {
	if e.cache == nil {
		return 0, false
	}
	score, ok, err := e.cache.Get(key)
	if err != nil {
		slog.Warn("score cache lookup failed", "error", err)
		return 0, false
	}
	if ok {
		slog.Debug("score cache hit", "key", key)
	}
	return score, ok
}

func (e *Evaluator) store(key string, score float64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Put(key, score); err != nil {
		slog.Warn("score cache update failed", "error", err)
	}
}
