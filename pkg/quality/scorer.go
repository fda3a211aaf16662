package quality

import (
	"context"
)

// Image is a decoded pixel matrix. It belongs to the Decoder that produced it
// and must be closed by the caller.
type Image interface {
	Size() (width, height int)
	Close() error
}

// Decoder turns encoded image bytes into pixel matrices.
type Decoder interface {
	// Decode decodes b as a 3-channel color image.
	Decode(b []byte) (Image, error)

	// Resize returns a new image scaled to width x height. img is left open.
	Resize(img Image, width, height int) (Image, error)
}

// Scorer computes a BRISQUE score for img using the given model and range files.
type Scorer interface {
	Score(ctx context.Context, img Image, modelPath, rangePath string) (Result, error)
}

// Engine decodes and scores with the same backend, so pixel data never
// crosses image libraries.
type Engine interface {
	Decoder
	Scorer
}

// Provisioner makes the model and range files available locally and returns their paths.
type Provisioner interface {
	Provision(ctx context.Context) (modelPath, rangePath string, err error)
}

// Cache stores computed scores by key.
type Cache interface {
	Get(key string) (score float64, ok bool, err error)
	Put(key string, score float64) error
}
