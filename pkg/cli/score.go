package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mchmarny/brisque/pkg/data"
	"github.com/mchmarny/brisque/pkg/quality"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type scoreResult struct {
	Score float64 `json:"score" yaml:"score"`
}

func cmdScore(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	opts := []quality.Option{
		quality.WithMaxDimension(cfg.MaxDimension),
	}
	if cfg.DB != nil {
		opts = append(opts, quality.WithCache(data.NewScoreCache(cfg.DB)))
	}

	e := quality.NewEvaluator(cfg.engine, cfg.store(), opts...)
	score, err := e.Evaluate(ctx, cmd.Root().Reader)
	if err != nil {
		return err
	}

	return writeScore(cmd.Root().Writer, cfg.Format, score)
}

// writeScore emits the result as one line. JSON output has no trailing newline
// and uses the `{"score": 18.7}` layout with the number in its shortest
// round-trip form, so it matches byte for byte what existing callers parse.
func writeScore(w io.Writer, format string, score float64) error {
	var (
		b   []byte
		err error
	)
	if format == formatYAML {
		b, err = yaml.Marshal(&scoreResult{Score: score})
	} else {
		b, err = jsonScore(score)
	}
	if err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("error writing result: %w", err)
	}
	return nil
}

func jsonScore(score float64) ([]byte, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, fmt.Errorf("unsupported value: %v", score)
	}
	return fmt.Appendf(nil, `{"score": %s}`, formatFloat(score)), nil
}

// formatFloat writes the shortest representation that parses back to v.
// Integral values keep a ".0" suffix and magnitudes outside [1e-4, 1e16)
// use exponent notation.
func formatFloat(v float64) string {
	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
