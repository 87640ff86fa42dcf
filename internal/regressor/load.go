package regressor

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

const (
	SourceFile = "file"
	SourceS3   = "s3"

	FormatLinear = "linear"
	FormatONNX   = "onnx"
)

// Fetcher retrieves a model artifact from object storage.
type Fetcher interface {
	GetArtifact(ctx context.Context, bucket, key string) ([]byte, error)
}

// Options select where the artifact lives and how to decode it.
type Options struct {
	Source string
	Format string
	Path   string
	Bucket string
	Key    string
	// Features is the expected input order; its length is the model width.
	Features []string
	ONNX     ONNXConfig
}

// Load reads and decodes the model artifact once. fetcher is only used for
// the s3 source and may be nil otherwise.
func Load(ctx context.Context, opts Options, fetcher Fetcher) (Regressor, error) {
	raw, origin, err := readArtifact(ctx, opts, fetcher)
	if err != nil {
		return nil, err
	}

	var model Regressor
	switch opts.Format {
	case FormatLinear, "":
		model, err = DecodeLinear(bytes.NewReader(raw), opts.Features)
	case FormatONNX:
		cfg := opts.ONNX
		cfg.Width = len(opts.Features)
		model, err = NewONNXModel(raw, cfg)
	default:
		return nil, fmt.Errorf("unknown model format %q", opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("load model from %s: %w", origin, err)
	}

	log.Info().Str("origin", origin).Str("format", opts.Format).Int("bytes", len(raw)).Msg("model loaded")
	return model, nil
}

func readArtifact(ctx context.Context, opts Options, fetcher Fetcher) ([]byte, string, error) {
	switch opts.Source {
	case SourceFile, "":
		if opts.Path == "" {
			return nil, "", fmt.Errorf("model path is not set")
		}
		raw, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, opts.Path, fmt.Errorf("read model artifact: %w", err)
		}
		return raw, opts.Path, nil
	case SourceS3:
		origin := fmt.Sprintf("s3://%s/%s", opts.Bucket, opts.Key)
		if fetcher == nil {
			return nil, origin, fmt.Errorf("no object store configured for %s", origin)
		}
		if opts.Bucket == "" || opts.Key == "" {
			return nil, origin, fmt.Errorf("model bucket and key are required for the s3 source")
		}
		raw, err := fetcher.GetArtifact(ctx, opts.Bucket, opts.Key)
		if err != nil {
			return nil, origin, fmt.Errorf("fetch model artifact: %w", err)
		}
		return raw, origin, nil
	default:
		return nil, "", fmt.Errorf("unknown model source %q", opts.Source)
	}
}
