package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"houseprice/internal/config"
	"houseprice/internal/features"
	"houseprice/internal/postgres"
	"houseprice/internal/regressor"
	"houseprice/internal/storage"
	"houseprice/internal/users"
	"houseprice/pkg/geo"
)

// openStorage returns nil when MinIO is not configured.
func openStorage(c *config.Config) (*storage.S3Service, error) {
	if !c.MinioEnabled() {
		return nil, nil
	}
	return storage.NewS3Service(storage.Config{
		Endpoint:  c.Minio.Endpoint,
		AccessKey: c.Minio.AccessKey,
		SecretKey: c.Minio.SecretKey,
		UseSSL:    c.Minio.UseSSL,
	})
}

func openPostgres(ctx context.Context, c *config.Config) (*postgres.Postgres, error) {
	log.Info().Msg("initializing postgres")
	pg, err := postgres.New(ctx, c.Postgres.DSN, postgres.MaxPoolSize(c.Postgres.MaxPoolSize))
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

// openUserStore picks the configured backend. The returned func releases it.
func openUserStore(ctx context.Context, c *config.Config) (users.Store, func(), error) {
	switch c.Users.Backend {
	case "postgres":
		pg, err := openPostgres(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		return users.NewPostgresStore(pg.Pool), pg.Close, nil
	default:
		return users.NewFileStore(c.Users.File), func() {}, nil
	}
}

func loadLocations(c *config.Config) (*geo.Table, error) {
	if c.Locations.File == "" {
		return geo.DefaultTable(), nil
	}
	f, err := os.Open(c.Locations.File)
	if err != nil {
		return nil, fmt.Errorf("open location table: %w", err)
	}
	defer f.Close()

	table, err := geo.LoadTable(f)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", c.Locations.File).Int("locations", len(table.Names())).Msg("location table loaded")
	return table, nil
}

// loadModel reads the regressor once. fetcher may be nil unless the model
// source is s3.
func loadModel(ctx context.Context, c *config.Config, fetcher regressor.Fetcher) (regressor.Regressor, error) {
	opts := regressor.Options{
		Source:   c.Model.Source,
		Format:   c.Model.Format,
		Path:     c.Model.Path,
		Bucket:   c.Model.Bucket,
		Key:      c.Model.Key,
		Features: features.Names[:],
		ONNX: regressor.ONNXConfig{
			SharedLibrary: c.Model.ONNXLibrary,
			InputName:     c.Model.InputName,
			OutputName:    c.Model.OutputName,
		},
	}
	return regressor.Load(ctx, opts, fetcher)
}

func closeModel(model regressor.Regressor) {
	if c, ok := model.(regressor.Closer); ok {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("failed to release model")
		}
	}
}

// fetcherFor avoids handing a typed nil to regressor.Load.
func fetcherFor(s3 *storage.S3Service) regressor.Fetcher {
	if s3 == nil {
		return nil
	}
	return s3
}

// cfgWithModel points a copy of the loaded config at a local artifact.
func cfgWithModel(path, format string) *config.Config {
	c := *cfg
	c.Model.Source = regressor.SourceFile
	c.Model.Path = path
	c.Model.Format = format
	return &c
}
