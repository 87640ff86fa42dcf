package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"houseprice/internal/features"
	"houseprice/internal/keys"
	"houseprice/internal/regressor"
)

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage regressor artifacts",
	}
	cmd.AddCommand(modelPushCmd())
	return cmd
}

func modelPushCmd() *cobra.Command {
	var name, version, bucket, format string
	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Validate a model artifact and upload it to object storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			if format == "" {
				format = regressor.FormatLinear
				if strings.EqualFold(filepath.Ext(path), ".onnx") {
					format = regressor.FormatONNX
				}
			}
			if bucket == "" {
				bucket = cfg.Model.Bucket
			}
			if bucket == "" {
				return errors.New("set --bucket or model.bucket")
			}

			s3, err := openStorage(cfg)
			if err != nil {
				return err
			}
			if s3 == nil {
				return errors.New("minio is not configured")
			}

			// Reject artifacts that do not accept the feature vector.
			model, err := loadModel(ctx, cfgWithModel(path, format), nil)
			if err != nil {
				return err
			}
			closeModel(model)

			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if _, err := s3.CreateBucket(ctx, bucket, ""); err != nil {
				return err
			}
			key := keys.Model(name, version, format)
			if err := s3.PutArtifact(ctx, bucket, key, raw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%s, %d features) to s3://%s/%s\n",
				path, humanize.Bytes(uint64(len(raw))), features.Size, bucket, key)
			fmt.Fprintf(cmd.OutOrStdout(), "serve it with model.source=s3 model.bucket=%s model.key=%s model.format=%s\n", bucket, key, format)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "house-price", "model name")
	cmd.Flags().StringVar(&version, "version", "v1", "model version")
	cmd.Flags().StringVar(&bucket, "bucket", "", "target bucket (default model.bucket)")
	cmd.Flags().StringVar(&format, "format", "", "linear or onnx (default from the file extension)")
	return cmd
}
