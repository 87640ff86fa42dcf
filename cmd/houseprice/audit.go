package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"houseprice/internal/audit"
	"houseprice/pkg/kafkaclient"
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Record published predictions",
		Long: `The audit worker consumes prediction events from Kafka and records each one
in Postgres and, when MinIO is configured, as a JSON object in the audit bucket.
An event's offset is committed only after every sink accepted it.`,
	}
	cmd.AddCommand(auditRunCmd())
	cmd.AddCommand(auditShowCmd())
	return cmd
}

func auditRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Consume prediction events until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !cfg.KafkaEnabled() {
				return errors.New("kafka.brokers and kafka.topic are required")
			}

			var sink *audit.PostgresSink
			if cfg.Postgres.DSN != "" {
				pg, err := openPostgres(ctx, cfg)
				if err != nil {
					return err
				}
				defer pg.Close()
				sink = audit.NewPostgresSink(pg.Pool)
			}

			var archiver audit.Archiver
			if cfg.Audit.Bucket != "" {
				s3, err := openStorage(cfg)
				if err != nil {
					return err
				}
				if s3 == nil {
					return errors.New("audit.bucket is set but minio is not configured")
				}
				if _, err := s3.CreateBucket(ctx, cfg.Audit.Bucket, ""); err != nil {
					return err
				}
				archiver = s3
			}
			if sink == nil && archiver == nil {
				return errors.New("nothing to record into: set postgres.dsn or audit.bucket")
			}

			log.Info().
				Strs("brokers", cfg.Kafka.Brokers).
				Str("topic", cfg.Kafka.Topic).
				Str("group_id", cfg.Kafka.GroupID).
				Msg("connecting to kafka")
			consumer := kafkaclient.NewKafkaConsumer(cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...)
			consumer.StartConsuming(ctx)
			defer consumer.Stop()

			stats := audit.NewWorker(consumer, sink, archiver, cfg.Audit.Bucket).Run(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %d events, %d failed\n", stats.Recorded, stats.Failed)
			return nil
		},
	}
}

func auditShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Print an archived prediction event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Audit.Bucket == "" {
				return errors.New("audit.bucket is not set")
			}
			s3, err := openStorage(cfg)
			if err != nil {
				return err
			}
			if s3 == nil {
				return errors.New("minio is not configured")
			}

			event, err := s3.GetEvent(cmd.Context(), cfg.Audit.Bucket, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(event)
		},
	}
}
