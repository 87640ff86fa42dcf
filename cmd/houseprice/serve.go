package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"houseprice/internal/auth"
	"houseprice/internal/features"
	"houseprice/internal/pricing"
	"houseprice/internal/server"
	"houseprice/pkg/kafkaclient"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides http.address)")
	_ = v.BindPFlag("http.address", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()

	s3, err := openStorage(cfg)
	if err != nil {
		return err
	}

	model, err := loadModel(ctx, cfg, fetcherFor(s3))
	if err != nil {
		return err
	}
	defer closeModel(model)

	locations, err := loadLocations(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := openUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	deps := server.Deps{
		Auth:      auth.NewService(store),
		Builder:   features.NewBuilder(locations),
		Pricing:   pricing.NewService(model, pricing.Currency{Rate: cfg.Currency.Rate, Symbol: cfg.Currency.Symbol}),
		Locations: locations,
	}
	if cfg.KafkaEnabled() {
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing prediction events")
		producer := kafkaclient.NewKafkaProducer(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close kafka producer")
			}
		}()
		deps.Publisher = producer
	}

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.NewHandler(deps), server.SessionOptions{
		Secret: cfg.Session.Secret,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	})

	log.Info().Str("addr", cfg.HTTP.Address).Msg("starting http server")
	httpServer := server.New(
		router,
		server.Addr(cfg.HTTP.Address),
		server.ReadTimeout(cfg.HTTP.Timeout),
		server.WriteTimeout(cfg.HTTP.Timeout),
	)

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down http server")
	case err := <-httpServer.Notify():
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	if err := httpServer.Shutdown(); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
