package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"houseprice/pkg/geo"
	"houseprice/pkg/location"
)

func locationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Inspect and extend the location table",
	}
	cmd.AddCommand(locationsListCmd())
	cmd.AddCommand(locationsGeocodeCmd())
	return cmd
}

func locationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the known locations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := loadLocations(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range table.Names() {
				c := table.CoordinatesFor(name)
				marker := ""
				if name == table.DefaultKey() {
					marker = " (default)"
				}
				fmt.Fprintf(out, "%-12s %9.4f %9.4f  %s%s\n", name, c.Lat, c.Lon, c.Geohash(), marker)
			}
			return nil
		},
	}
}

func locationsGeocodeCmd() *cobra.Command {
	var (
		out     string
		baseURL string
		delay   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "geocode <place>...",
		Short: "Look places up on Nominatim and add them to a location table file",
		Long: `geocode resolves each place name with OpenStreetMap Nominatim and writes the
merged table to --out. The table starts from locations.file when it is set and
from the built-in cities otherwise. Point locations.file at the result to use it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadLocations(cfg)
			if err != nil {
				return err
			}
			entries := table.Entries()

			client := location.NewClient(location.WithBaseURL(baseURL))
			var errs []error
			for i, query := range args {
				if i > 0 && delay > 0 {
					select {
					case <-time.After(delay):
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					}
				}
				place, err := client.Geocode(cmd.Context(), query)
				if err != nil {
					log.Warn().Err(err).Str("query", query).Msg("geocoding failed")
					errs = append(errs, err)
					continue
				}
				key := geo.NormalizeKey(query)
				entries[key] = place.Coordinates
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %.4f, %.4f (%s)\n", key, place.Coordinates.Lat, place.Coordinates.Lon, place.DisplayName)
			}

			if err := writeTableFile(out, table.DefaultKey(), entries); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "locations.json", "table file to write")
	cmd.Flags().StringVar(&baseURL, "nominatim-url", location.DefaultBaseURL, "Nominatim base URL")
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "pause between requests, Nominatim allows one per second")
	return cmd
}

func writeTableFile(path, defaultKey string, entries map[string]geo.Coordinates) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".locations-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := geo.WriteTable(tmp, defaultKey, entries); err != nil {
		tmp.Close()
		return fmt.Errorf("write location table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
