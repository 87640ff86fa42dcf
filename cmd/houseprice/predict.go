package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"houseprice/internal/features"
	"houseprice/internal/pricing"
	"houseprice/internal/server"
)

var predictFields = []struct {
	name  string
	usage string
}{
	{features.FieldBedrooms, "number of bedrooms (required)"},
	{features.FieldBathrooms, "number of bathrooms (required)"},
	{features.FieldSqftLiving, "living area in square feet (required)"},
	{features.FieldSqftLot, "lot area in square feet (required)"},
	{features.FieldYrBuilt, "year built (required)"},
	{features.FieldCondition, "condition rating (required)"},
	{features.FieldFloors, "number of floors (default 1)"},
	{features.FieldGrade, "construction grade (default 7)"},
	{features.FieldYrRenovated, "year renovated, 0 if never (default 0)"},
	{features.FieldWaterfront, "1 if waterfront (default 0)"},
	{features.FieldView, "view rating (default 0)"},
	{features.FieldLocation, "city name (default delhi)"},
}

func predictCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Estimate a price from the command line",
		Example: `  houseprice predict --bedrooms 3 --bathrooms 2 --sqft_living 1800 \
    --sqft_lot 5000 --yr_built 1995 --condition 4 --location mumbai`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			fields := make(map[string]string)
			for _, f := range predictFields {
				if cmd.Flags().Changed(f.name) {
					fields[f.name], _ = cmd.Flags().GetString(f.name)
				}
			}

			s3, err := openStorage(cfg)
			if err != nil {
				return err
			}
			model, err := loadModel(cmd.Context(), cfg, fetcherFor(s3))
			if err != nil {
				return err
			}
			defer closeModel(model)

			locations, err := loadLocations(cfg)
			if err != nil {
				return err
			}

			attrs, derived, err := features.NewBuilder(locations).BuildAttributes(fields)
			if err != nil {
				return fmt.Errorf("%s: %w", server.MsgCheckInputs, err)
			}
			vec := features.Assemble(attrs, derived)

			res, err := pricing.NewService(model, pricing.Currency{Rate: cfg.Currency.Rate, Symbol: cfg.Currency.Symbol}).Predict(vec)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, server.Sentence(attrs.Location, res.Formatted))
			if verbose {
				if !locations.Has(attrs.Location) {
					fmt.Fprintf(out, "  location %q is unknown, used %s coordinates\n", attrs.Location, locations.DefaultKey())
				}
				fmt.Fprintf(out, "  basement: %s sqft\n", humanize.FormatFloat("#,###.##", derived.SqftBasement))
				fmt.Fprintf(out, "  model output: %s\n", humanize.FormatFloat("#,###.##", res.Estimate))
				for i, name := range features.Names {
					fmt.Fprintf(out, "  %-14s %s\n", name+":", strconv.FormatFloat(vec[i], 'f', -1, 64))
				}
			}
			return nil
		},
	}
	for _, f := range predictFields {
		cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the feature vector")
	return cmd
}
