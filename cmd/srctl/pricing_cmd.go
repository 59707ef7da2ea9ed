package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
	"github.com/peterfiasco/easylawBe-sub000/internal/service"
)

type pricingOutput struct {
	Command    string `json:"command"`
	DurationMS int64  `json:"duration_ms"`
	Result     any    `json:"result"`
}

func newPricingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Manage pricing entries",
	}
	cmd.AddCommand(newPricingListCmd(), newPricingSetCmd(), newPricingDeactivateCmd(), newPricingQuoteCmd())
	return cmd
}

func newPricingListCmd() *cobra.Command {
	var (
		serviceType     string
		includeInactive bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pricing entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			filter := repository.PricingFilter{IncludeInactive: includeInactive}
			if serviceType != "" {
				st := domain.ServiceType(serviceType)
				filter.ServiceType = &st
			}
			start := time.Now()
			entries, err := c.Pricing.List(cmd.Context(), operator, filter)
			if err != nil {
				return err
			}
			return writeJSON(pricingOutput{Command: "pricing list", DurationMS: time.Since(start).Milliseconds(), Result: entries})
		},
	}
	cmd.Flags().StringVar(&serviceType, "service-type", "", "Filter by service type")
	cmd.Flags().BoolVar(&includeInactive, "include-inactive", false, "Include superseded entries")
	return cmd
}

func newPricingSetCmd() *cobra.Command {
	var (
		input    service.PricingEntryInput
		st       string
		priority string
		price    string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or replace the active entry for a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseNaira(price)
			if err != nil {
				return err
			}
			input.ServiceType = domain.ServiceType(st)
			input.Priority = domain.Priority(priority)
			input.Price = amount

			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			entry, previous, err := c.Pricing.Replace(cmd.Context(), operator, input)
			if err != nil {
				return err
			}
			return writeJSON(pricingOutput{
				Command:    "pricing set",
				DurationMS: time.Since(start).Milliseconds(),
				Result:     map[string]any{"entry": entry, "previous": previous},
			})
		},
	}
	cmd.Flags().StringVar(&st, "service-type", "", "Service type (required)")
	cmd.Flags().StringVar(&input.Subtype, "subtype", "", "Subtype (required)")
	cmd.Flags().StringVar(&priority, "priority", string(domain.PriorityStandard), "Priority tier")
	cmd.Flags().StringVar(&price, "price", "", "Price in naira, e.g. 15000 or 15000.50 (required)")
	cmd.Flags().StringVar(&input.Duration, "duration", "", "Turnaround text, e.g. \"3-5 business days\"")
	cmd.Flags().StringSliceVar(&input.Features, "feature", nil, "Feature line (repeatable)")
	_ = cmd.MarkFlagRequired("service-type")
	_ = cmd.MarkFlagRequired("subtype")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newPricingDeactivateCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Retire a pricing entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			entry, err := c.Pricing.Deactivate(cmd.Context(), operator, id)
			if err != nil {
				return err
			}
			return writeJSON(pricingOutput{Command: "pricing deactivate", DurationMS: time.Since(start).Milliseconds(), Result: entry})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Entry UUID (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newPricingQuoteCmd() *cobra.Command {
	var st, subtype, priority string
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Resolve the price a new request would be charged",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			quote, err := c.Pricing.Quote(cmd.Context(), domain.ServiceType(st), subtype, domain.Priority(priority))
			if err != nil {
				return err
			}
			return writeJSON(pricingOutput{Command: "pricing quote", DurationMS: time.Since(start).Milliseconds(), Result: quote})
		},
	}
	cmd.Flags().StringVar(&st, "service-type", "", "Service type (required)")
	cmd.Flags().StringVar(&subtype, "subtype", "", "Subtype (required)")
	cmd.Flags().StringVar(&priority, "priority", string(domain.PriorityStandard), "Priority tier")
	_ = cmd.MarkFlagRequired("service-type")
	_ = cmd.MarkFlagRequired("subtype")
	return cmd
}

// parseNaira converts a naira amount to kobo, rejecting fractions of a kobo.
func parseNaira(val string) (domain.Amount, error) {
	d, err := decimal.NewFromString(val)
	if err != nil {
		return 0, fmt.Errorf("invalid --price %q: %w", val, err)
	}
	kobo := d.Shift(2)
	if !kobo.Equal(kobo.Truncate(0)) {
		return 0, fmt.Errorf("invalid --price %q: more than two decimal places", val)
	}
	return domain.Amount(kobo.IntPart()), nil
}
