package providers

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"watchme-asr/internal/app"
	"watchme-asr/internal/app/api/provider"
)

var check bool

func init() {
	Cmd.Flags().BoolVar(&check, "check", false, "construct each enabled provider and validate its configuration")
}

// Cmd represents the providers command
var Cmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and the active selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, cleanup, err := app.InitializeRegistry()
		if err != nil {
			return err
		}
		defer cleanup()

		var health map[string]error
		if check {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			health = registry.HealthCheckAll(ctx)
		}
		return printProviders(cmd.OutOrStdout(), registry.Active(), registry.Describe(), health)
	},
}

func printProviders(w io.Writer, active provider.Selection, statuses []provider.ProviderStatus, health map[string]error) error {
	fmt.Fprintf(w, "active: %s", active.Provider)
	if active.Model != "" {
		fmt.Fprintf(w, " (%s)", active.Model)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tENABLED\tCREDENTIALS\tMODEL\tHEALTH")
	for _, s := range statuses {
		name := s.Name
		if s.Active {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\t%s\n", name, s.Kind, s.Enabled, s.CredentialsPresent, s.DefaultModel, healthText(s, health))
	}
	return tw.Flush()
}

func healthText(s provider.ProviderStatus, health map[string]error) string {
	switch {
	case !s.Registered:
		return "unregistered"
	case health == nil:
		return "-"
	}
	err, checked := health[s.Name]
	switch {
	case !checked:
		return "-"
	case err != nil:
		return err.Error()
	default:
		return "ok"
	}
}
