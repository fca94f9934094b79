package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"storefront/internal/client"
	"storefront/internal/models"
)

type rootOptions struct {
	server  string
	apiKey  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Manage the storefront catalog, orders and payment settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("STOREFRONT_URL", "http://localhost:8080"), "storefront API base URL")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv("API_KEY"), "value sent as x-api-key")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP request timeout")

	root.AddCommand(
		newPlatformsCmd(opts),
		newServicesCmd(opts),
		newPackagesCmd(opts),
		newOrdersCmd(opts),
		newPaymentCmd(opts),
		newLoginCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func (o *rootOptions) client() *client.Client {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	return client.New(o.server,
		client.WithAPIKey(o.apiKey),
		client.WithHTTPClient(&http.Client{Timeout: o.timeout}),
		client.WithLogger(log),
	)
}

func newPlatformsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			platforms, err := opts.client().GetPlatforms(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "NAME", "COLOR")
			for _, p := range platforms {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Color)
			}
			return w.Flush()
		},
	}
}

func newServicesCmd(opts *rootOptions) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()

			var services []models.Service
			var err error
			if platform != "" {
				services, err = c.GetServicesByPlatform(cmd.Context(), platform)
			} else {
				services, err = c.GetServices(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout(), "ID", "PLATFORM", "TITLE", "SAR", "EGP", "USD")
			for _, s := range services {
				var p models.Prices
				if s.Prices != nil {
					p = *s.Prices
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%g\n", s.ID, s.Platform, s.Title, p.SAR, p.EGP, p.USD)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "only services of this platform")
	return cmd
}

func newPackagesCmd(opts *rootOptions) *cobra.Command {
	var service string

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()

			var packages []models.PackageOption
			var err error
			if service != "" {
				packages, err = c.GetPackagesByService(cmd.Context(), service)
			} else {
				packages, err = c.GetPackages(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), packages)
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "only packages of this service")
	return cmd
}

func newOrdersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, place and update orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := opts.client().GetOrders(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "SERVICE", "QUANTITY", "PRICE", "STATUS", "CREATED")
			for _, o := range orders {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
					o.ID, o.ServiceID, formatNumber(o.Quantity), formatNumber(o.Price), o.Currency, o.Status, o.CreatedAt)
			}
			return w.Flush()
		},
	})

	var order models.Order
	var quantity, price float64
	add := &cobra.Command{
		Use:   "add",
		Short: "Place an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("quantity") {
				order.Quantity = &quantity
			}
			if cmd.Flags().Changed("price") {
				order.Price = &price
			}
			created, err := opts.client().AddOrder(cmd.Context(), order)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	add.Flags().StringVar(&order.ServiceID, "service", "", "service id")
	add.Flags().StringVar(&order.ServiceName, "service-name", "", "service title")
	add.Flags().StringVar(&order.Platform, "platform", "", "platform id")
	add.Flags().StringVar(&order.AccountURL, "account-url", "", "account or post URL")
	add.Flags().StringVar(&order.WhatsappNumber, "whatsapp", "", "customer WhatsApp number")
	add.Flags().StringVar(&order.Currency, "currency", "SAR", "SAR, EGP or USD")
	add.Flags().StringVar(&order.PaymentMethod, "payment-method", "", "payment method used")
	add.Flags().Float64Var(&quantity, "quantity", 0, "units ordered")
	add.Flags().Float64Var(&price, "price", 0, "total price")
	_ = add.MarkFlagRequired("service")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <pending|confirmed|completed|cancelled>",
		Short: "Change the status of an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := opts.client().UpdateOrderStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		},
	})

	return cmd
}

func newPaymentCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Show or change payment settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show payment settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.client().GetPaymentSettings(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), settings)
		},
	})

	var settings models.PaymentSettings
	set := &cobra.Command{
		Use:   "set",
		Short: "Change payment settings; unset flags keep their current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			current, err := c.GetPaymentSettings(cmd.Context())
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("stc-pay") {
				current.StcPayNumber = settings.StcPayNumber
			}
			if flags.Changed("stc-pay-qr") {
				current.StcPayQr = settings.StcPayQr
			}
			if flags.Changed("al-rajhi") {
				current.AlRajhiAccount = settings.AlRajhiAccount
			}
			if flags.Changed("al-rajhi-qr") {
				current.AlRajhiQr = settings.AlRajhiQr
			}
			if flags.Changed("vodafone-cash") {
				current.VodafoneCash = settings.VodafoneCash
			}
			if flags.Changed("vodafone-qr") {
				current.VodafoneQr = settings.VodafoneQr
			}

			if err := c.SavePaymentSettings(cmd.Context(), current); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), current)
		},
	}
	set.Flags().StringVar(&settings.StcPayNumber, "stc-pay", "", "STC Pay number")
	set.Flags().StringVar(&settings.StcPayQr, "stc-pay-qr", "", "STC Pay QR image URL")
	set.Flags().StringVar(&settings.AlRajhiAccount, "al-rajhi", "", "Al Rajhi account number")
	set.Flags().StringVar(&settings.AlRajhiQr, "al-rajhi-qr", "", "Al Rajhi QR image URL")
	set.Flags().StringVar(&settings.VodafoneCash, "vodafone-cash", "", "Vodafone Cash number")
	set.Flags().StringVar(&settings.VodafoneQr, "vodafone-qr", "", "Vodafone Cash QR image URL")
	cmd.AddCommand(set)

	return cmd
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Check admin credentials",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := opts.client().CheckAdminCredentials(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("invalid credentials")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "credentials accepted")
			return nil
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <collection>",
		Short: "Print a collection whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			err := opts.client().Watch(cmd.Context(), args[0], interval, func(records []models.Record) {
				fmt.Fprintf(out, "# %s %s (%d records)\n", time.Now().Format(time.RFC3339), args[0], len(records))
				_ = printJSON(out, records)
			})
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", client.DefaultWatchInterval, "polling interval")
	return cmd
}

func newTable(out io.Writer, headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, h)
	}
	fmt.Fprintln(w)
	return w
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
