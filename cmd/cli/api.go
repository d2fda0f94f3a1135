package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/emart/internal/adapter/http/dto"
)

type apiClient struct {
	baseURL string
	token   string
	timeout time.Duration
}

// get decodes the JSON body of GET path into out.
func (c *apiClient) get(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.baseURL, "/")+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s (status %d)", path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, truncate(string(body), 200))
	}

	return json.Unmarshal(body, out)
}

func dashboardCmd(api *apiClient) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print shop metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var d dto.DashboardResponse
			if err := api.get(cmd.Context(), "/api/v1/dashboard", &d); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, d)
			}

			fmt.Fprintf(out, "Total revenue:     %s\n", d.TotalRevenue.StringFixed(0))
			fmt.Fprintf(out, "Pending payments:  %d\n", d.PendingPaymentCount)
			fmt.Fprintf(out, "Companies:         %d\n", d.CompanyCount)
			fmt.Fprintf(out, "Out of stock:      %d\n\n", len(d.OutOfStockProducts))

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPANY\tPRODUCTS\tSTOCK\tSALES\tPURCHASES")
			for _, c := range d.Companies {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
					truncate(c.CompanyName, 24), c.ProductCount, c.TotalStock,
					c.SaleTotal.StringFixed(0), c.PurchaseTotal.StringFixed(0))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")

	return cmd
}

func planCmd(api *apiClient) *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Installment plan operations",
	}

	planCmd.AddCommand(&cobra.Command{
		Use:   "show <sale-id>",
		Short: "Print the installment plan balance of a sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid sale id %q", args[0])
			}

			var sale dto.SaleResponse
			if err := api.get(cmd.Context(), fmt.Sprintf("/api/v1/sales/%d", id), &sale); err != nil {
				return err
			}

			plan := sale.InstallmentPlan
			if plan == nil {
				return fmt.Errorf("sale %d has no installment plan", id)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sale %d (%s)\n", sale.ID, sale.PaymentStatus)
			fmt.Fprintf(out, "Total price:   %s\n", plan.TotalPrice.StringFixed(0))
			fmt.Fprintf(out, "Down payment:  %s\n", plan.DownPayment.StringFixed(0))
			fmt.Fprintf(out, "Paid so far:   %s\n", plan.PaidSoFar.StringFixed(0))
			fmt.Fprintf(out, "Remaining:     %s\n\n", plan.RemainingPrice.StringFixed(0))

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDUE\tEXPECTED\tPAID")
			for _, in := range plan.Installments {
				paid := "-"
				if in.ActualPayment != nil {
					paid = in.ActualPayment.StringFixed(0)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", in.ID, in.DueDate, in.ExpectedPayment.StringFixed(0), paid)
			}
			return tw.Flush()
		},
	})

	return planCmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
