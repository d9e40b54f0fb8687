package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/transaction"
	"github.com/spf13/cobra"
)

// quietLevel keeps JSON logs off the terminal for one-shot commands unless something fails.
const quietLevel = "error"

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print transaction and sales summaries",
	RunE:  runSummary,
}

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "List customers grouped by transaction status",
	RunE:  runCustomers,
}

func init() {
	summaryCmd.Flags().String("start", "", "first day, YYYY-MM-DD")
	summaryCmd.Flags().String("end", "", "last day, YYYY-MM-DD")
	summaryCmd.Flags().String("status", "", "only this transaction status")
	summaryCmd.Flags().String("method", "", "only this payment method")

	customersCmd.Flags().String("status", string(payment.StatusPaid), "status bucket, or \"all\"")
	customersCmd.Flags().String("search", "", "match name, email, document or phone")
}

// withApp loads config and builds a read-only app for one command.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, appOptions{logLevel: quietLevel})
	if err != nil {
		return err
	}
	defer a.close()
	return explain(fn(ctx, a))
}

func runSummary(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		f, err := summaryFilters(cmd, a)
		if err != nil {
			return err
		}
		sum, err := a.dashboard.TransactionsSummary(ctx, f)
		if err != nil {
			return err
		}
		sales, err := a.dashboard.SalesSummary(ctx)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), sum, sales)
		return nil
	})
}

func summaryFilters(cmd *cobra.Command, a *app) (transaction.Filters, error) {
	var f transaction.Filters
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	status, _ := cmd.Flags().GetString("status")
	method, _ := cmd.Flags().GetString("method")

	loc := a.dashboard.Location()
	if start != "" {
		t, err := transaction.ParseDate(start, loc)
		if err != nil {
			return f, fmt.Errorf("--start: %w", err)
		}
		f.StartDate = t
	}
	if end != "" {
		t, err := transaction.ParseDate(end, loc)
		if err != nil {
			return f, fmt.Errorf("--end: %w", err)
		}
		f.EndDate = t
	}
	f.Status = status
	f.PaymentMethod = method
	return f, nil
}

func printSummary(out io.Writer, sum transaction.Summary, sales transaction.SalesSummary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Transações\t%d\n", sum.TotalTransactions)
	fmt.Fprintf(tw, "Valor total\t%s\n", money.FormatBRL(sum.TotalAmount))
	fmt.Fprintf(tw, "Valor pago\t%s\n", money.FormatBRL(sum.PaidAmount))
	fmt.Fprintf(tw, "Taxa de aprovação\t%s%%\n", sum.ApprovalRate.StringFixed(2))
	fmt.Fprintln(tw)

	statuses := make([]payment.Status, 0, len(sum.StatusCount))
	for s := range sum.StatusCount {
		statuses = append(statuses, s)
	}
	slices.Sort(statuses)
	for _, s := range statuses {
		fmt.Fprintf(tw, "  %s\t%d\n", s.Label(), sum.StatusCount[s])
	}
	methods := make([]payment.Method, 0, len(sum.PaymentMethodCount))
	for m := range sum.PaymentMethodCount {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	for _, m := range methods {
		fmt.Fprintf(tw, "  %s\t%d\n", m.Label(), sum.PaymentMethodCount[m])
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Vendas (30 dias)\t%s\n", money.FormatBRL(sales.TotalSales))
	fmt.Fprintf(tw, "Período anterior\t%s\n", money.FormatBRL(sales.PreviousTotal))
	fmt.Fprintf(tw, "Variação\t%s%%\n", sales.PercentChange.StringFixed(2))
	fmt.Fprintf(tw, "Ticket médio\t%s\n", money.FormatBRL(sales.AverageTicket))
	fmt.Fprintf(tw, "Pedidos pagos\t%d de %d\n", sales.PaidOrders, sales.TotalOrders)
	fmt.Fprintf(tw, "Conversão\t%s%%\n", sales.ConversionRate.StringFixed(2))
	_ = tw.Flush()
}

func runCustomers(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	search, _ := cmd.Flags().GetString("search")
	return withApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.dashboard.Customers(ctx, payment.Status(status), search)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNOME\tEMAIL\tDOCUMENTO\tTRANSAÇÕES\tTOTAL")
		for _, c := range res.Customers {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
				c.ID, c.Name, c.Email, c.DocumentNumber, c.Stats.Count, money.FormatBRL(c.Stats.Total))
		}
		_ = tw.Flush()
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d cliente(s) com status %s\n", len(res.Customers), res.Status.Label())
		return nil
	})
}
