package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdrpull/xdrpull/internal/collector"
	"github.com/xdrpull/xdrpull/internal/config"
	"github.com/xdrpull/xdrpull/internal/storage"
	"github.com/xdrpull/xdrpull/internal/xdr"
)

func newPullCmd() *cobra.Command {
	var (
		bucket    string
		prefix    string
		region    string
		timeout   time.Duration
		tlsVerify bool
		rateLimit float64
	)

	cmd := &cobra.Command{
		Use:   "pull KEY_ID KEY KEY_TYPE HOST PATH [START [PAGE_SIZE [MAX_PAGES]]]",
		Short: "Run one retrieval: pull alert pages and upload the result to S3",
		Long: `Pull retrieves alerts from the tenant at HOST PATH, paging from START in
PAGE_SIZE windows up to MAX_PAGES pages (0 for unbounded), and uploads the
accumulated set to S3. A page failure ends retrieval early but the partial
result is still uploaded and the command exits 0; only configuration and
storage failures are errors.`,
		Args: cobra.RangeArgs(5, 8),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("KEY_ID must be an integer: %w", err)
			}
			keyType, err := xdr.ParseKeyType(args[2])
			if err != nil {
				return err
			}

			start, pageSize, maxPages := 0, 100, 10
			optional := []*int{&start, &pageSize, &maxPages}
			for i, arg := range args[5:] {
				v, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("argument %q must be an integer: %w", arg, err)
				}
				*optional[i] = v
			}

			creds := xdr.Credentials{
				KeyID:   keyID,
				Key:     args[1],
				KeyType: keyType,
				Host:    args[3],
				Path:    args[4],
			}
			if err := creds.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			awsCfg, err := collector.NewAWSConfig(ctx, config.AWSConfig{Region: region})
			if err != nil {
				return fmt.Errorf("loading AWS configuration: %w", err)
			}

			fetcher := xdr.NewFetcher(creds, xdr.NewSigner(), xdr.FetcherConfig{
				Timeout:   timeout,
				TLSVerify: tlsVerify,
			}, log)
			paginator := xdr.NewPaginator(fetcher, xdr.PaginatorConfig{
				Start:             start,
				PageSize:          pageSize,
				MaxPages:          maxPages,
				RequestsPerSecond: rateLimit,
			}, log)
			sink := storage.NewSink(awsCfg, bucket, prefix, log)

			report, err := collector.NewRunner(paginator, sink, log).Run(ctx)
			if err != nil {
				return err
			}

			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "db-pan-bucket", "destination S3 bucket")
	cmd.Flags().StringVar(&prefix, "prefix", "cortex-alerts", "S3 key prefix")
	cmd.Flags().StringVar(&region, "region", "us-east-1", "AWS region")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	cmd.Flags().BoolVar(&tlsVerify, "tls-verify", false, "verify the tenant TLS certificate")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "max page requests per second, 0 for unlimited")

	return cmd
}

func printReport(cmd *cobra.Command, report *collector.RunReport) {
	out := cmd.OutOrStdout()
	if report.PageErr != nil {
		fmt.Fprintf(out, "Retrieval stopped early: %v\n", report.PageErr)
	}
	fmt.Fprintf(out, "Retrieved %d alerts over %d pages in %s\n",
		report.Alerts, report.Pages, report.Duration.Round(time.Millisecond))
	if report.ObjectKey != "" {
		fmt.Fprintf(out, "Uploaded to s3 key %s\n", report.ObjectKey)
	} else {
		fmt.Fprintln(out, "Nothing written to storage")
	}
}
