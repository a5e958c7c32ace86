// Command financeiro-export writes the ledger to a CSV or XLSX file, or loads
// a CSV file in the same format back into it.
//
//	financeiro-export [-format csv|xlsx] [-out path] [-account name] [-kind Entrada|Saída] [-from DD/MM/YYYY -to DD/MM/YYYY]
//	financeiro-export -import path
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"financeiro/internal/cli"
	"financeiro/internal/core"
	"financeiro/internal/export"
	"financeiro/internal/ledger"
	applog "financeiro/internal/log"
)

type options struct {
	format  string
	out     string
	in      string
	account string
	kind    string
	from    string
	to      string
}

func parseFlags(args []string, defaultOut string) (options, error) {
	var o options
	fs := flag.NewFlagSet("financeiro-export", flag.ContinueOnError)
	fs.StringVar(&o.format, "format", "csv", "export format: csv or xlsx")
	fs.StringVar(&o.out, "out", "", "output file (default EXPORT_PATH, extension follows -format)")
	fs.StringVar(&o.in, "import", "", "CSV file to import instead of exporting")
	fs.StringVar(&o.account, "account", "", "only export movements of this account")
	fs.StringVar(&o.kind, "kind", "", "only export movements of this kind")
	fs.StringVar(&o.from, "from", "", "range start, DD/MM/YYYY")
	fs.StringVar(&o.to, "to", "", "range end, DD/MM/YYYY")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.out == "" {
		o.out = defaultOut
		if strings.EqualFold(o.format, string(export.XLSX)) && strings.HasSuffix(o.out, ".csv") {
			o.out = strings.TrimSuffix(o.out, ".csv") + ".xlsx"
		}
	}
	return o, nil
}

func (o options) filter() (core.Filter, error) {
	f := core.Filter{Account: o.account}
	if o.kind != "" {
		f.Kind = core.NormalizeKind(o.kind)
	}
	if o.from != "" || o.to != "" {
		if o.from == "" || o.to == "" {
			return core.Filter{}, fmt.Errorf("%w: -from and -to must be given together", core.ErrInvalidRange)
		}
		f.Range = &core.DateRange{Start: o.from, End: o.to}
	}
	return f, nil
}

func run(ctx context.Context, l *ledger.Ledger, o options, logger *applog.Logger) error {
	if o.in != "" {
		file, err := os.Open(o.in)
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer file.Close()

		n, err := l.Import(ctx, file)
		if err != nil {
			return err
		}
		logger.Info("Import complete", applog.FieldFile, o.in, applog.FieldCount, n)
		return nil
	}

	format, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}
	f, err := o.filter()
	if err != nil {
		return err
	}
	return l.ExportFile(ctx, o.out, format, f)
}

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(applog.New(applog.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, os.Stderr)

	opts, err := parseFlags(os.Args[1:], cfg.ExportPath)
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to open store", err)
	}

	l := ledger.New(store, logger).WithDateCompare(cli.DateCompare(cfg))
	err = run(ctx, l, opts, logger)
	store.Close()
	if err != nil {
		cli.Fatal(logger, "Export failed", err)
	}
}
