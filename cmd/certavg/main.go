package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Clark-Hu/certavg/internal/csvline"
	"github.com/Clark-Hu/certavg/internal/logging"
	"github.com/Clark-Hu/certavg/internal/ratings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("certavg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		file        = fs.String("file", "", "path to the movies CSV dataset")
		certificate = fs.String("certificate", "R", "certificate to average, matched exactly")
		quoteMode   = fs.String("quote-mode", "legacy", "quote handling: legacy | strict")
		logLevel    = fs.String("log-level", "warn", "debug | info | warn | error")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" && fs.NArg() > 0 {
		*file = fs.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(stderr, "certavg: -file is required")
		fs.Usage()
		return 2
	}

	mode, err := csvline.ParseModeName(*quoteMode)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	avg, err := ratings.AverageRating(context.Background(), *file, *certificate, ratings.Options{
		QuoteMode: mode,
		Logger:    logging.New(stderr, *logLevel),
	})
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}

	fmt.Fprintf(stdout, "Average rating for certificate '%s': %s\n", *certificate, strconv.FormatFloat(avg, 'f', -1, 64))
	return 0
}
