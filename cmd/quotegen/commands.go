package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panelkitchens/quotekit/pkg/catalog"
	"github.com/panelkitchens/quotekit/pkg/document"
	"github.com/panelkitchens/quotekit/pkg/jwt"
	"github.com/panelkitchens/quotekit/pkg/layout"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/pdfutil"
	"github.com/panelkitchens/quotekit/pkg/quote"
)

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "catalog",
		Usage: "catalog CSV or .xlsx workbook; overrides the quote file and CATALOG_PATH",
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "render a quote file to PDF",
		ArgsUsage: "QUOTE.yaml",
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output file or directory; defaults to the generated file name",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "check the structure and page count of the written PDF",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			e, req, err := prepare(c)
			if err != nil {
				return err
			}
			gen := e.generator()
			ctx := c.Context
			if e.cfg.GenerateTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.GenerateTimeout)*time.Second)
				defer cancel()
			}

			doc, err := gen.Generate(ctx, req)
			if err != nil {
				return err
			}
			if c.Bool("verify") {
				info, err := pdfutil.Inspect(bytes.NewReader(doc.Bytes))
				if err != nil {
					return fmt.Errorf("verify: %w", err)
				}
				if info.PageCount != doc.PageCount {
					return fmt.Errorf("verify: planned %d pages, PDF has %d", doc.PageCount, info.PageCount)
				}
			}

			out := outputPath(c.String("out"), doc.FileName)
			if err := os.WriteFile(out, doc.Bytes, 0o644); err != nil {
				return err
			}
			e.logger.Info("Quote written", logging.NewField("path", out), logging.NewField("pages", doc.PageCount))
			fmt.Fprintf(c.App.Writer, "%s\t%d pages\t%s\n", out, doc.PageCount, quote.FormatMoney(doc.Summary.GrandTotal))
			return nil
		},
	}
}

// planView adds the derived page numbers to a plan.
type planView struct {
	layout.Plan
	Breaks      []int `json:"breaks"`
	SummaryPage int   `json:"summary_page"`
	Image1Page  int   `json:"image1_page,omitempty"`
	Image2Page  int   `json:"image2_page,omitempty"`
	TermsPage   int   `json:"terms_page"`
}

func newPlanView(p layout.Plan) planView {
	return planView{
		Plan:        p,
		Breaks:      p.Breaks(),
		SummaryPage: p.SummaryPage(),
		Image1Page:  p.Image1Page(),
		Image2Page:  p.Image2Page(),
		TermsPage:   p.TermsPage(),
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "print the page plan of a quote file, or of an item count",
		ArgsUsage: "[QUOTE.yaml]",
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.IntFlag{Name: "items", Usage: "item count when no quote file is given"},
			&cli.BoolFlag{Name: "image1", Usage: "include the first image page"},
			&cli.BoolFlag{Name: "image2", Usage: "include the second image page"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				e, err := setup(c)
				if err != nil {
					return err
				}
				p := e.generator().PlanItems(c.Int("items"), c.Bool("image1"), c.Bool("image2"))
				return writeJSON(c.App.Writer, newPlanView(p))
			}

			e, req, err := prepare(c)
			if err != nil {
				return err
			}
			return writeJSON(c.App.Writer, newPlanView(e.generator().Plan(req)))
		},
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "print the financial summary of a quote file",
		ArgsUsage: "QUOTE.yaml",
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.BoolFlag{Name: "json", Usage: "print unrounded amounts as JSON"},
		},
		Action: func(c *cli.Context) error {
			_, req, err := prepare(c)
			if err != nil {
				return err
			}
			s := quote.ComputeFor(req.Customer, req.Items)
			if c.Bool("json") {
				return writeJSON(c.App.Writer, s)
			}
			return writeSummary(c.App.Writer, s)
		},
	}
}

func writeSummary(w io.Writer, s quote.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	rows := []struct {
		label  string
		amount string
	}{
		{"Subtotal", quote.FormatMoney(s.Subtotal)},
		{"Contractor discount", quote.FormatMoney(s.ContractorDiscount.Neg())},
		{"Before VAT", quote.FormatMoney(s.TaxableBase)},
		{"VAT", quote.FormatMoney(s.Tax)},
		{"Discount " + quote.FormatPercent(s.DiscountPercent) + "%", quote.FormatMoney(s.PercentDiscount.Neg())},
		{"Total", quote.FormatMoney(s.GrandTotal)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, r.amount)
	}
	return tw.Flush()
}

func linesCommand() *cli.Command {
	return &cli.Command{
		Name:      "lines",
		Usage:     "export the line items of a quote file as CSV",
		ArgsUsage: "QUOTE.yaml",
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "CSV file; stdout when empty"},
		},
		Action: func(c *cli.Context) error {
			_, req, err := prepare(c)
			if err != nil {
				return err
			}
			path := c.String("out")
			if path == "" {
				return catalog.WriteLineItems(c.App.Writer, req.Items)
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := catalog.WriteLineItems(f, req.Items); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint an API token signed with JWT_SECRET",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "user ID", Required: true},
			&cli.StringFlag{Name: "role", Usage: "sales or admin", Value: jwt.RoleSales},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			svc, err := jwt.NewTokenServiceFromConfig(e.cfg.JWTConfig(), e.logger)
			if err != nil {
				return err
			}
			token, err := svc.Issue(c.String("user"), c.String("role"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}

// prepare loads the configuration, the quote file named by the first
// argument and its catalog.
func prepare(c *cli.Context) (*env, document.Request, error) {
	path := c.Args().First()
	if path == "" {
		return nil, document.Request{}, fmt.Errorf("%s: quote file required", c.Command.Name)
	}
	e, err := setup(c)
	if err != nil {
		return nil, document.Request{}, err
	}
	qf, err := readQuoteFile(path)
	if err != nil {
		return nil, document.Request{}, err
	}

	var cat *catalog.Catalog
	if qf.usesCatalog() {
		catPath := qf.catalogPath(c.String("catalog"))
		if catPath == "" {
			catPath = e.cfg.CatalogPath
		}
		if catPath == "" {
			return nil, document.Request{}, fmt.Errorf("%s uses product IDs but no catalog is configured", path)
		}
		if cat, err = catalog.NewLoader(0, e.logger).Load(catPath); err != nil {
			return nil, document.Request{}, err
		}
	}

	req, err := qf.request(cat, func(image string, err error) {
		e.logger.Warn("Image skipped", logging.NewField("image", image), logging.NewField("error", err))
	})
	if err != nil {
		return nil, document.Request{}, err
	}
	if req.Customer.Date.IsZero() {
		req.Customer.Date = time.Now()
	}
	return e, req, nil
}

func (e *env) generator() *document.Generator {
	assets := document.LoadAssets(e.cfg.AssetsDir, e.cfg.AssetFiles(), e.logger)
	return document.NewGenerator(e.cfg.DocumentConfig(), assets, e.logger)
}

// outputPath places name inside out when out is a directory.
func outputPath(out, name string) string {
	if out == "" {
		return name
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
