package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/form"
	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/models"
	"github.com/MrPunder/codeform/internal/render"
	"github.com/MrPunder/codeform/internal/symbology"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var version = "v0.1.0"

// renderOptions - флаги команды render
type renderOptions struct {
	kind     string
	format   string
	fg       string
	bg       string
	size     int
	corner   string
	logo     string
	logoSize int
	private  bool
	out      string
	timeout  time.Duration
	logLevel string
}

func main() {
	root := &cobra.Command{
		Use:          "codegen",
		Short:        "Draw QR codes and barcodes from the command line",
		SilenceUsage: true,
	}

	var opts renderOptions
	renderCmd := &cobra.Command{
		Use:   "render [text]",
		Short: "Render a code to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), opts, args[0])
		},
	}
	f := renderCmd.Flags()
	f.StringVarP(&opts.kind, "kind", "k", string(models.KindQR), "Code kind: qr or barcode")
	f.StringVarP(&opts.format, "format", "f", string(models.FormatCode128), "Barcode format: CODE128, EAN13, UPC, CODE39")
	f.StringVar(&opts.fg, "fg", "#000000", "Foreground color")
	f.StringVar(&opts.bg, "bg", "#ffffff", "Background color")
	f.IntVarP(&opts.size, "size", "s", 200, "QR code size in pixels (100-400)")
	f.StringVar(&opts.corner, "corner", string(models.CornerSquare), "QR corner style: square or round")
	f.StringVar(&opts.logo, "logo", "", "Logo URL placed in the center of the QR code")
	f.IntVar(&opts.logoSize, "logo-size", 20, "Logo size in percent of the code (10-30)")
	f.BoolVar(&opts.private, "allow-private", false, "Allow logo URLs on loopback and private networks")
	f.StringVarP(&opts.out, "out", "o", ".", "Output directory")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Render timeout")
	f.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	root.AddCommand(renderCmd)

	var inverse bool
	previewCmd := &cobra.Command{
		Use:   "preview [text]",
		Short: "Print a QR code to the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.OutOrStdout(), args[0], inverse)
		},
	}
	previewCmd.Flags().BoolVar(&inverse, "inverse", false, "Invert colors for light terminals")
	root.AddCommand(previewCmd)

	normalizeCmd := &cobra.Command{
		Use:   "normalize [format] [text]",
		Short: "Show the text a barcode format will actually encode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd.OutOrStdout(), args[0], args[1])
		},
	}
	root.AddCommand(normalizeCmd)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "codegen", version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// patch переводит флаги в изменение формы
func (o renderOptions) patch(text string) form.Patch {
	p := form.Patch{
		Kind:            &o.kind,
		Payload:         &text,
		Foreground:      &o.fg,
		Background:      &o.bg,
		Size:            &o.size,
		CornerStyle:     &o.corner,
		LogoSizePercent: &o.logoSize,
		Format:          &o.format,
	}
	if o.logo != "" {
		include := true
		p.IncludeLogo = &include
		p.LogoURL = &o.logo
	}
	return p
}

func runRender(ctx context.Context, w io.Writer, opts renderOptions, text string) error {
	log, err := logger.NewConsoleLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	var logoOpts []render.LogoOption
	if opts.private {
		logoOpts = append(logoOpts, render.WithPrivateNetworks())
	}
	renderer := render.NewRenderer(render.NewLogoLoader(opts.timeout, 2<<20, log, logoOpts...), export.NewObjectURLs(), log)
	surface, _, err := form.Render(ctx, renderer, log, opts.patch(text))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	target := &export.FileTarget{Dir: opts.out}
	if err := export.NewExporter(log).Download(ctx, surface, target); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	fmt.Fprintln(w, target.Path)
	return nil
}

func runPreview(w io.Writer, text string, inverse bool) error {
	code, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr encode: %w", err)
	}
	_, err = io.WriteString(w, code.ToSmallString(inverse))
	return err
}

func runNormalize(w io.Writer, format, text string) error {
	f, err := models.ParseBarcodeFormat(format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, symbology.Normalize(text, f))
	return err
}
