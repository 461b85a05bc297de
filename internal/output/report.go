package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"github.com/StinkyLord/sbomkit/internal/compare"
)

// ReportFormat selects how conflict reports are rendered.
type ReportFormat string

const (
	ReportText ReportFormat = "text"
	ReportJSON ReportFormat = "json"
	ReportYAML ReportFormat = "yaml"
)

// ParseReportFormat resolves a user-supplied report format name.
func ParseReportFormat(name string) (ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text", "":
		return ReportText, nil
	case "json":
		return ReportJSON, nil
	case "yaml", "yml":
		return ReportYAML, nil
	default:
		return "", fmt.Errorf("unknown report format %q (supported: text, json, yaml)", name)
	}
}

// ColorMode decides whether text reports are coloured.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode resolves a user-supplied colour mode.
func ParseColorMode(name string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(name))); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown color mode %q (supported: auto, always, never)", name)
	}
}

// ColorEnabled resolves mode for output written to f. Auto colours
// terminals only and honours NO_COLOR.
func ColorEnabled(mode ColorMode, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if f == nil || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Reporter renders comparisons.
type Reporter struct {
	Format ReportFormat
	Color  ColorMode
}

// NewReporter creates a reporter.
func NewReporter(format ReportFormat, color ColorMode) *Reporter {
	return &Reporter{Format: format, Color: color}
}

// WriteReport renders comparisons to outputPath (or stdout if "-").
func (r *Reporter) WriteReport(outputPath string, comparisons []*compare.Comparison) error {
	var target *os.File
	if outputPath == "-" {
		target = os.Stdout
	}
	var buf bytes.Buffer
	if err := r.render(&buf, comparisons, ColorEnabled(r.Color, target)); err != nil {
		return err
	}
	return Write(outputPath, buf.Bytes())
}

// Render writes comparisons to w. Colour is applied only when the mode is
// always, since w may not be a terminal.
func (r *Reporter) Render(w io.Writer, comparisons []*compare.Comparison) error {
	return r.render(w, comparisons, r.Color == ColorAlways)
}

func (r *Reporter) render(w io.Writer, comparisons []*compare.Comparison, color bool) error {
	if comparisons == nil {
		comparisons = []*compare.Comparison{}
	}
	switch r.Format {
	case ReportJSON:
		data, err := json.MarshalIndent(comparisons, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report JSON: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case ReportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(comparisons); err != nil {
			return fmt.Errorf("failed to marshal report YAML: %w", err)
		}
		return enc.Close()
	case ReportText, "":
		return renderText(w, comparisons, newPalette(w, color))
	default:
		return fmt.Errorf("unknown report format %q", r.Format)
	}
}

// style renders a piece of text.
type style func(strs ...string) string

func plain(strs ...string) string { return strings.Join(strs, " ") }

type palette struct {
	header style
	kind   style
	target style
	other  style
	ok     style
	muted  style
}

func newPalette(w io.Writer, color bool) palette {
	if !color {
		return palette{header: plain, kind: plain, target: plain, other: plain, ok: plain, muted: plain}
	}
	re := lipgloss.NewRenderer(w)
	re.SetColorProfile(termenv.ANSI256)
	return palette{
		header: re.NewStyle().Bold(true).Render,
		kind:   re.NewStyle().Foreground(lipgloss.Color("214")).Bold(true).Render,
		target: re.NewStyle().Foreground(lipgloss.Color("42")).Render,
		other:  re.NewStyle().Foreground(lipgloss.Color("203")).Render,
		ok:     re.NewStyle().Foreground(lipgloss.Color("42")).Bold(true).Render,
		muted:  re.NewStyle().Foreground(lipgloss.Color("245")).Render,
	}
}

func renderText(w io.Writer, comparisons []*compare.Comparison, p palette) error {
	var b strings.Builder
	for i, c := range comparisons {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", p.header(fmt.Sprintf("%s <-> %s", c.Target, c.Other)))
		if c.Identical() {
			fmt.Fprintf(&b, "  %s\n", p.ok("identical"))
			continue
		}
		for _, conflict := range c.Conflicts {
			fmt.Fprintf(&b, "  %s %s\n", p.kind("["+string(conflict.MismatchKind)+"]"), conflict.Message())
			fmt.Fprintf(&b, "      %s %s\n", p.muted("target:"), p.target(presentOr(conflict.Target)))
			fmt.Fprintf(&b, "      %s  %s\n", p.muted("other:"), p.other(presentOr(conflict.Other)))
		}

		counts := make([]string, 0, len(c.Conflicts))
		for _, kc := range c.Summary() {
			counts = append(counts, fmt.Sprintf("%s=%d", kc.Kind, kc.Count))
		}
		fmt.Fprintf(&b, "  %s\n", p.muted(fmt.Sprintf("%d conflicts: %s", len(c.Conflicts), strings.Join(counts, ", "))))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func presentOr(v *string) string {
	if v == nil {
		return "(absent)"
	}
	return *v
}
