package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/StinkyLord/sbomkit/internal/compare"
	"github.com/StinkyLord/sbomkit/internal/model"
)

// makeTestDocument builds app -> openssl -> zlib, with app also containing
// a source file.
func makeTestDocument() *model.Document {
	b := model.NewDocumentBuilder()
	b.ForSchema(model.SPDX23)
	b.SetName("app")

	add := func(uid, name, version string) *model.Component {
		pb := model.NewSPDX23PackageBuilder()
		pb.SetUID(uid)
		pb.SetName(name)
		pb.SetVersion(version)
		return pb.Build()
	}
	b.SetRootComponent(add("SPDXRef-app-2.0.0", "app", "2.0.0"))
	b.AddComponent(add("SPDXRef-openssl-3.1.4", "openssl", "3.1.4"))
	b.AddComponent(add("SPDXRef-zlib-1.2.13", "zlib", "1.2.13"))
	b.AddComponent(add("SPDXRef-main.c", "main.c", ""))

	b.AddRelationship("SPDXRef-app-2.0.0", model.Relationship{OtherUID: "SPDXRef-openssl-3.1.4", Type: model.RelDependsOn})
	b.AddRelationship("SPDXRef-app-2.0.0", model.Relationship{OtherUID: "SPDXRef-main.c", Type: model.RelContains})
	b.AddRelationship("SPDXRef-openssl-3.1.4", model.Relationship{OtherUID: "SPDXRef-zlib-1.2.13", Type: model.RelDependsOn})
	return b.Build()
}

func makeComparisons() []*compare.Comparison {
	target, other := "1.2.13", "1.3.0"
	return []*compare.Comparison{
		{Target: "a.json", Other: "b.json", Conflicts: []compare.Conflict{}},
		{Target: "a.json", Other: "c.json", Conflicts: []compare.Conflict{
			{MismatchKind: compare.VersionMismatch, Field: "zlib: Version", Target: &target, Other: &other},
			{MismatchKind: compare.Missing, Field: "zlib: PURL", Target: &target},
		}},
	}
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) []byte {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()
	w.Close()
	os.Stdout = old
	out := <-done
	r.Close()

	if fnErr != nil {
		t.Fatalf("write to stdout failed: %v", fnErr)
	}
	return out
}

// TestDependencyTree verifies the nested tree produced for a document.
func TestDependencyTree(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "tree.json")
	if err := WriteDependencyTree(makeTestDocument(), tmp); err != nil {
		t.Fatalf("WriteDependencyTree failed: %v", err)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		t.Fatalf("cannot read output file: %v", err)
	}

	var roots []*model.TreeNode
	if err := json.Unmarshal(data, &roots); err != nil {
		t.Fatalf("output is not a JSON array of nodes: %v", err)
	}
	if len(roots) != 1 || roots[0].Name != "app" {
		t.Fatalf("roots = %+v, want [app]", roots)
	}

	app := roots[0]
	if len(app.Children) != 2 {
		t.Fatalf("app.children count = %d, want 2", len(app.Children))
	}
	// children are ordered by uid
	if app.Children[0].Name != "main.c" || app.Children[0].Relationship != model.RelContains {
		t.Errorf("app.children[0] = %+v, want main.c CONTAINS", app.Children[0])
	}
	openssl := app.Children[1]
	if openssl.Name != "openssl" || openssl.Relationship != model.RelDependsOn {
		t.Errorf("app.children[1] = %+v, want openssl DEPENDS_ON", openssl)
	}
	if len(openssl.Children) != 1 || openssl.Children[0].Name != "zlib" {
		t.Fatalf("openssl.children = %+v, want [zlib]", openssl.Children)
	}
	if len(openssl.Children[0].Children) != 0 {
		t.Errorf("zlib.children count = %d, want 0", len(openssl.Children[0].Children))
	}
}

// TestDependencyTreeEmpty verifies that an empty document yields [] not null.
func TestDependencyTreeEmpty(t *testing.T) {
	out := captureStdout(t, func() error {
		return WriteDependencyTree(&model.Document{}, "-")
	})
	if got := strings.TrimSpace(string(out)); got != "[]" {
		t.Errorf("empty tree = %q, want []", got)
	}
}

func TestWriteAddsNewline(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "out.txt")
	if err := Write(tmp, []byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, _ := os.ReadFile(tmp)
	if string(data) != "hello\n" {
		t.Errorf("content = %q, want %q", data, "hello\n")
	}

	if err := Write(filepath.Join(t.TempDir(), "missing", "out.txt"), []byte("x")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestTextReport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReporter(ReportText, ColorNever).Render(&buf, makeComparisons()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"a.json <-> b.json",
		"identical",
		"a.json <-> c.json",
		"[VERSION_MISMATCH] zlib: Version doesn't match",
		"target: 1.2.13",
		"other:  1.3.0",
		"[MISSING] zlib: PURL is missing",
		"other:  (absent)",
		"2 conflicts: MISSING=1, VERSION_MISMATCH=1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("uncoloured report contains escape sequences")
	}
}

func TestTextReportColor(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReporter(ReportText, ColorAlways).Render(&buf, makeComparisons()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("coloured report has no escape sequences")
	}
}

func TestJSONReport(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "report.json")
	if err := NewReporter(ReportJSON, ColorAuto).WriteReport(tmp, makeComparisons()); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
	data, _ := os.ReadFile(tmp)

	var got []compare.Comparison
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if len(got) != 2 || len(got[1].Conflicts) != 2 {
		t.Fatalf("report = %+v", got)
	}
	if got[1].Conflicts[1].Other != nil {
		t.Errorf("absent side should be null, got %q", *got[1].Conflicts[1].Other)
	}
	if got[0].Conflicts == nil {
		t.Error("identical comparison should carry an empty conflict list")
	}
}

func TestYAMLReport(t *testing.T) {
	out := captureStdout(t, func() error {
		return NewReporter(ReportYAML, ColorAuto).WriteReport("-", makeComparisons())
	})

	var got []map[string]any
	if err := yaml.Unmarshal(out, &got); err != nil {
		t.Fatalf("report is not valid YAML: %v", err)
	}
	if len(got) != 2 || got[1]["other"] != "c.json" {
		t.Errorf("report = %+v", got)
	}
	if !strings.Contains(string(out), "mismatchKind: VERSION_MISMATCH") {
		t.Errorf("YAML report lacks mismatch kinds:\n%s", out)
	}
}

func TestParseReportFormat(t *testing.T) {
	for in, want := range map[string]ReportFormat{"": ReportText, "TEXT": ReportText, "json": ReportJSON, "yml": ReportYAML} {
		got, err := ParseReportFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseReportFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseReportFormat("html"); err == nil {
		t.Error("expected an error for html")
	}
}

func TestColorMode(t *testing.T) {
	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Error("expected an error for an unknown colour mode")
	}
	if mode, _ := ParseColorMode(""); mode != ColorAuto {
		t.Errorf("default colour mode = %q, want auto", mode)
	}
	if !ColorEnabled(ColorAlways, nil) || ColorEnabled(ColorNever, os.Stdout) {
		t.Error("explicit colour modes must win")
	}
	if ColorEnabled(ColorAuto, nil) {
		t.Error("auto must not colour a non-file")
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "plain"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if ColorEnabled(ColorAuto, f) {
		t.Error("auto must not colour a regular file")
	}
}
