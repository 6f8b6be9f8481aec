package script

import (
	"errors"
	"strings"
	"testing"

	"github.com/openstack-archive/rst2bash/internal/parser"
)

func testOptions() parser.Options {
	return parser.Options{
		AcceptedTags:  []string{"console"},
		DefaultTarget: "controller",
	}
}

func testBlock(doc string, line int, targets []string, body ...string) *parser.CodeBlock {
	return &parser.CodeBlock{
		Doc:     &parser.SourceDocument{RelPath: doc},
		Line:    line,
		Lang:    "console",
		Body:    body,
		Targets: targets,
	}
}

func TestAssemblerRoutesBlocksToTargets(t *testing.T) {
	// Default-target block followed by an explicitly targeted one: each
	// script receives exactly its own commands.
	blocks := []*parser.CodeBlock{
		testBlock("install.rst", 3, []string{"controller"}, "$ apt-get update"),
		testBlock("install.rst", 9, []string{"compute"}, "# ip addr"),
	}

	asm := NewAssembler(testOptions(), nil)
	if warns := asm.Consume(blocks); len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	scripts, err := asm.Render()
	if err != nil {
		t.Fatal(err)
	}

	controller, ok := scripts["controller.sh"]
	if !ok {
		t.Fatal("controller.sh missing")
	}
	if !strings.Contains(controller, "\napt-get update\n") {
		t.Errorf("controller.sh does not contain the update command:\n%s", controller)
	}
	if strings.Contains(controller, "ip addr") {
		t.Errorf("controller.sh must not contain the compute command:\n%s", controller)
	}

	compute, ok := scripts["compute.sh"]
	if !ok {
		t.Fatal("compute.sh missing")
	}
	if !strings.Contains(compute, "\nip addr\n") {
		t.Errorf("compute.sh does not contain the stripped command:\n%s", compute)
	}
}

func TestAssemblerScriptHeaderAndTrailer(t *testing.T) {
	asm := NewAssembler(testOptions(), nil)
	asm.Consume([]*parser.CodeBlock{
		testBlock("install.rst", 1, []string{"controller"}, "$ true"),
	})
	scripts, err := asm.Render()
	if err != nil {
		t.Fatal(err)
	}

	text := scripts["controller.sh"]
	if !strings.HasPrefix(text, "#!/usr/bin/env bash\n\nset -eu\n") {
		t.Errorf("missing interpreter/strict-mode header:\n%s", text)
	}
	if !strings.HasSuffix(text, "echo \"controller: deployment steps complete.\"\n") {
		t.Errorf("missing completion marker:\n%s", text)
	}
}

func TestAssemblerSkipExclusion(t *testing.T) {
	skipped := testBlock("install.rst", 5, []string{"compute"}, "$ rm -rf /var/lib/nova")
	skipped.Skip = true

	asm := NewAssembler(testOptions(), nil)
	asm.Consume([]*parser.CodeBlock{
		testBlock("install.rst", 1, []string{"controller"}, "$ true"),
		skipped,
	})
	scripts, err := asm.Render()
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := scripts["compute.sh"]; ok {
		t.Error("a skipped block must not create its target")
	}
	for name, text := range scripts {
		if strings.Contains(text, "rm -rf") {
			t.Errorf("skipped command leaked into %s", name)
		}
	}
}

func TestAssemblerOrderPreservation(t *testing.T) {
	blocks := []*parser.CodeBlock{
		testBlock("a.rst", 1, []string{"controller"}, "$ echo first"),
		testBlock("a.rst", 7, []string{"compute"}, "$ echo interleaved"),
		testBlock("b.rst", 1, []string{"controller"}, "$ echo second"),
		testBlock("c.rst", 1, []string{"controller"}, "$ echo third"),
	}

	asm := NewAssembler(testOptions(), nil)
	asm.Consume(blocks)
	scripts, err := asm.Render()
	if err != nil {
		t.Fatal(err)
	}

	text := scripts["controller.sh"]
	first := strings.Index(text, "echo first")
	second := strings.Index(text, "echo second")
	third := strings.Index(text, "echo third")
	if first < 0 || second < 0 || third < 0 || !(first < second && second < third) {
		t.Errorf("commands out of document order:\n%s", text)
	}
}

func TestAssemblerTemplateSubstitution(t *testing.T) {
	asm := NewAssembler(testOptions(), map[string]string{
		"controller_ip": "10.0.0.11",
		"rabbit_pass":   "RABBIT_PASS",
	})
	asm.Consume([]*parser.CodeBlock{
		testBlock("install.rst", 1, []string{"controller"},
			"$ rabbitmqctl change_password openstack {{ rabbit_pass }}",
			"$ ping -c1 {{controller_ip}}"),
	})
	scripts, err := asm.Render()
	if err != nil {
		t.Fatal(err)
	}

	text := scripts["controller.sh"]
	if !strings.Contains(text, "rabbitmqctl change_password openstack RABBIT_PASS") {
		t.Errorf("spaced placeholder not substituted:\n%s", text)
	}
	if !strings.Contains(text, "ping -c1 10.0.0.11") {
		t.Errorf("tight placeholder not substituted:\n%s", text)
	}
	if strings.Contains(text, "{{") {
		t.Errorf("rendered script still contains a placeholder:\n%s", text)
	}
}

func TestAssemblerUnresolvedPlaceholderFatal(t *testing.T) {
	asm := NewAssembler(testOptions(), map[string]string{})
	asm.Consume([]*parser.CodeBlock{
		testBlock("install.rst", 12, []string{"controller"}, "$ ping {{ controller_ip }}"),
	})

	_, err := asm.Render()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Placeholder != "controller_ip" || cfgErr.Target != "controller" {
		t.Errorf("error lacks context: %+v", cfgErr)
	}
	if cfgErr.Doc != "install.rst" || cfgErr.Line != 12 {
		t.Errorf("error lacks source position: %+v", cfgErr)
	}
}

func TestAssemblerEmptyNormalizationWarns(t *testing.T) {
	// A console block whose only prompted line vanished entirely cannot
	// happen, but a body that dedents to nothing can.
	asm := NewAssembler(testOptions(), nil)
	warns := asm.Consume([]*parser.CodeBlock{
		{
			Doc:     &parser.SourceDocument{RelPath: "install.rst"},
			Line:    4,
			Lang:    "console",
			Body:    nil,
			Targets: []string{"controller"},
		},
	})
	if len(warns) != 1 {
		t.Fatalf("expected one warning, got %v", warns)
	}
	scripts, err := asm.Render()
	if err != nil {
		t.Fatal(err)
	}
	if len(scripts) != 0 {
		t.Errorf("empty block must not create a target: %v", scripts)
	}
}

func TestAssemblerDocumentBoundaryComments(t *testing.T) {
	asm := NewAssembler(testOptions(), nil)
	asm.Consume([]*parser.CodeBlock{
		testBlock("keystone.rst", 1, []string{"controller"}, "$ echo keystone"),
		testBlock("glance.rst", 1, []string{"controller"}, "$ echo glance"),
	})
	scripts, err := asm.Render()
	if err != nil {
		t.Fatal(err)
	}

	text := scripts["controller.sh"]
	if !strings.Contains(text, "# --- keystone.rst ---") ||
		!strings.Contains(text, "# --- glance.rst ---") {
		t.Errorf("missing provenance comments:\n%s", text)
	}
}

func TestAssemblerRenderDeterministic(t *testing.T) {
	build := func() map[string]string {
		asm := NewAssembler(testOptions(), map[string]string{"ip": "10.0.0.11"})
		asm.Consume([]*parser.CodeBlock{
			testBlock("a.rst", 1, []string{"controller", "compute"}, "$ ping {{ ip }}"),
			testBlock("b.rst", 1, []string{"controller"}, "$ true"),
		})
		scripts, err := asm.Render()
		if err != nil {
			t.Fatal(err)
		}
		return scripts
	}

	first, second := build(), build()
	if len(first) != len(second) {
		t.Fatalf("script sets differ: %d vs %d", len(first), len(second))
	}
	for name, text := range first {
		if second[name] != text {
			t.Errorf("%s differs between identical runs", name)
		}
	}
}
