package parser

import (
	"errors"
	"testing"
)

func testOptions() Options {
	return Options{
		Root:          "/src",
		RootDocument:  "index.rst",
		AcceptedTags:  []string{"bash", "console", "shell"},
		DefaultTarget: "controller",
		DistroTargets: map[string]string{"ubuntu": "controller"},
	}
}

func classify(t *testing.T, text string, opts Options) ([]*CodeBlock, []Warning) {
	t.Helper()
	blocks, warnings, err := classifyDocument(testDoc(text), 0, opts)
	if err != nil {
		t.Fatalf("classifyDocument: %v", err)
	}
	return blocks, warnings
}

func TestClassifierAcceptsConfiguredTags(t *testing.T) {
	blocks, warnings := classify(t, `.. code-block:: console

   $ apt-get update

.. code-block:: yaml

   provider: openvswitch
`, testOptions())

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Lang != "console" {
		t.Errorf("lang = %q", blocks[0].Lang)
	}
	if len(blocks[0].Targets) != 1 || blocks[0].Targets[0] != "controller" {
		t.Errorf("targets = %v, want default [controller]", blocks[0].Targets)
	}
	// The yaml listing is not shell-like: silently dropped.
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestClassifierShellLikeMismatchWarns(t *testing.T) {
	_, warnings := classify(t, `.. code-block:: text

   $ systemctl restart glance
`, testOptions())

	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}

func TestClassifierScriptMarker(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantTarget string
		wantWarns  int
	}{
		{
			name: "marker directly above",
			text: ".. script: compute\n\n.. code-block:: console\n\n   # ip addr\n\n.. end\n",

			wantTarget: "compute",
		},
		{
			name: "marker separated by prose is dropped",
			text: ".. script: compute\n\nSome intervening prose.\n\n.. code-block:: console\n\n   # ip addr\n\n.. end\n",

			wantTarget: "controller",
			wantWarns:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, warnings := classify(t, tt.text, testOptions())
			if len(blocks) != 1 {
				t.Fatalf("expected 1 block, got %d", len(blocks))
			}
			if blocks[0].Targets[0] != tt.wantTarget {
				t.Errorf("target = %q, want %q", blocks[0].Targets[0], tt.wantTarget)
			}
			if len(warnings) != tt.wantWarns {
				t.Errorf("warnings = %v, want %d", warnings, tt.wantWarns)
			}
		})
	}
}

func TestClassifierNoRunMarker(t *testing.T) {
	blocks, _ := classify(t, `.. no-run

.. code-block:: console

   $ rm -rf /var/lib/nova
`, testOptions())

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if !blocks[0].Skip {
		t.Error("no-run block must be flagged as skipped")
	}
}

func TestClassifierOnlyRegion(t *testing.T) {
	blocks, warnings := classify(t, `.. only:: ubuntu or debian

   .. code-block:: console

      $ apt-get install nova-api

.. endonly

.. code-block:: console

   $ openstack service list

.. end
`, testOptions())

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	// ubuntu maps to controller via distro_targets; debian is its own target.
	got := blocks[0].Targets
	if len(got) != 2 || got[0] != "controller" || got[1] != "debian" {
		t.Errorf("region targets = %v, want [controller debian]", got)
	}
	if len(blocks[1].Targets) != 1 || blocks[1].Targets[0] != "controller" {
		t.Errorf("post-region targets = %v, want default", blocks[1].Targets)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestClassifierConflictingTargetsFatal(t *testing.T) {
	_, _, err := classifyDocument(testDoc(`.. only:: ubuntu

   .. script: compute

   .. code-block:: console

      $ hostname

.. endonly
`), 0, testOptions())

	var conflict *TargetConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected TargetConflictError, got %v", err)
	}
}

func TestClassifierUnclosedRegionWarns(t *testing.T) {
	_, warnings := classify(t, `.. only:: ubuntu

   .. code-block:: console

      $ true
`, testOptions())

	found := false
	for _, w := range warnings {
		if w.Message == `only-region "ubuntu" never closed` {
			found = true
		}
	}
	if !found {
		t.Errorf("missing unclosed-region warning, got %v", warnings)
	}
}

func TestClassifierEmptyBodyWarns(t *testing.T) {
	blocks, warnings := classify(t, ".. code-block:: console\n\nNext paragraph.\n", testOptions())
	if len(blocks) != 0 {
		t.Fatalf("empty block must be dropped, got %d", len(blocks))
	}
	if len(warnings) != 1 {
		t.Errorf("expected empty-body warning, got %v", warnings)
	}
}

func TestClassifierStrictUnterminated(t *testing.T) {
	opts := testOptions()
	opts.Strict = true
	_, _, err := classifyDocument(testDoc(".. code-block:: console\n\n   $ reboot"), 0, opts)
	if !errors.Is(err, ErrMissingEnd) {
		t.Fatalf("expected ErrMissingEnd, got %v", err)
	}
}

func TestClassifierPathHint(t *testing.T) {
	blocks, _ := classify(t, `.. path /etc/keystone/keystone.conf

.. code-block:: console

   $ keystone-manage db_sync
`, testOptions())

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].PathHint != "/etc/keystone/keystone.conf" {
		t.Errorf("path hint = %q", blocks[0].PathHint)
	}
}

func TestClassifierCustomMarkerNames(t *testing.T) {
	opts := testOptions()
	opts.TargetMarker = "runs-on"
	opts.SkipMarker = "manual"

	blocks, warnings := classify(t, `.. runs-on: network

.. code-block:: console

   $ ovs-vsctl add-br br-int

.. end

.. manual

.. code-block:: console

   $ reboot

.. end

.. script: compute

.. code-block:: console

   $ hostname

.. end
`, opts)

	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0].Targets[0] != "network" {
		t.Errorf("custom target marker: targets = %v", blocks[0].Targets)
	}
	if !blocks[1].Skip {
		t.Error("custom skip marker did not exclude the block")
	}
	// With renamed markers the stock "script:" comment is just a comment.
	if blocks[2].Targets[0] != "controller" {
		t.Errorf("stock marker should be inert, targets = %v", blocks[2].Targets)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}
