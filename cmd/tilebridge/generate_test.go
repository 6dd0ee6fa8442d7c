// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"testing"

	"tilebridge/internal/toolrun"
)

func resetGenerateFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		generateOutput, generateLayer = "", ""
		generateMinZoom, generateMaxZoom = 0, 0
		generateGuessMaxZoom, generateDropDensest = false, false
		generateReadParallel, generateForce, generateWatch = false, false, false
	})
}

func TestGenerateForwardsOptions(t *testing.T) {
	resetGenerateFlags(t)
	gen := &fakeGenerator{}
	withTestApp(t, Dependencies{Generator: gen})

	generateOutput = "out.pmtiles"
	generateLayer = "roads"
	generateGuessMaxZoom = true
	generateDropDensest = true
	generateCmd.SetOut(&bytes.Buffer{})

	if err := runGenerate(generateCmd, []string{"a.geojson", "b.geojson"}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if len(gen.calls) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.calls))
	}
	got := gen.calls[0]
	if got.Output != "out.pmtiles" || got.Layer != "roads" {
		t.Errorf("options = %+v", got)
	}
	if !got.GuessMaxZoom || !got.DropDensestAsNeeded {
		t.Errorf("boolean flags not forwarded: %+v", got)
	}
	if len(got.Inputs) != 2 {
		t.Errorf("inputs = %v", got.Inputs)
	}
}

func TestGenerateLayerDefaultsFromConfig(t *testing.T) {
	resetGenerateFlags(t)
	gen := &fakeGenerator{}
	app := withTestApp(t, Dependencies{Generator: gen})
	_ = app
	appConfig.Generate.Layer = "basemap"

	generateOutput = "out.pmtiles"
	generateCmd.SetOut(&bytes.Buffer{})

	if err := runGenerate(generateCmd, []string{"a.geojson"}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if gen.calls[0].Layer != "basemap" {
		t.Errorf("layer = %q, want config default", gen.calls[0].Layer)
	}
}

func TestGenerateToolFailureBecomesExitError(t *testing.T) {
	resetGenerateFlags(t)
	toolErr := &toolrun.ToolError{Binary: "tippecanoe", ExitCode: 1, Stderr: "bad geometry"}
	withTestApp(t, Dependencies{Generator: &fakeGenerator{err: toolErr}})

	generateOutput = "out.pmtiles"
	generateCmd.SetOut(&bytes.Buffer{})

	err := runGenerate(generateCmd, []string{"a.geojson"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.Code)
	}
}
