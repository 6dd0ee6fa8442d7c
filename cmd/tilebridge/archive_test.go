// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tilebridge/internal/pmtiles"
	"tilebridge/internal/toolrun"
)

func TestArchiveShowPrintsRawOutput(t *testing.T) {
	fake := &fakeArchive{showResult: &pmtiles.ShowResult{Raw: "tile type: mvt\n"}}
	withTestApp(t, Dependencies{Archive: fake})

	var out bytes.Buffer
	archiveShowCmd.SetOut(&out)
	showMetadata, showHeaderJSON, showBucket = false, true, ""
	t.Cleanup(func() { showHeaderJSON = false })

	if err := archiveShowCmd.RunE(archiveShowCmd, []string{"world.pmtiles"}); err != nil {
		t.Fatalf("show failed: %v", err)
	}

	if out.String() != "tile type: mvt\n" {
		t.Errorf("output = %q", out.String())
	}
	if fake.lastShow.Archive != "world.pmtiles" || !fake.lastShow.HeaderJSON {
		t.Errorf("options not forwarded: %+v", fake.lastShow)
	}
}

func TestArchiveTileWritesFile(t *testing.T) {
	fake := &fakeArchive{tileBody: []byte{0x1f, 0x8b, 0x08}}
	withTestApp(t, Dependencies{Archive: fake})

	dest := filepath.Join(t.TempDir(), "tile.mvt")
	tileOutput, tileBucket = dest, ""
	t.Cleanup(func() { tileOutput = "" })

	if err := archiveTileCmd.RunE(archiveTileCmd, []string{"world.pmtiles", "4", "8", "5"}); err != nil {
		t.Fatalf("tile failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read tile: %v", err)
	}
	if !bytes.Equal(data, fake.tileBody) {
		t.Errorf("tile bytes = %v", data)
	}
}

func TestArchiveToolFailureBecomesExitError(t *testing.T) {
	toolErr := &toolrun.ToolError{Binary: "pmtiles", ExitCode: 3, Stderr: "corrupt"}
	withTestApp(t, Dependencies{Archive: &fakeArchive{err: toolErr}})

	archiveVerifyCmd.SetOut(&bytes.Buffer{})
	err := archiveVerifyCmd.RunE(archiveVerifyCmd, []string{"bad.pmtiles"})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("exit code = %d, want 3", exitErr.Code)
	}
}

func TestParseTileCoords(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		z, x, y string
		ok      bool
	}{
		"origin tile":        {"0", "0", "0", true},
		"valid mid zoom":     {"4", "15", "15", true},
		"x beyond grid":      {"4", "16", "0", false},
		"y beyond grid":      {"2", "0", "4", false},
		"negative zoom":      {"-1", "0", "0", false},
		"absurd zoom":        {"31", "0", "0", false},
		"non-numeric":        {"z", "0", "0", false},
		"non-numeric coords": {"4", "a", "b", false},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, _, _, err := parseTileCoords(tc.z, tc.x, tc.y)
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}
