package ensemble

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFilesDecodesAndSkips(t *testing.T) {
	dir := t.TempDir()

	rtiFrame := EncodeRTI(sampleRTIEnsemble())
	good := filepath.Join(dir, "good.ens")
	require.NoError(t, os.WriteFile(good, rtiFrame, 0o644))

	bad := filepath.Join(dir, "bad.ens")
	require.NoError(t, os.WriteFile(bad, []byte("not an ensemble file"), 0o644))

	results := ScanFiles(context.Background(), []string{good, bad})
	require.Len(t, results, 2)

	byPath := map[string]FileScanResult{}
	for _, r := range results {
		byPath[r.Path] = r
	}

	assert.NoError(t, byPath[good].Err)
	assert.Equal(t, 1, byPath[good].Summary.DecodedFrames)

	assert.NoError(t, byPath[bad].Err)
	assert.Equal(t, 0, byPath[bad].Summary.DecodedFrames)
}

func TestScanFilesReportsMissingFile(t *testing.T) {
	results := ScanFiles(context.Background(), []string{"/no/such/file.ens"})
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
