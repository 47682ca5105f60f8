package ensemble

import (
	"context"
	"os"
	"runtime"

	"github.com/alitto/pond"
)

// FileScanResult is one file's scan outcome from ScanFiles.
type FileScanResult struct {
	Path      string
	Ensembles []Ensemble
	Summary   Summary
	Err       error
}

// ScanFiles decodes every RTI or PD0 frame found in each of paths, fanning
// the files out across a fixed worker pool (2 * NumCPU workers, mirroring
// the teacher's convert_gsf_list pool sizing). Pass a cancellable ctx (for
// example from signal.NotifyContext) to let an interrupt stop in-flight
// work; ScanFiles blocks until every file has been processed or ctx is
// cancelled.
func ScanFiles(ctx context.Context, paths []string) []FileScanResult {
	n := runtime.NumCPU() * 2
	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))
	defer pool.StopAndWait()

	results := make([]FileScanResult, len(paths))
	for i, path := range paths {
		i, path := i, path
		pool.Submit(func() {
			results[i] = scanOneFile(path)
		})
	}

	return results
}

func scanOneFile(path string) FileScanResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileScanResult{Path: path, Err: err}
	}

	var ensembles []Ensemble
	skipped := 0

	for _, off := range ScanRTI(data) {
		ens, err := DecodeRTI(data[off:])
		if err != nil {
			skipped++
			continue
		}
		ensembles = append(ensembles, ens)
	}
	for _, off := range ScanPD0(data) {
		ens, err := DecodePD0(data[off:])
		if err != nil {
			skipped++
			continue
		}
		ensembles = append(ensembles, ens)
	}

	return FileScanResult{
		Path:      path,
		Ensembles: ensembles,
		Summary:   Summarize(ensembles, skipped),
	}
}
