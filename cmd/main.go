package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/urfave/cli/v2"

	ensemble "github.com/sixy6e/go-ensemble"
	"github.com/sixy6e/go-ensemble/search"
)

// scanOne decodes every recognised frame in a single file and prints the
// file name followed by its Summary as indented JSON.
func scanOne(uri string) error {
	data, err := os.ReadFile(uri)
	if err != nil {
		return err
	}

	var ensembles []ensemble.Ensemble
	skipped := 0
	for _, off := range ensemble.ScanRTI(data) {
		ens, err := ensemble.DecodeRTI(data[off:])
		if err != nil {
			skipped++
			continue
		}
		ensembles = append(ensembles, ens)
	}
	for _, off := range ensemble.ScanPD0(data) {
		ens, err := ensemble.DecodePD0(data[off:])
		if err != nil {
			skipped++
			continue
		}
		ensembles = append(ensembles, ens)
	}

	summary := ensemble.Summarize(ensembles, skipped)
	enc, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(uri + ":")
	fmt.Println(string(enc))
	return nil
}

// scanTrawl finds every *.ens and *.pd0 file under uri and scans them across
// a fixed worker pool, cancellable on interrupt.
func scanTrawl(uri string) error {
	log.Println("Searching uri:", uri)
	items := search.FindRTI(uri)
	items = append(items, search.FindPD0(uri)...)
	log.Println("Number of files to process:", len(items))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := ensemble.ScanFiles(ctx, items)
	for _, r := range results {
		if r.Err != nil {
			log.Printf("%s: %v", r.Path, r.Err)
			continue
		}
		log.Printf("%s: %d decoded, %d skipped", r.Path, r.Summary.DecodedFrames, r.Summary.SkippedFrames)
	}
	return nil
}

// transcode reads every frame out of srcUri and writes it to dstUri
// re-encoded in the opposite wire format.
func transcode(srcUri, dstUri string, coordXform ensemble.CoordXform) error {
	data, err := os.ReadFile(srcUri)
	if err != nil {
		return err
	}

	var out []byte
	for _, off := range ensemble.ScanRTI(data) {
		frame, err := ensemble.TranscodeRTIToPD0(data[off:], coordXform)
		if err != nil {
			log.Printf("skipping frame at offset %d: %v", off, err)
			continue
		}
		out = append(out, frame...)
	}
	for _, off := range ensemble.ScanPD0(data) {
		frame, err := ensemble.TranscodePD0ToRTI(data[off:])
		if err != nil {
			log.Printf("skipping frame at offset %d: %v", off, err)
			continue
		}
		out = append(out, frame...)
	}

	if dstUri == "" {
		dir, file := filepath.Split(srcUri)
		dstUri = filepath.Join(dir, file+".out")
	}
	return os.WriteFile(dstUri, out, 0o644)
}

func coordXformFlag(name string) ensemble.CoordXform {
	switch name {
	case "instrument":
		return ensemble.XformInstrument
	case "earth":
		return ensemble.XformEarth
	case "ship":
		return ensemble.XformShip
	default:
		return ensemble.XformBeam
	}
}

func main() {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name: "scan",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "uri",
						Usage: "URI or pathname to an ensemble capture file.",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return scanOne(cCtx.String("uri"))
				},
			},
			{
				Name: "scan-trawl",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "uri",
						Usage: "URI or pathname to a directory containing ensemble capture files.",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return scanTrawl(cCtx.String("uri"))
				},
			},
			{
				Name: "transcode",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "src-uri",
						Usage: "URI or pathname to the source capture file.",
					},
					&cli.StringFlag{
						Name:  "dst-uri",
						Usage: "URI or pathname for the transcoded output file.",
					},
					&cli.StringFlag{
						Name:  "coord-xform",
						Usage: "Coordinate frame to emit when transcoding RTI to PD0: beam, instrument, earth, ship.",
						Value: "earth",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return transcode(cCtx.String("src-uri"), cCtx.String("dst-uri"), coordXformFlag(cCtx.String("coord-xform")))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
