// Command metroman reconciles the observations of one reach set and runs
// discharge estimation over it, writing a single output record. Sets are
// selected out of a JSON manifest by explicit index or by the batch
// array-job index.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/swot-confluence/metroman/internal/estimator"
	"github.com/swot-confluence/metroman/internal/log"
	"github.com/swot-confluence/metroman/internal/pipeline"
	"github.com/swot-confluence/metroman/internal/sosbucket"
	"github.com/swot-confluence/metroman/internal/storage"
	"github.com/swot-confluence/metroman/internal/swotdata"
)

func main() {
	index := flag.Int("index", swotdata.BatchIndexSentinel,
		"Reach-set index to run; defaults to the batch array-job index")
	setsJSON := flag.String("setsjson", "metrosets.json",
		"Manifest file name inside the input directory")
	sosBucket := flag.String("sosbucket", "",
		`SoS bucket to download the prior reference from; empty or "local" reads from the input directory`)
	inputDir := flag.String("input", "/mnt/data/input", "Input directory")
	outputDir := flag.String("output", "/mnt/data/output/sets", "Output directory")
	tmpDir := flag.String("tmp", "/tmp", "Scratch directory for bucket downloads")
	resultsDSN := flag.String("results-dsn", "",
		"Optional Postgres/TimescaleDB DSN for the results sink")
	verbose := flag.Bool("verbose", false, "Verbose logging")
	flag.Parse()

	if err := log.Init(*verbose); err != nil {
		fmt.Fprintf(os.Stderr, "can't initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*index, *setsJSON, *sosBucket, *inputDir, *outputDir, *tmpDir, *resultsDSN); err != nil {
		log.Errorf("run failed: %v", err)
		os.Exit(1)
	}
}

func run(indexFlag int, setsJSON, sosBucket, inputDir, outputDir, tmpDir, resultsDSN string) error {
	ctx := context.Background()

	index, err := swotdata.ResolveIndex(indexFlag)
	if err != nil {
		return err
	}

	manifest, err := swotdata.LoadManifest(filepath.Join(inputDir, setsJSON))
	if err != nil {
		return err
	}
	set, err := manifest.Select(index)
	if err != nil {
		return err
	}
	log.Infof("running set %d (%s), %d reaches", index, swotdata.SetID(set), len(set))

	sosDir := filepath.Join(inputDir, "sos")
	if sosbucket.ShouldFetch(sosBucket) {
		client, err := sosbucket.New(ctx, sosbucket.Config{Bucket: sosBucket})
		if err != nil {
			return err
		}
		// all reaches in a set share one SoS file; fetch the first
		key := set[0].Sos
		dest := filepath.Join(tmpDir, key)
		log.Infof("downloading SoS reference s3://%s/%s", sosBucket, key)
		if err := client.Download(ctx, key, dest); err != nil {
			return err
		}
		sosDir = tmpDir
	}

	fileSink, err := storage.NewFileSink(outputDir)
	if err != nil {
		return err
	}
	sinks := []storage.Engine{fileSink}
	if resultsDSN != "" {
		dbSink, err := storage.NewTimescaleDBSink(resultsDSN)
		if err != nil {
			return err
		}
		sinks = append(sinks, dbSink)
	}
	defer func() {
		for _, sink := range sinks {
			if err := sink.Close(); err != nil {
				log.Warnf("closing sink: %v", err)
			}
		}
	}()

	runner := pipeline.New(pipeline.Config{
		InputDir: inputDir,
		SosDir:   sosDir,
	}, estimator.NewMetropolis(), sinks)

	return runner.Run(ctx, set)
}
