package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/getsentry/simpleperf/internal/storageutil"
)

func newDownloadCommand(c *cli) *cobra.Command {
	var (
		destination string
		fromFile    string
	)
	cmd := &cobra.Command{
		Use:   "download [trace-id]...",
		Short: "Download speedscope profiles stored by the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			traceIDs := args
			if fromFile != "" {
				ids, err := readLines(fromFile)
				if err != nil {
					return err
				}
				traceIDs = append(traceIDs, ids...)
			}
			if len(traceIDs) == 0 {
				return errors.New("no trace id to download")
			}
			for i, traceID := range traceIDs {
				id, err := uuid.Parse(traceID)
				if err != nil {
					return fmt.Errorf("invalid trace id %q: %w", traceID, err)
				}
				traceIDs[i] = id.String()
			}
			if err := os.MkdirAll(destination, 0o755); err != nil {
				return err
			}

			bucket, err := blob.OpenBucket(cmd.Context(), c.config.BucketURL)
			if err != nil {
				return err
			}
			defer bucket.Close()

			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				failures []error
			)
			traces := make(chan string)
			for i := 0; i < c.config.Workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for traceID := range traces {
						if err := download(cmd, bucket, destination, traceID); err != nil {
							mu.Lock()
							failures = append(failures, fmt.Errorf("%s: %w", traceID, err))
							mu.Unlock()
							continue
						}
						log.Info().Str("trace_id", traceID).Msg("downloaded")
					}
				}()
			}
			for _, traceID := range traceIDs {
				traces <- traceID
			}
			close(traces)
			wg.Wait()

			return errors.Join(failures...)
		},
	}
	cmd.Flags().StringVarP(&destination, "dir", "d", ".", "directory profiles are written to")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "file listing one trace id per line")
	return cmd
}

func download(cmd *cobra.Command, bucket *blob.Bucket, destination, traceID string) error {
	var profile json.RawMessage
	err := storageutil.UnmarshalCompressed(cmd.Context(), bucket, storageutil.TracePath(traceID), &profile)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(destination, traceID+".json"), profile, 0o644)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
