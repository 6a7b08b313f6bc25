package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cityequip/cityequip/internal/fetcher"
)

var (
	fetchURL    string
	fetchOut    string
	fetchMember string
	fetchForce  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the equipment extract to the source path",
	Long: "Downloads source.url (http, https or ftp) and atomically replaces source.path. " +
		"ZIP archives are unpacked. The entity tag of the last download is kept next to the " +
		"file so unchanged resources are not fetched again.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fetchURL != "" {
			cfg.Source.URL = fetchURL
		}
		if fetchOut != "" {
			cfg.Source.Path = fetchOut
		}
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		dest := cfg.Source.Path
		etagPath := dest + ".etag"
		opts := fetcher.Options{
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
			Member:     fetchMember,
		}
		if !fetchForce {
			etag, err := readETag(etagPath, dest)
			if err != nil {
				return err
			}
			opts.ETag = etag
		}

		res, err := fetcher.Fetch(cmd.Context(), cfg.Source.URL, dest, opts)
		if err != nil {
			return eris.Wrap(err, "fetch source")
		}

		if res.NotModified {
			fmt.Fprintf(cmd.OutOrStdout(), "%s not modified\n", res.Path)
			return nil
		}
		if res.ETag != "" {
			if err := os.WriteFile(etagPath, []byte(res.ETag), 0o644); err != nil {
				return eris.Wrap(err, "write etag")
			}
		} else if err := os.Remove(etagPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return eris.Wrap(err, "remove stale etag")
		}

		msg := fmt.Sprintf("wrote %d bytes to %s", res.Bytes, res.Path)
		if res.Archive {
			msg += " (from archive member " + res.Member + ")"
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

// readETag returns the stored entity tag, or "" when either the tag or the
// file it describes is missing.
func readETag(etagPath, dest string) (string, error) {
	if _, err := os.Stat(dest); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	data, err := os.ReadFile(etagPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrap(err, "read etag")
	}
	return strings.TrimSpace(string(data)), nil
}

func init() {
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "source URL (default from config)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "destination file (default source.path)")
	fetchCmd.Flags().StringVar(&fetchMember, "member", "", "file to extract from a ZIP archive")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "ignore the stored entity tag")
	rootCmd.AddCommand(fetchCmd)
}
