package fetcher

import (
	"archive/zip"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractMember copies one file from a ZIP archive to dest atomically.
// With an empty member the archive must contain exactly one .csv file.
// Returns the member name and bytes written.
func ExtractMember(zipPath, member, dest string) (string, int64, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", 0, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	f, err := selectMember(r.File, member)
	if err != nil {
		return "", 0, err
	}

	rc, err := f.Open()
	if err != nil {
		return "", 0, eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	n, err := writeAtomic(dest, rc)
	if err != nil {
		return "", n, eris.Wrapf(err, "zip: extract %s", f.Name)
	}
	return f.Name, n, nil
}

func selectMember(files []*zip.File, member string) (*zip.File, error) {
	if member != "" {
		for _, f := range files {
			if f.Name == member && !f.FileInfo().IsDir() {
				return f, nil
			}
		}
		return nil, eris.Errorf("zip: file %q not found in archive", member)
	}

	var csvs []*zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.EqualFold(path.Ext(f.Name), ".csv") {
			csvs = append(csvs, f)
		}
	}
	if len(csvs) != 1 {
		return nil, eris.Errorf("zip: expected exactly 1 csv file, got %d", len(csvs))
	}
	return csvs[0], nil
}
