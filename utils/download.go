package utils

import (
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/pkg/errors"
)

// DownloadFile downloads a railway file from the internet and saves it
// into a temporary file.
func DownloadFile(uri string) (*os.File, error) {
	res, err := http.Get(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to download the file from URI: %s", uri)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unable to download the file from URI: %s, status %v", uri, res.Status)
	}

	tmpfile, err := os.CreateTemp("", "railway")
	if err != nil {
		return nil, errors.Wrap(err, "unable to create a temporary file")
	}

	if _, err = io.Copy(tmpfile, res.Body); err != nil {
		return nil, errors.Wrap(err, "unable to copy the source URI into the destination file")
	}
	if _, err = tmpfile.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return tmpfile, nil
}

// IsValidUrl tests a string to determine if it is a well-structured url or not.
func IsValidUrl(uri string) bool {
	_, err := url.ParseRequestURI(uri)
	if err != nil {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}
