/*
Copyright © 2019 the SoilWat authors.
This file is part of SoilWat.

SoilWat is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SoilWat is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SoilWat.  If not, see <http://www.gnu.org/licenses/>.
*/

package soilwatutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
)

// downloadRetries is the number of times a failed download is retried.
const downloadRetries = 3

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or a blob storage location.
// If it is, it downloads the file and
// returns the path to the downloaded file.
// c, if not nil, is a channel across which error and
// logging messages will be sent.
func maybeDownload(ctx context.Context, path string, c chan string) string {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path
	}

	// If the path starts with one of these prefixes, download the file and
	// return the location it was downloaded to.
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return download(path, c, func(w io.Writer) error { return downloadHTTP(ctx, path, w) })
	}

	if IsBlob(path) {
		return download(path, c, func(w io.Writer) error { return downloadBlob(ctx, path, w) })
	}

	return path
}

// download retries get until it succeeds and returns the path to the
// downloaded file, or returns path if it never succeeds.
func download(path string, c chan string, get func(w io.Writer) error) string {
	dir, err := ioutil.TempDir("", "soilwat")
	if err != nil {
		send(c, fmt.Sprintf("soilwatutil: failed creating temporary download directory: %v", err))
		return path
	}
	u, err := url.Parse(path)
	if err != nil {
		send(c, err.Error())
		return path
	}
	fname := filepath.Join(dir, filepath.Base(u.Path))

	err = backoff.RetryNotify(
		func() error {
			w, err := os.Create(fname)
			if err != nil {
				return err
			}
			if err := get(w); err != nil {
				w.Close()
				return err
			}
			return w.Close()
		},
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), downloadRetries),
		func(err error, d time.Duration) {
			send(c, fmt.Sprintf("%v: retrying in %v", err, d))
		},
	)
	if err != nil {
		send(c, fmt.Sprintf("soilwatutil: downloading %s: %v", path, err))
		return path
	}
	return fname
}

// send sends msg to c if c is not nil.
func send(c chan string, msg string) {
	if c != nil {
		c <- msg
	}
}

// downloadHTTP downloads a file from the specified URL and writes it to w.
func downloadHTTP(ctx context.Context, path string, w io.Writer) error {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("soilwatutil: downloading %s: %s", path, resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// downloadBlob downloads the specified file from blob storage and writes
// it to w.
func downloadBlob(ctx context.Context, path string, w io.Writer) error {
	bucket, key, err := openBlob(ctx, path)
	if err != nil {
		return err
	}
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}
