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
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestMaybeDownloadLocal(t *testing.T) {
	ctx := context.Background()
	if k := maybeDownload(ctx, "testdata/forcing.csv", nil); k != "testdata/forcing.csv" {
		t.Error("Expected testdata/forcing.csv, got ", k)
	}
	if k := maybeDownload(ctx, "/blah/test/", nil); k != "/blah/test/" {
		t.Error("Expected /blah/test/, got ", k)
	}
}

func TestMaybeDownloadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	defer srv.Close()
	ctx := context.Background()

	k := maybeDownload(ctx, srv.URL+"/forcing.csv", nil)
	if filepath.Base(k) != "forcing.csv" || k == srv.URL+"/forcing.csv" {
		t.Fatal("Expected tempDir/forcing.csv, got ", k)
	}
	defer os.RemoveAll(filepath.Dir(k))
	have, err := ioutil.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	want, err := ioutil.ReadFile("testdata/forcing.csv")
	if err != nil {
		t.Fatal(err)
	}
	if string(have) != string(want) {
		t.Errorf("downloaded file doesn't match:\n%s", have)
	}

	missing := srv.URL + "/missing.csv"
	if k := maybeDownload(ctx, missing, nil); k != missing {
		t.Error("Expected the original path for a missing file, got ", k)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	const bucketDir = "tmpbucket"
	if err := os.Mkdir(bucketDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucketDir)
	ctx := context.Background()
	const path = "file://" + bucketDir + "/results.csv"

	var u uploader
	local := u.maybeUpload(path)
	if local == path || u.err != nil {
		t.Fatalf("blob path should be replaced by a local path: %s, %v", local, u.err)
	}
	defer os.RemoveAll(u.dir)
	if u.maybeUpload("local.csv") != "local.csv" {
		t.Error("local paths should be unchanged")
	}
	if err := ioutil.WriteFile(local, []byte("date,Drainage\n2019-06-01,1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := u.uploadOutput(ctx); err != nil {
		t.Fatal(err)
	}

	k := maybeDownload(ctx, path, nil)
	if k == path {
		t.Fatal("download failed")
	}
	defer os.RemoveAll(filepath.Dir(k))
	b, err := ioutil.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "date,Drainage\n2019-06-01,1\n" {
		t.Errorf("round trip: %q", b)
	}
}

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/file.csv": true,
		"s3://bucket/file.csv": true,
		"file://dir/file.csv":  true,
		"http://host/file.csv": false,
		"testdata/forcing.csv": false,
	} {
		if IsBlob(path) != want {
			t.Errorf("%s: want %v", path, want)
		}
	}
}

func TestOpenBlob(t *testing.T) {
	const bucketDir = "keybucket"
	if err := os.Mkdir(bucketDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucketDir)
	ctx := context.Background()

	_, key, err := openBlob(ctx, "file://"+bucketDir+"/runs/state.gob")
	if err != nil {
		t.Fatal(err)
	}
	if key != "runs/state.gob" {
		t.Errorf("key: have %s, want runs/state.gob", key)
	}
	if _, err := OpenBucket(ctx, "ftp://bucket"); err == nil {
		t.Error("an unsupported provider should be an error")
	}
}
