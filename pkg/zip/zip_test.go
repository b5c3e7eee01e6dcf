package zip

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"testing"
)

func TestArchiveAssetsRoundTrip(t *testing.T) {
	data, err := ArchiveAssets([]Asset{
		{Filename: "a.txt", Data: []byte("alpha")},
		{Filename: "dir/b.txt", Data: []byte("beta")},
	})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("files = %d, want 2", len(zr.File))
	}
	if zr.File[1].Name != "dir/b.txt" {
		t.Fatalf("second file = %s", zr.File[1].Name)
	}
}

func TestAssetsFromDataURIs(t *testing.T) {
	png := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	jpg := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpg-bytes"))

	assets := AssetsFromDataURIs("image", []string{png, "not-a-data-uri", jpg})
	if len(assets) != 2 {
		t.Fatalf("assets = %d, want 2", len(assets))
	}
	if assets[0].Filename != "image-1.png" || assets[1].Filename != "image-3.jpg" {
		t.Fatalf("filenames %s, %s", assets[0].Filename, assets[1].Filename)
	}
	if string(assets[0].Data) != "png-bytes" {
		t.Fatalf("decoded data %q", assets[0].Data)
	}
}
