// Package zip bundles generated assignment assets into a single archive for
// download.
package zip

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

// Asset is one file inside the archive.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets builds an in-memory zip from the given assets.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", asset.Filename, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", asset.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}

// AssetsFromDataURIs decodes base64 image data URIs into archive assets named
// <prefix>-<n>.<ext>. Undecodable entries are skipped.
func AssetsFromDataURIs(prefix string, uris []string) []Asset {
	var out []Asset
	for i, uri := range uris {
		mime, data, ok := decodeDataURI(uri)
		if !ok {
			continue
		}
		out = append(out, Asset{
			Filename: fmt.Sprintf("%s-%d.%s", prefix, i+1, extensionFor(mime)),
			MIME:     mime,
			Data:     data,
		})
	}
	return out
}

func decodeDataURI(uri string) (string, []byte, bool) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, false
	}
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return "", nil, false
	}
	meta := uri[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, false
	}
	mime := strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return "", nil, false
	}
	return mime, data, true
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
