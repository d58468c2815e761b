package httpclient

import (
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

type decodedBody struct {
	io.Reader
	closer io.Closer
}

func (d *decodedBody) Close() error {
	return d.closer.Close()
}

// decodeBody replaces a compressed response body with a decoding reader.
func decodeBody(resp *http.Response) error {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))

	var r io.Reader
	var err error
	switch encoding {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip", "x-gzip":
		r, err = gzip.NewReader(resp.Body)
	case "deflate":
		r, err = zlib.NewReader(resp.Body)
	default:
		return nil
	}
	if errors.Is(err, io.EOF) {
		// empty body, nothing to decode
		r, err = strings.NewReader(""), nil
	}
	if err != nil {
		return fmt.Errorf("decode %s body: %w", encoding, err)
	}

	resp.Body = &decodedBody{Reader: r, closer: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}
