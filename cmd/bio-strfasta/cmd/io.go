package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
)

// createOutput opens path for writing.  An empty path or "-" selects stdout.
// A ".gz" suffix gzip-compresses the output.  The returned close function
// must be called once writing is done.
func createOutput(ctx context.Context, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return out.Writer(ctx), func() error { return out.Close(ctx) }, nil
	}
	gz := gzip.NewWriter(out.Writer(ctx))
	return gz, func() error {
		err := gz.Close()
		if e := out.Close(ctx); e != nil && err == nil {
			err = e
		}
		return err
	}, nil
}

// writeText writes a rendered blob followed by a newline.  Nothing is written
// for an empty blob.
func writeText(w io.Writer, text string) error {
	if text == "" {
		return nil
	}
	_, err := io.WriteString(w, text+"\n")
	return err
}

// checksum is a content digest of rendered output, logged so that runs can be
// compared without diffing the output itself.
func checksum(text string) uint64 {
	return seahash.Sum64([]byte(text))
}
