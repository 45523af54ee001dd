package logger

import (
	"fmt"
	"io"

	"github.com/Graylog2/go-gelf/gelf"
)

// MirrorToGELF ships every global log line to a Graylog UDP input at addr. Closing the
// returned closer stops the mirror.
func MirrorToGELF(addr string) (io.Closer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open GELF writer %s: %w", addr, err)
	}
	w.Facility = "geoscape-sim"
	SetMirror(w)
	return closeFunc(func() error {
		SetMirror(nil)
		return w.Close()
	}), nil
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }
