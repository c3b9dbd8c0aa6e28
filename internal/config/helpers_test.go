package config

import (
	"bytes"
	"io"
)

func readersOf(data ...[]byte) []io.Reader {
	readers := make([]io.Reader, len(data))
	for i, d := range data {
		readers[i] = bytes.NewReader(d)
	}
	return readers
}
