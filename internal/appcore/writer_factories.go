package appcore

import (
	"io"

	"dbgraph/internal/writers"
	"dbgraph/pkg/api"
)

// ---------------- Query writer ----------------

type QueryWriterFactory struct {
	Format    string
	Header    bool
	Neighbors bool
}

func NewQueryWriterFactory(format string, header, neighbors bool) QueryWriterFactory {
	return QueryWriterFactory{Format: format, Header: header, Neighbors: neighbors}
}

func (w QueryWriterFactory) Start(out io.Writer, bufSize int) (chan<- api.QueryV1, <-chan error) {
	return writers.StartQueryWriter(out, w.Format, writers.QueryOptions{Header: w.Header, Neighbors: w.Neighbors}, bufSize)
}
