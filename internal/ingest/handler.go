package ingest

import (
	"bufio"
	"io"
	"net"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/dreamware/bookd/internal/export"
	"github.com/dreamware/bookd/internal/library"
	"github.com/dreamware/bookd/internal/logger"
	"github.com/dreamware/bookd/internal/metrics"
)

// State is a connection's position in the ingestion state machine
type State int

const (
	// StateAwaitingTitle means no data has been received yet
	StateAwaitingTitle State = iota
	// StateStreaming means the title was read and lines are being appended
	StateStreaming
	// StateClosing means the peer is gone and the session is being exported
	StateClosing
	// StateDone means the connection is closed and the store is no longer touched
	StateDone
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateAwaitingTitle:
		return "awaiting-title"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Summary describes how one connection was handled.
type Summary struct {
	State     State           // Final state, always StateDone after Handle
	Title     string          // Title as stored, empty if none was received
	HasTitle  bool            // Whether a title (and so a Book) was established
	Lines     int             // Lines appended by this connection
	Exported  bool            // Whether the sink was called
	ExportID  uint64          // Export id, 0 if no export happened
	Artifact  export.Artifact // What the sink wrote
	ExportErr error           // Non-nil if the sink failed
}

// Handler turns connections into Book sessions. One Handler serves every
// connection of a server; Handle is safe to call concurrently.
type Handler struct {
	store *library.Store
	sink  export.Sink
	seq   atomic.Uint64 // Last issued export id
	log   *logrus.Entry
}

// NewHandler creates a handler that writes into store and exports to sink.
func NewHandler(store *library.Store, sink export.Sink) *Handler {
	return &Handler{
		store: store,
		sink:  sink,
		log:   logger.GetLogger("ingest"),
	}
}

// Handle runs the state machine for conn until the peer disconnects or a read
// fails, exports the session, and closes conn.
//
// State transitions:
//
//	AwaitingTitle ──first line──▶ Streaming ──EOF/error──▶ Closing ──▶ Done
//	      └──────────────EOF/error before any data──────────────────▶ Done
//
// There is no read deadline: an idle peer keeps its goroutine alive.
func (h *Handler) Handle(conn net.Conn) Summary {
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	log := h.log.WithField("remote", remoteAddr(conn))
	r := bufio.NewReader(conn)

	sum := Summary{State: StateAwaitingTitle}
	var session *library.Session

	for sum.State == StateAwaitingTitle || sum.State == StateStreaming {
		line, err := readLine(r)
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Debug("Read failed, treating as disconnect")
			}
			if session == nil {
				sum.State = StateDone
			} else {
				sum.State = StateClosing
			}
			break
		}

		switch sum.State {
		case StateAwaitingTitle:
			book, created := h.store.FindOrCreateBook(line)
			if created {
				metrics.BooksCreated.Inc()
			}
			session = h.store.NewSession(book)
			sum.Title = book.Title()
			sum.HasTitle = true
			sum.State = StateStreaming
			log.Infof("Received book title: %s", sum.Title)
		case StateStreaming:
			session.Append(line)
			sum.Lines++
			metrics.LinesIngested.Inc()
			log.Debugf("Added line to book %q: %s", sum.Title, line)
		}
	}

	if sum.State == StateClosing {
		h.export(session, &sum, log)
		sum.State = StateDone
	}

	if err := conn.Close(); err != nil {
		log.WithError(err).Debug("Closing connection")
	}
	return sum
}

// export hands the session's own lines to the sink. Failures are logged and
// recorded in sum, never propagated.
func (h *Handler) export(session *library.Session, sum *Summary, log *logrus.Entry) {
	lines := session.Lines()
	id := h.seq.Add(1)

	sum.Exported = true
	sum.ExportID = id

	art, err := h.sink.Export(id, sum.Title, lines)
	if err != nil {
		sum.ExportErr = err
		metrics.Exports.WithLabelValues(metrics.StatusError).Inc()
		log.WithError(err).Errorf("Failed exporting book %q (export %d)", sum.Title, id)
		return
	}

	sum.Artifact = art
	metrics.Exports.WithLabelValues(metrics.StatusSuccess).Inc()
	log.Infof("Saved book %q to %s (%d lines, %s)", sum.Title, art.Path, len(lines),
		humanize.Bytes(uint64(art.Bytes)))
}

// readLine returns the next newline-delimited unit with the line ending
// (\n or \r\n) removed. A final unterminated segment counts as a line. At most
// library.MaxLineBytes bytes of a line are buffered; the rest is discarded.
func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if len(buf) > 0 {
				return library.Truncate(string(buf)), nil
			}
			return "", err
		}

		if room := library.MaxLineBytes - len(buf); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			buf = append(buf, chunk...)
		}

		if !isPrefix {
			return library.Truncate(string(buf)), nil
		}
	}
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
