// Serialmux provides an abstraction over the motor controller's serial link,
// letting several clients subscribe to the telemetry lines it prints and send
// commands through one writer.
package serialmux

import (
	"bufio"
	"bytes"
	"context"
	crand "crypto/rand"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"tailscale.com/tsweb"
)

var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// DefaultSubscriberBuffer is the per-subscriber channel capacity. A full
// subscriber misses lines rather than stalling the reader.
const DefaultSubscriberBuffer = 64

//go:embed templates/*
var adminTemplateFS embed.FS

var sendCommandTemplate = template.Must(template.ParseFS(adminTemplateFS, "templates/send-command.html.tmpl"))

// SerialMux is a generic serial port multiplexer that allows multiple clients to
// subscribe to lines from a single serial port.
type SerialMux[T SerialPorter] struct {
	port         T
	buffer       int
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
	// linkDown is set once Monitor has lost the port; guarded by
	// subscriberMu.
	linkDown bool

	statsMu sync.Mutex
	stats   Stats
}

// Stats counts traffic through the mux.
type Stats struct {
	LinesRead    int64 `json:"lines_read"`
	LinesDropped int64 `json:"lines_dropped"`
	BytesWritten int64 `json:"bytes_written"`
}

// SerialMuxInterface defines the interface for the SerialMux type.
type SerialMuxInterface interface {
	// Subscribe creates a new channel for receiving line events from the serial
	// port. The channel ID is used to identify the unique channel when
	// unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// SendCommand writes the provided command to the serial port, newline
	// terminated.
	SendCommand(string) error
	// WriteByte writes a single raw byte to the serial port.
	WriteByte(byte) error
	// Monitor reads lines from the serial port and sends them to the
	// appropriate channels.
	Monitor(context.Context) error
	// Close closes all subscribed channels and closes the serial port.
	Close() error

	// AttachAdminRoutes attaches admin debugging endpoints to the given HTTP
	// mux served at /debug/. These routes are accessible only over
	// localhost/via Tailscale and are not publicly accessible.
	AttachAdminRoutes(*http.ServeMux)
}

// NewSerialMux creates a SerialMux over an already opened port.
func NewSerialMux[T SerialPorter](port T) *SerialMux[T] {
	return &SerialMux[T]{
		port:        port,
		buffer:      DefaultSubscriberBuffer,
		subscribers: make(map[string]chan string),
	}
}

// SetSubscriberBuffer changes the capacity of channels returned by later
// Subscribe calls. Values below zero are treated as zero.
func (s *SerialMux[T]) SetSubscriberBuffer(n int) {
	if n < 0 {
		n = 0
	}
	s.subscriberMu.Lock()
	s.buffer = n
	s.subscriberMu.Unlock()
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (s *SerialMux[T]) Subscribe() (string, chan string) {
	id := randomID()
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	ch := make(chan string, s.buffer)
	if s.linkDown {
		close(ch)
		return id, ch
	}
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the serial mux.
func (s *SerialMux[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// SendCommand sends a newline terminated text command to the serial port.
func (s *SerialMux[T]) SendCommand(command string) error {
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	return s.write([]byte(command))
}

// WriteByte sends a single raw byte. The motor controller reads one byte per
// command.
func (s *SerialMux[T]) WriteByte(b byte) error {
	return s.write([]byte{b})
}

func (s *SerialMux[T]) write(p []byte) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	n, err := s.port.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return ErrWriteFailed
	}
	s.statsMu.Lock()
	s.stats.BytesWritten += int64(n)
	s.statsMu.Unlock()
	return nil
}

// Stats returns a copy of the traffic counters.
func (s *SerialMux[T]) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Monitor monitors the serial port for lines and sends them to subscribers.
// Lines are delivered without the trailing "\r\n". When the port fails or
// reaches EOF every subscriber channel is closed, and so is any channel
// handed out by a later Subscribe. Cancellation leaves them open, and
// Monitor returns nil once Close has been called.
func (s *SerialMux[T]) Monitor(ctx context.Context) error {
	err := s.monitor(ctx)
	s.closingMu.Lock()
	closing := s.closing
	s.closingMu.Unlock()
	if closing {
		// Close released the port; read errors after that are expected
		return nil
	}
	if ctx.Err() == nil {
		s.linkLost(err)
	}
	return err
}

// linkLost closes all subscribers after the port stopped delivering lines.
func (s *SerialMux[T]) linkLost(err error) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if s.linkDown {
		return
	}
	s.linkDown = true
	if len(s.subscribers) > 0 {
		if err != nil {
			opsf("serial link lost: %v; closing %d subscriber(s)", err, len(s.subscribers))
		} else {
			opsf("serial link reached EOF; closing %d subscriber(s)", len(s.subscribers))
		}
	}
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

func (s *SerialMux[T]) monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// the blocking scan.Scan runs in its own goroutine so the outer loop can
	// still observe context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- strings.TrimRight(scan.Text(), "\r"):
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				// the reader goroutine may have queued an error just before
				// closing lineChan
				select {
				case err := <-scanErrChan:
					return err
				default:
				}
				return nil
			}
			s.closingMu.Lock()
			if s.closing {
				s.closingMu.Unlock()
				return nil
			}
			s.closingMu.Unlock()

			s.publish(line)
		}
	}
}

func (s *SerialMux[T]) publish(line string) {
	var dropped int64
	s.subscriberMu.Lock()
	for _, ch := range s.subscribers {
		select {
		case ch <- line:
		default:
			// full subscriber; skip so the reader never blocks
			dropped++
		}
	}
	s.subscriberMu.Unlock()

	s.statsMu.Lock()
	s.stats.LinesRead++
	s.stats.LinesDropped += dropped
	s.statsMu.Unlock()
	if dropped > 0 {
		tracef("dropped line for %d slow subscriber(s)", dropped)
	}
}

func (s *SerialMux[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return s.port.Close()
}

// parseByte accepts a single character ("F"), a decimal value ("70") or a
// hex value ("0x46").
func parseByte(v string) (byte, error) {
	v = strings.TrimSpace(v)
	if len(v) == 1 {
		return v[0], nil
	}
	n, err := strconv.ParseUint(v, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q: %w", v, err)
	}
	return byte(n), nil
}

func (s *SerialMux[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// Basic command / live tail monitor interface using the API endpoints below.
	debug.HandleFunc("send-command", "send a command to the motor controller", func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer(nil)
		if err := sendCommandTemplate.Execute(buf, nil); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		io.Copy(w, buf)
	})

	// Writes a single raw command byte, the way the control loop does.
	debug.HandleSilentFunc("send-command-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		command := strings.TrimSpace(r.FormValue("command"))
		if command == "" {
			http.Error(w, "Missing command", http.StatusBadRequest)
			return
		}
		b, err := parseByte(command)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.WriteByte(b); err != nil {
			http.Error(w, "Failed to write command", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote command %q to serial port", b))
	})

	debug.HandleSilentFunc("serial-stats", func(w http.ResponseWriter, r *http.Request) {
		st := s.Stats()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "lines_read %d\nlines_dropped %d\nbytes_written %d\n", st.LinesRead, st.LinesDropped, st.BytesWritten)
	})

	// Server-Sent Events (SSE) for lines coming from the serial port.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		id, c := s.Subscribe()
		defer s.Unsubscribe(id)

		// Send initial ping to establish connection
		w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()

		for {
			select {
			case payload, ok := <-c:
				if !ok {
					return
				}
				_, err := w.Write([]byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ClassifyLine(payload), payload)))
				if err != nil {
					return
				}
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})

	debug.HandleSilentFunc("tail.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Cache-Control", "no-cache")

		f, err := adminTemplateFS.Open("templates/tail.js")
		if err != nil {
			http.Error(w, "Failed to open tail.js", http.StatusInternalServerError)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})
}
