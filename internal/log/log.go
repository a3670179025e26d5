package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Init installs the process wide apex handler and level. Unknown levels
// fall back to info.
func Init(level, format string, w io.Writer) log.Interface {
	if w == nil {
		w = os.Stderr
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		log.SetHandler(json.New(w))
	default:
		log.SetHandler(NewTextHandler(w))
	}

	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	return log.Log
}

// TextHandler writes one line per entry: timestamp, level initial, message
// and the sorted fields as key=value pairs.
type TextHandler struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewTextHandler returns a TextHandler writing to w.
func NewTextHandler(w io.Writer) *TextHandler {
	return &TextHandler{w: w, now: time.Now}
}

// HandleLog implements log.Handler.
func (h *TextHandler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", h.now().Format("2006-01-02 15:04:05"), strings.ToUpper(e.Level.String()), e.Message)

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}
