package diagnostics

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Saver writes the raw HTML of pages that failed extraction to
// <dir>/<RS_PN>_<suffix>.html. Save errors are logged and swallowed: losing a
// diagnostic artifact must never fail a lookup. An empty dir disables saving,
// which keeps tests free of filesystem side effects.
type Saver struct {
	dir    string
	logger *slog.Logger
}

func NewSaver(dir string, logger *slog.Logger) *Saver {
	return &Saver{
		dir:    dir,
		logger: logger.With("component", "diagnostics"),
	}
}

func (s *Saver) Save(rsPN, suffix, html string) {
	if s.dir == "" {
		return
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.logger.Warn("failed to create failed-page dir", "dir", s.dir, "error", err)
		return
	}

	name := fmt.Sprintf("%s_%s.html", sanitize(rsPN), sanitize(suffix))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		s.logger.Warn("unable to save failed html", "rs_pn", rsPN, "path", path, "error", err)
	}
}

// sanitize keeps file names portable whatever characters a part number
// carries.
func sanitize(s string) string {
	return unsafeChars.ReplaceAllString(s, "-")
}
