// Package export turns completed assignment results into downloadable files.
// PDF and DOCX rendering shells out to an external worker command that reads
// the document as JSON on stdin and prints the produced filename on stdout;
// markdown export is handled in-process.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
	"github.com/AyoubKhan990/teach-flow-lms/internal/storage"
)

// ErrUnsupportedFormat is returned for formats with no configured renderer.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Document is the renderer input.
type Document struct {
	ID              string   `json:"id"`
	Topic           string   `json:"topic"`
	Subject         string   `json:"subject"`
	Level           string   `json:"level"`
	Language        string   `json:"language"`
	CitationStyle   string   `json:"citationStyle"`
	Content         string   `json:"content"`
	IncludeImages   bool     `json:"includeImages"`
	ImageCount      int      `json:"imageCount"`
	GeneratedImages []string `json:"generatedImages"`
}

// DocumentFromResult builds the renderer input for a completed job.
func DocumentFromResult(jobID string, result *domain.JobResult) Document {
	return Document{
		ID:              jobID,
		Topic:           result.Topic,
		Subject:         result.Subject,
		Level:           result.Level,
		Language:        result.Language,
		CitationStyle:   result.CitationStyle,
		Content:         result.Content,
		IncludeImages:   result.IncludeImages,
		ImageCount:      result.ImageCount,
		GeneratedImages: result.GeneratedImages,
	}
}

// File is one rendered download.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Exporter renders a document into a downloadable file.
type Exporter interface {
	Export(ctx context.Context, format string, doc Document) (File, error)
}

// CommandExporter renders through per-format worker commands, falling back to
// in-process markdown rendering for the md format.
type CommandExporter struct {
	commands map[string][]string
	store    *storage.FileStore
	timeout  time.Duration
	logger   zerolog.Logger
}

// CommandExporterOptions configure a CommandExporter. Commands maps a format
// name (pdf, docx) to the argv of its worker.
type CommandExporterOptions struct {
	Commands map[string][]string
	Store    *storage.FileStore
	Timeout  time.Duration
	Logger   zerolog.Logger
}

func NewCommandExporter(opts CommandExporterOptions) *CommandExporter {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &CommandExporter{
		commands: opts.Commands,
		store:    opts.Store,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

func (e *CommandExporter) Export(ctx context.Context, format string, doc Document) (File, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "md" || format == "markdown" {
		return markdownFile(doc), nil
	}
	argv, ok := e.commands[format]
	if !ok || len(argv) == 0 {
		return File{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return File{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = e.store.BasePath()
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		e.logger.Error().Err(err).Str("format", format).Str("stderr", strings.TrimSpace(stderr.String())).Msg("export: worker failed")
		return File{}, fmt.Errorf("export: %s worker: %w", format, err)
	}

	name := strings.TrimSpace(stdout.String())
	if name == "" {
		return File{}, fmt.Errorf("export: %s worker produced no filename", format)
	}
	data, err := e.store.Read(ctx, name)
	if err != nil {
		return File{}, err
	}
	// The worker output is a one-shot temp file.
	_ = os.Remove(filepath.Join(e.store.BasePath(), filepath.FromSlash(name)))

	return File{Name: name, MIME: mimeForFormat(format), Data: data}, nil
}

func markdownFile(doc Document) File {
	name := safeBaseName(doc.Topic) + ".md"
	return File{Name: name, MIME: "text/markdown; charset=utf-8", Data: []byte(doc.Content)}
}

func mimeForFormat(format string) string {
	switch format {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

func safeBaseName(topic string) string {
	topic = strings.TrimSpace(strings.ToLower(topic))
	if topic == "" {
		return "assignment"
	}
	var b strings.Builder
	for _, r := range topic {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		return "assignment"
	}
	if len(name) > 60 {
		name = name[:60]
	}
	return name
}

var _ Exporter = (*CommandExporter)(nil)
