package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vytor/studyflash/internal/logger"
	"golang.org/x/sync/errgroup"
)

const defaultLinkConcurrency = 4

var ErrUnsupportedFile = errors.New("only PDF files are allowed")

// File is an uploaded document held in memory.
type File struct {
	Name string
	Data []byte
}

type Sources struct {
	Prompt string
	Files  []File
	Links  []string
}

// FileError reports an upload that could not be read.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("file %s: %v", e.Name, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// LinkError reports a link whose transcript could not be fetched.
type LinkError struct {
	Link string
	Err  error
}

func (e *LinkError) Error() string { return fmt.Sprintf("link %s: %v", e.Link, e.Err) }
func (e *LinkError) Unwrap() error { return e.Err }

// Material is the text gathered from one set of sources.
type Material struct {
	Prompt    string
	PDFText   string
	VideoText string
}

// Text joins the non-empty parts, prompt first.
func (m Material) Text() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Prompt, m.PDFText, m.VideoText} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

func (m Material) Empty() bool { return m.Text() == "" }

type Gatherer struct {
	transcripts TranscriptFetcher
	concurrency int
}

func NewGatherer(transcripts TranscriptFetcher) *Gatherer {
	return &Gatherer{transcripts: transcripts, concurrency: defaultLinkConcurrency}
}

// Gather extracts text from every file and link. Any file that is not a
// readable PDF fails the whole call with *FileError. Link failures are logged
// and skipped unless strictLinks is set, in which case the first one is
// returned as *LinkError.
func (g *Gatherer) Gather(ctx context.Context, src Sources, strictLinks bool) (Material, error) {
	log := logger.FromContext(ctx).WithPrefix("sources")
	m := Material{Prompt: strings.TrimSpace(src.Prompt)}

	var pdfText strings.Builder
	for _, f := range src.Files {
		if !IsPDF(f.Name) {
			return Material{}, &FileError{Name: f.Name, Err: ErrUnsupportedFile}
		}
		text, err := ExtractPDF(bytes.NewReader(f.Data), int64(len(f.Data)))
		if err != nil {
			return Material{}, &FileError{Name: f.Name, Err: err}
		}
		log.Debug("extracted %d chars from %s", len(text), f.Name)
		if pdfText.Len() > 0 {
			pdfText.WriteString("\n")
		}
		pdfText.WriteString(text)
	}
	m.PDFText = pdfText.String()

	links := make([]string, 0, len(src.Links))
	for _, l := range src.Links {
		if l = strings.TrimSpace(l); l != "" {
			links = append(links, l)
		}
	}
	if len(links) == 0 || g.transcripts == nil {
		return m, nil
	}

	transcripts := make([]string, len(links))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, link := range links {
		eg.Go(func() error {
			text, err := g.transcripts.Transcript(egCtx, link)
			if err != nil {
				if strictLinks {
					return &LinkError{Link: link, Err: err}
				}
				log.Warn("skipping link %s: %v", link, err)
				return nil
			}
			transcripts[i] = text
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Material{}, err
	}

	kept := transcripts[:0]
	for _, t := range transcripts {
		if t != "" {
			kept = append(kept, t)
		}
	}
	m.VideoText = strings.Join(kept, "\n")
	return m, nil
}
