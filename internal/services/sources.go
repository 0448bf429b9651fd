package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/vytor/studyflash/internal/content"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
)

// gatherMaterial extracts the text of all sources and rejects requests that
// carry no usable content.
func gatherMaterial(ctx context.Context, g SourceGatherer, src content.Sources, strictLinks bool) (content.Material, error) {
	log := logger.FromContext(ctx)

	material, err := g.Gather(ctx, src, strictLinks)
	if err != nil {
		var fileErr *content.FileError
		var linkErr *content.LinkError
		switch {
		case stderrors.Is(err, content.ErrUnsupportedFile):
			return content.Material{}, errors.NewBadRequestError("only PDF files are allowed").Wrap(err)
		case stderrors.As(err, &fileErr):
			return content.Material{}, errors.NewBadRequestError(fmt.Sprintf("could not read %s", fileErr.Name)).Wrap(err)
		case stderrors.As(err, &linkErr):
			return content.Material{}, errors.NewBadRequestError(fmt.Sprintf("could not load transcript for %s", linkErr.Link)).Wrap(err)
		}
		log.WithError(err).Error("failed to gather sources")
		return content.Material{}, errors.NewInternalError(err)
	}

	if material.Empty() {
		return content.Material{}, errors.NewBadRequestError("no content provided: send a prompt, a PDF or a video link")
	}
	return material, nil
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

// clip cuts s to n runes and marks the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
