package report

import (
	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

// Renderer exposes the Markdown renderer to the application layer.
type Renderer struct{}

var _ application.Renderer = Renderer{}

func (Renderer) Markdown(r domain.Report) string { return Markdown(r) }

func (Renderer) Identity(title string) string { return CommentIdentity(title) }
