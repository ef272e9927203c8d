package api

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/input"
	"github.com/Skufu/GlucoRisk/internal/report"
)

//go:embed templates/index.html
var templates embed.FS

const pageName = "index.html"

func loadTemplates() *template.Template {
	return template.Must(template.ParseFS(templates, "templates/"+pageName))
}

// formField is one bounded numeric input.
type formField struct {
	Name  string
	Label string
	Min   string
	Max   string
	Step  string
	Value string
}

type pageData struct {
	Title   string
	Fields  []formField
	Card    *report.Card
	Error   string
	Partial []string
}

func formFields(values []float64) []formField {
	out := make([]formField, len(features.Order))
	for i, name := range features.Order {
		b := features.Bounds[name]
		out[i] = formField{
			Name:  name,
			Label: features.Labels[name],
			Min:   formatNumber(b.Min),
			Max:   formatNumber(b.Max),
			Step:  formatNumber(b.Step),
			Value: formatNumber(values[i]),
		}
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderPage(c, http.StatusOK, pageData{Fields: formFields(features.Defaults().Values())})
}

func (s *Server) handleFormSubmit(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		status, _ := classify(err)
		if status != http.StatusRequestEntityTooLarge {
			status = http.StatusBadRequest
		}
		s.renderPage(c, status, pageData{Fields: formFields(features.Defaults().Values()), Error: err.Error()})
		return
	}
	manual := input.ParseManual(c.Request.PostForm.Get)
	s.renderVerdict(c, manual)
}

// handleFormUpload fills the form from an uploaded document and scores it.
// When the document has too few numbers the form keeps what was found so a
// person can complete it.
func (s *Server) handleFormUpload(c *gin.Context) {
	name, data, err := readUpload(c)
	if err != nil {
		status := http.StatusBadRequest
		if st, _ := classify(err); st == http.StatusRequestEntityTooLarge {
			status = st
		}
		s.renderPage(c, status, pageData{Fields: formFields(features.Defaults().Values()), Error: err.Error()})
		return
	}
	src, err := input.ForFile(name, bytes.NewReader(data), int64(len(data)), s.extractor)
	if err != nil {
		status, _ := classify(err)
		s.renderPage(c, status, pageData{Fields: formFields(features.Defaults().Values()), Error: err.Error()})
		return
	}
	s.renderVerdict(c, src)
}

func (s *Server) renderVerdict(c *gin.Context, src input.Source) {
	ctx := c.Request.Context()
	v, verdict, err := s.evaluate(ctx, src)
	if err != nil {
		status, _ := classify(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(ctx, "form scoring failed", "err", err)
		}
		data := pageData{Fields: formFields(prefill(v, err)), Error: err.Error()}
		var insufficient *input.InsufficientDataError
		if errors.As(err, &insufficient) {
			for _, value := range insufficient.Values {
				data.Partial = append(data.Partial, formatNumber(value))
			}
		}
		s.renderPage(c, status, data)
		return
	}

	card := report.NewCard(report.New(v, verdict, s.now()))
	s.renderPage(c, http.StatusOK, pageData{Fields: formFields(v.Values()), Card: &card})
}

// prefill picks the values the form shows after a failure: the partial
// extraction when there is one, the resolved vector when resolution got that
// far, the defaults otherwise.
func prefill(v features.Vector, err error) []float64 {
	var insufficient *input.InsufficientDataError
	if errors.As(err, &insufficient) {
		values := features.Defaults().Values()
		for i, value := range insufficient.Values {
			if i >= len(values) {
				break
			}
			values[i] = features.Clamp(features.Order[i], value)
		}
		return values
	}
	if v == (features.Vector{}) {
		return features.Defaults().Values()
	}
	return v.Values()
}

func (s *Server) renderPage(c *gin.Context, status int, data pageData) {
	data.Title = report.DefaultTitle
	c.HTML(status, pageName, data)
}
