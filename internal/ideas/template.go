package ideas

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"alphaminer/internal/domain"
)

// Default template grammar. Placeholders: {field}, {window}.
var DefaultTemplates = []string{
	"rank(ts_delta({field}, {window}))",
	"rank(ts_mean({field}, {window}))",
	"-rank(ts_delta({field}, {window}))",
	"rank({field} / ts_mean({field}, {window}))",
	"ts_rank({field}, {window})",
}

// DefaultWindows are lookback lengths in trading days.
var DefaultWindows = []int{5, 10, 21, 63}

// TemplateSource enumerates the template x field x window grid.
type TemplateSource struct {
	mu        sync.Mutex
	templates []string
	fields    []string
	windows   []int
	index     int
}

// NewTemplateSource builds a grid source. Empty templates or windows
// fall back to the defaults.
func NewTemplateSource(templates []string, fields []string, windows []int) *TemplateSource {
	if len(templates) == 0 {
		templates = DefaultTemplates
	}
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	return &TemplateSource{templates: templates, fields: fields, windows: windows}
}

func (s *TemplateSource) Next(ctx context.Context) (*domain.IdeaCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.templates) * len(s.fields) * len(s.windows)
	if s.index >= total {
		return nil, ErrExhausted
	}

	i := s.index
	s.index++

	tmpl := s.templates[i%len(s.templates)]
	i /= len(s.templates)
	field := s.fields[i%len(s.fields)]
	i /= len(s.fields)
	window := s.windows[i%len(s.windows)]

	expression := strings.NewReplacer(
		"{field}", field,
		"{window}", strconv.Itoa(window),
	).Replace(tmpl)

	return &domain.IdeaCandidate{
		Expression: expression,
		Hypothesis: "template grid: " + tmpl,
		Origin:     domain.OriginTemplate,
	}, nil
}
