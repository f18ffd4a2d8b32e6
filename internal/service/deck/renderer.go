// Package deck renders a parsed outline into a presentation file.
package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/internal/service/background"
	"github.com/CHuiV123/slidegen/internal/service/outline"
	"github.com/CHuiV123/slidegen/pkg/errors"
)

const (
	// Extension is the file extension of decks produced by PPTXRenderer.
	Extension = "pptx"

	DefaultFont = "Arial"

	mediaName = "image1.png"
)

// Renderer turns an outline into deck bytes. bg may be nil.
type Renderer interface {
	Render(o outline.Outline, bg *background.Image) ([]byte, error)
	Extension() string
}

var funcs = template.FuncMap{"esc": escape}

var (
	contentTypesT = template.Must(template.New("content_types").Funcs(funcs).Parse(contentTypesTmpl))
	rootRelsT     = template.Must(template.New("root_rels").Funcs(funcs).Parse(rootRelsTmpl))
	coreT         = template.Must(template.New("core").Funcs(funcs).Parse(coreTmpl))
	appT          = template.Must(template.New("app").Funcs(funcs).Parse(appTmpl))
	presentationT = template.Must(template.New("presentation").Funcs(funcs).Parse(presentationTmpl))
	presRelsT     = template.Must(template.New("presentation_rels").Funcs(funcs).Parse(presentationRelsTmpl))
	layoutT       = template.Must(template.New("layout").Funcs(funcs).Parse(layoutTmpl))
	slideT        = template.Must(template.New("slide").Funcs(funcs).Parse(slideTmpl))
	slideRelsT    = template.Must(template.New("slide_rels").Funcs(funcs).Parse(slideRelsTmpl))
)

type box struct {
	X, Y, CX, CY int
}

var (
	coverTitleBox = box{X: 914400, Y: 2130425, CX: 10363200, CY: 1470025}
	titleBox      = box{X: 838200, Y: 365125, CX: 10515600, CY: 1325563}
	bodyBox       = box{X: 838200, Y: 1825625, CX: 10515600, CY: 4351338}
)

type slideView struct {
	Number     int
	ID         int
	RelID      int
	Cover      bool
	Heading    string
	Bullets    []string
	Background string
	Font       string
	Title      box
	Body       box
}

type deckView struct {
	Slides  []slideView
	Width   int
	Height  int
	Title   string
	Created string
}

type layoutView struct {
	Type string
	Name string
}

// PPTXRenderer writes a 16:9 Office Open XML presentation. The first slide
// uses a title-only layout, the rest a title and body layout with one
// paragraph per bullet.
type PPTXRenderer struct {
	font   string
	now    func() time.Time
	logger *logger.Logger
}

func NewPPTXRenderer(log *logger.Logger) *PPTXRenderer {
	return &PPTXRenderer{
		font:   DefaultFont,
		now:    time.Now,
		logger: log.Named("deck"),
	}
}

func (r *PPTXRenderer) Extension() string {
	return Extension
}

func (r *PPTXRenderer) Render(o outline.Outline, bg *background.Image) ([]byte, error) {
	if o.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptyOutline, "no slides could be parsed from the generated outline")
	}

	var media []byte
	if bg != nil && bg.Path != "" {
		data, err := os.ReadFile(bg.Path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeImage, "failed to read background image")
		}
		media = data
	}

	view := r.buildView(o, media != nil)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		tmpl *template.Template
		data any
	}{
		{"[Content_Types].xml", contentTypesT, view},
		{"_rels/.rels", rootRelsT, view},
		{"docProps/core.xml", coreT, view},
		{"docProps/app.xml", appT, view},
		{"ppt/presentation.xml", presentationT, view},
		{"ppt/_rels/presentation.xml.rels", presRelsT, view},
		{"ppt/slideLayouts/slideLayout1.xml", layoutT, layoutView{Type: "title", Name: "Title Slide"}},
		{"ppt/slideLayouts/slideLayout2.xml", layoutT, layoutView{Type: "obj", Name: "Title and Content"}},
	}
	for _, p := range parts {
		if err := writeTemplate(zw, p.name, p.tmpl, p.data); err != nil {
			return nil, err
		}
	}

	static := []struct {
		name string
		body string
	}{
		{"ppt/slideMasters/slideMaster1.xml", masterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", masterRelsXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", layoutRelsXML},
		{"ppt/slideLayouts/_rels/slideLayout2.xml.rels", layoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
	}
	for _, p := range static {
		if err := writeRaw(zw, p.name, []byte(p.body)); err != nil {
			return nil, err
		}
	}

	for _, s := range view.Slides {
		if err := writeTemplate(zw, fmt.Sprintf("ppt/slides/slide%d.xml", s.Number), slideT, s); err != nil {
			return nil, err
		}
		if err := writeTemplate(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.Number), slideRelsT, s); err != nil {
			return nil, err
		}
	}

	if media != nil {
		if err := writeRaw(zw, "ppt/media/"+mediaName, media); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRender, "failed to finalize presentation")
	}

	r.logger.Debug("deck rendered",
		"slides", len(view.Slides),
		"has_background", media != nil,
		"size", buf.Len(),
	)
	return buf.Bytes(), nil
}

func (r *PPTXRenderer) buildView(o outline.Outline, withBackground bool) deckView {
	view := deckView{
		Width:   slideWidth,
		Height:  slideHeight,
		Title:   o[0].Title,
		Created: r.now().UTC().Format(time.RFC3339),
	}
	for i, s := range o {
		sv := slideView{
			Number:  i + 1,
			ID:      256 + i,
			RelID:   i + 3,
			Cover:   i == 0,
			Heading: s.Title,
			Font:    r.font,
			Title:   titleBox,
			Body:    bodyBox,
		}
		if sv.Cover {
			sv.Title = coverTitleBox
		} else {
			sv.Bullets = s.Bullets
		}
		if withBackground {
			sv.Background = mediaName
		}
		view.Slides = append(view.Slides, sv)
	}
	return view
}

func writeTemplate(zw *zip.Writer, name string, t *template.Template, data any) error {
	w, err := zw.Create(name)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRender, "failed to create "+name)
	}
	if err := t.Execute(w, data); err != nil {
		return errors.Wrap(err, errors.ErrCodeRender, "failed to render "+name)
	}
	return nil
}

func writeRaw(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRender, "failed to create "+name)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return errors.Wrap(err, errors.ErrCodeRender, "failed to write "+name)
	}
	return nil
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
