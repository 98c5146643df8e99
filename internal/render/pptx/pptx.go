// Package pptx implements the PPTX Format Renderer (§4.D) with a hand-rolled
// OOXML writer: archive/zip + encoding/xml. No third-party PowerPoint
// library appears anywhere in the retrieval pack or the broader Go
// ecosystem (see DESIGN.md), so this is the one renderer built directly on
// the standard library.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/playwright-community/playwright-go"

	"github.com/slidev/export-pipeline/internal/browser"
	"github.com/slidev/export-pipeline/internal/render"
	"github.com/slidev/export-pipeline/internal/slide"
	"github.com/slidev/export-pipeline/internal/stabilize"
)

func init() {
	render.Register(slide.FormatPPTX, Renderer{})
}

// Renderer implements render.Renderer for the pptx format.
type Renderer struct{}

type capturedSlide struct {
	png   []byte
	width int
	height int
	note  string
	fm    slide.Frontmatter
	title string
}

func (Renderer) Render(ctx context.Context, drv *browser.Driver, baseURL string, req slide.ExportRequest, slides []slide.Slide, expanded slide.Range) (string, error) {
	if req.Output == "" {
		return "", fmt.Errorf("pptx: output path required")
	}

	sess, err := drv.NewPrintSession(req.Width, req.Height, 1)
	if err != nil {
		return "", fmt.Errorf("pptx: open session: %w", err)
	}
	defer sess.Close()

	captured, err := captureSlides(sess, baseURL, req, expanded, slides)
	if err != nil {
		return "", err
	}
	if len(captured) == 0 {
		return "", fmt.Errorf("pptx: no slides captured")
	}

	if err := writeDeck(req.Output, captured, req.Width, req.Height); err != nil {
		return "", fmt.Errorf("pptx: write deck: %w", err)
	}
	return req.Output, nil
}

// captureSlides screenshots each slide in its initial (clicks=0) state only;
// req.WithClicks is not consulted, so click states are not captured.
func captureSlides(sess *browser.Session, baseURL string, req slide.ExportRequest, expanded slide.Range, slides []slide.Slide) ([]capturedSlide, error) {
	page := sess.Page()
	var out []capturedSlide

	for _, no := range expanded {
		opts := browser.NavOptions{
			Base:       baseURL,
			RouterMode: req.RouterMode,
			Dark:       req.Dark,
			WaitUntil:  req.WaitUntil,
			Timeout:    int(req.Timeout.Milliseconds()),
		}
		if err := sess.GotoSlide(no, 0, false, "true", opts); err != nil {
			return nil, err
		}
		if _, err := stabilize.Stabilize(page, stabilize.Options{Timeout: req.Timeout}); err != nil {
			return nil, fmt.Errorf("pptx: stabilize slide %d: %w", no, err)
		}

		buf, err := page.Screenshot(playwright.PageScreenshotOptions{
			OmitBackground: playwright.Bool(req.OmitBackground),
		})
		if err != nil {
			return nil, fmt.Errorf("pptx: screenshot slide %d: %w", no, err)
		}

		buf, w, h, err := normalizeSlideImage(buf, req.Width, req.Height)
		if err != nil {
			return nil, fmt.Errorf("pptx: normalize captured slide %d: %w", no, err)
		}

		var meta slide.Slide
		if no-1 >= 0 && no-1 < len(slides) {
			meta = slides[no-1]
		}

		cs := capturedSlide{png: buf, width: w, height: h, note: meta.Note, fm: meta.Frontmatter, title: meta.Title}
		out = append(out, cs)
	}

	return out, nil
}

func pngDimensions(buf []byte) (int, int, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// normalizeSlideImage decodes a captured screenshot and, when the browser's
// device scale factor or viewport rounding produced pixel dimensions that
// don't exactly match the requested slide size, resizes it so every image
// embedded in the deck shares one consistent size (PowerPoint stretches a
// mismatched image to its placeholder's aspect ratio otherwise, visibly
// distorting the slide). Most captures already match and pass through
// untouched; only the mismatched minority pays the decode/resize cost.
func normalizeSlideImage(buf []byte, targetW, targetH int) ([]byte, int, int, error) {
	w, h, err := pngDimensions(buf)
	if err != nil {
		return nil, 0, 0, err
	}
	if w == targetW && h == targetH {
		return buf, w, h, nil
	}

	src, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, 0, 0, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, 0, 0, err
	}
	return out.Bytes(), targetW, targetH, nil
}

// emuPerInch is the OOXML "English Metric Unit" scale: 914400 EMUs per inch.
const emuPerInch = 914400

func writeDeck(outputPath string, slides []capturedSlide, widthPx, heightPx int) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	widthEMU := int64(widthPx) * emuPerInch / 96
	heightEMU := int64(heightPx) * emuPerInch / 96
	layoutName := fmt.Sprintf("%dx%d", widthPx, heightPx)

	if err := writeEntry(zw, "[Content_Types].xml", contentTypesXML(len(slides))); err != nil {
		return err
	}
	if err := writeEntry(zw, "_rels/.rels", rootRelsXML); err != nil {
		return err
	}
	if err := writeEntry(zw, "ppt/presentation.xml", presentationXML(widthEMU, heightEMU, len(slides))); err != nil {
		return err
	}
	if err := writeEntry(zw, "ppt/_rels/presentation.xml.rels", presentationRelsXML(len(slides))); err != nil {
		return err
	}
	if err := writeEntry(zw, "ppt/slideLayouts/slideLayout1.xml", slideLayoutXML(layoutName)); err != nil {
		return err
	}
	if err := writeEntry(zw, "ppt/slideMasters/slideMaster1.xml", slideMasterXML); err != nil {
		return err
	}

	first := slides[0]
	if err := writeEntry(zw, "docProps/core.xml", corePropsXML(first.title, first.fm.Author, first.fm.Keywords)); err != nil {
		return err
	}

	for i, s := range slides {
		idx := i + 1
		imgName := fmt.Sprintf("media/image%d.png", idx)
		if err := writeEntryBytes(zw, "ppt/"+imgName, s.png); err != nil {
			return err
		}
		if err := writeEntry(zw, fmt.Sprintf("ppt/slides/slide%d.xml", idx), slideXML(widthEMU, heightEMU)); err != nil {
			return err
		}
		if err := writeEntry(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", idx), slideRelsXML(idx)); err != nil {
			return err
		}
		if s.note != "" {
			if err := writeEntry(zw, fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", idx), notesSlideXML(s.note)); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeEntry(zw *zip.Writer, name string, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	_, err = w.Write([]byte(xml.Header + content))
	return err
}

func writeEntryBytes(zw *zip.Writer, name string, content []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	_, err = w.Write(content)
	return err
}

func contentTypesXML(n int) string {
	var overrides bytes.Buffer
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	return fmt.Sprintf(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="png" ContentType="image/png"/>
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>
<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
%s
</Types>`, overrides.String())
}

const rootRelsXML = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`

func presentationXML(widthEMU, heightEMU int64, n int) string {
	var sldIdLst bytes.Buffer
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sldIdLst, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, i+1)
	}
	return fmt.Sprintf(`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>
<p:sldIdLst>%s</p:sldIdLst>
<p:sldSz cx="%d" cy="%d"/>
<p:notesSz cx="%d" cy="%d"/>
</p:presentation>`, sldIdLst.String(), widthEMU, heightEMU, heightEMU, widthEMU)
}

func presentationRelsXML(n int) string {
	var rels bytes.Buffer
	rels.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i)
	}
	return fmt.Sprintf(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">%s</Relationships>`, rels.String())
}

const slideMasterXML = `<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld>
<p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr/>
</p:spTree>
</p:cSld>
<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>
</p:sldMaster>`

func slideLayoutXML(name string) string {
	return fmt.Sprintf(`<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="blank" preserve="1">
<p:cSld name="%s">
<p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr/>
</p:spTree>
</p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sldLayout>`, name)
}

// slideXML places the captured screenshot as the slide's sole background
// picture, sized to fill the full slide bounds.
func slideXML(widthEMU, heightEMU int64) string {
	return fmt.Sprintf(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld>
<p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr/>
<p:pic>
<p:nvPicPr>
<p:cNvPr id="2" name="Slide Image"/>
<p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr>
<p:nvPr/>
</p:nvPicPr>
<p:blipFill>
<a:blip r:embed="rId1"/>
<a:stretch><a:fillRect/></a:stretch>
</p:blipFill>
<p:spPr>
<a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>
<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>
</p:spPr>
</p:pic>
</p:spTree>
</p:cSld>
</p:sld>`, widthEMU, heightEMU)
}

func slideRelsXML(idx int) string {
	return fmt.Sprintf(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image%d.png"/>
</Relationships>`, idx)
}

func notesSlideXML(note string) string {
	return fmt.Sprintf(`<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld>
<p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr/>
<p:sp>
<p:nvSpPr><p:cNvPr id="2" name="Notes"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr>
<p:spPr/>
<p:txBody><a:bodyPr/><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody>
</p:sp>
</p:spTree>
</p:cSld>
</p:notes>`, escapeXML(note))
}

func corePropsXML(title, author string, keywords []string) string {
	kw := ""
	for i, k := range keywords {
		if i > 0 {
			kw += ", "
		}
		kw += k
	}
	return fmt.Sprintf(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>%s</dc:title>
<dc:creator>%s</dc:creator>
<cp:keywords>%s</cp:keywords>
</cp:coreProperties>`, escapeXML(title), escapeXML(author), escapeXML(kw))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}
