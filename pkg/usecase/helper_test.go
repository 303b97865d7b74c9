package usecase_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reslide/pkg/domain/model"
)

// Call is one recorded canvas invocation
type Call struct {
	Method string
	Handle model.Handle
	Args   []any
}

// MockCanvas records every call. failOn makes the named method fail.
type MockCanvas struct {
	calls    []Call
	next     int
	failOn   map[string]error
	commits  int
	discards int
}

func newMockCanvas() *MockCanvas {
	return &MockCanvas{failOn: map[string]error{}}
}

func (m *MockCanvas) record(method string, h model.Handle, args ...any) error {
	m.calls = append(m.calls, Call{Method: method, Handle: h, Args: args})
	return m.failOn[method]
}

func (m *MockCanvas) create(method string, args ...any) (model.Handle, error) {
	m.next++
	h := model.Handle(fmt.Sprintf("h%d", m.next))
	if err := m.record(method, h, args...); err != nil {
		return "", err
	}
	return h, nil
}

func (m *MockCanvas) CreateTextBox(text string, bounds model.Bounds) (model.Handle, error) {
	return m.create("CreateTextBox", text, bounds)
}

func (m *MockCanvas) CreateEllipse(bounds model.Bounds) (model.Handle, error) {
	return m.create("CreateEllipse", bounds)
}

func (m *MockCanvas) CreateLine(start, end model.Point) (model.Handle, error) {
	return m.create("CreateLine", start, end)
}

func (m *MockCanvas) InsertVectorImage(ctx context.Context, svg []byte, at model.Point, width float64) error {
	return m.record("InsertVectorImage", "", string(svg), at, width)
}

func (m *MockCanvas) SetName(h model.Handle, name string) error {
	return m.record("SetName", h, name)
}

func (m *MockCanvas) SetFont(h model.Handle, font model.Font) error {
	return m.record("SetFont", h, font)
}

func (m *MockCanvas) SetBullet(h model.Handle, enabled bool) error {
	return m.record("SetBullet", h, enabled)
}

func (m *MockCanvas) SetAlignment(h model.Handle, align model.Alignment) error {
	return m.record("SetAlignment", h, align)
}

func (m *MockCanvas) SetRotation(h model.Handle, degrees float64) error {
	return m.record("SetRotation", h, degrees)
}

func (m *MockCanvas) SetFill(h model.Handle, color string) error {
	return m.record("SetFill", h, color)
}

func (m *MockCanvas) SetStroke(h model.Handle, stroke model.Stroke) error {
	return m.record("SetStroke", h, stroke)
}

func (m *MockCanvas) HideStroke(h model.Handle) error {
	return m.record("HideStroke", h)
}

func (m *MockCanvas) Commit(ctx context.Context) error {
	if err := m.record("Commit", ""); err != nil {
		return err
	}
	m.commits++
	return nil
}

func (m *MockCanvas) Discard() {
	m.discards++
}

func (m *MockCanvas) methods() []string {
	result := make([]string, len(m.calls))
	for i, c := range m.calls {
		result[i] = c.Method
	}
	return result
}

func (m *MockCanvas) find(method string) []Call {
	var result []Call
	for _, c := range m.calls {
		if c.Method == method {
			result = append(result, c)
		}
	}
	return result
}

func createTestZip(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for filename, content := range files {
		writer, err := zipWriter.Create(filename)
		gt.NoError(t, err)

		_, err = writer.Write([]byte(content))
		gt.NoError(t, err)
	}

	gt.NoError(t, zipWriter.Close())
	return buf.Bytes()
}

func assertClose(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("got %v, want %v", got, want)
	}
}

const relsHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`

const relPrefix = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

const testSlide = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld>
    <p:spTree>
      <p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
      <p:grpSpPr/>
      <p:sp>
        <p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
        <p:spPr><a:xfrm><a:off x="444500" y="412137"/><a:ext cx="9146972" cy="640080"/></a:xfrm></p:spPr>
        <p:txBody>
          <a:bodyPr/>
          <a:p><a:r><a:rPr sz="2800" b="1"><a:latin typeface="+mj-lt"/></a:rPr><a:t>Creating a mind map</a:t></a:r></a:p>
        </p:txBody>
      </p:sp>
      <p:sp>
        <p:nvSpPr><p:cNvPr id="3" name="Content 2"/><p:cNvSpPr/><p:nvPr><p:ph idx="1"/></p:nvPr></p:nvSpPr>
        <p:spPr/>
        <p:txBody>
          <a:bodyPr/>
          <a:p><a:pPr><a:buChar char="•"/></a:pPr><a:r><a:rPr sz="1600"/><a:t>Start in the middle</a:t></a:r></a:p>
          <a:p><a:pPr><a:buNone/></a:pPr><a:r><a:rPr/><a:t>Then branch out</a:t></a:r></a:p>
          <a:p><a:endParaRPr/></a:p>
        </p:txBody>
      </p:sp>
      <p:sp>
        <p:nvSpPr><p:cNvPr id="4" name="Oval 3"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>
        <p:spPr><a:xfrm rot="900000"><a:off x="952500" y="1905000"/><a:ext cx="1905000" cy="952500"/></a:xfrm><a:prstGeom prst="ellipse"/><a:solidFill><a:schemeClr val="accent1"/></a:solidFill></p:spPr>
        <p:txBody>
          <a:bodyPr/>
          <a:p><a:pPr algn="ctr"/><a:r><a:rPr><a:solidFill><a:schemeClr val="bg1"/></a:solidFill></a:rPr><a:t>Main idea</a:t></a:r></a:p>
        </p:txBody>
      </p:sp>
      <p:sp>
        <p:nvSpPr><p:cNvPr id="5" name="Oval 4"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>
        <p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="95250" cy="95250"/></a:xfrm><a:prstGeom prst="ellipse"/><a:noFill/></p:spPr>
      </p:sp>
      <p:cxnSp>
        <p:nvCxnSpPr><p:cNvPr id="6" name="Connector 5"/><p:cNvCxnSpPr/><p:nvPr/></p:nvCxnSpPr>
        <p:spPr><a:xfrm flipH="1"><a:off x="1000000" y="2000000"/><a:ext cx="576739" cy="457200"/></a:xfrm><a:prstGeom prst="line"/><a:ln w="12700"><a:solidFill><a:srgbClr val="ff0000"/></a:solidFill></a:ln></p:spPr>
      </p:cxnSp>
      <p:cxnSp>
        <p:nvCxnSpPr><p:cNvPr id="7" name="Connector 6"/><p:cNvCxnSpPr/><p:nvPr/></p:nvCxnSpPr>
        <p:spPr><a:xfrm><a:off x="0" y="95250"/><a:ext cx="952500" cy="0"/></a:xfrm><a:prstGeom prst="line"/><a:ln><a:noFill/></a:ln></p:spPr>
      </p:cxnSp>
      <p:pic>
        <p:nvPicPr><p:cNvPr id="8" name="Graphic 7"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>
        <p:blipFill>
          <a:blip r:embed="rId2">
            <a:extLst><a:ext uri="{96DAC541-7B7A-43D3-8B79-37D633B846F1}"><asvg:svgBlip xmlns:asvg="http://schemas.microsoft.com/office/drawing/2016/SVG/main" r:embed="rId3"/></a:ext></a:extLst>
          </a:blip>
        </p:blipFill>
        <p:spPr><a:xfrm><a:off x="95250" y="190500"/><a:ext cx="476250" cy="476250"/></a:xfrm></p:spPr>
      </p:pic>
    </p:spTree>
  </p:cSld>
</p:sld>`

const testLayout = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld>
    <p:spTree>
      <p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
      <p:grpSpPr/>
      <p:sp>
        <p:nvSpPr><p:cNvPr id="2" name="Content Placeholder"/><p:cNvSpPr/><p:nvPr><p:ph idx="1"/></p:nvPr></p:nvSpPr>
        <p:spPr><a:xfrm><a:off x="838200" y="1825625"/><a:ext cx="10515600" cy="4351338"/></a:xfrm></p:spPr>
      </p:sp>
    </p:spTree>
  </p:cSld>
</p:sldLayout>`

const testTheme = `<?xml version="1.0" encoding="UTF-8"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office Theme">
  <a:themeElements>
    <a:clrScheme name="Office">
      <a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>
      <a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>
      <a:accent1><a:srgbClr val="4472C4"/></a:accent1>
    </a:clrScheme>
    <a:fontScheme name="Office">
      <a:majorFont><a:latin typeface="Segoe UI Semibold"/></a:majorFont>
      <a:minorFont><a:latin typeface="Segoe UI"/></a:minorFont>
    </a:fontScheme>
  </a:themeElements>
</a:theme>`

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="50" height="50"><circle cx="25" cy="25" r="20"/></svg>`

// testPackage returns the entries of a complete single-slide package
func testPackage() map[string]string {
	return map[string]string{
		"[Content_Types].xml":   `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"ppt/presentation.xml":  `<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`,
		"ppt/slides/slide1.xml": testSlide,
		"ppt/slides/_rels/slide1.xml.rels": relsHeader +
			`<Relationship Id="rId1" Type="` + relPrefix + `slideLayout" Target="../slideLayouts/slideLayout2.xml"/>` +
			`<Relationship Id="rId2" Type="` + relPrefix + `image" Target="../media/image1.png"/>` +
			`<Relationship Id="rId3" Type="` + relPrefix + `image" Target="../media/image2.svg"/>` +
			`</Relationships>`,
		"ppt/slideLayouts/slideLayout2.xml": testLayout,
		"ppt/slideLayouts/_rels/slideLayout2.xml.rels": relsHeader +
			`<Relationship Id="rId1" Type="` + relPrefix + `slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
			`</Relationships>`,
		"ppt/slideMasters/slideMaster1.xml": `<p:sldMaster xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`,
		"ppt/slideMasters/_rels/slideMaster1.xml.rels": relsHeader +
			`<Relationship Id="rId1" Type="` + relPrefix + `theme" Target="../theme/theme3.xml"/>` +
			`</Relationships>`,
		"ppt/theme/theme3.xml": testTheme,
		"ppt/media/image1.png": "\x89PNG",
		"ppt/media/image2.svg": testSVG,
	}
}
