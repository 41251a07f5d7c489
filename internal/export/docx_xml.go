/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/xml"
	"fmt"
	"strings"

	"competencematrix/internal/textlayout"
)

// WordprocessingML fragments. Sizes are half-points, lengths twentieths of a
// point (twips), drawing extents EMU.

const (
	docxPageW      = 11906
	docxPageH      = 16838
	docxMargin     = 1134
	docxTextW      = docxPageW - 2*docxMargin
	docxLeftCellW  = docxTextW * 2 / 5
	docxRightCellW = docxTextW - docxLeftCellW
	emuPerPoint    = 12700

	docxSidebarFill = "DCE4EE"
	docxSidebarText = "1F2937"
	docxMutedText   = "555555"
	docxRuleColor   = "999999"
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
)

func xmlEsc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

type runProps struct {
	Bold   bool
	Italic bool
	Size   int // half-points, 0 inherits
	Color  string
}

func (rp runProps) xml() string {
	var b strings.Builder
	if rp.Bold {
		b.WriteString("<w:b/>")
	}
	if rp.Italic {
		b.WriteString("<w:i/>")
	}
	if rp.Color != "" {
		fmt.Fprintf(&b, `<w:color w:val="%s"/>`, rp.Color)
	}
	if rp.Size > 0 {
		fmt.Fprintf(&b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, rp.Size, rp.Size)
	}
	if b.Len() == 0 {
		return ""
	}
	return "<w:rPr>" + b.String() + "</w:rPr>"
}

// textRun renders one run; embedded newlines become line breaks.
func textRun(text string, rp runProps) string {
	var b strings.Builder
	b.WriteString("<w:r>")
	b.WriteString(rp.xml())
	for i, part := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		fmt.Fprintf(&b, `<w:t xml:space="preserve">%s</w:t>`, xmlEsc(part))
	}
	b.WriteString("</w:r>")
	return b.String()
}

type paraProps struct {
	SpacingBefore int
	SpacingAfter  int
	BottomRule    bool
	Bullet        bool
	KeepNext      bool
}

func (pp paraProps) xml() string {
	var b strings.Builder
	if pp.KeepNext {
		b.WriteString("<w:keepNext/>")
	}
	if pp.BottomRule {
		fmt.Fprintf(&b, `<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="%s"/></w:pBdr>`, docxRuleColor)
	}
	if pp.Bullet {
		b.WriteString(`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr>`)
	}
	fmt.Fprintf(&b, `<w:spacing w:before="%d" w:after="%d"/>`, pp.SpacingBefore, pp.SpacingAfter)
	return "<w:pPr>" + b.String() + "</w:pPr>"
}

func paragraph(pp paraProps, runs ...string) string {
	return "<w:p>" + pp.xml() + strings.Join(runs, "") + "</w:p>"
}

const pageBreak = `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`

// inlinePicture places the image with relationship relID at sizePt x sizePt.
func inlinePicture(relID string, sizePt float64) string {
	emu := int(sizePt * emuPerPoint)
	return fmt.Sprintf(`<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%[2]d" cy="%[2]d"/><wp:docPr id="1" name="Avatar"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="1" name="avatar"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%[1]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[2]d" cy="%[2]d"/></a:xfrm><a:prstGeom prst="ellipse"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`, relID, emu)
}

// sidebarTable is the borderless one-row table emulating the two-column first page.
func sidebarTable(left, right string) string {
	none := func(side string) string { return fmt.Sprintf(`<w:%s w:val="nil"/>`, side) }
	borders := none("top") + none("left") + none("bottom") + none("right") + none("insideH") + none("insideV")
	return fmt.Sprintf(`<w:tbl><w:tblPr><w:tblW w:w="%[1]d" w:type="dxa"/><w:tblBorders>%[2]s</w:tblBorders>`+
		`<w:tblLayout w:type="fixed"/><w:tblCellMar><w:top w:w="170" w:type="dxa"/><w:left w:w="170" w:type="dxa"/>`+
		`<w:bottom w:w="170" w:type="dxa"/><w:right w:w="170" w:type="dxa"/></w:tblCellMar></w:tblPr>`+
		`<w:tblGrid><w:gridCol w:w="%[3]d"/><w:gridCol w:w="%[4]d"/></w:tblGrid><w:tr>`+
		`<w:tc><w:tcPr><w:tcW w:w="%[3]d" w:type="dxa"/><w:shd w:val="clear" w:color="auto" w:fill="%[5]s"/></w:tcPr>%[6]s</w:tc>`+
		`<w:tc><w:tcPr><w:tcW w:w="%[4]d" w:type="dxa"/></w:tcPr>%[7]s</w:tc>`+
		`</w:tr></w:tbl>`, docxTextW, borders, docxLeftCellW, docxRightCellW, docxSidebarFill, cellContent(left), cellContent(right))
}

// cellContent guarantees the paragraph every table cell must end with.
func cellContent(s string) string {
	if s == "" {
		return "<w:p/>"
	}
	return s
}

func documentXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="` + nsW + `" xmlns:r="` + nsR + `" xmlns:wp="` + nsWP + `" xmlns:a="` + nsA + `" xmlns:pic="` + nsPic + `">` +
		"<w:body>" + body +
		fmt.Sprintf(`<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%[3]d" w:right="%[3]d" w:bottom="%[3]d" w:left="%[3]d" w:header="567" w:footer="567" w:gutter="0"/></w:sectPr>`,
			docxPageW, docxPageH, docxMargin) +
		"</w:body></w:document>"
}

func contentTypesXML(imageExt, imageMIME string) string {
	img := ""
	if imageExt != "" {
		img = fmt.Sprintf(`<Default Extension="%s" ContentType="%s"/>`, imageExt, imageMIME)
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` + img +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
		`<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>` +
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
		`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
		`</Types>`
}

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

func documentRelsXML(imageTarget string) string {
	img := ""
	if imageTarget != "" {
		img = `<Relationship Id="rIdAvatar" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="` + imageTarget + `"/>`
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>` +
		img + `</Relationships>`
}

// corePropsXML carries title, creator and language; dates are left out.
func corePropsXML(title, creator, lang string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		"<dc:title>" + xmlEsc(title) + "</dc:title><dc:creator>" + xmlEsc(creator) + "</dc:creator>" +
		"<dc:language>" + xmlEsc(lang) + "</dc:language></cp:coreProperties>"
}

const appPropsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>cvexport</Application></Properties>`

// stylesXML declares the document defaults and one character style per text
// preset, so the presets show up by name in word processors.
func stylesXML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:styles xmlns:w="` + nsW + `">` +
		`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:cs="Arial"/><w:sz w:val="20"/><w:szCs w:val="20"/></w:rPr></w:rPrDefault>` +
		`<w:pPrDefault><w:pPr><w:spacing w:after="60" w:line="264" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>` +
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`)
	for _, name := range textlayout.ListStyles() {
		st, ok := textlayout.GetStyle(name)
		if !ok {
			continue
		}
		rp := runProps{Bold: st.Font.Bold, Italic: st.Font.Italic, Size: st.HalfPoints()}
		fmt.Fprintf(&b, `<w:style w:type="character" w:customStyle="1" w:styleId="%s"><w:name w:val="%s"/>%s</w:style>`,
			xmlEsc(name), xmlEsc(name), rp.xml())
	}
	b.WriteString(`</w:styles>`)
	return b.String()
}

const numberingXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
	`<w:numbering xmlns:w="` + nsW + `">` +
	`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="singleLevel"/>` +
	`<w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="•"/><w:lvlJc w:val="left"/>` +
	`<w:pPr><w:ind w:left="284" w:hanging="284"/></w:pPr></w:lvl></w:abstractNum>` +
	`<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>` +
	`</w:numbering>`
