package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mdpva/config"
	"mdpva/domain"

	"github.com/jung-kurt/gofpdf"
)

// exportPageSize is how many members each backend round-trip fetches while
// streaming.
const exportPageSize = 1000

var defaultColumns = []string{
	"member_id", "first_name", "last_name", "email", "phone", "profession",
	"business_name", "address_line1", "address_line2", "area", "city",
	"state", "pincode", "status", "dob", "blood_group",
	"created_at", "updated_at",
}

var extraColumns = []string{"notes", "profile_photo_url"}

type exportUseCase struct {
	repo domain.MemberRepo
	blob domain.BlobStore
	now  func() time.Time
}

func NewExportUseCase(repo domain.MemberRepo, blob domain.BlobStore) domain.ExportUseCase {
	return &exportUseCase{
		repo: repo,
		blob: blob,
		now:  time.Now,
	}
}

// queryFor translates the request into a repository query. ScopeAll ignores
// the caller's view entirely so two exports of "all" are always identical.
func queryFor(req domain.ExportRequest) domain.MemberQuery {
	if req.Scope == domain.ScopeAll {
		return domain.MemberQuery{Sort: "created_desc"}
	}
	return domain.MemberQuery{
		Search: req.Search,
		Filter: req.Filter,
		Sort:   req.Sort,
	}
}

func columnsFor(req domain.ExportRequest) []string {
	if req.Columns == domain.ColumnsAll {
		return append(append([]string{}, defaultColumns...), extraColumns...)
	}
	return defaultColumns
}

func (eu *exportUseCase) Count(ctx context.Context, req domain.ExportRequest) (int64, error) {
	return eu.repo.Count(ctx, queryFor(req))
}

func (eu *exportUseCase) Filename(req domain.ExportRequest, total int64) string {
	stamp := eu.now().Format("20060102-1504")
	name := fmt.Sprintf("mdpva-members-%s-%s", req.Scope, stamp)
	if req.Format == domain.FormatCSV {
		name = fmt.Sprintf("%s-%d", name, total)
	}
	return fmt.Sprintf("%s.%s", name, req.Format)
}

func (eu *exportUseCase) StreamCSV(ctx context.Context, req domain.ExportRequest, w io.Writer) {
	columns := columnsFor(req)
	query := queryFor(req)
	log := config.GetLogrusInstance()

	// UTF-8 BOM keeps spreadsheet tools from mangling non-ASCII names.
	io.WriteString(w, "\uFEFF")
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = csvCell(col)
	}
	io.WriteString(w, strings.Join(header, ",")+"\n")

	for offset := 0; ; offset += exportPageSize {
		query.Limit = exportPageSize
		query.Offset = offset

		members, err := eu.repo.List(ctx, query)
		if err != nil {
			// Headers are long gone, so surface the failure inside the file
			// where the user will see a truncated export.
			log.Errorf("csv export aborted at offset %d: %v", offset, err)
			io.WriteString(w, "\n"+csvCell("ERROR")+","+csvCell(err.Error())+"\n")
			return
		}

		for _, m := range *members {
			cells := make([]string, len(columns))
			for i, col := range columns {
				cells[i] = csvCell(columnValue(&m, col))
			}
			io.WriteString(w, strings.Join(cells, ",")+"\n")
		}

		if f, ok := w.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				log.Warnf("csv export client gone at offset %d: %v", offset, err)
				return
			}
		}

		if len(*members) < exportPageSize {
			return
		}
	}
}

// csvCell escapes one value. Every cell is wrapped in double quotes with
// inner quotes doubled; cells beginning with a formula trigger get an
// apostrophe prefix first so spreadsheet tools treat them as text.
func csvCell(s string) string {
	if s != "" && strings.ContainsAny(s[:1], "=+-@") {
		s = "'" + s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func columnValue(m *domain.Member, col string) string {
	switch col {
	case "member_id":
		return m.MemberID
	case "first_name":
		return m.FirstName
	case "last_name":
		return m.LastName
	case "email":
		return m.Email
	case "phone":
		return m.Phone
	case "profession":
		return m.Profession
	case "business_name":
		return deref(m.BusinessName)
	case "address_line1":
		return m.AddressLine1
	case "address_line2":
		return deref(m.AddressLine2)
	case "area":
		return deref(m.Area)
	case "city":
		return m.City
	case "state":
		return m.State
	case "pincode":
		return m.Pincode
	case "status":
		return m.Status
	case "dob":
		if m.DOB == nil {
			return ""
		}
		return m.DOB.Format("02/01/2006")
	case "blood_group":
		return deref(m.BloodGroup)
	case "notes":
		return deref(m.Notes)
	case "profile_photo_url":
		return deref(m.ProfilePhotoURL)
	case "created_at":
		return m.CreatedAt.UTC().Format(time.RFC3339)
	case "updated_at":
		return m.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return ""
}

const pdfTitle = "Mysore District Photographers and Videographers Association (MDPVA)"

func (eu *exportUseCase) RenderPDF(ctx context.Context, req domain.ExportRequest) ([]byte, error) {
	query := queryFor(req)

	activeTotal, err := eu.repo.Count(ctx, domain.MemberQuery{Filter: "active"})
	if err != nil {
		return nil, err
	}

	var members []domain.Member
	for offset := 0; ; offset += exportPageSize {
		query.Limit = exportPageSize
		query.Offset = offset
		page, err := eu.repo.List(ctx, query)
		if err != nil {
			return nil, err
		}
		members = append(members, *page...)
		if len(*page) < exportPageSize {
			break
		}
	}

	generatedAt := eu.now()
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		generatedAt = generatedAt.In(loc)
	} else {
		generatedAt = generatedAt.UTC()
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(pdfTitle, false)
	pdf.AliasNbPages("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, pdfTitle, "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Member Directory - %d active members", activeTotal),
			"", 1, "C", false, 0, "")
		pdf.Ln(3)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 4, "Generated "+generatedAt.Format("02 Jan 2006 15:04"),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	const (
		cardsPerRow = 4
		cardW       = 66.0
		cardH       = 42.0
		gutter      = 3.0
		marginX     = 10.0
	)

	for i, m := range members {
		col := i % cardsPerRow
		if col == 0 && i > 0 {
			pdf.Ln(cardH + gutter)
		}
		if pdf.GetY()+cardH > 190 {
			pdf.AddPage()
		}

		x := marginX + float64(col)*(cardW+gutter)
		y := pdf.GetY()
		eu.drawCard(ctx, pdf, &m, x, y, cardW, cardH)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("could not render member directory: %v", err)
	}
	return buf.Bytes(), nil
}

func (eu *exportUseCase) drawCard(ctx context.Context, pdf *gofpdf.Fpdf, m *domain.Member, x, y, w, h float64) {
	pdf.Rect(x, y, w, h, "D")

	textX := x + 2
	if m.ProfilePhotoURL != nil {
		if img, err := eu.blob.FetchThumbnail(ctx, *m.ProfilePhotoURL, 96, 60); err == nil {
			imgType := ""
			switch http.DetectContentType(img) {
			case "image/jpeg":
				imgType = "JPG"
			case "image/png":
				imgType = "PNG"
			}
			if imgType != "" {
				name := "photo-" + m.MemberID
				pdf.RegisterImageOptionsReader(name,
					gofpdf.ImageOptions{ImageType: imgType}, bytes.NewReader(img))
				pdf.ImageOptions(name, x+2, y+2, 18, 18, false,
					gofpdf.ImageOptions{ImageType: imgType}, 0, "")
				textX = x + 22
			}
		} else {
			config.GetLogrusInstance().Warnf("thumbnail skipped for %s: %v", m.MemberID, err)
		}
	}

	pdf.SetXY(textX, y+2)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(w-(textX-x)-2, 4.5, m.FirstName+" "+m.LastName, "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(w-(textX-x)-2, 4, m.MemberID, "", 2, "L", false, 0, "")
	pdf.CellFormat(w-(textX-x)-2, 4, m.Profession, "", 2, "L", false, 0, "")
	pdf.CellFormat(w-(textX-x)-2, 4, m.Phone, "", 2, "L", false, 0, "")

	pdf.SetXY(x+2, y+22)
	pdf.SetFont("Helvetica", "", 7.5)
	pdf.MultiCell(w-4, 3.5,
		strings.Join(nonEmpty(m.AddressLine1, deref(m.Area), m.City, m.State, m.Pincode), ", "),
		"", "L", false)
	pdf.SetXY(x, y)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
