package ticketpdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
)

const (
	coreFamily = "Helvetica"
	utf8Family = "ticket"
)

// Generator は確定済み予約の電子チケットPDFを生成する
type Generator struct {
	issuer string
	// UTF-8フォント（TrueType）。未設定なら標準フォントで描画する
	font []byte
}

// NewGenerator は新しいGeneratorを作成する
// fontPath にTrueTypeフォントを指定すると日本語などのタイトルもそのまま描画できる
func NewGenerator(issuer, fontPath string) (*Generator, error) {
	if issuer == "" {
		issuer = "Booking Ledger"
	}
	g := &Generator{issuer: issuer}
	if fontPath != "" {
		font, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("チケット用フォントの読み込みに失敗: %w", err)
		}
		g.font = font
	}
	return g, nil
}

// Render は予約とイベントから1ページのPDFを生成する
// QRコードにはチケットコードをそのまま埋め込む
func (g *Generator) Render(b *booking.Booking, e *event.Event) ([]byte, error) {
	qr, err := qrcode.Encode(b.TicketCode, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("QRコード生成に失敗: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	setFont, tr := g.typeface(pdf)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	setFont("B", 22)
	pdf.Cell(0, 15, tr(g.issuer+" eTICKET"))
	pdf.Ln(20)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 55, "F")

	pdf.SetXY(20, yStart+7)
	setFont("B", 14)
	pdf.Cell(0, 8, tr("BOOKING SUMMARY"))
	pdf.Ln(10)
	setFont("", 12)
	for _, line := range []string{
		"Ticket Code: " + b.TicketCode,
		"Booking ID: " + b.ID,
		fmt.Sprintf("Quantity: %d", b.Quantity),
		fmt.Sprintf("Total Paid: %d", b.TotalAmount),
		"Booked At: " + b.BookingDate.UTC().Format(time.RFC3339),
	} {
		pdf.SetX(20)
		pdf.Cell(0, 8, tr(line))
		pdf.Ln(6)
	}

	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetY(yStart + 63)
	setFont("I", 10)
	pdf.Cell(0, 6, tr("Present this QR code at the entrance."))
	pdf.Ln(10)

	setFont("B", 14)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, tr("EVENT DETAILS"), "", 1, "L", true, 0, "")
	pdf.Ln(3)
	setFont("", 12)
	details := []string{
		"Title: " + e.Title,
		"Date & Time: " + e.StartAt.UTC().Format("2006-01-02 15:04 MST"),
		"Venue: " + e.Venue,
	}
	if e.City != "" {
		details = append(details, "City: "+e.City)
	}
	for _, line := range details {
		pdf.Cell(0, 8, tr(line))
		pdf.Ln(6)
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	setFont("I", 10)
	pdf.CellFormat(0, 8, tr(g.issuer), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF出力に失敗: %w", err)
	}
	return buf.Bytes(), nil
}

// typeface はフォント設定関数と文字列変換関数を返す
// UTF-8フォントは1書体のみ登録するため、太字や斜体の指定は無視する
func (g *Generator) typeface(pdf *gofpdf.Fpdf) (func(style string, size float64), func(string) string) {
	if g.font != nil {
		pdf.AddUTF8FontFromBytes(utf8Family, "", g.font)
		return func(_ string, size float64) { pdf.SetFont(utf8Family, "", size) },
			func(s string) string { return s }
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return func(style string, size float64) { pdf.SetFont(coreFamily, style, size) },
		func(s string) string { return tr(latin1(s)) }
}

// latin1 は標準フォントで描画できない文字を "?" に置き換える
// 変換表にない文字が別の記号に化けるのを避けるため、Latin-1の範囲に収める
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF || (r >= 0x80 && r < 0xA0) {
			return '?'
		}
		return r
	}, s)
}
