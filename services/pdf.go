package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"wanderplan/planner"
)

// core fonts are cp1252; glyphs outside it are spelled out first
var asciiGlyphs = strings.NewReplacer("→", "->", "·", "-", "★", "*", "—", "-")

type pdfDoc struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newPDFDoc(subtitle string) *pdfDoc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	cp := pdf.UnicodeTranslatorFromDescriptor("")
	d := &pdfDoc{pdf: pdf, tr: func(s string) string { return cp(asciiGlyphs.Replace(s)) }}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.3)
		pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 8,
			d.tr(fmt.Sprintf("Generated by Wanderplan - Estimates only, not a booking confirmation - Page %d", pdf.PageNo())),
			"", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "Wanderplan", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, d.tr(subtitle), "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)
	return d
}

func (d *pdfDoc) notice(text string) {
	pdf := d.pdf
	pdf.SetFillColor(255, 248, 225)
	pdf.SetDrawColor(212, 168, 67)
	pdf.SetTextColor(130, 90, 20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetLineWidth(0.4)
	y := pdf.GetY()
	pdf.Rect(20, y, 170, 12, "FD")
	pdf.SetXY(23, y+2)
	pdf.MultiCell(164, 4, d.tr(text), "", "C", false)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.SetY(y + 16)
}

func (d *pdfDoc) section(title string) {
	pdf := d.pdf
	pdf.SetFillColor(13, 24, 37)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(170, 8, "  "+d.tr(title), "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

func (d *pdfDoc) row(label, value string) {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(55, 7, d.tr(label), "", 0, "L", false, 0, "")
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(115, 7, d.tr(value), "", 1, "L", false, 0, "")
}

func (d *pdfDoc) paragraph(text string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.SetTextColor(40, 40, 40)
	d.pdf.MultiCell(170, 5, d.tr(text), "", "L", false)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDoc) total(label string, amount float64) {
	pdf := d.pdf
	pdf.SetFillColor(212, 168, 67)
	pdf.SetTextColor(13, 24, 37)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(55, 9, d.tr(label), "", 0, "L", true, 0, "")
	pdf.CellFormat(115, 9, money(amount), "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDoc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

// ─── Itinerary ────────────────────────────────────────────────────────────────

type ItineraryPDFData struct {
	TravellerName string
	Itinerary     *planner.GeneratedItinerary
	Narrative     string
}

// ItineraryPDF renders a day-by-day itinerary.
func ItineraryPDF(data ItineraryPDFData) ([]byte, error) {
	it := data.Itinerary
	if it == nil {
		return nil, fmt.Errorf("no itinerary to render")
	}
	d := newPDFDoc("Day-by-day Travel Itinerary")

	if it.Degraded {
		d.notice("ESTIMATED PRICES - the destination catalog was unavailable. This is NOT a booking confirmation.")
	} else {
		d.notice("This is NOT a booking confirmation. Prices are estimates and subject to change.")
	}

	d.section("Trip Overview")
	name := data.TravellerName
	if name == "" {
		name = "Guest Traveller"
	}
	d.row("Traveller", name)
	d.row("Trip", it.Title)
	if it.Source != "" {
		d.row("Departing from", it.Source)
	}
	d.row("Dates", fmt.Sprintf("%s to %s", fmtDateReadable(it.StartDate), fmtDateReadable(it.EndDate)))
	d.row("Travellers", fmt.Sprintf("%d", it.Travellers))
	d.row("Generated", it.GeneratedAt.UTC().Format("02 Jan 2006, 15:04 UTC"))
	d.pdf.Ln(4)

	d.section("Destinations")
	for _, s := range it.PerDestinationSummary {
		d.row(s.Destination, fmt.Sprintf("%d night(s) - %s (%s prices)", s.Nights, money(s.EstimatedCost), s.PriceSource))
	}
	d.pdf.Ln(4)

	d.section("Daily Plan")
	for _, day := range it.Days {
		d.pdf.SetFont("Helvetica", "B", 10)
		d.pdf.CellFormat(170, 7,
			d.tr(fmt.Sprintf("Day %d - %s - %s", day.DayIndex, fmtDateReadable(day.Date), day.Title)),
			"B", 1, "L", false, 0, "")
		for _, a := range day.Activities {
			d.paragraph("  - " + a)
		}
		d.pdf.SetFont("Helvetica", "I", 9)
		d.pdf.SetTextColor(100, 100, 100)
		d.pdf.CellFormat(170, 6, fmt.Sprintf("Stay %s  Food %s  Transport %s  Activities %s",
			money(day.Cost.Accommodation), money(day.Cost.Food), money(day.Cost.Transport), money(day.Cost.Activities)),
			"", 1, "L", false, 0, "")
		d.pdf.SetTextColor(0, 0, 0)
		d.pdf.Ln(1)
	}
	d.pdf.Ln(3)

	d.section("Cost Estimate")
	d.row("Accommodation", money(it.Totals.Accommodation))
	d.row("Food", money(it.Totals.Food))
	d.row("Transport", money(it.Totals.Transport))
	d.row("Activities", money(it.Totals.Activities))
	if it.Totals.Other > 0 {
		d.row("Other", money(it.Totals.Other))
	}
	d.row("Budget", fmt.Sprintf("%s (%s)", money(it.Budget), strings.ReplaceAll(string(it.BudgetStatus), "_", " ")))
	d.total("TOTAL ESTIMATE", it.Totals.GrandTotal)
	d.pdf.Ln(4)

	if data.Narrative != "" {
		d.section("Overview")
		d.paragraph(data.Narrative)
		d.pdf.Ln(4)
	}
	if len(it.Warnings) > 0 {
		d.section("Notes")
		for _, w := range it.Warnings {
			d.paragraph("- " + w)
		}
	}

	return d.bytes()
}

// ─── Package ──────────────────────────────────────────────────────────────────

// PackagePDF renders a tier-ladder package with its affordability analysis.
func PackagePDF(pkg *planner.TripPackage) ([]byte, error) {
	if pkg == nil {
		return nil, fmt.Errorf("no package to render")
	}
	d := newPDFDoc(fmt.Sprintf("%s Travel Package", pkg.Style))

	if !pkg.Affordable {
		d.notice(fmt.Sprintf("This budget does not cover the trip. Minimum viable cost %s, short by %s.",
			money(pkg.MinimumViableCost), money(pkg.Shortfall)))
	} else {
		d.notice("This is NOT a booking confirmation. Prices are estimates and subject to change.")
	}

	d.section("Package")
	for _, line := range pkg.Summary {
		d.paragraph(line)
	}
	d.pdf.Ln(4)

	d.section("Selected Hotel")
	d.row("Hotel", pkg.Hotel.Name)
	d.row("Rating", fmt.Sprintf("%d star", pkg.Hotel.Stars))
	d.row("Price", fmt.Sprintf("%s/night x %d night(s)", money(pkg.Hotel.NightlyPrice), pkg.Nights))
	d.pdf.Ln(4)

	if len(pkg.Itinerary) > 0 {
		d.section("Daily Plan")
		for _, day := range pkg.Itinerary {
			d.row(fmt.Sprintf("Day %d", day.Day), fmt.Sprintf("%s (%s)", day.Title, money(day.ActivityBudget)))
		}
		d.pdf.Ln(4)
	}

	d.section("Budget Breakdown")
	d.row("Flights", money(pkg.Breakdown.Flights))
	d.row("Hotel", money(pkg.Breakdown.Hotel))
	d.row("Meals", money(pkg.Breakdown.Meals))
	d.row("Activities", money(pkg.Breakdown.Activities))
	d.row("Local transport", money(pkg.Breakdown.Transport))
	d.total("TOTAL", pkg.Breakdown.Total)
	d.pdf.Ln(4)

	notes := append(append([]string(nil), pkg.AffordabilityNotes...), pkg.Alternatives...)
	if len(notes) > 0 {
		d.section("Affordability")
		for _, n := range notes {
			d.paragraph("- " + n)
		}
	}

	return d.bytes()
}

func money(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

func fmtDateReadable(iso string) string {
	t, err := time.Parse(planner.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006 (Mon)")
}
