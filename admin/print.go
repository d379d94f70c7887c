package admin

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
)

const qrSize = 256

// LoginLink is the URL encoded in an invitation's QR code.
func (h *Handler) LoginLink(id string) string {
	return strings.TrimSuffix(h.BaseURL, "/") + "/?invitation=" + url.QueryEscape(id)
}

func (h *Handler) qr(w http.ResponseWriter, r *api.Request) error {
	inv, err := h.Invitations.Get(r.Context(), strings.ToLower(r.Params.ByName("invitationId")))
	if errors.Is(err, db.ErrNotFound) {
		return api.NotFound()
	}
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(h.LoginLink(inv.ID), qrcode.Medium, qrSize)
	if err != nil {
		return fmt.Errorf("qr for %s: %w", inv.ID, err)
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(png)
	return err
}

func (h *Handler) cards(w http.ResponseWriter, r *api.Request) error {
	invs, err := h.Invitations.List(r.Context(), "")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := h.RenderCards(&buf, invs); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="invitations.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}

// RenderCards writes one A5 card per non-admin invitation.
func (h *Handler) RenderCards(buf *bytes.Buffer, invs []models.Invitation) error {
	pdf := gofpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}

	for _, inv := range invs {
		if inv.Admin {
			continue
		}
		png, err := qrcode.Encode(h.LoginLink(inv.ID), qrcode.Medium, qrSize)
		if err != nil {
			return fmt.Errorf("qr for %s: %w", inv.ID, err)
		}

		pdf.AddPage()
		pdf.SetFont("Arial", "B", 18)
		pdf.CellFormat(0, 12, tr(h.Title), "", 1, "C", false, 0, "")
		pdf.Ln(6)

		pdf.SetFont("Arial", "", 13)
		for _, name := range names(inv) {
			pdf.CellFormat(0, 8, tr(name), "", 1, "C", false, 0, "")
		}
		pdf.Ln(6)

		key := "qr-" + inv.ID
		pdf.RegisterImageOptionsReader(key, imageOpts, bytes.NewReader(png))
		pdf.ImageOptions(key, 44, pdf.GetY(), 60, 60, false, imageOpts, 0, "")

		pdf.SetY(pdf.GetY() + 64)
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, "Invitation code: "+inv.ID, "", 1, "C", false, 0, "")
	}
	if pdf.PageCount() == 0 {
		pdf.AddPage()
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(0, 10, "No invitations", "", 1, "C", false, 0, "")
	}
	return pdf.Output(buf)
}

func names(inv models.Invitation) []string {
	var out []string
	for _, g := range inv.Guests {
		if g.Name != "" {
			out = append(out, g.Name)
		}
	}
	for _, c := range inv.Children {
		if c.Name != "" {
			out = append(out, c.Name)
		}
	}
	return out
}
