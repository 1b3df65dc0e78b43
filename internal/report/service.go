package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/signintech/gopdf"

	"medica-diagnosis/internal/treatment"
)

// ErrNoDoctorChat is returned by SendPrescription when delivery is not
// configured.
var ErrNoDoctorChat = fmt.Errorf("%w: doctor chat is not configured", treatment.ErrReportsDisabled)

type TelegramClient interface {
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error
}

// DefaultFontPaths are the DejaVu locations on common Linux images.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const (
	fontFamily = "DejaVu"
	marginLeft = 56.0
	indent     = 76.0
	textWidth  = 480.0
	lineHeight = 16.0
	pageBottom = 780.0
)

type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
	fontPaths    []string
	logger       zerolog.Logger
}

// NewService builds the prescription reporter. tg may be nil, in which case
// PDFs can still be rendered but not delivered.
func NewService(tg TelegramClient, doctorChatID int64, fontPaths []string, logger zerolog.Logger) *Service {
	if len(fontPaths) == 0 {
		fontPaths = DefaultFontPaths
	}
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		fontPaths:    fontPaths,
		logger:       logger.With().Str("component", "report").Logger(),
	}
}

type writer struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *writer) font(size float64) {
	if w.err == nil {
		w.err = w.pdf.SetFont(fontFamily, "", size)
	}
}

func (w *writer) line(x float64, text string) {
	if w.err != nil {
		return
	}
	lines, err := w.pdf.SplitText(text, textWidth-(x-marginLeft))
	if err != nil {
		// SplitText fails on empty input.
		lines = []string{text}
	}
	for _, l := range lines {
		if w.pdf.GetY() > pageBottom {
			w.pdf.AddPage()
			w.pdf.SetY(marginLeft)
		}
		w.pdf.SetX(x)
		if w.err = w.pdf.Cell(nil, l); w.err != nil {
			return
		}
		w.pdf.Br(lineHeight)
	}
}

// RenderPDF lays the prescription out on A4 pages.
func (s *Service) RenderPDF(p *treatment.Prescription) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont(fontFamily, path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF: %w", fontErr)
	}

	w := &writer{pdf: pdf}
	pdf.SetY(marginLeft)

	w.font(16)
	w.line(marginLeft, "Doctor's Prescription")
	w.font(11)
	w.line(marginLeft, strings.Repeat("-", 32))
	pdf.Br(6)

	symptoms := strings.Join(p.Form.SymptomList(), ", ")
	if symptoms == "" {
		symptoms = "N/A"
	}
	w.line(marginLeft, "Disease    : "+p.Form.Disease)
	w.line(marginLeft, "Age        : "+p.Form.Age)
	w.line(marginLeft, "Symptoms   : "+symptoms)
	w.line(marginLeft, "Blood Group: "+p.Form.BloodGroup)
	w.line(marginLeft, "Duration   : "+p.Form.Duration+" days")
	pdf.Br(6)

	w.line(marginLeft, "Medications:")
	if len(p.Treatment.Medications) == 0 {
		w.line(indent, "- No medications prescribed")
	}
	for _, m := range p.Treatment.Medications {
		w.line(indent, "- "+treatment.MedicationLine(m))
	}
	pdf.Br(6)

	w.line(marginLeft, "Lifestyle:")
	if len(p.Treatment.Lifestyle) == 0 {
		w.line(indent, "- No lifestyle advice provided")
	}
	for _, item := range p.Treatment.Lifestyle {
		w.line(indent, "- "+item)
	}
	pdf.Br(6)

	w.line(marginLeft, "Follow-up:")
	w.line(indent, treatment.Followup(p.Treatment))
	pdf.Br(6)

	w.font(9)
	w.line(marginLeft, "Generated "+p.CreatedAt.Format("02.01.2006 15:04"))
	if w.err != nil {
		return nil, fmt.Errorf("failed to lay out PDF: %w", w.err)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// SendPrescription renders p and uploads it to the doctor chat.
func (s *Service) SendPrescription(ctx context.Context, p *treatment.Prescription) error {
	if s.tgClient == nil || s.doctorChatID == 0 {
		return ErrNoDoctorChat
	}
	data, err := s.RenderPDF(p)
	if err != nil {
		return err
	}

	fileName := p.FileName()
	if err := s.tgClient.SendDocument(ctx, s.doctorChatID, data, fileName); err != nil {
		s.logger.Error().Err(err).Str("prescription_id", p.ID).Msg("failed to send prescription")
		return err
	}
	s.logger.Info().
		Str("prescription_id", p.ID).
		Int64("chat_id", s.doctorChatID).
		Int("bytes", len(data)).
		Msg("prescription sent to doctor")
	return nil
}
