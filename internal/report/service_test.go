package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/treatment"
)

type fakeTelegram struct {
	chatID   int64
	fileName string
	data     []byte
	err      error
}

func (f *fakeTelegram) SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error {
	f.chatID, f.fileName, f.data = chatID, fileName, fileData
	return f.err
}

func samplePrescription() *treatment.Prescription {
	return &treatment.Prescription{
		ID: "rx-1",
		Form: treatment.Form{
			Disease: "Viral Fever", Age: "34", Duration: "3", Symptoms: "fever, headache", BloodGroup: "O+",
		},
		Treatment: agent.Treatment{
			Medications: []agent.Medication{{Name: "Paracetamol"}},
			Lifestyle:   []string{"Rest", "Drink plenty of fluids"},
		},
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func requireFont(t *testing.T) {
	t.Helper()
	for _, p := range DefaultFontPaths {
		if _, err := os.Stat(p); err == nil {
			return
		}
	}
	t.Skip("DejaVu font not installed")
}

func TestRenderPDF(t *testing.T) {
	requireFont(t)
	s := NewService(nil, 0, nil, zerolog.Nop())

	data, err := s.RenderPDF(samplePrescription())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("expected PDF output, got %q", data[:min(len(data), 8)])
	}
}

func TestRenderPDF_MissingFont(t *testing.T) {
	s := NewService(nil, 0, []string{"/nonexistent/font.ttf"}, zerolog.Nop())
	if _, err := s.RenderPDF(samplePrescription()); err == nil {
		t.Fatal("expected font error")
	}
}

func TestSendPrescription(t *testing.T) {
	requireFont(t)
	tg := &fakeTelegram{}
	s := NewService(tg, 99, nil, zerolog.Nop())

	if err := s.SendPrescription(context.Background(), samplePrescription()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tg.chatID != 99 || !strings.HasPrefix(tg.fileName, "prescription_Viral_Fever_") || len(tg.data) == 0 {
		t.Errorf("unexpected upload chat=%d name=%q size=%d", tg.chatID, tg.fileName, len(tg.data))
	}
}

func TestSendPrescription_NotConfigured(t *testing.T) {
	s := NewService(nil, 0, nil, zerolog.Nop())
	if err := s.SendPrescription(context.Background(), samplePrescription()); !errors.Is(err, ErrNoDoctorChat) {
		t.Fatalf("expected ErrNoDoctorChat, got %v", err)
	}
}
