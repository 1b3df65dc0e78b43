package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendDocument(t *testing.T) {
	var gotPath, gotChat, gotName string
	var gotData []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		gotChat = r.FormValue("chat_id")
		f, hdr, err := r.FormFile("document")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotData, _ = io.ReadAll(f)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN").WithAPIURL(srv.URL)
	if err := c.SendDocument(context.Background(), 42, []byte("%PDF"), "rx.pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/botTOKEN/sendDocument" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotChat != "42" || gotName != "rx.pdf" || string(gotData) != "%PDF" {
		t.Errorf("unexpected upload chat=%q name=%q data=%q", gotChat, gotName, gotData)
	}
}

func TestSendMessage(t *testing.T) {
	var got sendMessageReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	c := NewClient("TOKEN").WithAPIURL(srv.URL)
	if err := c.SendMessage(context.Background(), 7, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ChatID != 7 || got.Text != "hello" {
		t.Errorf("unexpected message %+v", got)
	}
}

func TestSendMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient("TOKEN").WithAPIURL(srv.URL).SendMessage(context.Background(), 7, "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected api error, got %v", err)
	}
}
