package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "lingochat version "+version) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDetect(t *testing.T) {
	tests := map[string]string{
		"Hello there":     "english\ten-US",
		"नमस्ते दोस्त":    "hindi\thi-IN",
		"¿Cómo estás?":    "spanish\tes-ES",
		"مرحبا بك":        "arabic\tar-SA",
		"straße":          "german\tde-DE",
		"你好":              "chinese\tzh-CN",
		"नमस्ते kaise ho": "hinglish\thi-IN",
	}
	for text, want := range tests {
		out, err := execute(t, "detect", text)
		if err != nil {
			t.Fatalf("detect %q: %v", text, err)
		}
		if strings.TrimSpace(out) != want {
			t.Errorf("detect %q = %q, want %q", text, strings.TrimSpace(out), want)
		}
	}

	if _, err := execute(t, "detect"); err == nil {
		t.Error("detect without arguments should fail")
	}
}

func TestLanguages(t *testing.T) {
	out, err := execute(t, "languages")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 languages, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "english") || !strings.HasSuffix(lines[0], "en-US") {
		t.Errorf("unexpected first line: %q", lines[0])
	}
}

func TestChatMock(t *testing.T) {
	out, err := execute(t, "chat", "--mock", "--message", "Bonjour, ça va?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if strings.TrimSpace(out) != "echo: Bonjour, ça va?" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestChatMockWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("some notes"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "chat", "--mock", "--file", path)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if strings.TrimSpace(out) != "echo: Analyze this file (+1 attachment(s))" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestChatRequiresInput(t *testing.T) {
	if _, err := execute(t, "chat", "--mock"); err == nil {
		t.Error("chat without --message or --file should fail")
	}
}

func TestReadAttachment(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "pixel.png")
	if err := os.WriteFile(png, []byte("\x89PNG\r\n\x1a\nrest"), 0o600); err != nil {
		t.Fatal(err)
	}

	att, err := readAttachment(png, 1024)
	if err != nil {
		t.Fatalf("readAttachment: %v", err)
	}
	if att.MIMEType != "image/png" || att.Name != "pixel.png" {
		t.Errorf("unexpected attachment: %+v", att)
	}
	data, err := att.Bytes()
	if err != nil || !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("attachment data not round-tripped: %v", err)
	}

	if _, err := readAttachment(png, 4); err == nil {
		t.Error("expected size limit error")
	}
	if _, err := readAttachment(filepath.Join(dir, "missing"), 1024); err == nil {
		t.Error("expected error for a missing file")
	}
}
