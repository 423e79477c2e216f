package telegram

import (
	"os"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetbot/core/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

func noopHandler(c tele.Context) error { return nil }

func TestRegisterCallbackDuplicateKeyFails(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("pick", noopHandler); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := reg.RegisterCallback("pick", noopHandler); err == nil {
		t.Fatal("expected error on duplicate callback key")
	}
	if _, ok := reg.GetCallback("pick"); !ok {
		t.Fatal("original handler must survive the rejected duplicate")
	}
}

func TestRegisterCallbackRejectsInvalidInput(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("", noopHandler); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := reg.RegisterCallback("pick", nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}
