package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/sahilkl/filegate/internal/storage"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		data string
		want Action
	}{
		{"home", Action{Kind: ActionHome}},
		{"plan:7", Action{Kind: ActionPlanInfo, Arg: "7"}},
		{"plan_ok:6M", Action{Kind: ActionPlanConfirm, Arg: "6M"}},
		{"sale_ok:abc123", Action{Kind: ActionSaleConfirm, Arg: "abc123"}},
		{"proof_ok:id-1", Action{Kind: ActionProofAccept, Arg: "id-1"}},
		{"rd_menu", Action{Kind: ActionRedeemMenu}},
		{"sh_add", Action{Kind: ActionShortenerAdd}},
		{"sh_hours", Action{Kind: ActionShortenerHours}},
		{"bogus", Action{Kind: ActionUnknown}},
		{"bogus:arg", Action{Kind: ActionUnknown, Arg: "arg"}},
	}

	for _, tt := range tests {
		if got := parseAction(tt.data); got != tt.want {
			t.Errorf("parseAction(%q) = %+v, want %+v", tt.data, got, tt.want)
		}
	}
}

func TestEveryActionNameHasKind(t *testing.T) {
	seen := map[ActionKind]string{}
	for name, kind := range actionNames {
		if kind == ActionUnknown {
			t.Errorf("action %q maps to ActionUnknown", name)
		}
		if prev, dup := seen[kind]; dup {
			t.Errorf("actions %q and %q share a kind", prev, name)
		}
		seen[kind] = name
	}
}

func TestAdminActionsAreKnown(t *testing.T) {
	known := map[ActionKind]bool{}
	for _, kind := range actionNames {
		known[kind] = true
	}
	for kind := range adminActions {
		if !known[kind] {
			t.Errorf("admin action kind %d has no callback name", kind)
		}
	}
}

func TestPlanDays(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"7", 7},
		{"15", 15},
		{"1M", 30},
		{"6M", 180},
		{"junk", 0},
	}
	for _, tt := range tests {
		if got := planDays(tt.name); got != tt.want {
			t.Errorf("planDays(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestStateManager(t *testing.T) {
	sm := NewStateManager()

	if sm.Get(1) != nil {
		t.Error("fresh manager returned a state")
	}

	sm.Set(1, StateWaitPrice, WizardData{Policy: storage.PolicySale})
	state := sm.Get(1)
	if state == nil || state.State != StateWaitPrice {
		t.Fatalf("state = %+v", state)
	}
	if state.Data.Policy != storage.PolicySale {
		t.Errorf("data = %+v", state.Data)
	}

	sm.Clear(1)
	if sm.Get(1) != nil {
		t.Error("state survived clear")
	}
}

func TestFileFromMessage(t *testing.T) {
	photo := &models.Message{Photo: []models.PhotoSize{{FileID: "small"}, {FileID: "big"}}}
	if f, ok := fileFromMessage(photo); !ok || f.Kind != "photo" || f.FileID != "big" {
		t.Errorf("photo = %+v ok=%v", f, ok)
	}

	video := &models.Message{Video: &models.Video{FileID: "vid"}}
	if f, ok := fileFromMessage(video); !ok || f.Kind != "video" || f.FileID != "vid" {
		t.Errorf("video = %+v ok=%v", f, ok)
	}

	doc := &models.Message{Document: &models.Document{FileID: "doc"}}
	if f, ok := fileFromMessage(doc); !ok || f.Kind != "document" {
		t.Errorf("document = %+v ok=%v", f, ok)
	}

	text := &models.Message{Text: "hello"}
	if f, ok := fileFromMessage(text); !ok || f.Kind != "text" || f.FileID != "hello" {
		t.Errorf("text = %+v ok=%v", f, ok)
	}

	if _, ok := fileFromMessage(&models.Message{}); ok {
		t.Error("empty message produced a file")
	}
}
