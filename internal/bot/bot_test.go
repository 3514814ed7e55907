package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

// stubModule is a minimal Module for framework tests.
type stubModule struct {
	name       string
	commands   []*discordgo.ApplicationCommand
	cmdHandler InteractionHandler
	cmpHandler InteractionHandler
	initCalled bool
	shutCalled bool
}

func (m *stubModule) Name() string { return m.name }

func (m *stubModule) Commands() []*discordgo.ApplicationCommand { return m.commands }

func (m *stubModule) CommandHandlers() map[string]InteractionHandler {
	handlers := make(map[string]InteractionHandler)
	for _, cmd := range m.commands {
		handlers[cmd.Name] = m.cmdHandler
	}
	return handlers
}

func (m *stubModule) ComponentHandlers() map[string]InteractionHandler {
	if m.cmpHandler == nil {
		return nil
	}
	return map[string]InteractionHandler{m.name: m.cmpHandler}
}

func (m *stubModule) EventHandlers() []EventHandler { return nil }

func (m *stubModule) Init(ModuleDependencies) error {
	m.initCalled = true
	return nil
}

func (m *stubModule) Shutdown() error {
	m.shutCalled = true
	return nil
}

func TestBuildHandlerMaps(t *testing.T) {
	noop := func(*discordgo.Session, *discordgo.InteractionCreate, Responder) error {
		return nil
	}

	first := &stubModule{
		name:       "first",
		commands:   []*discordgo.ApplicationCommand{{Name: "alpha"}, {Name: "beta"}},
		cmdHandler: noop,
		cmpHandler: noop,
	}
	second := &stubModule{
		name:       "second",
		commands:   []*discordgo.ApplicationCommand{{Name: "gamma"}},
		cmdHandler: noop,
	}

	b := New(&Config{}, first, second)
	b.buildHandlerMaps()

	for _, name := range []string{"alpha", "beta", "gamma"} {
		if _, ok := b.commandHandlers[name]; !ok {
			t.Errorf("expected command handler for %q", name)
		}
	}
	if _, ok := b.componentHandlers["first"]; !ok {
		t.Error("expected component handler for prefix 'first'")
	}
	if _, ok := b.componentHandlers["second"]; ok {
		t.Error("second module registered no component handlers")
	}
}

func TestStopShutsDownModules(t *testing.T) {
	mod := &stubModule{name: "mod"}
	b := New(&Config{}, mod)

	if err := b.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mod.shutCalled {
		t.Error("expected module shutdown to be called")
	}
}

func TestMockResponderRecords(t *testing.T) {
	responder := &MockResponder{}
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
	}

	if err := responder.Respond(response); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if responder.LastResponse != response {
		t.Error("expected the response to be recorded")
	}
}
