package bot

import "testing"

func TestLoadConfig(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DISCORD_GUILD_ID", "123456789")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DiscordToken != "test-token" {
		t.Errorf("expected token 'test-token', got %q", cfg.DiscordToken)
	}
	if cfg.GuildID != "123456789" {
		t.Errorf("expected guild ID '123456789', got %q", cfg.GuildID)
	}
}

func TestLoadConfigMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error when DISCORD_TOKEN is missing")
	}
}

func TestLoadConfigGuildIDOptional(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DISCORD_GUILD_ID", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GuildID != "" {
		t.Errorf("expected empty guild ID, got %q", cfg.GuildID)
	}
}
