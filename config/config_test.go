package config

import "testing"

func TestApplyEnvFallback_UsesEnvWhenFlagsEmpty(t *testing.T) {
	t.Setenv(envSlackChannel, "C123")
	t.Setenv(envSlackToken, "xoxb-env")

	cfg := &Config{}
	cfg.ApplyEnvFallback()

	if cfg.SlackChannel != "C123" {
		t.Errorf("SlackChannel = %q, want C123", cfg.SlackChannel)
	}
	if cfg.SlackToken != "xoxb-env" {
		t.Errorf("SlackToken = %q, want xoxb-env", cfg.SlackToken)
	}
}

func TestApplyEnvFallback_FlagsTakePrecedence(t *testing.T) {
	t.Setenv(envSlackChannel, "C-env")
	t.Setenv(envSlackToken, "token-env")

	cfg := &Config{SlackChannel: "C-flag", SlackToken: "token-flag"}
	cfg.ApplyEnvFallback()

	if cfg.SlackChannel != "C-flag" {
		t.Errorf("SlackChannel = %q, want C-flag", cfg.SlackChannel)
	}
	if cfg.SlackToken != "token-flag" {
		t.Errorf("SlackToken = %q, want token-flag", cfg.SlackToken)
	}
}
