package llm

import (
	"context"
	"testing"
)

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     Provider
		wantErr  bool
	}{
		{name: "valid openai", provider: "openai", want: ProviderOpenAI},
		{name: "valid ollama", provider: "ollama", want: ProviderOllama},
		{name: "valid anthropic", provider: "anthropic", want: ProviderAnthropic},
		{name: "valid gemini", provider: "gemini", want: ProviderGemini},
		{name: "invalid provider", provider: "invalid", wantErr: true},
		{name: "empty provider", provider: "", wantErr: true},
		{name: "case sensitive - OPENAI fails", provider: "OPENAI", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateProvider(tt.provider)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProvider(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ValidateProvider(%q) = %v, want %v", tt.provider, got, tt.want)
			}
		})
	}
}

func TestNewChatModel_RequiresAPIKey(t *testing.T) {
	for _, p := range []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		t.Run(string(p), func(t *testing.T) {
			if _, err := NewChatModel(context.Background(), Config{Provider: p}); err == nil {
				t.Errorf("NewChatModel(%s) without key succeeded", p)
			}
		})
	}
}

func TestNewChatModel_UnsupportedProvider(t *testing.T) {
	if _, err := NewChatModel(context.Background(), Config{Provider: "bedrock"}); err == nil {
		t.Error("NewChatModel(bedrock) succeeded")
	}
}

func TestDefaultModelForProvider(t *testing.T) {
	for _, p := range []Provider{ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderGemini} {
		if DefaultModelForProvider(p) == "" {
			t.Errorf("no default model for %s", p)
		}
	}
	if got := DefaultModelForProvider("unknown"); got != "" {
		t.Errorf("DefaultModelForProvider(unknown) = %q", got)
	}
	if (Config{}).Enabled() {
		t.Error("zero Config reported enabled")
	}
}
