package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/lectern/internal/config"
)

func TestNew_requiresKey(t *testing.T) {
	_, err := New(context.Background(), &config.QuestionConfig{Provider: config.ProviderOpenAI})
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestNew_unknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.QuestionConfig{Provider: "claude", APIKey: "k"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNew_openai(t *testing.T) {
	g, err := New(context.Background(), &config.QuestionConfig{
		Provider:    config.ProviderOpenAI,
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		Temperature: 0.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	o, ok := g.(*OpenAI)
	if !ok {
		t.Fatalf("expected *OpenAI, got %T", g)
	}
	if o.temperature != 0.5 {
		t.Errorf("temperature = %v", o.temperature)
	}
}
