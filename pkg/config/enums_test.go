package config

import "testing"

func TestLLMProviderType_IsValid(t *testing.T) {
	valid := []LLMProviderType{
		LLMProviderTypeGoogle,
		LLMProviderTypeOpenAI,
		LLMProviderTypeAnthropic,
		LLMProviderTypeLocal,
	}
	for _, v := range valid {
		if !v.IsValid() {
			t.Errorf("%q should be valid", v)
		}
	}
}

func TestLLMProviderType_IsInvalid(t *testing.T) {
	invalid := []LLMProviderType{"", "bedrock", "azure"}
	for _, v := range invalid {
		if v.IsValid() {
			t.Errorf("%q should not be valid", v)
		}
	}
}
