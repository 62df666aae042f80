package config

import (
	"testing"
)

func TestExpandEnv_BraceSyntax(t *testing.T) {
	t.Setenv("CLEO_TEST_VAR", "hello")

	got := ExpandEnv([]byte("value: ${CLEO_TEST_VAR}"))
	want := "value: hello"
	if string(got) != want {
		t.Errorf("ExpandEnv() = %q, want %q", got, want)
	}
}

func TestExpandEnv_DollarSyntax(t *testing.T) {
	t.Setenv("CLEO_TEST_VAR", "world")

	got := ExpandEnv([]byte("value: $CLEO_TEST_VAR"))
	want := "value: world"
	if string(got) != want {
		t.Errorf("ExpandEnv() = %q, want %q", got, want)
	}
}

func TestExpandEnv_MissingVarExpandsEmpty(t *testing.T) {
	got := ExpandEnv([]byte("value: ${CLEO_DEFINITELY_UNSET_VAR}"))
	want := "value: "
	if string(got) != want {
		t.Errorf("ExpandEnv() = %q, want %q", got, want)
	}
}

func TestExpandEnv_MultipleVars(t *testing.T) {
	t.Setenv("CLEO_HOST", "localhost")
	t.Setenv("CLEO_PORT", "5432")

	got := ExpandEnv([]byte("addr: ${CLEO_HOST}:${CLEO_PORT}"))
	want := "addr: localhost:5432"
	if string(got) != want {
		t.Errorf("ExpandEnv() = %q, want %q", got, want)
	}
}

func TestExpandEnv_NoVars(t *testing.T) {
	input := "plain: value\nother: thing\n"
	got := ExpandEnv([]byte(input))
	if string(got) != input {
		t.Errorf("ExpandEnv() = %q, want unchanged %q", got, input)
	}
}
