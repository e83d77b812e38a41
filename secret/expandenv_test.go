package secret

import (
	"errors"
	"strings"
	"testing"
)

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("L1FEE_TEST_HOST", "rpc.example")
	t.Setenv("L1FEE_TEST_EMPTY", "")

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://${L1FEE_TEST_HOST}/v1", "https://rpc.example/v1", false},
		{"$L1FEE_TEST_HOST", "rpc.example", false},
		{"x${L1FEE_TEST_EMPTY}y", "xy", false},
		{"cost: $$5", "cost: $5", false},
		{"no vars", "no vars", false},
		{"${L1FEE_TEST_UNSET_B} ${L1FEE_TEST_UNSET_A}", "", true},
	}
	for _, tt := range tests {
		got, err := ExpandEnvStrict(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExpandEnvStrict(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandEnvStrict_ListsMissingSorted(t *testing.T) {
	_, err := ExpandEnvStrict("${L1FEE_TEST_UNSET_B}${L1FEE_TEST_UNSET_A}${L1FEE_TEST_UNSET_B}")
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasSuffix(err.Error(), "L1FEE_TEST_UNSET_A, L1FEE_TEST_UNSET_B") {
		t.Errorf("err = %q", err.Error())
	}
}
