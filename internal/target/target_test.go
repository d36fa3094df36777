package target

import (
	"os"
	"testing"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		value string
		want  Target
	}{
		{"AWS", Cloud},
		{"MINIO", SelfHosted},
		{"aws", SelfHosted}, // marker is case-sensitive
		{"", SelfHosted},
		{"garbage", SelfHosted},
	}
	for _, c := range cases {
		t.Setenv("S3_TARGET", c.value)
		if got := Resolve(); got != c.want {
			t.Fatalf("Resolve() with S3_TARGET=%q = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestResolveUnset(t *testing.T) {
	t.Setenv("S3_TARGET", "")
	// t.Setenv restores the old value on cleanup; unset for the actual check.
	if err := os.Unsetenv("S3_TARGET"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	if got := Resolve(); got != SelfHosted {
		t.Fatalf("Resolve() with unset S3_TARGET = %v, want SelfHosted", got)
	}
}

func TestString(t *testing.T) {
	if SelfHosted.String() != "self-hosted" || Cloud.String() != "cloud" || Unknown.String() != "unknown" {
		t.Fatal("unexpected target names")
	}
}
