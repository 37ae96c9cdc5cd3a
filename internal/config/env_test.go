package config

import (
	"reflect"
	"testing"
	"time"
)

func TestGetEnvDuration(t *testing.T) {
	cases := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Minute},
		{"30s", 30 * time.Second},
		{"90", 90 * time.Second},
		{"soon", time.Minute},
		{"-5s", time.Minute},
	}
	for _, tc := range cases {
		t.Setenv("PENPAL_TEST_DURATION", tc.value)
		if got := getEnvDuration("PENPAL_TEST_DURATION", time.Minute); got != tc.want {
			t.Errorf("%q: got %s want %s", tc.value, got, tc.want)
		}
	}
}

func TestGetEnvList(t *testing.T) {
	def := []string{"http://localhost:5173"}

	t.Setenv("PENPAL_TEST_LIST", " https://a.example , ,https://b.example ")
	if got := getEnvList("PENPAL_TEST_LIST", def); !reflect.DeepEqual(got, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("got %v", got)
	}
	t.Setenv("PENPAL_TEST_LIST", " , ")
	if got := getEnvList("PENPAL_TEST_LIST", def); !reflect.DeepEqual(got, def) {
		t.Fatalf("blank list should fall back: %v", got)
	}
}

func TestArchiveEnabled(t *testing.T) {
	c := &Config{AwsAccessKey: "k", AwsSecretKey: "s"}
	if c.ArchiveEnabled() {
		t.Fatalf("archive needs a bucket")
	}
	c.BucketName = "journals"
	if !c.ArchiveEnabled() {
		t.Fatalf("archive should be enabled")
	}
}
