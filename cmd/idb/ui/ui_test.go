package ui

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func TestParseFloats(t *testing.T) {
	got, err := parseFloats([]string{"10", "20.5"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{10, 20.5}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := parseFloats([]string{"x"}); err == nil {
		t.Error("parseFloats(x) succeeded")
	}
}

func TestParseKeycodes(t *testing.T) {
	got, err := parseKeycodes([]string{"4", "40"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint64{4, 40}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := parseKeycodes([]string{"-1"}); err == nil {
		t.Error("parseKeycodes(-1) succeeded")
	}
}

func TestTextRejectsBeforeDialling(t *testing.T) {
	cmd := Entrypoint(viper.New())
	cmd.SetArgs([]string{"text", "naïve"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err == nil {
		t.Error("text with a non-ASCII character succeeded")
	}
}

func TestSubcommands(t *testing.T) {
	var got []string
	for _, c := range Entrypoint(viper.New()).Commands() {
		got = append(got, c.Name())
	}
	want := []string{"button", "key", "key-sequence", "swipe", "tap", "text"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subcommands mismatch (-want +got):\n%s", diff)
	}
}
