package config

import "testing"

func TestParseByteSize(t *testing.T) {
	cases := map[string]int{
		"256":    256,
		"1kb":    1024,
		"1KB":    1024,
		"256mb":  256 * 1024 * 1024,
		"1gb":    1024 * 1024 * 1024,
		"1.5mb":  int(1.5 * 1024 * 1024),
		"":       0,
	}
	for in, want := range cases {
		got, err := parseByteSize(in)
		if err != nil {
			t.Fatalf("parseByteSize(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseByteSize(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseByteSizeRejectsUnknownUnit(t *testing.T) {
	if _, err := parseByteSize("5tb"); err == nil {
		t.Error("expected an error for an unsupported unit")
	}
}

func TestParseBandwidth(t *testing.T) {
	cases := map[string]float64{
		"0":      0,
		"":       0,
		"8bps":   1,
		"8000kbps": 1_000_000,
		"8mbps":  1_000_000,
		"8gbps":  1_000_000_000,
	}
	for in, want := range cases {
		got, err := parseBandwidth(in)
		if err != nil {
			t.Fatalf("parseBandwidth(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseBandwidth(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseBoolString(t *testing.T) {
	truthy := []string{"1", "t", "true", "TRUE", "yes", "on"}
	for _, s := range truthy {
		if b, ok := parseBoolString(s); !ok || !b {
			t.Errorf("parseBoolString(%q) = (%v, %v), want (true, true)", s, b, ok)
		}
	}
	falsy := []string{"0", "f", "false", "FALSE", "no", "off"}
	for _, s := range falsy {
		if b, ok := parseBoolString(s); !ok || b {
			t.Errorf("parseBoolString(%q) = (%v, %v), want (false, true)", s, b, ok)
		}
	}
	if _, ok := parseBoolString("maybe"); ok {
		t.Error("expected parseBoolString to reject an unrecognized value")
	}
}

func TestParseBoolFlagPrefersFlagThenEnvThenDefault(t *testing.T) {
	t.Setenv("COMIXFS_TEST_BOOL", "")
	if got := parseBoolFlag("", "COMIXFS_TEST_BOOL", true); !got {
		t.Error("expected default true when neither flag nor env is set")
	}

	t.Setenv("COMIXFS_TEST_BOOL", "false")
	if got := parseBoolFlag("", "COMIXFS_TEST_BOOL", true); got {
		t.Error("expected env value to override default")
	}

	if got := parseBoolFlag("true", "COMIXFS_TEST_BOOL", false); !got {
		t.Error("expected flag value to override env and default")
	}
}
