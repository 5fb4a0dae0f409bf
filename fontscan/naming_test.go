package fontscan

import (
	"strings"
	"testing"
)

func TestMergedNameSingleFamily(t *testing.T) {
	idx := FileIndex{
		"sub/arial.ttf": {
			{File: "sub/arial.ttf", Family: "Arial", Subfamily: "Bold", Version: "Version 7.03"},
		},
	}
	if want, got := "Arial-Bold-v7_03.ttf", MergedName("sub/arial.ttf", idx); want != got {
		t.Errorf("MergedName() = %q, want %q", got, want)
	}
}

func TestMergedNameVersionBuildMetadata(t *testing.T) {
	idx := FileIndex{
		"n.otf": {
			{File: "n.otf", Family: "Noto Sans", Version: "Version 2.004;GOOG;noto-source"},
		},
	}
	if want, got := "NotoSans-v2_004.otf", MergedName("n.otf", idx); want != got {
		t.Errorf("MergedName() = %q, want %q", got, want)
	}
}

func TestMergedNameCollection(t *testing.T) {
	idx := FileIndex{
		"msgothic.ttc": {
			{File: "msgothic.ttc", Family: "MS Gothic", Subfamily: "Regular", Version: "Version 5.30"},
			{File: "msgothic.ttc", Family: "MS PGothic", Subfamily: "Regular", Version: "Version 5.30"},
			{File: "msgothic.ttc", Family: "MS UI Gothic", Subfamily: "Regular", Version: "Version 5.30"},
		},
	}
	if want, got := "MSGothic_MSPGothic_MSUIGothic-v5_30.ttc", MergedName("msgothic.ttc", idx); want != got {
		t.Errorf("MergedName() = %q, want %q", got, want)
	}
}

func TestMergedNameLongCollectionUsesPrefix(t *testing.T) {
	var entries []Entry
	for _, suffix := range []string{
		"Alpha Extended Display", "Beta Extended Display", "Gamma Extended Display",
		"Delta Extended Display", "Epsilon Extended Display",
	} {
		entries = append(entries, Entry{File: "big.ttc", Family: "SuperFamily " + suffix})
	}
	idx := FileIndex{"big.ttc": entries}
	got := MergedName("big.ttc", idx)
	if want := "SuperFamily-x5.ttc"; want != got {
		t.Errorf("MergedName() = %q, want %q", got, want)
	}
}

func TestMergedNameNoASCIIFamily(t *testing.T) {
	idx := FileIndex{
		"fonts/楷体.ttf": {
			{File: "fonts/楷体.ttf", Family: "楷体"},
		},
	}
	if want, got := "font.ttf", MergedName("fonts/楷体.ttf", idx); want != got {
		t.Errorf("MergedName() = %q, want %q", got, want)
	}
}

func TestMergedNameUnknownFile(t *testing.T) {
	if want, got := "somefont.ttf", MergedName("x/some-font!.ttf", FileIndex{}); want != got {
		t.Errorf("MergedName() = %q, want %q", got, want)
	}
}

func TestMergedNameCapped(t *testing.T) {
	idx := FileIndex{
		"a.ttf": {
			{File: "a.ttf", Family: strings.Repeat("A", 300)},
		},
	}
	got := MergedName("a.ttf", idx)
	if want := strings.Repeat("A", 200) + ".ttf"; want != got {
		t.Errorf("MergedName() length = %d, want %d", len(got), len(want))
	}
}
