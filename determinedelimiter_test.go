package segnifti

import (
	"strings"
	"testing"
)

func TestDetermineDelimiterComma(t *testing.T) {
	in := "file,subject,label\na,1_2,P_AT\nb,3_4,P_LT\n"

	if got := DetermineDelimiter(strings.NewReader(in)); got != ',' {
		t.Errorf("expected a comma, got %q", got)
	}
}

func TestDetermineDelimiterTab(t *testing.T) {
	in := "file\tsubject\tlabel\tvoxels\n" +
		"a\t1_2\tP_AT\t10\n" +
		"b\t3_4\tP_LT\t20\n" +
		"c\t5_6\tP_VAT\t30\n"

	if got := DetermineDelimiter(strings.NewReader(in)); got != '\t' {
		t.Errorf("expected a tab, got %q", got)
	}
}
