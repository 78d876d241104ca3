package ordination

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"gonum.org/v1/gonum/mat"
)

const pcoa = "Eigvals\t2\n0.0961330159181\t0.0409418140138\n\n" +
	"Proportion explained\t0\n\n" +
	"Species\t0\t0\n\n" +
	"Site\t3\t2\n" +
	"S1\t-0.0194\t0.1028\nS2\t0.0366\t-0.0212\nS3\t1e-05\t0.5\n\n" +
	"Biplot\t0\t0\n\n" +
	"Site constraints\t0\t0\n"

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSniffLongLine(t *testing.T) {
	long := strings.Repeat("x", 8<<20)
	if OrdinationFormat.Sniff(writeFile(t, "one-line.txt", long)) {
		t.Fatal("a single long line is not an ordination")
	}
	if !OrdinationFormat.Sniff(writeFile(t, "wide.txt", "Eigvals\t2\n"+long)) {
		t.Fatal("the header alone should be enough")
	}
	if OrdinationFormat.Sniff(writeFile(t, "short.txt", "Eigvals")) {
		t.Fatal("a truncated header is not an ordination")
	}
}

func TestRead(t *testing.T) {
	path := writeFile(t, "ordination.txt", pcoa)
	if err := OrdinationFormat.Validate(path, format.Max); err != nil {
		t.Fatal(err)
	}
	if !OrdinationFormat.Sniff(path) {
		t.Fatal("sniffer should accept the file")
	}
	res, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Eigvals) != 2 || res.ProportionExplained != nil || res.Species != nil || res.Biplot != nil {
		t.Fatalf("unexpected sections: %+v", res)
	}
	r, c := res.Site.Data.Dims()
	if r != 3 || c != 2 || res.Site.IDs[2] != "S3" || res.Site.Data.At(2, 1) != 0.5 {
		t.Fatal("site matrix parsed wrongly")
	}
}

func TestRoundTrip(t *testing.T) {
	res := &Results{
		Eigvals:             []float64{2.5, 1.25, 0.125},
		ProportionExplained: []float64{0.64, 0.32, 0.04},
		Site:                &Matrix{IDs: []string{"a", "b"}, Data: mat.NewDense(2, 3, []float64{0.1, 0.2, 0.3, -0.4, 0.5, 1.0 / 3.0})},
		Biplot:              &Matrix{IDs: []string{"ph"}, Data: mat.NewDense(1, 3, []float64{1, 0, -1})},
	}
	path := filepath.Join(t.TempDir(), "ordination.txt")
	if err := res.Write(path); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(got.Site.Data, res.Site.Data) || !mat.Equal(got.Biplot.Data, res.Biplot.Data) {
		t.Fatal("matrices changed")
	}
	if got.Species != nil || got.SiteConstraints != nil || got.ProportionExplained[2] != 0.04 || got.Site.IDs[1] != "b" {
		t.Fatalf("round trip changed the results: %+v", got)
	}
}

func TestErrors(t *testing.T) {
	for content, rule := range map[string]string{
		"Eigvals\t2\n0.1\n\n":                              "dimension",
		"Eigval\t1\n0.1\n":                                 "section",
		"Eigvals\t1\nx\n\n":                                "value",
		"Eigvals\t0\n\nProportion explained\t0\n\nSpecies\t0\t0\n\nSite\t0\t0\n\nBiplot\t0\t0\n\nSite constraints\t0\t0\n": "eigvals",
	} {
		_, err := Read(writeFile(t, "o.txt", content))
		if e, _ := errs.As(err); e == nil || e.Rule != rule {
			t.Fatalf("%q: expected %q, got %v", content, rule, err)
		}
	}
	bad := pcoa[:len(pcoa)-1] + "\n\nextra\n"
	if e, _ := errs.As(OrdinationFormat.Validate(writeFile(t, "o.txt", bad), format.Max)); e == nil || e.Rule != "trailing data" {
		t.Fatalf("expected trailing data, got %v", e)
	}
}
