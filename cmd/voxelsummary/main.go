// voxelsummary is a convenience tool to summarize the output of
// voxelcounter by label: across all counted volumes it reports, per label,
// the spread of voxel counts and physical volumes, both over all rows and
// over the rows where the label actually appears.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	_ "github.com/bodycomp/segnifti/compileinfoprint"
)

func main() {
	var input string

	flag.StringVar(&input, "input", "", "The voxelcounter TSV to summarize. Reads stdin when omitted.")
	flag.Parse()

	var raw []byte
	var err error
	if input == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(input)
	}
	if err != nil {
		log.Fatalln(err)
	}

	entries, err := parseCountEntries(raw)
	if err != nil {
		log.Fatalln(err)
	}

	rows, err := summarize(entries)
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println(strings.Join(summaryHeader, "\t"))
	for _, row := range rows {
		fmt.Println(strings.Join(row, "\t"))
	}
}
