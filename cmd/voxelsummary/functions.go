package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"

	"github.com/bodycomp/segnifti"
)

var summaryHeader = []string{
	"label",
	"label_id",
	"filter",
	"n",
	"voxels_mean",
	"voxels_sd",
	"voxels_median",
	"voxels_min",
	"voxels_max",
	"total_mm3_mean",
	"total_mm3_sd",
}

type countEntry struct {
	File     string  `csv:"file"`
	Subject  string  `csv:"subject"`
	Label    string  `csv:"label"`
	LabelID  int     `csv:"label_id"`
	Voxels   float64 `csv:"voxels"`
	VoxelMM3 float64 `csv:"voxel_mm3"`
	TotalMM3 float64 `csv:"total_mm3"`
}

func parseCountEntries(raw []byte) ([]*countEntry, error) {
	// voxelcounter emits tabs, but summaries get rerun on tables that have
	// been through spreadsheets, so sniff rather than assume.
	delim := segnifti.DetermineDelimiter(bytes.NewReader(raw))
	log.Printf("Determined input delimiter to be %q\n", delim)

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delim
		r.LazyQuotes = true

		return r
	})

	entries := []*countEntry{}
	if err := gocsv.UnmarshalBytes(raw, &entries); err != nil {
		return nil, pfx.Err(err)
	}

	return entries, nil
}

// summarize groups the voxelcounter rows by label and emits two summary rows
// per label: one over all rows ("all") and one restricted to the rows where
// the label was present at all ("nonzero"). Unseen metrics print as N/A.
func summarize(entries []*countEntry) ([][]string, error) {
	byLabel := make(map[string][]*countEntry)
	labelID := make(map[string]int)
	for _, entry := range entries {
		byLabel[entry.Label] = append(byLabel[entry.Label], entry)
		labelID[entry.Label] = entry.LabelID
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labelID[labels[i]] != labelID[labels[j]] {
			return labelID[labels[i]] < labelID[labels[j]]
		}

		return labels[i] < labels[j]
	})

	out := make([][]string, 0, 2*len(labels))
	for _, label := range labels {
		group := byLabel[label]

		nonzero := make([]*countEntry, 0, len(group))
		for _, entry := range group {
			if entry.Voxels > 0 {
				nonzero = append(nonzero, entry)
			}
		}

		for _, subset := range []struct {
			filter  string
			entries []*countEntry
		}{
			{"all", group},
			{"nonzero", nonzero},
		} {
			row, err := summaryRow(label, labelID[label], subset.filter, subset.entries)
			if err != nil {
				return nil, err
			}
			out = append(out, row)
		}
	}

	return out, nil
}

func summaryRow(label string, id int, filter string, entries []*countEntry) ([]string, error) {
	voxels := make([]float64, 0, len(entries))
	totals := make([]float64, 0, len(entries))
	for _, entry := range entries {
		voxels = append(voxels, entry.Voxels)
		totals = append(totals, entry.TotalMM3)
	}

	row := []string{label, fmt.Sprintf("%d", id), filter, fmt.Sprintf("%d", len(entries))}

	voxelStats, err := describe(voxels, true)
	if err != nil {
		return nil, err
	}
	row = append(row, voxelStats...)

	totalStats, err := describe(totals, false)
	if err != nil {
		return nil, err
	}
	row = append(row, totalStats...)

	return row, nil
}

// describe reports mean and standard deviation for v, plus median, min, and
// max when spread is true. Empty input yields N/A for every statistic.
func describe(v []float64, spread bool) ([]string, error) {
	fields := 2
	if spread {
		fields = 5
	}

	data := stats.LoadRawData(v)
	if data.Len() < 1 {
		out := make([]string, fields)
		for i := range out {
			out[i] = "N/A"
		}

		return out, nil
	}

	mean, err := data.Mean()
	if err != nil {
		return nil, pfx.Err(err)
	}

	sd, err := data.StandardDeviation()
	if err != nil {
		return nil, pfx.Err(err)
	}

	out := []string{fmt.Sprintf("%.3f", mean), fmt.Sprintf("%.3f", sd)}
	if !spread {
		return out, nil
	}

	median, err := data.Median()
	if err != nil {
		return nil, pfx.Err(err)
	}

	min, err := data.Min()
	if err != nil {
		return nil, pfx.Err(err)
	}

	max, err := data.Max()
	if err != nil {
		return nil, pfx.Err(err)
	}

	return append(out, fmt.Sprintf("%.3f", median), fmt.Sprintf("%.3f", min), fmt.Sprintf("%.3f", max)), nil
}
