package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"go-body-analyzer/pkg/models"
)

const targetColumn = "bodyfat_pct"

// dataset holds feature rows in models.FeatureNames order and their targets.
type dataset struct {
	x [][]float64
	y []float64
}

func (d dataset) len() int { return len(d.y) }

// syntheticDataset draws n people with plausible measurements and a noisy
// body-fat target. The same seed always yields the same rows.
func syntheticDataset(n int, seed int64) dataset {
	rng := rand.New(rand.NewSource(seed))
	d := dataset{x: make([][]float64, n), y: make([]float64, n)}

	for i := 0; i < n; i++ {
		male := float64(rng.Intn(2))
		height := normal(rng, 175, 10)
		weight := normal(rng, 80, 15)
		waist := normal(rng, 85, 12)
		hip := normal(rng, 95, 10)
		neck := normal(rng, 37, 3)

		bf := 0.25*(waist-neck) +
			0.10*(hip-90) +
			0.05*(weight-70) +
			5*(1-male)
		bf = math.Max(5, math.Min(45, bf+normal(rng, 0, 2)))

		d.x[i] = []float64{height, weight, waist, neck, hip}
		d.y[i] = bf
	}
	return d
}

func normal(rng *rand.Rand, mean, stddev float64) float64 {
	return mean + stddev*rng.NormFloat64()
}

// readCSV loads a dataset with a header row naming at least the pipeline
// features and the bodyfat_pct target. Extra columns are ignored.
func readCSV(r io.Reader) (dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return dataset{}, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	columns := make([]int, 0, models.FeatureVectorLen)
	for _, name := range models.FeatureNames {
		i, ok := index[name]
		if !ok {
			return dataset{}, fmt.Errorf("missing column %q", name)
		}
		columns = append(columns, i)
	}
	target, ok := index[targetColumn]
	if !ok {
		return dataset{}, fmt.Errorf("missing column %q", targetColumn)
	}

	var d dataset
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dataset{}, fmt.Errorf("line %d: %w", line, err)
		}

		row := make([]float64, len(columns))
		for j, col := range columns {
			if row[j], err = parseCell(record[col]); err != nil {
				return dataset{}, fmt.Errorf("line %d column %q: %w", line, models.FeatureNames[j], err)
			}
		}
		y, err := parseCell(record[target])
		if err != nil {
			return dataset{}, fmt.Errorf("line %d column %q: %w", line, targetColumn, err)
		}

		d.x = append(d.x, row)
		d.y = append(d.y, y)
	}

	if d.len() == 0 {
		return dataset{}, fmt.Errorf("no data rows")
	}
	return d, nil
}

func parseCell(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// split shuffles the rows and holds out testFraction of them.
func (d dataset) split(testFraction float64, seed int64) (train, test dataset) {
	perm := rand.New(rand.NewSource(seed)).Perm(d.len())
	nTest := int(math.Round(float64(d.len()) * testFraction))

	for i, idx := range perm {
		if i < nTest {
			test.x = append(test.x, d.x[idx])
			test.y = append(test.y, d.y[idx])
		} else {
			train.x = append(train.x, d.x[idx])
			train.y = append(train.y, d.y[idx])
		}
	}
	return train, test
}
