package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Prabal729/disease-2/internal/dataset"
)

// datasetQuery reads the shared dataset filter parameters:
//
//	columns=a,b             keep and order these columns (repeatable)
//	range=<col>:<min>:<max> keep rows with min <= col <= max (repeatable)
//	in=<col>:<v1>|<v2>      keep rows whose col is one of the values (repeatable)
//
// Row limits are left to the caller.
func datasetQuery(c *gin.Context) (dataset.Query, error) {
	var q dataset.Query
	for _, list := range c.QueryArray("columns") {
		for _, name := range strings.Split(list, ",") {
			if name = strings.TrimSpace(name); name != "" {
				q.Columns = append(q.Columns, name)
			}
		}
	}

	for _, raw := range c.QueryArray("range") {
		r, err := parseRange(raw)
		if err != nil {
			return dataset.Query{}, err
		}
		q.Ranges = append(q.Ranges, r)
	}

	for _, raw := range c.QueryArray("in") {
		col, vals, ok := strings.Cut(raw, ":")
		if !ok || col == "" || vals == "" {
			return dataset.Query{}, fmt.Errorf("in filter %q: want <column>:<value>|<value>", raw)
		}
		q.In = append(q.In, dataset.Membership{Column: col, Values: strings.Split(vals, "|")})
	}
	return q, nil
}

// parseRange splits from the right so column names may contain colons.
func parseRange(raw string) (dataset.Range, error) {
	bad := fmt.Errorf("range filter %q: want <column>:<min>:<max>", raw)
	rest, maxStr, ok := cutLast(raw, ":")
	if !ok {
		return dataset.Range{}, bad
	}
	col, minStr, ok := cutLast(rest, ":")
	if !ok || col == "" {
		return dataset.Range{}, bad
	}
	lo, err1 := strconv.ParseFloat(minStr, 64)
	hi, err2 := strconv.ParseFloat(maxStr, 64)
	if err1 != nil || err2 != nil || lo > hi {
		return dataset.Range{}, bad
	}
	return dataset.Range{Column: col, Min: lo, Max: hi}, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
