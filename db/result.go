package db

import (
	"fmt"
	"os"
	"strings"
)

type ResultType int

const (
	QueryResultType ResultType = iota
	ExecResultType
)

type Result interface {
	Type() ResultType
	Display()
}

// QueryResult holds the rows a SELECT produced, already formatted for
// display.
type QueryResult struct {
	Columns          []string
	Data             [][]string
	RecordsRead      int
	ExecutionTimeSec float64
	ExecutionOps     int
}

// ExecResult summarizes a statement that changed the database.
type ExecResult struct {
	Operation        string
	Table            string
	RowsAffected     int
	RowIDs           []int64
	ExecutionTimeSec float64
	ExecutionOps     int
}

func (result QueryResult) Type() ResultType {
	return QueryResultType
}

func (result ExecResult) Type() ResultType {
	return ExecResultType
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	if secs < 0.001 {
		return "<1ms"
	} else if secs < 0.01 {
		return fmt.Sprintf("%dms", int(secs*1000))
	} else if secs < 1 {
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	} else if secs < 60 {
		if secs < 10 {
			return fmt.Sprintf("%.1fs", secs)
		}
		return fmt.Sprintf("%ds", int(secs))
	} else {
		mins := int(secs / 60)
		remainSecs := int(secs) % 60
		if remainSecs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm%ds", mins, remainSecs)
	}
}

func (result QueryResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result ExecResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result QueryResult) Display() {
	if len(result.Data) > 0 {
		table := NewTableWriter(os.Stdout)
		table.Header(result.Columns)
		table.Bulk(result.Data)
		table.Render()
	}

	fmt.Printf("%d rows (%s%s)\n", result.RecordsRead, result.ExecutionTime(),
		throughput(result.ExecutionOps, result.ExecutionTimeSec))
}

func (result ExecResult) Display() {
	var parts []string
	switch result.Operation {
	case "CREATE TABLE":
		parts = append(parts, fmt.Sprintf("table %s created", result.Table))
	case "CREATE INDEX":
		parts = append(parts, fmt.Sprintf("index on %s created", result.Table))
	case "INSERT":
		parts = append(parts, fmt.Sprintf("%d row(s) inserted", result.RowsAffected))
	case "UPDATE":
		parts = append(parts, fmt.Sprintf("%d row(s) updated", result.RowsAffected))
	case "DELETE":
		parts = append(parts, fmt.Sprintf("%d row(s) deleted", result.RowsAffected))
	}

	if len(parts) == 0 {
		fmt.Printf("OK (%s)\n", result.ExecutionTime())
	} else {
		fmt.Printf("%s (%s%s)\n", strings.Join(parts, ", "), result.ExecutionTime(),
			throughput(result.ExecutionOps, result.ExecutionTimeSec))
	}
}

// throughput renders an ops/s suffix, or nothing when there is no signal.
func throughput(ops int, secs float64) string {
	if secs <= 0 || ops <= 0 {
		return ""
	}
	rate := float64(ops) / secs
	if rate >= 1000000 {
		return fmt.Sprintf(", %.1fM ops/s", rate/1000000)
	} else if rate >= 1000 {
		return fmt.Sprintf(", %.1fK ops/s", rate/1000)
	}
	return fmt.Sprintf(", %.0f ops/s", rate)
}
