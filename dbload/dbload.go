// Package dbload loads database tables into bag partitions.
//
// It is the DatabaseDescriptor side of the engine: a table name or
// query expression is read through GORM (the dialector is injected so
// the engine stays driver-agnostic) and the resulting rows are cut
// into partitions bounded by an estimated byte budget per chunk.
package dbload

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/kbukum/docpipe/bag"
	"github.com/kbukum/docpipe/config"
	"github.com/kbukum/docpipe/errors"
	"github.com/kbukum/docpipe/logger"
	"github.com/kbukum/docpipe/observability"
)

// Descriptor identifies a table source.
type Descriptor struct {
	// ConnectionString is the database DSN.
	ConnectionString string
	// SQL is a table name or a full query expression.
	SQL string
	// IndexColumn orders rows so partition cuts are stable.
	IndexColumn string
	// BytesPerChunk bounds the estimated size of one partition.
	BytesPerChunk int64
}

// ApplyDefaults sets the 256 MiB default chunk size.
func (d *Descriptor) ApplyDefaults() {
	if d.BytesPerChunk <= 0 {
		d.BytesPerChunk = config.DefaultBytesPerChunk
	}
}

// Validate checks the descriptor before a load.
func (d *Descriptor) Validate() error {
	if d.ConnectionString == "" {
		return errors.MissingField("connection_string")
	}
	if d.SQL == "" {
		return errors.MissingField("sql")
	}
	return nil
}

// Loader reads table rows into bags.
type Loader struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens a connection through the injected dialector.
func New(dialector gorm.Dialector, log *logger.Logger) (*Loader, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Database("connect", err)
	}
	return &Loader{db: db, log: log.WithComponent("dbload")}, nil
}

// NewWithDB wraps an existing GORM handle. Used in tests and by callers
// that manage the connection themselves.
func NewWithDB(db *gorm.DB, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{db: db, log: log.WithComponent("dbload")}
}

// Load reads all rows for the descriptor and returns them as a bag,
// ordered by the index column and partitioned by the byte budget.
func (l *Loader) Load(ctx context.Context, desc Descriptor, cfg bag.Config) (*bag.Bag, error) {
	desc.ApplyDefaults()
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanTableLoad)
	defer span.End()
	observability.SetSpanAttribute(ctx, "sql", desc.SQL)

	var rows []map[string]any
	query := BuildQuery(desc)
	if err := l.db.WithContext(ctx).Raw(query).Find(&rows).Error; err != nil {
		observability.SetSpanError(ctx, err)
		return nil, errors.Database("load", err).WithDetail("sql", desc.SQL)
	}

	partitions := CutPartitions(rows, desc.BytesPerChunk)
	l.log.Debug("table loaded", logger.Fields(
		"rows", len(rows),
		logger.FieldPartition, len(partitions),
		"bytes_per_chunk", desc.BytesPerChunk,
	))
	return bag.FromPartitions(cfg, partitions), nil
}

// BuildQuery renders the SELECT for a descriptor. A bare table name
// becomes a full-table select; anything containing whitespace is
// treated as a query expression. The index column, when set, imposes
// a stable order.
func BuildQuery(desc Descriptor) string {
	var query string
	if strings.ContainsAny(strings.TrimSpace(desc.SQL), " \t\n") {
		query = desc.SQL
	} else {
		query = fmt.Sprintf("SELECT * FROM %s", desc.SQL)
	}
	if desc.IndexColumn != "" && !hasTopLevelOrderBy(query) {
		query = fmt.Sprintf("%s ORDER BY %s", query, desc.IndexColumn)
	}
	return query
}

// hasTopLevelOrderBy reports whether the outer query already carries an
// ORDER BY clause. Occurrences inside parentheses (subqueries) or
// string literals do not count, so the index ordering still gets
// appended around them.
func hasTopLevelOrderBy(query string) bool {
	upper := strings.ToUpper(query)
	depth := 0
	inString := false
	for i := 0; i < len(upper); i++ {
		c := upper[i]
		switch {
		case inString:
			if c == '\'' {
				inString = false
			}
		case c == '\'':
			inString = true
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && c == 'O':
			if i > 0 && isWordByte(upper[i-1]) {
				continue
			}
			rest := upper[i:]
			if !strings.HasPrefix(rest, "ORDER") {
				continue
			}
			rest = rest[len("ORDER"):]
			trimmed := strings.TrimLeft(rest, " \t\n")
			if len(trimmed) == len(rest) {
				continue // no whitespace between ORDER and BY
			}
			if strings.HasPrefix(trimmed, "BY") && (len(trimmed) == 2 || !isWordByte(trimmed[2])) {
				return true
			}
		}
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// CutPartitions slices rows into chunks whose estimated size stays
// under bytesPerChunk, preserving row order. Every chunk holds at
// least one row so oversized rows still load.
func CutPartitions(rows []map[string]any, bytesPerChunk int64) [][]bag.Element {
	var partitions [][]bag.Element
	var current []bag.Element
	var currentBytes int64

	for i, row := range rows {
		size := estimateRowBytes(row)
		if len(current) > 0 && currentBytes+size > bytesPerChunk {
			partitions = append(partitions, current)
			current = nil
			currentBytes = 0
		}
		current = append(current, bag.NewElement(i, row))
		currentBytes += size
	}
	if len(current) > 0 {
		partitions = append(partitions, current)
	}
	return partitions
}

// estimateRowBytes approximates a row's in-memory size. Exact
// accounting is not needed; the estimate only drives chunk cuts.
func estimateRowBytes(row map[string]any) int64 {
	var total int64
	for k, v := range row {
		total += int64(len(k))
		switch val := v.(type) {
		case string:
			total += int64(len(val))
		case []byte:
			total += int64(len(val))
		default:
			total += 8
		}
	}
	return total
}
