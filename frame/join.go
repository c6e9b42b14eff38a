package frame

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// JoinOptions configures Join.
type JoinOptions struct {
	// Suffix is appended to right-side column names which collide with a
	// left-side name. Defaults to "_right".
	Suffix string
}

// Join performs an inner equi-join on the named key columns, which must
// exist with identical types on both sides. The hash table is built over the
// right frame; left rows are probed in order, so output order follows the
// left frame with right matches in right-frame order. Duplicate key matches
// are all preserved - there is no dedup - and rows with a null key part
// never match. Output columns: keys (from the left), remaining left columns,
// remaining right columns.
func Join(left, right *Frame, keys []string, opts JoinOptions) (*Frame, error) {
	if len(keys) == 0 {
		return nil, errors.New("join requires at least one key column")
	}
	if opts.Suffix == "" {
		opts.Suffix = "_right"
	}
	lkey := make([]*Column, len(keys))
	rkey := make([]*Column, len(keys))
	for i, k := range keys {
		lc := left.Column(k)
		if lc == nil {
			return nil, errors.Errorf("left side missing key column %q", k)
		}
		rc := right.Column(k)
		if rc == nil {
			return nil, errors.Errorf("right side missing key column %q", k)
		}
		if lc.Type != rc.Type {
			return nil, errors.Errorf("key column %q is %s on the left but %s on the right", k, lc.Type, rc.Type)
		}
		lkey[i], rkey[i] = lc, rc
	}

	// Build side: right.
	build := make(map[string][]int, right.rows)
	var sb strings.Builder
	for i := 0; i < right.rows; i++ {
		k, ok := rowKey(&sb, rkey, i)
		if !ok {
			continue
		}
		build[k] = append(build[k], i)
	}

	var lidx, ridx []int
	for i := 0; i < left.rows; i++ {
		k, ok := rowKey(&sb, lkey, i)
		if !ok {
			continue
		}
		for _, ri := range build[k] {
			lidx = append(lidx, i)
			ridx = append(ridx, ri)
		}
	}

	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}
	cols := make([]*Column, 0, len(left.cols)+len(right.cols)-len(keys))
	for _, c := range lkey {
		cols = append(cols, c.gather(lidx))
	}
	taken := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		taken[k] = struct{}{}
	}
	for _, c := range left.cols {
		if _, isKey := keySet[c.Name]; isKey {
			continue
		}
		cols = append(cols, c.gather(lidx))
		taken[c.Name] = struct{}{}
	}
	for _, c := range right.cols {
		if _, isKey := keySet[c.Name]; isKey {
			continue
		}
		gc := c.gather(ridx)
		if _, clash := taken[c.Name]; clash {
			gc = gc.renamed(c.Name + opts.Suffix)
		}
		taken[gc.Name] = struct{}{}
		cols = append(cols, gc)
	}
	return New(cols...)
}

// rowKey encodes the key columns of row i into a string. ok is false when
// any key part is null.
func rowKey(sb *strings.Builder, keyCols []*Column, i int) (string, bool) {
	sb.Reset()
	for n, c := range keyCols {
		if !c.IsValid(i) {
			return "", false
		}
		if n > 0 {
			sb.WriteByte(0)
		}
		switch c.Type {
		case Int64:
			sb.WriteString(strconv.FormatInt(c.Ints[i], 10))
		case Float64:
			sb.WriteString(strconv.FormatFloat(c.Floats[i], 'g', -1, 64))
		case String:
			sb.WriteString(c.Strs[i])
		case Timestamp:
			sb.WriteString(strconv.FormatInt(c.Times[i].UnixNano(), 10))
		}
	}
	return sb.String(), true
}
