package store

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Scripted stand-ins for pgxpool.Pool and pgx.Tx. Each call consumes the next
// expectation of its kind, in order.

type queryExpectation struct {
	expect *regexp.Regexp
	args   []any
	value  any // one scanned value, or []any for a whole row
	err    error
}

type execExpectation struct {
	expect *regexp.Regexp
	args   []any
	tag    string
	err    error
}

func (e execExpectation) commandTag() pgconn.CommandTag {
	if e.tag == "" {
		return pgconn.NewCommandTag("MOCK")
	}
	return pgconn.NewCommandTag(e.tag)
}

func nextQuery(queue *[]queryExpectation, sql string, args []any) (queryExpectation, error) {
	if len(*queue) == 0 {
		return queryExpectation{}, fmt.Errorf("unexpected query: %s", sql)
	}
	exp := (*queue)[0]
	*queue = (*queue)[1:]
	if !exp.expect.MatchString(sql) {
		return queryExpectation{}, fmt.Errorf("query %q does not match %s", sql, exp.expect)
	}
	return exp, matchArgs(exp.args, args)
}

func nextExec(queue *[]execExpectation, sql string, args []any) (execExpectation, error) {
	if len(*queue) == 0 {
		return execExpectation{}, fmt.Errorf("unexpected exec: %s", sql)
	}
	exp := (*queue)[0]
	*queue = (*queue)[1:]
	if !exp.expect.MatchString(sql) {
		return execExpectation{}, fmt.Errorf("exec %q does not match %s", sql, exp.expect)
	}
	return exp, matchArgs(exp.args, args)
}

// matchArgs compares positional arguments. A nil expectation list or a nil
// element matches anything.
func matchArgs(expected, actual []any) error {
	if len(expected) == 0 {
		return nil
	}
	if len(expected) != len(actual) {
		return fmt.Errorf("expected %d arguments, got %d", len(expected), len(actual))
	}
	for i, want := range expected {
		if want != nil && want != actual[i] {
			return fmt.Errorf("argument %d: expected %v, got %v", i, want, actual[i])
		}
	}
	return nil
}

type mockPool struct {
	t       *testing.T
	queries []queryExpectation
	execs   []execExpectation
	txs     []*mockTx
	begun   int
}

func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	exp, err := nextQuery(&m.queries, sql, args)
	if err != nil {
		m.t.Fatal(err)
	}
	return mockRow{value: exp.value, err: exp.err}
}

func (m *mockPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	exp, err := nextExec(&m.execs, sql, arguments)
	if err != nil {
		m.t.Fatal(err)
	}
	return exp.commandTag(), exp.err
}

func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected rows query: %s", sql)
}

func (m *mockPool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	if m.begun >= len(m.txs) {
		m.t.Fatalf("transaction %d was not scripted", m.begun+1)
	}
	tx := m.txs[m.begun]
	m.begun++
	return tx, nil
}

func (m *mockPool) Ping(ctx context.Context) error { return nil }

func (m *mockPool) assertDone() {
	m.t.Helper()
	if len(m.queries) != 0 || len(m.execs) != 0 {
		m.t.Fatalf("unconsumed expectations: %d queries, %d execs", len(m.queries), len(m.execs))
	}
	if m.begun != len(m.txs) {
		m.t.Fatalf("expected %d transactions, began %d", len(m.txs), m.begun)
	}
}

// mockRow assigns value into the scan destinations by reflection.
type mockRow struct {
	value any
	err   error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	cols, ok := r.value.([]any)
	if !ok {
		cols = []any{r.value}
	}
	if len(cols) != len(dest) {
		return fmt.Errorf("row has %d columns, scanned into %d", len(cols), len(dest))
	}
	for i, col := range cols {
		target := reflect.ValueOf(dest[i]).Elem()
		v := reflect.ValueOf(col)
		if !v.IsValid() {
			return fmt.Errorf("column %d has no scripted value", i)
		}
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("column %d: cannot scan %T into %s", i, col, target.Type())
		}
		target.Set(v)
	}
	return nil
}

// mockTx is a pgx.Tx that fails, rather than aborting the test, on a script
// mismatch, so the code under test sees the error and rolls back.
type mockTx struct {
	execs     []execExpectation
	queries   []queryExpectation
	committed bool
	rolled    bool
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	exp, err := nextExec(&m.execs, sql, arguments)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return exp.commandTag(), exp.err
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	exp, err := nextQuery(&m.queries, sql, args)
	if err != nil {
		return mockRow{err: err}
	}
	return mockRow{value: exp.value, err: exp.err}
}

func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if !m.committed {
		m.rolled = true
	}
	return nil
}

func (m *mockTx) assertDone() {
	switch {
	case len(m.execs) != 0 || len(m.queries) != 0:
		panic(fmt.Sprintf("unconsumed tx expectations: %d execs, %d queries", len(m.execs), len(m.queries)))
	case !m.committed && !m.rolled:
		panic("transaction left open")
	}
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, fmt.Errorf("nested transactions are not scripted")
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected rows query: %s", sql)
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, fmt.Errorf("unexpected CopyFrom")
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return noBatch{}
}

func (m *mockTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, fmt.Errorf("unexpected Prepare")
}

func (m *mockTx) Conn() *pgx.Conn { return nil }

type noBatch struct{}

func (noBatch) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, fmt.Errorf("unexpected batch") }
func (noBatch) Query() (pgx.Rows, error)         { return nil, fmt.Errorf("unexpected batch") }
func (noBatch) QueryRow() pgx.Row                { return mockRow{err: fmt.Errorf("unexpected batch")} }
func (noBatch) Close() error                     { return nil }
