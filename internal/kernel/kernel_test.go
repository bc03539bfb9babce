package kernel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spork/internal/store"
	"github.com/roach88/spork/internal/testutil"
)

type fixture struct {
	k     *Kernel
	st    *store.Store
	clock *testutil.StepClock
	sess  Session
}

func newFixture(t *testing.T, schema store.Source) *fixture {
	t.Helper()
	if schema == nil {
		schema = store.DefaultSchema()
	}
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "spork.db"), schema)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewClock()
	k := New(st, WithClock(clock), WithTokens(testutil.NewSequenceTokens("test")))
	return &fixture{k: k, st: st, clock: clock, sess: DefaultSession()}
}

func (f *fixture) run(t *testing.T, name, args string) Result {
	t.Helper()
	return f.k.Execute(context.Background(), f.sess, name, args)
}

func (f *fixture) install(t *testing.T, programs ...store.Program) {
	t.Helper()
	report, err := f.k.Install(context.Background(), programs)
	require.NoError(t, err)
	require.Len(t, report.Installed, len(programs))
}

func (f *fixture) counts(t *testing.T) (processes, screen int) {
	t.Helper()
	ctx := context.Background()
	processes, err := f.st.CountProcesses(ctx)
	require.NoError(t, err)
	screen, err = f.st.CountScreen(ctx)
	require.NoError(t, err)
	return processes, screen
}

func TestExecute_RecordsProcessAndScreen(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res := f.run(t, "echo", "hello world")
	out, ok := res.Output()
	require.True(t, ok)
	assert.Equal(t, "hello world", out)

	procs, err := f.st.Processes(ctx, f.sess.UserID, 0)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	p := procs[0]
	assert.Equal(t, store.StatusCompleted, p.Status)
	assert.Equal(t, "echo", p.ProgramName)
	assert.Equal(t, "hello world", p.Args)
	assert.Equal(t, "test-0001", p.Token)
	require.NotNil(t, p.Output)
	assert.Equal(t, "hello world", *p.Output)
	assert.Equal(t, testutil.Epoch, p.StartedAt)
	require.NotNil(t, p.EndedAt)
	assert.True(t, p.EndedAt.After(p.StartedAt))

	entries, err := f.st.Screen(ctx, f.sess.UserID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, `{"output":"hello world"}`, entries[0].Content)
}

func TestExecute_ProgramNotFound(t *testing.T) {
	f := newFixture(t, nil)

	res := f.run(t, "nope", "x")
	assert.False(t, res.Success())
	assert.Equal(t, "program not found: nope", res.Err())

	procs, screen := f.counts(t)
	assert.Zero(t, procs)
	assert.Zero(t, screen)
}

func TestNotFoundError_Is(t *testing.T) {
	var err error = &NotFoundError{Name: "x"}
	assert.ErrorIs(t, err, ErrProgramNotFound)
	assert.EqualError(t, err, "program not found: x")
}

func TestExecute_MkdirTwiceFailsSecondTime(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first := f.run(t, "mkdir", "foo")
	out, ok := first.Output()
	require.True(t, ok)
	assert.Equal(t, "created directory foo", out)

	second := f.run(t, "mkdir", "foo")
	assert.False(t, second.Success())
	assert.Equal(t, "UNIQUE constraint failed: files.parent_id, files.name", second.Err())

	n, err := f.st.CountFiles(ctx, store.RootDirectoryID, "foo")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	dir, err := f.st.File(ctx, store.RootDirectoryID, "foo")
	require.NoError(t, err)
	assert.True(t, dir.IsDirectory)
	assert.Equal(t, f.sess.UserID, dir.OwnerID)

	// The failed run left no trace.
	procs, screen := f.counts(t)
	assert.Equal(t, 1, procs)
	assert.Equal(t, 1, screen)
}

func TestExecute_MkdirWithoutArgs(t *testing.T) {
	f := newFixture(t, nil)

	res := f.run(t, "mkdir", "")
	assert.True(t, res.Success())

	n, err := f.st.CountFiles(context.Background(), store.RootDirectoryID, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExecute_WriteSplitsOnFirstSpace(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res := f.run(t, "write", "a.txt hello world")
	require.True(t, res.Success(), res.Err())

	file, err := f.st.File(ctx, store.RootDirectoryID, "a.txt")
	require.NoError(t, err)
	assert.False(t, file.IsDirectory)
	require.NotNil(t, file.Content)
	assert.Equal(t, "hello world", *file.Content)

	cat := f.run(t, "cat", "a.txt")
	out, ok := cat.Output()
	require.True(t, ok)
	assert.Equal(t, "hello world", out)
}

func TestExecute_WriteReplaces(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.True(t, f.run(t, "write", "a.txt one").Success())
	require.True(t, f.run(t, "write", "a.txt two").Success())

	n, err := f.st.CountFiles(ctx, store.RootDirectoryID, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	file, err := f.st.File(ctx, store.RootDirectoryID, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", *file.Content)
}

func TestExecute_WriteWithoutSpaceWritesNothing(t *testing.T) {
	f := newFixture(t, nil)

	res := f.run(t, "write", "a.txt")
	assert.True(t, res.Success())

	n, err := f.st.CountFiles(context.Background(), store.RootDirectoryID, "a.txt")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExecute_SetUpserts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.True(t, f.run(t, "set", "x 5").Success())
	require.True(t, f.run(t, "set", "x 10").Success())

	n, err := f.st.CountVariables(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err := f.st.Variable(ctx, 1, "x")
	require.NoError(t, err)
	assert.Equal(t, "10", v.Value)

	get := f.run(t, "get", "x")
	out, ok := get.Output()
	require.True(t, ok)
	assert.Equal(t, "10", out)
}

func TestExecute_NamesStoredLiterally(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	require.True(t, f.run(t, "set", decomposed+" 1").Success())
	require.True(t, f.run(t, "set", composed+" 2").Success())

	n, err := f.st.CountVariables(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, err := f.st.Variable(ctx, 1, decomposed)
	require.NoError(t, err)
	assert.Equal(t, "1", v.Value)

	require.True(t, f.run(t, "write", decomposed+".txt hello").Success())
	res := f.run(t, "cat", decomposed+".txt")
	out, ok := res.Output()
	require.True(t, ok)
	assert.Equal(t, "hello", out)

	res = f.run(t, "cat", composed+".txt")
	assert.True(t, res.Success())
	_, ok = res.Output()
	assert.False(t, ok)
}

func TestExecute_SameArgumentInEveryPlaceholder(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t, store.Program{Name: "pair", SQL: "SELECT ? || '|' || ? AS output"})

	res := f.run(t, "pair", "A")
	out, ok := res.Output()
	require.True(t, ok)
	assert.Equal(t, "A|A", out)
}

func TestExecute_ZeroPlaceholdersIgnoresArgs(t *testing.T) {
	f := newFixture(t, nil)

	res := f.run(t, "pwd", "these are ignored")
	out, ok := res.Output()
	require.True(t, ok)
	assert.Equal(t, "/", out)
}

// The built-in effect follows the program name even when the stored
// statement never looks at its arguments.
func TestExecute_BuiltinFiresWithoutPlaceholders(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(schema, []byte(minimalSchema), 0644))

	f := newFixture(t, store.SchemaFile(schema))

	res := f.run(t, "mkdir", "foo")
	out, ok := res.Output()
	require.True(t, ok)
	assert.Equal(t, "ok", out)

	dirRow, err := f.st.File(context.Background(), store.RootDirectoryID, "foo")
	require.NoError(t, err)
	assert.True(t, dirRow.IsDirectory)
}

func TestExecute_NoOutputReportsExecuted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.True(t, f.run(t, "write", "junk.txt x").Success())

	res := f.run(t, "rm", "junk.txt")
	assert.True(t, res.Success())
	_, ok := res.Output()
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"success": true, "message": ExecutedMessage}, res.Fields())

	n, err := f.st.CountFiles(ctx, store.RootDirectoryID, "junk.txt")
	require.NoError(t, err)
	assert.Zero(t, n)

	// A NULL output is recorded as such.
	entries, err := f.st.Screen(ctx, f.sess.UserID, 1)
	require.NoError(t, err)
	assert.Equal(t, `{"output":null}`, entries[0].Content)

	procs, err := f.st.Processes(ctx, f.sess.UserID, 1)
	require.NoError(t, err)
	assert.Nil(t, procs[0].Output)
}

func TestExecute_EmptyOutputReportsExecuted(t *testing.T) {
	f := newFixture(t, nil)

	res := f.run(t, "echo", "")
	assert.Equal(t, ExecutedResult(), res)
}

func TestExecute_NonTextOutput(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t,
		store.Program{Name: "answer", SQL: "SELECT 42 AS output"},
		store.Program{Name: "half", SQL: "SELECT 0.5 AS output"},
		store.Program{Name: "blob", SQL: "SELECT CAST(? AS BLOB) AS output"},
		store.Program{Name: "other", SQL: "SELECT 1 AS result"},
		store.Program{Name: "upper", SQL: "SELECT ? AS OUTPUT"},
	)

	tests := []struct {
		program string
		args    string
		want    string
		wantOK  bool
	}{
		{"answer", "", "42", true},
		{"half", "", "0.5", true},
		{"blob", "bytes", "bytes", true},
		{"other", "", "", false},
		{"upper", "shout", "shout", true},
	}
	for _, tt := range tests {
		t.Run(tt.program, func(t *testing.T) {
			res := f.run(t, tt.program, tt.args)
			require.True(t, res.Success(), res.Err())
			out, ok := res.Output()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestExecute_BrokenStatementRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t, store.Program{Name: "broken", SQL: "SELEC nonsense"})

	res := f.run(t, "broken", "")
	assert.False(t, res.Success())
	assert.Contains(t, res.Err(), "syntax error")

	procs, screen := f.counts(t)
	assert.Zero(t, procs)
	assert.Zero(t, screen)
}

func TestExecute_StoredStatementMutationsRollBack(t *testing.T) {
	ctx := context.Background()

	// The stored statement writes a variable, then the built-in mkdir fails
	// on a duplicate: the statement's write must not survive either.
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(schema, []byte(minimalSchema+`
UPDATE programs
SET sql_code = 'INSERT INTO variables (user_id, name, value) VALUES (1, ''v'' || (SELECT count(*) FROM processes), ?)'
WHERE name = 'mkdir';
`), 0644))
	f := newFixture(t, store.SchemaFile(schema))

	require.True(t, f.run(t, "mkdir", "foo").Success())
	res := f.run(t, "mkdir", "foo")
	assert.False(t, res.Success())
	assert.Equal(t, "UNIQUE constraint failed: files.parent_id, files.name", res.Err())

	n, err := f.st.CountVariables(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExecute_PlaceholderInLiteralFails(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t, store.Program{Name: "why", SQL: "SELECT 'why?' AS output"})

	res := f.run(t, "why", "x")
	assert.False(t, res.Success())
	assert.Equal(t, "sql: expected 0 arguments, got 1", res.Err())

	procs, screen := f.counts(t)
	assert.Zero(t, procs)
	assert.Zero(t, screen)
}

func TestExecute_MultipleStatementsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.install(t, store.Program{
		Name: "twice",
		SQL:  "INSERT INTO variables (user_id, name, value) VALUES (1, 'first', ?); SELECT ? AS output",
	})

	res := f.run(t, "twice", "x")
	assert.False(t, res.Success())
	assert.Equal(t, "you can only execute one statement at a time", res.Err())

	n, err := f.st.CountVariables(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	procs, screen := f.counts(t)
	assert.Zero(t, procs)
	assert.Zero(t, screen)
}

func TestExecute_TrailingSemicolonAllowed(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t, store.Program{Name: "semi", SQL: "SELECT ? AS output; -- done"})

	res := f.run(t, "semi", "ok")
	out, ok := res.Output()
	require.True(t, ok)
	assert.Equal(t, "ok", out)
}

func TestExecute_UnknownUserRollsBack(t *testing.T) {
	f := newFixture(t, nil)

	res := f.k.Execute(context.Background(), Session{UserID: 99}, "echo", "hi")
	assert.False(t, res.Success())
	assert.Equal(t, "FOREIGN KEY constraint failed", res.Err())

	procs, screen := f.counts(t)
	assert.Zero(t, procs)
	assert.Zero(t, screen)
}

func TestScreen_NewestFirstCappedAtTen(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.True(t, f.run(t, "echo", fmt.Sprintf("line %d", i)).Success())
	}

	res := f.k.Screen(ctx, f.sess)
	require.True(t, res.Success())
	assert.Equal(t, []map[string]any{
		{"output": "line 3"},
		{"output": "line 2"},
		{"output": "line 1"},
	}, res.Entries())

	for i := 4; i <= 12; i++ {
		require.True(t, f.run(t, "echo", fmt.Sprintf("line %d", i)).Success())
	}

	res = f.k.Screen(ctx, f.sess)
	entries := res.Entries()
	require.Len(t, entries, ScreenSize)
	assert.Equal(t, "line 12", entries[0]["output"])
	assert.Equal(t, "line 3", entries[9]["output"])
}

func TestScreen_Empty(t *testing.T) {
	f := newFixture(t, nil)

	res := f.k.Screen(context.Background(), f.sess)
	assert.True(t, res.Success())
	assert.Equal(t, map[string]any{"success": true, "results": []any{}}, res.Fields())
}

func TestScreen_NullOutputDecoded(t *testing.T) {
	f := newFixture(t, nil)

	require.True(t, f.run(t, "cat", "missing").Success())

	res := f.k.Screen(context.Background(), f.sess)
	require.Len(t, res.Entries(), 1)
	v, ok := res.Entries()[0]["output"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestScreen_PerSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.True(t, f.run(t, "echo", "mine").Success())

	res := f.k.Screen(ctx, Session{UserID: 2})
	assert.True(t, res.Success())
	assert.Empty(t, res.Entries())
}

func TestInstall_ReportsSkipped(t *testing.T) {
	f := newFixture(t, nil)

	report, err := f.k.Install(context.Background(), []store.Program{
		{Name: "echo", SQL: "SELECT 'x' AS output"},
		{Name: "new", SQL: "SELECT 'new' AS output"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, report.Installed)
	assert.Equal(t, []string{"echo"}, report.Skipped)
}

func TestProcessesAndPrograms(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.True(t, f.run(t, "echo", "a").Success())
	require.True(t, f.run(t, "pwd", "").Success())

	procs, err := f.k.Processes(ctx, f.sess, 1)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, "pwd", procs[0].ProgramName)

	programs, err := f.k.Programs(ctx)
	require.NoError(t, err)
	names := make([]string, len(programs))
	for i, p := range programs {
		names[i] = p.Name
	}
	assert.Contains(t, names, "mkdir")
	assert.Contains(t, names, "write")
	assert.Contains(t, names, "set")
}

func TestExecute_UsesInjectedTokens(t *testing.T) {
	f := newFixture(t, nil)
	f.k = New(f.st, WithClock(f.clock), WithTokens(testutil.NewFixedTokens("tok-a", "tok-b")))

	require.True(t, f.run(t, "echo", "one").Success())
	require.True(t, f.run(t, "echo", "two").Success())

	procs, err := f.st.Processes(context.Background(), f.sess.UserID, 0)
	require.NoError(t, err)
	tokens := make([]string, len(procs))
	for i, p := range procs {
		tokens[i] = p.Token
	}
	assert.ElementsMatch(t, []string{"tok-a", "tok-b"}, tokens)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

const minimalSchema = `
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE);
CREATE TABLE programs (name TEXT PRIMARY KEY, sql_code TEXT NOT NULL, description TEXT NOT NULL DEFAULT '');
CREATE TABLE processes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    token TEXT NOT NULL DEFAULT '',
    program_name TEXT NOT NULL,
    user_id INTEGER NOT NULL REFERENCES users(id),
    args TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'running',
    output TEXT,
    started_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ended_at TEXT
);
CREATE TABLE files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    parent_id INTEGER REFERENCES files(id),
    owner_id INTEGER NOT NULL REFERENCES users(id),
    content TEXT,
    is_directory INTEGER NOT NULL DEFAULT 0,
    UNIQUE (parent_id, name)
);
CREATE TABLE variables (
    user_id INTEGER NOT NULL REFERENCES users(id),
    name TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, name)
);
CREATE TABLE screen (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    content TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
INSERT INTO users (id, name) VALUES (1, 'root');
INSERT INTO files (id, name, parent_id, owner_id, is_directory) VALUES (1, '/', NULL, 1, 1);
INSERT INTO programs (name, sql_code) VALUES ('mkdir', 'SELECT ''ok'' AS output');
`
