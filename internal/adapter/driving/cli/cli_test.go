package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mydiary/internal/adapter/driven/document"
	"github.com/ericfisherdev/mydiary/internal/adapter/driven/localfs"
	"github.com/ericfisherdev/mydiary/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

var fastArgon2 = application.Argon2Params{Memory: 64, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

type testEnv struct {
	deps      Deps
	dir       string
	passwords []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	db, err := sqlite.NewDB(ctx, filepath.Join(dir, "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.RunMigrations(db.Writer))

	store := sqlite.NewEntryRepo(db)
	attachments, err := localfs.NewAttachments(filepath.Join(dir, "images"))
	require.NoError(t, err)
	renderer := application.NewRenderer(attachments, logger, document.NewTextWriter())

	env := &testEnv{dir: dir}
	env.deps = Deps{
		Diary:       application.NewDiaryService(store, nil, logger),
		Gate:        application.NewCredentialGateWithParams(sqlite.NewCredentialRepo(db), fastArgon2, logger),
		Calendar:    application.NewCalendarService(store, time.Monday),
		Exports:     application.NewExportService(store, renderer, logger),
		Attachments: attachments,
		Logger:      logger,
		Password: func(string) (string, error) {
			if len(env.passwords) == 0 {
				return "", errors.New("no password queued")
			}
			pw := env.passwords[0]
			env.passwords = env.passwords[1:]
			return pw, nil
		},
		Now:           func() time.Time { return time.Date(2024, time.March, 15, 9, 0, 0, 0, time.Local) },
		MarkdownStyle: "notty",
	}
	return env
}

// run executes diaryctl with args, answering password prompts from pw.
func (e *testEnv) run(t *testing.T, stdin string, pw []string, args ...string) (string, error) {
	t.Helper()
	e.passwords = pw
	root := NewRootCommand(e.deps)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// unlocked sets the password "secret" and returns the prompt answers for
// one gated command.
func (e *testEnv) unlocked(t *testing.T) []string {
	t.Helper()
	_, err := e.run(t, "", []string{"secret", "secret"}, "passwd")
	require.NoError(t, err)
	return []string{"secret"}
}

func TestPasswd(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", []string{"a", "b"}, "passwd")
	assert.EqualError(t, err, "passwords do not match")

	_, err = env.run(t, "", []string{"", ""}, "passwd")
	assert.True(t, model.IsValidation(err))

	out, err := env.run(t, "", []string{"abc", "abc"}, "passwd")
	require.NoError(t, err)
	assert.Contains(t, out, "password set")

	// Changing requires the current password.
	_, err = env.run(t, "", []string{"wrong"}, "passwd")
	assert.ErrorIs(t, err, errWrongPassword)

	_, err = env.run(t, "", []string{"abc", "new", "new"}, "passwd")
	require.NoError(t, err)
	assert.True(t, env.deps.Gate.Validate(context.Background(), "new"))
	assert.False(t, env.deps.Gate.Validate(context.Background(), "abc"))
}

// unreadableCredentials fails every read and records writes.
type unreadableCredentials struct{ stored string }

func (*unreadableCredentials) Load(context.Context) (string, error) {
	return "", errors.New("credential table locked")
}

func (u *unreadableCredentials) Store(_ context.Context, digest string) error {
	u.stored = digest
	return nil
}

func TestUnreadableCredentialFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	creds := &unreadableCredentials{}
	env.deps.Gate = application.NewCredentialGateWithParams(creds, fastArgon2, env.deps.Logger)

	_, err := env.run(t, "", []string{"attacker", "attacker"}, "passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential table locked")
	assert.Empty(t, creds.stored, "password is not replaced")

	_, err = env.run(t, "", []string{"attacker"}, "list")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errNoPassword)
}

func TestUnlock(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", nil, "list")
	assert.ErrorIs(t, err, errNoPassword)

	env.unlocked(t)

	_, err = env.run(t, "", []string{"abcd"}, "list")
	assert.ErrorIs(t, err, errWrongPassword)

	out, err := env.run(t, "", []string{"secret"}, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no entries yet")
}

func TestWriteAndShow(t *testing.T) {
	env := newTestEnv(t)
	pw := env.unlocked(t)

	out, err := env.run(t, "", pw, "write", "2024-03-01", "--mood", "okay", "--weather", "⛅ 多雲", "--content", "went for a walk")
	require.NoError(t, err)
	assert.Contains(t, out, "saved 2024-03-01")

	out, err = env.run(t, "", pw, "show", "2024-03-01", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, model.DocumentTitle)
	assert.Contains(t, out, "🙂 普通")
	assert.Contains(t, out, "⛅ 多雲")
	assert.Contains(t, out, "went for a walk")

	// Unchanged flags keep their stored values.
	_, err = env.run(t, "rewritten from stdin\n", pw, "write", "2024-03-01", "--file", "-")
	require.NoError(t, err)

	stored, err := env.deps.Diary.Get(context.Background(), model.NewDate(2024, time.March, 1))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.MoodOkay, stored.Mood)
	assert.Equal(t, model.WeatherCloudy, stored.Weather)
	assert.Equal(t, "rewritten from stdin\n", stored.Content)

	out, err = env.run(t, "", pw, "show", "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "rewritten from stdin")
}

func TestWrite_DefaultsToToday(t *testing.T) {
	env := newTestEnv(t)
	pw := env.unlocked(t)

	_, err := env.run(t, "", pw, "write", "--content", "today")
	require.NoError(t, err)

	out, err := env.run(t, "", pw, "show", "today", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-15")
}

func TestWrite_Errors(t *testing.T) {
	env := newTestEnv(t)
	pw := env.unlocked(t)

	_, err := env.run(t, "", pw, "write", "2024-03-01", "--mood", "ecstatic")
	assert.True(t, model.IsValidation(err))

	_, err = env.run(t, "", pw, "write", "2024-02-30")
	assert.Error(t, err)

	_, err = env.run(t, "", pw, "write", "--image", filepath.Join(env.dir, "missing.png"))
	assert.Error(t, err)

	_, err = env.run(t, "", pw, "show", "2024-01-01")
	assert.ErrorIs(t, err, model.ErrEntryNotFound)
}

func TestWrite_Image(t *testing.T) {
	env := newTestEnv(t)
	pw := env.unlocked(t)

	img := filepath.Join(env.dir, "photo.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n"), 0o600))

	_, err := env.run(t, "", pw, "write", "2024-03-01", "--image", img)
	require.NoError(t, err)

	stored, err := env.deps.Diary.Get(context.Background(), model.NewDate(2024, time.March, 1))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, env.deps.Attachments.Owns(stored.ImagePath))

	_, err = env.run(t, "", pw, "write", "2024-03-01", "--remove-image")
	require.NoError(t, err)
	stored, err = env.deps.Diary.Get(context.Background(), model.NewDate(2024, time.March, 1))
	require.NoError(t, err)
	assert.False(t, stored.HasImage())
}

func TestList_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	pw := env.unlocked(t)

	for _, d := range []string{"2024-03-01", "2024-03-10", "2024-02-20"} {
		_, err := env.run(t, "", pw, "write", d, "--content", "entry "+d)
		require.NoError(t, err)
	}

	out, err := env.run(t, "", pw, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "2024-03-10")
	assert.Contains(t, lines[1], "2024-03-01")
	assert.Contains(t, lines[2], "2024-02-20")
	assert.Contains(t, lines[2], model.UnsetPlaceholder)

	out, err = env.run(t, "", pw, "list", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestCalendar(t *testing.T) {
	env := newTestEnv(t)
	pw := env.unlocked(t)

	out, err := env.run(t, "", pw, "calendar", "2024", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "2024 年 3 月")
	assert.Contains(t, out, "一")
	assert.Contains(t, out, "31")

	out, err = env.run(t, "", pw, "calendar")
	require.NoError(t, err)
	assert.Contains(t, out, "2024 年 3 月")

	_, err = env.run(t, "", pw, "calendar", "2024", "13")
	assert.True(t, model.IsValidation(err))

	_, err = env.run(t, "", pw, "calendar", "next")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	pw := env.unlocked(t)

	_, err := env.run(t, "", pw, "write", "2024-03-01", "--mood", "sad", "--content", "rain")
	require.NoError(t, err)

	out, err := env.run(t, "", pw, "export", "2024-03-01", "--format", "txt", "--out", env.dir)
	require.NoError(t, err)
	path := filepath.Join(env.dir, "Diary_2024-03-01.txt")
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), model.DocumentTitle))
	assert.Contains(t, string(data), "rain")

	_, err = env.run(t, "", pw, "export", "2024-01-01", "--format", "txt", "--out", env.dir)
	assert.ErrorIs(t, err, model.ErrEntryNotFound)

	_, err = env.run(t, "", pw, "export", "2024-03-01", "--out", env.dir)
	assert.True(t, model.IsValidation(err), "pdf is not registered in this test")
}

func TestTerminalPassword(t *testing.T) {
	t.Setenv(PasswordEnv, "")
	require.NoError(t, os.Unsetenv(PasswordEnv))

	var prompts bytes.Buffer
	read := TerminalPassword(strings.NewReader("first\r\nsecond"), &prompts)

	pw, err := read("one: ")
	require.NoError(t, err)
	assert.Equal(t, "first", pw)

	pw, err = read("two: ")
	require.NoError(t, err)
	assert.Equal(t, "second", pw)

	_, err = read("three: ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "one: two: three: ", prompts.String())

	t.Setenv(PasswordEnv, "from-env")
	pw, err = read("four: ")
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)
}
