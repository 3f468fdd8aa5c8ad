package web_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
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
	"github.com/ericfisherdev/mydiary/internal/adapter/driving/web"
	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

var fastArgon2 = application.Argon2Params{Memory: 64, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

type failingSink struct{}

func (failingSink) Name() string { return "github" }
func (failingSink) Backup(context.Context, model.DiaryEntry) error {
	return errors.New("remote unreachable")
}

type testEnv struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	store  *sqlite.EntryRepo
	db     *sqlite.DB
	// imagesDir holds uploaded attachments.
	imagesDir string
	// credentialPath is the password file behind the gate.
	credentialPath string
}

func newTestEnv(t *testing.T, sinks ...driven.BackupSink) *testEnv {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	db, err := sqlite.NewDB(ctx, filepath.Join(dir, "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.RunMigrations(db.Writer))

	store := sqlite.NewEntryRepo(db)
	imagesDir := filepath.Join(dir, "images")
	attachments, err := localfs.NewAttachments(imagesDir)
	require.NoError(t, err)

	credentialPath := filepath.Join(dir, "password.txt")
	gate := application.NewCredentialGateWithParams(localfs.NewCredentialFile(credentialPath), fastArgon2, logger)
	sessions, err := application.NewSessionIssuer([]byte("test-key"), time.Hour)
	require.NoError(t, err)

	diary := application.NewDiaryService(store, sinks, logger)
	list := application.NewEntryList(store, logger)
	diary.Subscribe(list)

	renderer := application.NewRenderer(attachments, logger, document.NewTextWriter())
	h := web.NewHandler(
		diary,
		list,
		gate,
		sessions,
		application.NewCalendarService(store, time.Monday),
		application.NewExportService(store, renderer, logger),
		attachments,
		logger,
	)

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, h)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	t.Cleanup(client.CloseIdleConnections)

	return &testEnv{t: t, srv: srv, client: client, store: store, db: db, imagesDir: imagesDir, credentialPath: credentialPath}
}

func (e *testEnv) cookie(name string) string {
	u, err := url.Parse(e.srv.URL)
	require.NoError(e.t, err)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (e *testEnv) get(path string) (*http.Response, string) {
	e.t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(e.t, err)
	return resp, readBody(e.t, resp)
}

// postForm submits vals with the current CSRF token.
func (e *testEnv) postForm(path string, vals url.Values) (*http.Response, string) {
	e.t.Helper()
	if vals.Get("csrf_token") == "" {
		vals.Set("csrf_token", e.cookie("csrf_token"))
	}
	resp, err := e.client.PostForm(e.srv.URL+path, vals)
	require.NoError(e.t, err)
	return resp, readBody(e.t, resp)
}

func (e *testEnv) postMultipart(path string, fields map[string]string, imageName string, image []byte) (*http.Response, string) {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(e.t, mw.WriteField("csrf_token", e.cookie("csrf_token")))
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		require.NoError(e.t, err)
		_, err = fw.Write(image)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	resp, err := e.client.Post(e.srv.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(e.t, err)
	return resp, readBody(e.t, resp)
}

// setup sets the password "secret" through the first-run form.
func (e *testEnv) setup() {
	e.t.Helper()
	e.get("/app/setup")
	resp, _ := e.postForm("/app/setup", url.Values{"password": {"secret"}, "confirm": {"secret"}})
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode)
	require.NotEmpty(e.t, e.cookie("diary_session"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIndex_FirstRunRedirectsToSetup(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.get("/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/app/setup", resp.Header.Get("Location"))

	resp, _ = env.get("/app/login")
	assert.Equal(t, "/app/setup", resp.Header.Get("Location"))
}

func TestSetup_Flow(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get("/app/setup")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "設定日記密碼")
	assert.NotEmpty(t, env.cookie("csrf_token"))

	resp, _ = env.postForm("/app/setup", url.Values{"password": {"a"}, "confirm": {"a"}, "csrf_token": {"forged"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.postForm("/app/setup", url.Values{"password": {"a"}, "confirm": {"b"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "不一致")

	resp, body = env.postForm("/app/setup", url.Values{"password": {""}, "confirm": {""}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "空白")

	env.setup()

	resp, body = env.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "日記列表")
	assert.Contains(t, body, "還沒有任何日記")
}

func TestSetup_UnreadableCredentialFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	// A directory in place of the password file makes every read fail.
	require.NoError(t, os.Mkdir(env.credentialPath, 0o700))

	for _, path := range []string{"/", "/app/setup", "/app/login"} {
		resp, _ := env.get(path)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
	}

	u, err := url.Parse(env.srv.URL)
	require.NoError(t, err)
	env.client.Jar.SetCookies(u, []*http.Cookie{{Name: "csrf_token", Value: "token", Path: "/"}})

	resp, _ := env.postForm("/app/setup", url.Values{"password": {"attacker"}, "confirm": {"attacker"}})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, env.cookie("diary_session"), "no session is issued")

	info, err := os.Stat(env.credentialPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "nothing was written over the credential store")
}

func TestLogin_WrongPasswordReprompts(t *testing.T) {
	env := newTestEnv(t)
	env.setup()

	resp, _ := env.postForm("/app/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = env.get("/")
	assert.Equal(t, "/app/login", resp.Header.Get("Location"))

	// Setup is closed to anonymous users once a password exists.
	resp, _ = env.get("/app/setup")
	assert.Equal(t, "/app/login", resp.Header.Get("Location"))

	resp, body := env.postForm("/app/login", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "密碼錯誤")

	resp, body = env.postForm("/app/login", url.Values{"password": {"wrong again"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "密碼錯誤")

	resp, _ = env.postForm("/app/login", url.Values{"password": {"secret"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, _ = env.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedPages_RedirectWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/app/calendar",
		"/app/entries/2024-03-01",
		"/app/entries/2024-03-01/export",
		"/app/attachments?ref=x",
	} {
		resp, _ := env.get(path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/app/login", resp.Header.Get("Location"), path)
	}
}

func TestEditor_NewEntryIsBlank(t *testing.T) {
	env := newTestEnv(t)
	env.setup()

	resp, body := env.get("/app/entries/2024-03-01")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "2024-03-01")
	assert.Contains(t, body, "background:#FFFFFF")
	assert.NotContains(t, body, "匯出")
	assert.NotContains(t, body, " selected")

	resp, _ = env.get("/app/entries/2024-13-01")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEditor_SaveWithImage(t *testing.T) {
	env := newTestEnv(t)
	env.setup()
	ctx := context.Background()

	resp, body := env.postMultipart("/app/entries/2024-03-01", map[string]string{
		"mood":    "great",
		"weather": "sunny",
		"content": "Went hiking\n\n**great** view",
	}, "trail.png", pngBytes(t))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "已儲存")
	assert.Contains(t, body, "<strong>great</strong>")
	assert.Contains(t, body, "background:#FFF8E1")
	assert.Contains(t, body, `value="great" selected`)
	assert.Contains(t, body, "format=txt")

	stored, err := env.store.Load(ctx, model.NewDate(2024, time.March, 1))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.MoodGreat, stored.Mood)
	assert.Equal(t, model.WeatherSunny, stored.Weather)
	require.NotEmpty(t, stored.ImagePath)

	resp, img := env.get("/app/attachments?ref=" + url.QueryEscape(stored.ImagePath))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, string(pngBytes(t)), img)

	// The home list follows the save.
	resp, body = env.get("/app/calendar?year=2024&month=3")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Went hiking")
	assert.Contains(t, body, "2024 年 3 月")
	assert.Contains(t, body, "/app/entries/2024-03-01")

	// Saving again without a file keeps the image; remove_image clears it.
	_, _ = env.postMultipart("/app/entries/2024-03-01", map[string]string{"content": "edited"}, "", nil)
	stored, err = env.store.Load(ctx, model.NewDate(2024, time.March, 1))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ImagePath)
	assert.False(t, stored.Mood.IsSet())

	_, _ = env.postMultipart("/app/entries/2024-03-01", map[string]string{"content": "edited", "remove_image": "1"}, "", nil)
	stored, err = env.store.Load(ctx, model.NewDate(2024, time.March, 1))
	require.NoError(t, err)
	assert.Empty(t, stored.ImagePath)
}

func TestEditor_FailedSaveRemovesUploadedImage(t *testing.T) {
	env := newTestEnv(t)
	env.setup()

	_, err := env.db.Writer.Exec(`CREATE TRIGGER reject_entries BEFORE INSERT ON diary_entries
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	require.NoError(t, err)

	resp, body := env.postMultipart("/app/entries/2024-03-01", map[string]string{"content": "lost"}, "cat.png", pngBytes(t))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "儲存失敗")

	files, err := os.ReadDir(env.imagesDir)
	require.NoError(t, err, "the upload ran before the save")
	assert.Empty(t, files)
}

func TestEditor_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	env.setup()

	resp, body := env.postMultipart("/app/entries/2024-03-01", map[string]string{"mood": "ecstatic"}, "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "ecstatic")

	resp, _ = env.postMultipart("/app/entries/2024-03-01", map[string]string{"content": "x"}, "notes.txt", []byte("plain"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	stored, err := env.store.Load(context.Background(), model.NewDate(2024, time.March, 1))
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestEditor_BackupFailureIsReported(t *testing.T) {
	env := newTestEnv(t, failingSink{})
	env.setup()

	resp, body := env.postMultipart("/app/entries/2024-03-01", map[string]string{"content": "kept"}, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "備份失敗")
	assert.Contains(t, body, "github")

	stored, err := env.store.Load(context.Background(), model.NewDate(2024, time.March, 1))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "kept", stored.Content)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	env.setup()

	resp, _ := env.get("/app/entries/2024-03-01/export?format=txt")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, _ = env.postMultipart("/app/entries/2024-03-01", map[string]string{"mood": "sad", "content": "rainy day"}, "", nil)

	resp, body := env.get("/app/entries/2024-03-01/export?format=txt")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=Diary_2024-03-01.txt", resp.Header.Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(body, model.DocumentTitle))
	assert.Contains(t, body, "rainy day")

	resp, _ = env.get("/app/entries/2024-03-01/export?format=docx")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// pdf is the default format but only txt is registered here.
	resp, _ = env.get("/app/entries/2024-03-01/export")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalendar_InvalidQuery(t *testing.T) {
	env := newTestEnv(t)
	env.setup()

	resp, _ := env.get("/app/calendar?year=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.get("/app/calendar?year=2024&month=13")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAttachment_UnknownRef(t *testing.T) {
	env := newTestEnv(t)
	env.setup()

	resp, _ := env.get("/app/attachments?ref=" + url.QueryEscape("/etc/passwd"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get("/static/diary.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".calendar")
}
